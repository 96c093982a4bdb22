package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meridianiam/flowguard/internal/loopcheck"
	"github.com/meridianiam/flowguard/internal/mcp"
	"github.com/meridianiam/flowguard/internal/store"
	"github.com/meridianiam/flowguard/internal/workflowmodel"
)

// checkParams defines the input for workflow_check. At least one of
// ModelSetID or Transitions must be set: ModelSetID dry-runs the currently
// stored model set, with any Transitions replacing those tags' transitions;
// Transitions alone dry-runs an inline model set without touching storage at
// all.
type checkParams struct {
	ModelSetID  string                          `json:"model_set_id,omitempty"`
	Transitions map[string][]wireTransitionParam `json:"transitions,omitempty"`
}

// Check runs the loop checker over a model set — stored or inline — without
// persisting anything.
type Check struct {
	factory *store.ClientFactory
}

// NewCheck creates a Check tool.
func NewCheck(factory *store.ClientFactory) *Check {
	return &Check{factory: factory}
}

func (t *Check) Name() string { return "workflow_check" }

func (t *Check) Description() string {
	return "Dry-run the loop checker over a model set. Pass model_set_id to check the currently stored model set, or transitions to check an inline set without touching storage."
}

func (t *Check) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "model_set_id": {
      "type": "string",
      "description": "ID of a stored model set to check"
    },
    "transitions": {
      "type": "object",
      "description": "Inline per-tag transitions to check instead of a stored model set",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "object"}
      }
    }
  }
}`)
}

func (t *Check) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p checkParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	var models map[workflowmodel.Tag]workflowmodel.Model

	switch {
	case p.ModelSetID != "":
		client, err := t.factory.ClientFor(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating client: %w", err)
		}
		set, err := client.GetModelSet(ctx, p.ModelSetID)
		if err != nil {
			return nil, fmt.Errorf("fetching model set %s: %w", p.ModelSetID, err)
		}
		models = mergeTransitions(set.Models, p.Transitions)
	case len(p.Transitions) > 0:
		models = mergeTransitions(nil, p.Transitions)
	default:
		return mcp.ErrorResult("one of model_set_id or transitions is required"), nil
	}

	passed := loopcheck.Check(models)

	return mcp.JSONResult(map[string]any{
		"loop_check": passed,
		"message":    checkMessage(passed),
	})
}

func checkMessage(passed bool) string {
	if passed {
		return "no unbounded state cycle detected"
	}
	return "an unbounded state cycle was detected across the composed transitions"
}
