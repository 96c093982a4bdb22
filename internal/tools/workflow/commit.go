// Package workflow implements flowguard's workflow tools: workflow_commit,
// workflow_check, and workflow_get.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridianiam/flowguard/internal/guards"
	"github.com/meridianiam/flowguard/internal/loopcheck"
	"github.com/meridianiam/flowguard/internal/mcp"
	"github.com/meridianiam/flowguard/internal/store"
	"github.com/meridianiam/flowguard/internal/workflowmodel"
)

// commitParams defines the input for workflow_commit.
type commitParams struct {
	ModelSetID  string                            `json:"model_set_id"`
	Transitions map[string][]wireTransitionParam  `json:"transitions"`
	Force       bool                              `json:"force,omitempty"`
}

// wireTransitionParam is the caller-facing transition shape for tool calls;
// it mirrors store's wire types but stays local since tool schemas are a
// stable external contract independent of the store package's internal wire
// format.
type wireTransitionParam struct {
	From            string                    `json:"from"`
	To              string                    `json:"to"`
	PostActions     []wirePostActionParam     `json:"post_actions,omitempty"`
	FrontConditions []wireFrontConditionParam `json:"front_conditions,omitempty"`
}

type wireFrontConditionParam struct {
	Expr string `json:"expr"`
}

type wirePostActionParam struct {
	ObjectTagRefKind    string   `json:"object_tag_ref_kind"`
	ObjectTag           string   `json:"object_tag,omitempty"`
	ChangedToState      string   `json:"changed_to_state"`
	ObjectCurrentStates []string `json:"object_current_states,omitempty"`
}

// Commit fetches a stored model set, merges the caller's proposed
// transitions into it, runs the loop checker and guards, and — only on a
// passing verdict — persists the result.
type Commit struct {
	factory *store.ClientFactory
	runner  *guards.Runner
}

// NewCommit creates a Commit tool.
func NewCommit(factory *store.ClientFactory) *Commit {
	return &Commit{
		factory: factory,
		runner:  guards.NewRunner(),
	}
}

func (t *Commit) Name() string { return "workflow_commit" }

func (t *Commit) Description() string {
	return "Merge proposed per-tag transitions into a stored workflow model set, run the loop checker and commit guards, and persist only if no unbounded state cycle is detected. Use force=true to override soft-block guards."
}

func (t *Commit) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "model_set_id": {
      "type": "string",
      "description": "ID of the stored model set to commit against"
    },
    "transitions": {
      "type": "object",
      "description": "Per-tag transitions to merge into the current model set, replacing that tag's transitions entirely",
      "additionalProperties": {
        "type": "array",
        "items": {"type": "object"}
      }
    },
    "force": {
      "type": "boolean",
      "description": "Override soft-block guards. Never overrides the hard-block loop-check guard. Default: false"
    }
  },
  "required": ["model_set_id", "transitions"]
}`)
}

func (t *Commit) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p commitParams
	if err := json.Unmarshal(params, &p); err != nil {
		return mcp.ErrorResult(fmt.Sprintf("invalid parameters: %v", err)), nil
	}
	if p.ModelSetID == "" {
		return mcp.ErrorResult("model_set_id is required"), nil
	}

	client, err := t.factory.ClientFor(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	current, err := client.GetModelSet(ctx, p.ModelSetID)
	if err != nil {
		return nil, fmt.Errorf("fetching model set %s: %w", p.ModelSetID, err)
	}

	proposed := mergeTransitions(current.Models, p.Transitions)

	gctx := &guards.GuardContext{
		ModelSetID:      p.ModelSetID,
		Force:           p.Force,
		LoopCheckPassed: loopcheck.Check(proposed),
	}
	guards.PopulateModelSetState(current.Models, proposed, gctx)

	outcome := t.runner.Run(ctx, gctx, guards.CommitGuards())
	if outcome.Blocked {
		return mcp.ErrorResult(outcome.FormatBlockMessage()), nil
	}

	next := store.ModelSet{ID: current.ID, Version: current.Version + 1, Models: proposed}
	if err := client.PutModelSet(ctx, next); err != nil {
		return nil, fmt.Errorf("persisting model set %s: %w", p.ModelSetID, err)
	}

	result := map[string]any{
		"commit_id":    uuid.NewString(),
		"model_set_id": p.ModelSetID,
		"version":      next.Version,
		"loop_check":   gctx.LoopCheckPassed,
		"message":      fmt.Sprintf("committed model set %q at version %d", p.ModelSetID, next.Version),
	}
	if advisory := outcome.FormatAdvisoryMessage(); advisory != "" {
		result["advisories"] = advisory
	}

	return mcp.JSONResult(result)
}

// mergeTransitions overlays proposed per-tag transitions onto the current
// model set, replacing a tag's transitions wholesale when the caller
// supplies any for that tag and leaving other tags untouched.
func mergeTransitions(current map[workflowmodel.Tag]workflowmodel.Model, proposed map[string][]wireTransitionParam) map[workflowmodel.Tag]workflowmodel.Model {
	merged := make(map[workflowmodel.Tag]workflowmodel.Model, len(current)+len(proposed))
	for tag, model := range current {
		merged[tag] = model
	}

	for tagStr, transitions := range proposed {
		tag := workflowmodel.Tag(tagStr)
		converted := make([]workflowmodel.Transition, 0, len(transitions))
		for _, wt := range transitions {
			converted = append(converted, toWorkflowTransition(tag, wt))
		}
		existing := merged[tag]
		existing.Tag = tag
		existing.Transitions = converted
		merged[tag] = existing
	}

	return merged
}

func toWorkflowTransition(tag workflowmodel.Tag, wt wireTransitionParam) workflowmodel.Transition {
	t := workflowmodel.Transition{
		Tag:  tag,
		From: workflowmodel.StateID(wt.From),
		To:   workflowmodel.StateID(wt.To),
	}
	for _, fc := range wt.FrontConditions {
		t.FrontConditions = append(t.FrontConditions, workflowmodel.FrontCondition{Expr: fc.Expr})
	}
	for _, pa := range wt.PostActions {
		kind := workflowmodel.TagRefDefault
		if pa.ObjectTagRefKind == "parent_or_sub" {
			kind = workflowmodel.TagRefParentOrSub
		}
		var states []workflowmodel.StateID
		for _, s := range pa.ObjectCurrentStates {
			states = append(states, workflowmodel.StateID(s))
		}
		t.PostActions = append(t.PostActions, workflowmodel.PostAction{
			ObjectTagRefKind:    kind,
			ObjectTag:           workflowmodel.Tag(pa.ObjectTag),
			ChangedToState:      workflowmodel.StateID(pa.ChangedToState),
			ObjectCurrentStates: states,
		})
	}
	return t
}
