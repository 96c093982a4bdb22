package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/meridianiam/flowguard/internal/mcp"
	"github.com/meridianiam/flowguard/internal/store"
)

// getParams defines the input for workflow_get.
type getParams struct {
	ModelSetID string `json:"model_set_id"`
}

// Get fetches a stored model set and returns it as JSON.
type Get struct {
	factory *store.ClientFactory
}

// NewGet creates a Get tool.
func NewGet(factory *store.ClientFactory) *Get {
	return &Get{factory: factory}
}

func (t *Get) Name() string { return "workflow_get" }

func (t *Get) Description() string {
	return "Fetch a stored workflow model set by ID and return it as JSON."
}

func (t *Get) InputSchema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "model_set_id": {
      "type": "string",
      "description": "ID of the model set to fetch"
    }
  },
  "required": ["model_set_id"]
}`)
}

func (t *Get) Execute(ctx context.Context, params json.RawMessage) (*mcp.ToolsCallResult, error) {
	var p getParams
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

	set, err := client.GetModelSet(ctx, p.ModelSetID)
	if err != nil {
		return nil, fmt.Errorf("fetching model set %s: %w", p.ModelSetID, err)
	}

	var buf bytes.Buffer
	if err := store.EncodeModelSet(&buf, set); err != nil {
		return nil, fmt.Errorf("encoding model set %s: %w", p.ModelSetID, err)
	}
	return &mcp.ToolsCallResult{Content: []mcp.ContentBlock{mcp.TextContent(buf.String())}}, nil
}
