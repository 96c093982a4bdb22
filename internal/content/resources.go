// Package content holds the static reference material flowguard exposes as
// MCP resources and prompts.
package content

import "github.com/meridianiam/flowguard/internal/mcp"

// --- flowguard://model-schema resource ---

// ModelSchemaResource documents the workflow model set JSON shape that
// workflow_commit, workflow_check, and workflow_get exchange, and the loop
// checker's algorithm at a level a caller needs to reason about its own
// transition design.
type ModelSchemaResource struct{}

func (r *ModelSchemaResource) Definition() mcp.ResourceDefinition {
	return mcp.ResourceDefinition{
		URI:         "flowguard://model-schema",
		Name:        "Workflow Model Schema",
		Description: "Reference for the tag/state/transition JSON shape flowguard's tools exchange, and how the loop checker interprets post-actions and front-conditions",
		MimeType:    "text/markdown",
	}
}

func (r *ModelSchemaResource) Read() (*mcp.ResourcesReadResult, error) {
	return &mcp.ResourcesReadResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      "flowguard://model-schema",
				MimeType: "text/markdown",
				Text:     modelSchemaContent,
			},
		},
	}, nil
}

const modelSchemaContent = `# Workflow Model Schema

A **model set** is a map from tag name to that tag's model:

` + "```json" + `
{
  "id": "access-request",
  "version": 3,
  "models": {
    "req": {
      "initial_state": "draft",
      "transitions": [
        {
          "from": "draft",
          "to": "submitted",
          "post_actions": [
            {
              "object_tag_ref_kind": "default",
              "object_tag": "task",
              "changed_to_state": "in_review"
            }
          ],
          "front_conditions": [{"expr": "approver_assigned"}]
        }
      ]
    }
  }
}
` + "```" + `

## Post-actions

A post-action fires when its owning transition fires. ` + "`object_tag_ref_kind`" + `
is either ` + "`\"default\"`" + ` (use ` + "`object_tag`" + `) or ` + "`\"parent_or_sub\"`" + `
(resolve to the tag that owns the firing transition). ` + "`changed_to_state`" + `
is the state the target object is forced into. ` + "`object_current_states`" + `,
when present, narrows which current state(s) of the target object this
applies to; omit it to mean "any current state".

## Front-conditions

A transition with one or more front-conditions is treated by the loop checker
as requiring some predecessor transition, of the same tag, ending in this
transition's ` + "`from`" + ` state. Only presence is consulted — the content of
` + "`expr`" + ` is carried through for future validators but is not interpreted by
the loop checker itself.

## What the loop checker decides

Given a model set, ` + "`workflow_check`" + ` and ` + "`workflow_commit`" + ` answer one
question: does the composed system of transitions, including cross-tag
causality from post-actions and front-conditions, admit an unbounded state
cycle? A cycle exists when some object's trajectory through qualified states
(tag + state) can re-enter a state it has already visited, following a chain
of transitions that are causally linked to one another. An empty model set,
and a model set with no post-actions or front-conditions at all (however many
primitive back-edges it has), always passes.
`
