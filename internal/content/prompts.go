// Package content provides MCP prompts and resources for the flowguard server.
package content

import "github.com/meridianiam/flowguard/internal/mcp"

// --- design-transitions prompt ---

// DesignTransitionsPrompt walks a caller through proposing a new tag's
// transitions (or extending an existing tag) without introducing an
// unbounded state cycle.
type DesignTransitionsPrompt struct{}

func (p *DesignTransitionsPrompt) Definition() mcp.PromptDefinition {
	return mcp.PromptDefinition{
		Name:        "design-transitions",
		Description: "Guide for proposing a tag's transitions so that workflow_check is likely to pass before you call workflow_commit.",
		Arguments:   []mcp.PromptArgument{},
	}
}

func (p *DesignTransitionsPrompt) Get(arguments map[string]string) (*mcp.PromptsGetResult, error) {
	return &mcp.PromptsGetResult{
		Description: "Guide for designing loop-free workflow transitions",
		Messages: []mcp.PromptMessage{
			{
				Role:    "user",
				Content: mcp.TextContent(designTransitionsGuide),
			},
		},
	}, nil
}

const designTransitionsGuide = `# Design Workflow Transitions

You are helping a user add or change transitions for one or more tags in a
flowguard model set, ahead of calling workflow_commit.

## Step 1: Enumerate the states

List every state the tag can be in and its initial state. A transition is
just an edge from one state to another; draw them out before worrying about
post-actions.

## Step 2: Identify cross-tag causality

Two kinds of edges create causality between tags, which is what the loop
checker actually reasons about:

- **Post-actions**: a transition on tag A that forces an object of tag B into
  a state. This is a direct A-to-B causal edge.
- **Front-conditions**: a transition that requires some prior transition of
  the same tag to have fired. This links the transition to its own
  predecessors within the tag.

A transition with neither triggers nothing on its own, so a set of such
transitions can go back and forth freely without forming a cycle. It still
takes part in a cycle when another transition's post-action forces the state
it realizes, or when a front-condition names it as a predecessor.

## Step 3: Look for the cycle shape before you commit

An unbounded cycle needs: an object whose sequence of states, through the
edges above, returns to a state it has already occupied, via transitions
that are mutually reachable from one another. The common real mistake is a
closed causal loop across two or three tags — A's completion state sets B to
"pending", B's completion sets C to "pending", and C's completion sets A
back to its own starting state, with front-conditions chaining the three
transitions together. That shape always fails.

If you're not sure, call workflow_check with your draft transitions inline
before calling workflow_commit — it runs the identical checker without
touching storage.

## Step 4: Commit

Call workflow_commit with the model_set_id and the per-tag transitions you
want merged in. Read the model-schema resource for the exact JSON shape. A
hard-block means the loop checker rejected the merged set outright; force
only overrides soft-block review guards, never the loop check itself.
`
