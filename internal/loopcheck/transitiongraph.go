package loopcheck

import (
	"fmt"

	"github.com/meridianiam/flowguard/internal/workflowmodel"
)

// QualifiedState is a tag and state rendered as "tag-state", disambiguating
// states that share a StateID across different tags.
type QualifiedState string

func qualify(tag workflowmodel.Tag, state workflowmodel.StateID) QualifiedState {
	return QualifiedState(fmt.Sprintf("%s-%s", tag, state))
}

// TransitionNode is a vertex of the second-order graph: one directed edge of
// a tag's state graph, identified by its qualified endpoints. Distinct
// transition records sharing (tag, from, to) collapse onto the same node —
// a deliberate quotient, since the checker reasons about state topology, not
// transition identity.
type TransitionNode struct {
	From, To QualifiedState
}

// TransitionGraph maps a transition node to the transition nodes it
// causally triggers. After construction, self-loops are scrubbed and every
// node that is neither a source nor a target of any edge has been dropped.
// A node with no outgoing edge of its own survives as a key, with a nil
// target list, if some other node's edge still points at it — it is a
// realizing transition, the terminus of a causal chain rather than dead
// weight.
type TransitionGraph map[TransitionNode][]TransitionNode

// buildTransitionGraph constructs the causal transition graph from a set of
// models. Edges come from post-action state changes (a transition forcing
// another object into a state some transition of its tag realizes) and
// front-condition dependencies (a transition requiring some predecessor
// transition into its from-state).
func buildTransitionGraph(models map[workflowmodel.Tag]workflowmodel.Model) TransitionGraph {
	states := buildStateGraph(models)
	rels := make(TransitionGraph)

	// Seed nodes: every transition is a vertex, even if it triggers nothing.
	for tag, model := range models {
		for _, t := range model.Transitions {
			node := TransitionNode{From: qualify(tag, t.From), To: qualify(tag, t.To)}
			if _, ok := rels[node]; !ok {
				rels[node] = nil
			}
		}
	}

	addPostActionEdges(models, states, rels)
	addFrontConditionEdges(models, states, rels)

	// Self-loop scrub: a transition triggering itself through these
	// derivations is an artefact, not a true cycle.
	for node, targets := range rels {
		rels[node] = removeSelf(targets, node)
	}

	// Drop nodes that are isolated: no outgoing edge of their own, and no
	// surviving node's edge targets them either. A sink that is still
	// referenced is the realizing transition of whatever caused it, and
	// enumerateChains needs it as a chain terminus to detect the revisit.
	referenced := referencedNodes(rels)
	for node, targets := range rels {
		if len(targets) == 0 && !referenced[node] {
			delete(rels, node)
		}
	}

	return rels
}

// referencedNodes returns the set of nodes that appear as the target of at
// least one edge in the graph.
func referencedNodes(rels TransitionGraph) map[TransitionNode]bool {
	referenced := make(map[TransitionNode]bool, len(rels))
	for _, targets := range rels {
		for _, t := range targets {
			referenced[t] = true
		}
	}
	return referenced
}

// addPostActionEdges adds, for every transition with a state-change
// post-action, an edge to each transition of the target tag that can
// realize the forced state change.
func addPostActionEdges(models map[workflowmodel.Tag]workflowmodel.Model, states StateGraph, rels TransitionGraph) {
	for tag, model := range models {
		for _, t := range model.Transitions {
			node := TransitionNode{From: qualify(tag, t.From), To: qualify(tag, t.To)}
			for _, action := range t.PostActions {
				targetTag := action.ResolveTag(tag)
				adj := states.adjacency(targetTag)

				if action.ObjectCurrentStates != nil {
					for _, cur := range action.ObjectCurrentStates {
						for _, to := range adj[cur] {
							if to == action.ChangedToState {
								rels[node] = append(rels[node], TransitionNode{
									From: qualify(targetTag, cur),
									To:   qualify(targetTag, to),
								})
							}
						}
					}
					continue
				}

				for from, tos := range adj {
					if contains(tos, action.ChangedToState) {
						rels[node] = append(rels[node], TransitionNode{
							From: qualify(targetTag, from),
							To:   qualify(targetTag, action.ChangedToState),
						})
					}
				}
			}
		}
	}
}

// addFrontConditionEdges adds, for every transition whose front conditions
// are non-empty, an edge from each predecessor transition ending in its
// from-state into this transition's node.
func addFrontConditionEdges(models map[workflowmodel.Tag]workflowmodel.Model, states StateGraph, rels TransitionGraph) {
	for tag, model := range models {
		for _, t := range model.Transitions {
			if len(t.FrontConditions) == 0 {
				continue
			}
			node := TransitionNode{From: qualify(tag, t.From), To: qualify(tag, t.To)}
			for from, tos := range states.adjacency(tag) {
				if !contains(tos, t.From) {
					continue
				}
				predecessor := TransitionNode{From: qualify(tag, from), To: qualify(tag, t.From)}
				rels[predecessor] = append(rels[predecessor], node)
			}
		}
	}
}

func removeSelf(targets []TransitionNode, self TransitionNode) []TransitionNode {
	if len(targets) == 0 {
		return targets
	}
	out := targets[:0]
	for _, t := range targets {
		if t != self {
			out = append(out, t)
		}
	}
	return out
}
