// Package loopcheck decides whether a set of workflow models, composed
// through cross-tag post-action causality, admits an unbounded state cycle.
//
// The check is a pure, synchronous, three-stage pipeline: a per-tag state
// graph, a second-order transition graph encoding causal triggers between
// transitions, and a loop detector that walks causal chains while tracking
// per-object state trajectories.
package loopcheck

import "github.com/meridianiam/flowguard/internal/workflowmodel"

// StateGraph maps, per tag, a from-state to the list of to-states reachable
// in one step under that tag's transitions. Multiplicity is preserved: a
// from-state with two transitions to the same to-state appears twice. This
// is harmless because every consumer only tests membership.
type StateGraph map[workflowmodel.Tag]map[workflowmodel.StateID][]workflowmodel.StateID

// buildStateGraph constructs the per-tag state graph from a set of models.
// An absent (tag, from) pair is equivalent to an empty adjacency list.
func buildStateGraph(models map[workflowmodel.Tag]workflowmodel.Model) StateGraph {
	graph := make(StateGraph, len(models))
	for tag, model := range models {
		adj := graph[tag]
		if adj == nil {
			adj = make(map[workflowmodel.StateID][]workflowmodel.StateID)
			graph[tag] = adj
		}
		for _, t := range model.Transitions {
			adj[t.From] = append(adj[t.From], t.To)
		}
	}
	return graph
}

// adjacency returns the from-state adjacency for a tag, or nil if the tag is
// unknown. Unknown tags (e.g. a dangling reference from a post-action)
// resolve to an empty map rather than faulting.
func (g StateGraph) adjacency(tag workflowmodel.Tag) map[workflowmodel.StateID][]workflowmodel.StateID {
	return g[tag]
}

func contains(states []workflowmodel.StateID, s workflowmodel.StateID) bool {
	for _, x := range states {
		if x == s {
			return true
		}
	}
	return false
}
