package loopcheck

import "github.com/meridianiam/flowguard/internal/workflowmodel"

// stateChain is a per-object history of qualified states maintained while
// scanning a single trans-chain. current is always its last element.
type stateChain struct {
	history []QualifiedState
	current QualifiedState
}

// hasLoop interprets a trans-chain as a narrative of how objects moved
// through states and reports whether any single object's trajectory
// re-enters a state it has already visited.
//
// A node-level revisit in the transition graph is not by itself a sound
// cycle indicator: two independent objects can pass through structurally
// identical transitions. A true unbounded loop requires that a single
// object's state trajectory — grouped by current-state continuity — re-enter
// a previously visited state along this causally-linked chain.
func hasLoop(chain transChain) bool {
	var chains []*stateChain

	for _, node := range chain {
		var matched *stateChain
		for _, sc := range chains {
			if sc.current == node.From {
				matched = sc
				break
			}
		}

		if matched == nil {
			chains = append(chains, &stateChain{
				history: []QualifiedState{node.From, node.To},
				current: node.To,
			})
			continue
		}

		for _, seen := range matched.history {
			if seen == node.To {
				return true
			}
		}
		matched.history = append(matched.history, node.To)
		matched.current = node.To
	}

	return false
}

// checkStateLoop enumerates every trans-chain of the pruned graph and tests
// each for a per-object state-trajectory cycle.
func checkStateLoop(graph TransitionGraph) bool {
	for _, chain := range enumerateChains(graph) {
		if hasLoop(chain) {
			return false
		}
	}
	return true
}

// Check is the sole entry point of the loop checker. It returns true iff no
// infinite loop is detected across the composed system of reachable
// transitions for the given model set — false iff one is.
//
// The function is total, pure, and reentrant: dangling tag/state references
// in post-actions silently resolve to empty adjacency rather than faulting,
// and an empty model set yields true.
func Check(models map[workflowmodel.Tag]workflowmodel.Model) bool {
	graph := buildTransitionGraph(models)
	prune(graph)
	return checkStateLoop(graph)
}
