package guards

import "github.com/meridianiam/flowguard/internal/workflowmodel"

// PopulateModelSetState fills the GuardContext with structural facts about a
// proposed model set: tag/transition counts, how many transitions this
// commit adds relative to current, and how many states are unreachable
// except as a model's initial state. The loop checker's verdict is set
// separately by the caller, since it requires running loopcheck.Check.
func PopulateModelSetState(current, proposed map[workflowmodel.Tag]workflowmodel.Model, gctx *GuardContext) {
	gctx.TagCount = len(proposed)

	currentCount := countTransitions(current)
	proposedCount := countTransitions(proposed)
	gctx.TransitionCount = proposedCount
	if proposedCount > currentCount {
		gctx.AddedTransitionCount = proposedCount - currentCount
	}

	gctx.UnreachableStateCount = countUnreachableStates(proposed)
}

func countTransitions(models map[workflowmodel.Tag]workflowmodel.Model) int {
	n := 0
	for _, m := range models {
		n += len(m.Transitions)
	}
	return n
}

// countUnreachableStates counts, per tag, states that appear as a From or To
// endpoint but are never the To of any transition other than being the
// model's declared InitialState.
func countUnreachableStates(models map[workflowmodel.Tag]workflowmodel.Model) int {
	total := 0
	for _, m := range models {
		seen := map[workflowmodel.StateID]bool{}
		reached := map[workflowmodel.StateID]bool{}
		for _, t := range m.Transitions {
			seen[t.From] = true
			seen[t.To] = true
			reached[t.To] = true
		}
		for state := range seen {
			if state == m.InitialState {
				continue
			}
			if !reached[state] {
				total++
			}
		}
	}
	return total
}
