package loopcheck

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianiam/flowguard/internal/workflowmodel"
)

const (
	tagReq  workflowmodel.Tag = "req"
	tagTask workflowmodel.Tag = "task"

	stateA workflowmodel.StateID = "A"
	stateB workflowmodel.StateID = "B"
	stateC workflowmodel.StateID = "C"
	stateX workflowmodel.StateID = "X"
	stateY workflowmodel.StateID = "Y"
)

func model(tag workflowmodel.Tag, transitions ...workflowmodel.Transition) workflowmodel.Model {
	for i := range transitions {
		transitions[i].Tag = tag
	}
	return workflowmodel.Model{Tag: tag, Transitions: transitions}
}

func postAction(tag workflowmodel.Tag, to workflowmodel.StateID) workflowmodel.PostAction {
	return workflowmodel.PostAction{ObjectTagRefKind: workflowmodel.TagRefDefault, ObjectTag: tag, ChangedToState: to}
}

func TestCheck_EmptyModelSet(t *testing.T) {
	assert.True(t, Check(map[workflowmodel.Tag]workflowmodel.Model{}))
}

func TestCheck_NoPostActionsOrFrontConditions(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{From: stateA, To: stateB},
			workflowmodel.Transition{From: stateB, To: stateA},
			workflowmodel.Transition{From: stateB, To: stateC},
		),
	}
	assert.True(t, Check(models))
}

// Scenario A — linear, no loop.
func TestCheck_ScenarioA_Linear(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{From: stateA, To: stateB},
			workflowmodel.Transition{From: stateB, To: stateC},
		),
	}
	assert.True(t, Check(models))
}

// Scenario B — self-cycle in the primitive state graph, no causal chain.
func TestCheck_ScenarioB_PrimitiveCycleNoCausality(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{From: stateA, To: stateB},
			workflowmodel.Transition{From: stateB, To: stateA},
		),
	}
	assert.True(t, Check(models))
}

// Scenario C — a post-action forces a revisit on the same object.
func TestCheck_ScenarioC_PostActionForcesRevisit(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{
				From: stateA, To: stateB,
				PostActions: []workflowmodel.PostAction{postAction(tagReq, stateA)},
			},
			workflowmodel.Transition{From: stateB, To: stateA},
		),
	}
	assert.False(t, Check(models))
}

// Scenario D — cross-tag forcing without a cycle.
func TestCheck_ScenarioD_CrossTagNoCycle(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{
				From: stateA, To: stateB,
				PostActions: []workflowmodel.PostAction{postAction(tagTask, stateY)},
			},
		),
		tagTask: model(tagTask,
			workflowmodel.Transition{From: stateX, To: stateY},
		),
	}
	assert.True(t, Check(models))
}

// Scenario E — cross-tag forcing with a cycle. req's A->B forces task into Y
// (realized by task's X->Y), and task's X->Y in turn forces req back into A
// (realized by req's B->A) — the same shape as Scenario C, but split across
// two tags with each also carrying a plain return transition.
func TestCheck_ScenarioE_CrossTagCycle(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{
				From: stateA, To: stateB,
				PostActions: []workflowmodel.PostAction{postAction(tagTask, stateY)},
			},
			workflowmodel.Transition{From: stateB, To: stateA},
		),
		tagTask: model(tagTask,
			workflowmodel.Transition{
				From: stateX, To: stateY,
				PostActions: []workflowmodel.PostAction{postAction(tagReq, stateA)},
			},
			workflowmodel.Transition{From: stateY, To: stateX},
		),
	}
	assert.False(t, Check(models))
}

// Scenario F — front-condition dependency, linear, no back-edge.
func TestCheck_ScenarioF_FrontConditionLinear(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{From: stateA, To: stateB},
			workflowmodel.Transition{
				From: stateB, To: stateC,
				FrontConditions: []workflowmodel.FrontCondition{{Expr: "predecessor required"}},
			},
		),
	}
	assert.True(t, Check(models))
}

// Property: duplicate transitions (same tag/from/to) do not change the verdict.
func TestCheck_DuplicateTransitionsNoChange(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{
				From: stateA, To: stateB,
				PostActions: []workflowmodel.PostAction{postAction(tagReq, stateA)},
			},
			workflowmodel.Transition{
				From: stateA, To: stateB,
				PostActions: []workflowmodel.PostAction{postAction(tagReq, stateA)},
			},
			workflowmodel.Transition{From: stateB, To: stateA},
			workflowmodel.Transition{From: stateB, To: stateA},
		),
	}
	assert.False(t, Check(models))
}

// Property: adding an unreachable tag (no action references it) does not
// change the verdict.
func TestCheck_UnreachableTagNoChange(t *testing.T) {
	base := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{From: stateA, To: stateB},
			workflowmodel.Transition{From: stateB, To: stateC},
		),
	}
	withExtra := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: base[tagReq],
		tagTask: model(tagTask,
			workflowmodel.Transition{From: stateX, To: stateY},
		),
	}
	require.Equal(t, Check(base), Check(withExtra))
}

// Property: the verdict is insensitive to the iteration order of the input
// mapping and of each model's transition list.
func TestCheck_OrderInsensitive(t *testing.T) {
	reqTransitions := []workflowmodel.Transition{
		{Tag: tagReq, From: stateA, To: stateB, PostActions: []workflowmodel.PostAction{postAction(tagTask, stateY)}},
		{Tag: tagReq, From: stateB, To: stateA},
	}
	taskTransitions := []workflowmodel.Transition{
		{Tag: tagTask, From: stateX, To: stateY, PostActions: []workflowmodel.PostAction{postAction(tagReq, stateA)}},
		{Tag: tagTask, From: stateY, To: stateX},
	}

	want := Check(map[workflowmodel.Tag]workflowmodel.Model{
		tagReq:  {Tag: tagReq, Transitions: reqTransitions},
		tagTask: {Tag: tagTask, Transitions: taskTransitions},
	})
	require.False(t, want)

	for i := 0; i < 5; i++ {
		shuffledReq := append([]workflowmodel.Transition{}, reqTransitions...)
		shuffledTask := append([]workflowmodel.Transition{}, taskTransitions...)
		rng := rand.New(rand.NewSource(int64(i)))
		rng.Shuffle(len(shuffledReq), func(a, b int) { shuffledReq[a], shuffledReq[b] = shuffledReq[b], shuffledReq[a] })
		rng.Shuffle(len(shuffledTask), func(a, b int) { shuffledTask[a], shuffledTask[b] = shuffledTask[b], shuffledTask[a] })

		got := Check(map[workflowmodel.Tag]workflowmodel.Model{
			tagTask: {Tag: tagTask, Transitions: shuffledTask},
			tagReq:  {Tag: tagReq, Transitions: shuffledReq},
		})
		assert.Equal(t, want, got, "iteration %d", i)
	}
}

// A constrained ObjectCurrentStates narrows which current states a
// post-action's forced change applies to.
func TestCheck_ConstrainedCurrentStatesOnlyTriggersMatchingPredecessor(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{
				From: stateA, To: stateB,
				PostActions: []workflowmodel.PostAction{{
					ObjectTagRefKind:    workflowmodel.TagRefDefault,
					ObjectTag:           tagReq,
					ChangedToState:      stateA,
					ObjectCurrentStates: []workflowmodel.StateID{stateC},
				}},
			},
			workflowmodel.Transition{From: stateB, To: stateA},
			workflowmodel.Transition{From: stateC, To: stateA},
		),
	}
	// The post-action is constrained to current state C, whose transition to
	// A is realized by (C -> A), not (B -> A), so B -> A is never triggered
	// and no loop is reachable through causality.
	assert.True(t, Check(models))
}

// ParentOrSub resolves to the owning tag, not a literal tag reference.
func TestCheck_ParentOrSubResolvesToOwner(t *testing.T) {
	models := map[workflowmodel.Tag]workflowmodel.Model{
		tagReq: model(tagReq,
			workflowmodel.Transition{
				From: stateA, To: stateB,
				PostActions: []workflowmodel.PostAction{{
					ObjectTagRefKind: workflowmodel.TagRefParentOrSub,
					ChangedToState:   stateA,
				}},
			},
			workflowmodel.Transition{From: stateB, To: stateA},
		),
	}
	assert.False(t, Check(models))
}
