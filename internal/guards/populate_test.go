package guards

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianiam/flowguard/internal/workflowmodel"
)

func TestPopulateModelSetState_CountsAndDelta(t *testing.T) {
	current := map[workflowmodel.Tag]workflowmodel.Model{
		"req": {
			Tag:          "req",
			InitialState: "draft",
			Transitions: []workflowmodel.Transition{
				{Tag: "req", From: "draft", To: "submitted"},
			},
		},
	}
	proposed := map[workflowmodel.Tag]workflowmodel.Model{
		"req": {
			Tag:          "req",
			InitialState: "draft",
			Transitions: []workflowmodel.Transition{
				{Tag: "req", From: "draft", To: "submitted"},
				{Tag: "req", From: "submitted", To: "approved"},
				{Tag: "req", From: "submitted", To: "rejected"},
			},
		},
	}

	gctx := &GuardContext{}
	PopulateModelSetState(current, proposed, gctx)

	assert.Equal(t, 1, gctx.TagCount)
	assert.Equal(t, 3, gctx.TransitionCount)
	assert.Equal(t, 2, gctx.AddedTransitionCount)
}

func TestPopulateModelSetState_NoNegativeDeltaWhenShrinking(t *testing.T) {
	current := map[workflowmodel.Tag]workflowmodel.Model{
		"req": {
			Tag: "req",
			Transitions: []workflowmodel.Transition{
				{Tag: "req", From: "a", To: "b"},
				{Tag: "req", From: "b", To: "c"},
			},
		},
	}
	proposed := map[workflowmodel.Tag]workflowmodel.Model{
		"req": {
			Tag: "req",
			Transitions: []workflowmodel.Transition{
				{Tag: "req", From: "a", To: "b"},
			},
		},
	}

	gctx := &GuardContext{}
	PopulateModelSetState(current, proposed, gctx)

	assert.Equal(t, 0, gctx.AddedTransitionCount)
}

func TestPopulateModelSetState_UnreachableStateDetected(t *testing.T) {
	proposed := map[workflowmodel.Tag]workflowmodel.Model{
		"req": {
			Tag:          "req",
			InitialState: "draft",
			Transitions: []workflowmodel.Transition{
				{Tag: "req", From: "draft", To: "submitted"},
				{Tag: "req", From: "orphaned", To: "submitted"},
			},
		},
	}

	gctx := &GuardContext{}
	PopulateModelSetState(nil, proposed, gctx)

	assert.Equal(t, 1, gctx.UnreachableStateCount, "orphaned is a From endpoint never reached as a To")
}

func TestPopulateModelSetState_EmptyModelSet(t *testing.T) {
	gctx := &GuardContext{}
	PopulateModelSetState(nil, nil, gctx)

	assert.Equal(t, 0, gctx.TagCount)
	assert.Equal(t, 0, gctx.TransitionCount)
	assert.Equal(t, 0, gctx.AddedTransitionCount)
	assert.Equal(t, 0, gctx.UnreachableStateCount)
}
