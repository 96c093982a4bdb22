package guards

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_HardBlockCannotBeForced(t *testing.T) {
	gctx := &GuardContext{Force: true, LoopCheckPassed: false, TagCount: 1}
	outcome := NewRunner().Run(context.Background(), gctx, CommitGuards())

	assert.True(t, outcome.Blocked)
	require.Len(t, outcome.HardBlocks(), 1)
	assert.Equal(t, "no_loop_detected", outcome.HardBlocks()[0].GuardName)
}

func TestRunner_SoftBlockIsOverriddenByForce(t *testing.T) {
	gctx := &GuardContext{Force: true, LoopCheckPassed: true, TagCount: 0}
	outcome := NewRunner().Run(context.Background(), gctx, CommitGuards())

	assert.False(t, outcome.Blocked)
	require.Len(t, outcome.SoftBlocks(), 1)
	assert.Equal(t, "empty_model_set", outcome.SoftBlocks()[0].GuardName)
}

func TestRunner_SoftBlockWithoutForceBlocks(t *testing.T) {
	gctx := &GuardContext{Force: false, LoopCheckPassed: true, TagCount: 0}
	outcome := NewRunner().Run(context.Background(), gctx, CommitGuards())

	assert.True(t, outcome.Blocked)
}

func TestRunner_WarningsAndSuggestionsNeverBlock(t *testing.T) {
	gctx := &GuardContext{
		LoopCheckPassed:       true,
		TagCount:              1,
		UnreachableStateCount: 3,
		AddedTransitionCount:  100,
	}
	outcome := NewRunner().Run(context.Background(), gctx, CommitGuards())

	assert.False(t, outcome.Blocked)
	assert.NotEmpty(t, outcome.Warnings())
	assert.NotEmpty(t, outcome.Suggestions())
	assert.Contains(t, outcome.FormatAdvisoryMessage(), "unreachable_state_warning")
	assert.Contains(t, outcome.FormatAdvisoryMessage(), "large_commit_review")
}

func TestOutcome_FormatBlockMessageEmptyWhenNotBlocked(t *testing.T) {
	outcome := &Outcome{}
	assert.Empty(t, outcome.FormatBlockMessage())
}

func TestOutcome_FormatBlockMessageIncludesRemedy(t *testing.T) {
	gctx := &GuardContext{LoopCheckPassed: false}
	outcome := NewRunner().Run(context.Background(), gctx, []Guard{NoLoopDetected})

	msg := outcome.FormatBlockMessage()
	assert.Contains(t, msg, "HARD_BLOCK")
	assert.Contains(t, msg, "no_loop_detected")
	assert.Contains(t, msg, "Remedy:")
}
