package guards

import (
	"context"
	"fmt"
)

// --- Commit Guards ---
// These guards run before a proposed transition set is persisted by
// workflow_commit.

// NoLoopDetected is the guard wrapping the loop checker's verdict. It is a
// HARD_BLOCK — a model set that admits an unbounded state cycle must never be
// persisted, force or no force.
var NoLoopDetected = NewGuardFunc("no_loop_detected", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.LoopCheckPassed {
		return Pass("no_loop_detected")
	}
	return Fail("no_loop_detected", HardBlock,
		"The proposed transitions admit an unbounded state cycle: some object's trajectory can re-enter a state it has already visited via a chain of causally-linked transitions across tags.",
		"Break the cycle by removing or re-scoping one of the post-actions or front-conditions that link the transitions involved, then retry.",
	)
})

// LargeCommitReview flags commits that add a large number of transitions at
// once. This is a SUGGESTION — large commits are not wrong, but are worth a
// second look.
var LargeCommitReview = NewGuardFunc("large_commit_review", func(_ context.Context, gctx *GuardContext) Result {
	const threshold = 25
	if gctx.AddedTransitionCount <= threshold {
		return Pass("large_commit_review")
	}
	return Fail("large_commit_review", Suggestion,
		fmt.Sprintf("This commit adds %d transitions in one call, more than the usual review threshold of %d.", gctx.AddedTransitionCount, threshold),
		"Consider splitting the model set into smaller, independently reviewable commits.",
	)
})

// UnreachableStateWarning flags states that no transition (other than the
// model's initial state) ever enters. This is a WARNING — not a correctness
// issue for loop checking, but usually a sign of a dangling or typo'd state
// reference.
var UnreachableStateWarning = NewGuardFunc("unreachable_state_warning", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.UnreachableStateCount == 0 {
		return Pass("unreachable_state_warning")
	}
	return Fail("unreachable_state_warning", Warning,
		fmt.Sprintf("%d state(s) in this model set have no inbound transition besides being a model's initial state.", gctx.UnreachableStateCount),
		"Double check for typo'd StateIDs, or confirm the state is intentionally only ever entered as an initial state.",
	)
})

// EmptyModelSetSoftBlock flags a commit that would leave the model set with
// no tags at all. This is a SOFT_BLOCK — an empty model set is a valid input
// to the loop checker (verdict true), but committing one is almost always a
// mistake rather than an intentional empty state machine.
var EmptyModelSetSoftBlock = NewGuardFunc("empty_model_set", func(_ context.Context, gctx *GuardContext) Result {
	if gctx.TagCount > 0 {
		return Pass("empty_model_set")
	}
	return Fail("empty_model_set", SoftBlock,
		"This commit would leave the model set with no tags and no transitions.",
		"Confirm this is intentional, or use force=true to commit an empty model set anyway.",
	)
})

// --- Guard Sets ---

// CommitGuards returns the guards that run before workflow_commit persists a
// proposed model set.
func CommitGuards() []Guard {
	return []Guard{
		NoLoopDetected,
		EmptyModelSetSoftBlock,
		UnreachableStateWarning,
		LargeCommitReview,
	}
}
