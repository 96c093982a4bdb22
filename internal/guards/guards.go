// Package guards implements flowguard's commit-time guardrail system.
//
// Guards are composable checks that run before a proposed transition set is
// persisted. Each guard returns a result with a severity level that
// determines how the system responds:
//
//   - HARD_BLOCK: Stops the commit. Caller cannot proceed.
//   - SOFT_BLOCK: Stops the commit by default but can be overridden with force=true.
//   - WARNING: The commit proceeds but includes an advisory message in the response.
//   - SUGGESTION: The commit proceeds with an optional recommendation.
//
// The Runner executes a fixed list of guards for a commit and aggregates
// results.
package guards

import (
	"context"
	"fmt"
	"strings"
)

// Severity indicates how a guard failure affects the commit.
type Severity int

const (
	// Suggestion is advisory — the commit proceeds, message included in response.
	Suggestion Severity = iota
	// Warning is advisory — the commit proceeds, message included in response.
	Warning
	// SoftBlock stops the commit unless force=true is provided.
	SoftBlock
	// HardBlock stops the commit unconditionally.
	HardBlock
)

func (s Severity) String() string {
	switch s {
	case Suggestion:
		return "SUGGESTION"
	case Warning:
		return "WARNING"
	case SoftBlock:
		return "SOFT_BLOCK"
	case HardBlock:
		return "HARD_BLOCK"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome of a single guard check.
type Result struct {
	// GuardName identifies which guard produced this result.
	GuardName string `json:"guard_name"`
	// Passed is true if the guard check passed (no issue found).
	Passed bool `json:"passed"`
	// Severity of the failure (only meaningful when Passed is false).
	Severity Severity `json:"severity"`
	// Message describes the issue or recommendation.
	Message string `json:"message"`
	// Remedy suggests how to resolve the issue.
	Remedy string `json:"remedy,omitempty"`
}

// Outcome is the aggregated result of running a guard set.
type Outcome struct {
	// Blocked is true if any HARD_BLOCK or non-forced SOFT_BLOCK fired.
	Blocked bool `json:"blocked"`
	// Results contains all guard check results (both passed and failed).
	Results []Result `json:"results"`
}

// HardBlocks returns all hard block results.
func (o *Outcome) HardBlocks() []Result {
	return o.filterSeverity(HardBlock)
}

// SoftBlocks returns all soft block results.
func (o *Outcome) SoftBlocks() []Result {
	return o.filterSeverity(SoftBlock)
}

// Warnings returns all warning results.
func (o *Outcome) Warnings() []Result {
	return o.filterSeverity(Warning)
}

// Suggestions returns all suggestion results.
func (o *Outcome) Suggestions() []Result {
	return o.filterSeverity(Suggestion)
}

func (o *Outcome) filterSeverity(sev Severity) []Result {
	var out []Result
	for _, r := range o.Results {
		if !r.Passed && r.Severity == sev {
			out = append(out, r)
		}
	}
	return out
}

// FormatBlockMessage returns a human-readable message describing why the
// commit was blocked, listing every hard block ahead of soft blocks.
func (o *Outcome) FormatBlockMessage() string {
	if !o.Blocked {
		return ""
	}

	softBlocks := o.SoftBlocks()

	var sb strings.Builder
	sb.WriteString("Commit blocked by guards:\n")
	writeBlockLines(&sb, "HARD_BLOCK", o.HardBlocks())
	writeBlockLines(&sb, "SOFT_BLOCK", softBlocks)

	if len(softBlocks) > 0 {
		sb.WriteString("\n\nUse force=true to override soft blocks.")
	}
	return sb.String()
}

func writeBlockLines(sb *strings.Builder, label string, results []Result) {
	for _, r := range results {
		fmt.Fprintf(sb, "\n[%s] %s: %s", label, r.GuardName, r.Message)
		if r.Remedy != "" {
			fmt.Fprintf(sb, "\n  Remedy: %s", r.Remedy)
		}
	}
}

// FormatAdvisoryMessage returns a human-readable message for warnings and
// suggestions, the guard results that never block a commit.
func (o *Outcome) FormatAdvisoryMessage() string {
	warnings := o.Warnings()
	suggestions := o.Suggestions()
	if len(warnings) == 0 && len(suggestions) == 0 {
		return ""
	}

	var sb strings.Builder
	writeAdvisoryLines(&sb, "Warnings", warnings)
	writeAdvisoryLines(&sb, "Suggestions", suggestions)
	return sb.String()
}

func writeAdvisoryLines(sb *strings.Builder, heading string, results []Result) {
	if len(results) == 0 {
		return
	}
	sb.WriteString(heading)
	sb.WriteString(":\n")
	for _, r := range results {
		fmt.Fprintf(sb, "  - %s: %s", r.GuardName, r.Message)
		if r.Remedy != "" {
			fmt.Fprintf(sb, " (%s)", r.Remedy)
		}
		sb.WriteString("\n")
	}
}

// Guard is a single check that can be composed into a guard set.
type Guard interface {
	// Name returns a short identifier for this guard.
	Name() string
	// Check evaluates the guard against the given context.
	// Returns a Result with Passed=true if the check passes.
	Check(ctx context.Context, gctx *GuardContext) Result
}

// GuardContext carries all the data guards need to decide on a commit. It is
// populated by the caller (the workflow_commit tool) before the runner
// executes.
type GuardContext struct {
	// ModelSetID identifies the model set being committed.
	ModelSetID string
	// Force allows overriding soft blocks.
	Force bool

	// LoopCheckPassed is the loop checker's verdict on the proposed
	// transitions merged into the current model set.
	LoopCheckPassed bool
	// TagCount is the number of tags in the proposed model set.
	TagCount int
	// TransitionCount is the total number of transitions across all tags.
	TransitionCount int
	// AddedTransitionCount is how many transitions this commit adds relative
	// to the currently stored model set.
	AddedTransitionCount int
	// UnreachableStateCount is the number of states with no inbound
	// transition other than the model's initial state.
	UnreachableStateCount int
}

// GuardFunc is a function-based guard for simple checks.
type GuardFunc struct {
	name  string
	check func(ctx context.Context, gctx *GuardContext) Result
}

// NewGuardFunc creates a guard from a function.
func NewGuardFunc(name string, fn func(ctx context.Context, gctx *GuardContext) Result) *GuardFunc {
	return &GuardFunc{name: name, check: fn}
}

func (g *GuardFunc) Name() string { return g.name }
func (g *GuardFunc) Check(ctx context.Context, gctx *GuardContext) Result {
	return g.check(ctx, gctx)
}

// Pass returns a passing result for the given guard name.
func Pass(guardName string) Result {
	return Result{GuardName: guardName, Passed: true}
}

// Fail returns a failing result with the given severity and message.
func Fail(guardName string, severity Severity, message, remedy string) Result {
	return Result{
		GuardName: guardName,
		Passed:    false,
		Severity:  severity,
		Message:   message,
		Remedy:    remedy,
	}
}

// Runner executes a set of guards and aggregates results.
type Runner struct{}

// NewRunner creates a guard runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the given guards against the context and returns an aggregated outcome.
func (r *Runner) Run(ctx context.Context, gctx *GuardContext, guards []Guard) *Outcome {
	outcome := &Outcome{}

	for _, g := range guards {
		result := g.Check(ctx, gctx)
		outcome.Results = append(outcome.Results, result)

		if !result.Passed {
			switch result.Severity {
			case HardBlock:
				outcome.Blocked = true
			case SoftBlock:
				if !gctx.Force {
					outcome.Blocked = true
				}
			}
		}
	}

	return outcome
}
