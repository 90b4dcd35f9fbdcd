package domain

import "time"

// CheckState is the lifecycle state of a single check within a run.
type CheckState string

const (
	StatePending CheckState = "pending"
	StateRunning CheckState = "running"
	StateSuccess CheckState = "success"
	StateFailed  CheckState = "failed"
	StateSkipped CheckState = "skipped"
)

// IsTerminal reports whether no further transitions can happen.
func (s CheckState) IsTerminal() bool {
	return s == StateSuccess || s == StateFailed || s == StateSkipped
}

// SkipReason explains why a check was skipped.
type SkipReason string

const (
	SkipUnavailable SkipReason = "unavailable"
	SkipNoFiles     SkipReason = "no-files"
	SkipStopped     SkipReason = "stopped"
	SkipInterrupted SkipReason = "interrupted"
)

// StrategyKind names how a check was actually invoked.
type StrategyKind string

const (
	StrategyBundled   StrategyKind = "bundled"
	StrategyLocal     StrategyKind = "local"
	StrategyContainer StrategyKind = "container"
)

// CheckResult is the outcome of one check. Only the worker executing the
// check mutates it.
type CheckResult struct {
	Name           string       `json:"name"`
	Tier           int          `json:"tier"`
	State          CheckState   `json:"state"`
	StartedAt      time.Time    `json:"started_at,omitempty"`
	EndedAt        time.Time    `json:"ended_at,omitempty"`
	Errors         int          `json:"errors"`
	Warnings       int          `json:"warnings"`
	FilesProcessed int          `json:"files_processed"`
	ExitCode       int          `json:"exit_code"`
	TimedOut       bool         `json:"timed_out,omitempty"`
	SkipReason     SkipReason   `json:"skip_reason,omitempty"`
	Strategy       StrategyKind `json:"strategy,omitempty"`
	Fixed          bool         `json:"fixed,omitempty"`
	Error          string       `json:"error,omitempty"`
	Output         string       `json:"output,omitempty"`
}

// Duration returns the wall-clock time the check spent running.
func (r CheckResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// Outcome is a display label distinguishing timeouts from other failures.
func (r CheckResult) Outcome() string {
	switch {
	case r.State == StateFailed && r.TimedOut:
		return "timeout"
	case r.State == StateSkipped && r.SkipReason != "":
		return "skipped (" + string(r.SkipReason) + ")"
	default:
		return string(r.State)
	}
}
