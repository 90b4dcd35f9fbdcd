package domain

import (
	"errors"
	"fmt"
)

// Exit codes surfaced to the invoking caller.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitInternal = 2
)

var (
	// ErrToolUnavailable means no invocation strategy could be resolved.
	ErrToolUnavailable = errors.New("tool unavailable")
	// ErrCheckTimeout means an external invocation exceeded its budget.
	ErrCheckTimeout = errors.New("check timed out")
	// ErrCheckExecution means a nonzero exit or unparseable output.
	ErrCheckExecution = errors.New("check execution failed")
	// ErrPreviousFailure is the policy outcome of refusing to proceed past a
	// known-bad previous run.
	ErrPreviousFailure = errors.New("previous run failed")
	// ErrValidationFailed is returned by blocking runs that completed with
	// failures.
	ErrValidationFailed = errors.New("validation failed")
)

// OrchestrationError is fatal to the current invocation.
type OrchestrationError struct {
	Op  string
	Err error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("orchestration: %s: %v", e.Op, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// Orchestration wraps err as an OrchestrationError. A nil err stays nil.
func Orchestration(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OrchestrationError{Op: op, Err: err}
}

// ExitCode maps an invocation error to the caller-facing exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var oe *OrchestrationError
	switch {
	case errors.As(err, &oe):
		return ExitInternal
	case errors.Is(err, ErrPreviousFailure), errors.Is(err, ErrValidationFailed):
		return ExitFailure
	default:
		return ExitInternal
	}
}
