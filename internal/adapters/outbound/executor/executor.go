// Package executor runs check tools as child processes.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// defaultWaitDelay bounds how long Wait lingers on pipes held open by
// grandchildren after the process group was killed.
const defaultWaitDelay = 2 * time.Second

// Executor implements domain.Executor with os/exec.
type Executor struct {
	Env       []string
	WaitDelay time.Duration
}

// New returns an executor inheriting the parent environment.
func New() *Executor {
	return &Executor{WaitDelay: defaultWaitDelay}
}

// Execute runs inv with args in dir and captures combined output. A
// non-zero exit status is reported through ExecOutput, not as an error.
func (e *Executor) Execute(ctx context.Context, inv domain.Invocation, args []string, dir string) (domain.ExecOutput, error) {
	argv := inv.Argv(args)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(e.Env) > 0 {
		cmd.Env = e.Env
	}
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	killGroupOnCancel(cmd)
	cmd.WaitDelay = e.WaitDelay

	err := cmd.Run()
	out := domain.ExecOutput{Output: buf.Bytes()}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return out, fmt.Errorf("%s: %w", argv[0], domain.ErrCheckTimeout)
	case ctx.Err() != nil:
		return out, ctx.Err()
	case err == nil:
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out, nil
	}
	return out, fmt.Errorf("%s: %w: %v", argv[0], domain.ErrCheckExecution, err)
}
