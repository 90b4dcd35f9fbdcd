// Package launcher detaches background workers and probes process liveness.
package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// WorkerCommand is the hidden subcommand the detached process runs.
const WorkerCommand = "worker"

// Launcher re-executes the current binary as a detached worker.
type Launcher struct {
	// Executable defaults to os.Executable().
	Executable string
	// ExtraArgs are placed before the worker subcommand, e.g. global flags.
	ExtraArgs []string
}

// New returns a launcher for the running binary.
func New() *Launcher {
	return &Launcher{}
}

// Args builds the worker command line for spec.
func Args(spec domain.WorkerSpec) []string {
	args := []string{
		WorkerCommand,
		"--run-id", spec.RunID,
		"--mode", string(spec.Mode),
		"--root", spec.Root,
		"--log", spec.LogPath,
	}
	if spec.Fix {
		args = append(args, "--fix")
	}
	args = append(args, "--")
	return append(args, spec.Files...)
}

// Launch starts the worker in a new session with its output appended to
// the run log, and returns without waiting for it.
func (l *Launcher) Launch(ctx context.Context, spec domain.WorkerSpec) (int, error) {
	exe := l.Executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return 0, fmt.Errorf("locating executable: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(spec.LogPath), 0o755); err != nil {
		return 0, fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return 0, fmt.Errorf("opening worker log: %w", err)
	}
	defer logFile.Close()

	args := append(append([]string{}, l.ExtraArgs...), Args(spec)...)
	// The worker must outlive ctx, so it is deliberately not tied to it.
	cmd := exec.Command(exe, args...)
	cmd.Dir = spec.Root
	cmd.Stdin = nil
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = append(os.Environ(), "GATEKEEP_WORKER_PARENT="+strconv.Itoa(os.Getpid()))
	detach(cmd)

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting worker: %w", err)
	}
	pid := cmd.Process.Pid
	// Reap the child if this process lives long enough to see it exit.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}
