package domain

import (
	"context"
	"time"
)

// RunStore persists RunRecords and the "most recent" pointer.
type RunStore interface {
	// Save atomically writes r and advances the pointer when r is at least
	// as recent as the current target.
	Save(r *RunRecord) error
	// Load returns (nil, nil) when the record does not exist.
	Load(id string) (*RunRecord, error)
	// Latest returns (nil, nil) when no run has been recorded.
	Latest() (*RunRecord, error)
	// LatestWhere returns the newest record accepted by match, or (nil, nil).
	// It stops reading at the first match.
	LatestWhere(match func(*RunRecord) bool) (*RunRecord, error)
	// List returns up to limit records, newest first. limit <= 0 means all.
	List(limit int) ([]*RunRecord, error)
	// Prune removes records completed before cutoff, never the pointer target.
	Prune(cutoff time.Time) (int, error)
	// LogPath returns the plain-text log location for a run.
	LogPath(id string) string
}

// MarkerStore persists WorkerMarkers, one file per run.
type MarkerStore interface {
	Write(m WorkerMarker) error
	Delete(runID string) error
	List() ([]WorkerMarker, error)
}

// ProcessProbe reports whether a process identity is still alive.
type ProcessProbe interface {
	Alive(pid int) bool
}

// WorkerSpec is everything a detached background worker receives at startup.
type WorkerSpec struct {
	RunID   string   `json:"run_id"`
	Mode    Mode     `json:"mode"`
	Files   []string `json:"files"`
	Root    string   `json:"root"`
	LogPath string   `json:"log_path"`
	Fix     bool     `json:"fix,omitempty"`
}

// WorkerLauncher starts an independent background worker process.
type WorkerLauncher interface {
	Launch(ctx context.Context, spec WorkerSpec) (pid int, err error)
}

// Invocation is a concrete way to run one check's tool.
type Invocation struct {
	Strategy StrategyKind `json:"strategy"`
	Path     string       `json:"path"`
	Prefix   []string     `json:"prefix,omitempty"`
}

// Argv returns the full command line for args.
func (i Invocation) Argv(args []string) []string {
	argv := make([]string, 0, 1+len(i.Prefix)+len(args))
	argv = append(argv, i.Path)
	argv = append(argv, i.Prefix...)
	return append(argv, args...)
}

// ToolResolver chooses an Invocation for a check.
type ToolResolver interface {
	// Resolve returns ErrToolUnavailable when no strategy applies.
	Resolve(d CheckDescriptor) (Invocation, error)
}

// ExecOutput is the raw outcome of one external invocation.
type ExecOutput struct {
	ExitCode int
	Output   []byte
}

// Executor runs an external invocation. It returns an error wrapping
// ErrCheckTimeout when ctx expires, and ErrCheckExecution when the process
// could not be started.
type Executor interface {
	Execute(ctx context.Context, inv Invocation, args []string, dir string) (ExecOutput, error)
}

// Prompter asks the human at the terminal for confirmation.
type Prompter interface {
	Interactive() bool
	Confirm(question string) (bool, error)
}

// FileSource computes the target file set for an invocation.
type FileSource interface {
	// StagedFiles returns files staged for commit in the repository at root.
	StagedFiles(root string) ([]string, error)
}
