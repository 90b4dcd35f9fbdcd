package domain

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunStatus tracks where a run is in its lifecycle.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
)

// runIDLayout keeps run ids lexically sortable by start time.
const runIDLayout = "20060102T150405.000000000Z"

// RunRecord is the persisted aggregate outcome of one invocation.
type RunRecord struct {
	ID                 string        `json:"id"`
	Mode               Mode          `json:"mode"`
	Status             RunStatus     `json:"status"`
	StartedAt          time.Time     `json:"started_at"`
	CompletedAt        time.Time     `json:"completed_at,omitempty"`
	Files              []string      `json:"files"`
	Checks             []string      `json:"checks"`
	Results            []CheckResult `json:"results"`
	Success            bool          `json:"success"`
	Errors             int           `json:"errors"`
	Warnings           int           `json:"warnings"`
	OwnerPID           int           `json:"owner_pid"`
	ExitCode           int           `json:"exit_code"`
	OrchestrationError string        `json:"orchestration_error,omitempty"`
	LogPath            string        `json:"log_path,omitempty"`
}

// NewRunID returns a unique, timestamp-derived run identifier.
func NewRunID(now time.Time) string {
	return now.UTC().Format(runIDLayout) + "-" + uuid.NewString()[:8]
}

// NewRunRecord creates a running record owned by pid.
func NewRunRecord(id string, mode Mode, files []string, pid int, now time.Time) *RunRecord {
	return &RunRecord{
		ID:        id,
		Mode:      mode,
		Status:    RunRunning,
		StartedAt: now,
		Files:     NormalizeFiles(files),
		OwnerPID:  pid,
	}
}

// IsFinal reports whether the record will not be written again.
func (r *RunRecord) IsFinal() bool {
	return r.Status == RunCompleted || r.Status == RunInterrupted
}

// Finalize folds check results into the aggregate fields. Only failed
// checks (timeouts included) contribute to the error total.
func (r *RunRecord) Finalize(results []CheckResult, interrupted bool, now time.Time) {
	r.Results = results
	r.Checks = r.Checks[:0]
	r.Errors, r.Warnings = 0, 0
	for _, res := range results {
		r.Checks = append(r.Checks, res.Name)
		if res.State == StateFailed {
			r.Errors += res.Errors
		}
		r.Warnings += res.Warnings
	}

	r.CompletedAt = now
	r.Status = RunCompleted
	if interrupted {
		r.Status = RunInterrupted
	}
	r.Success = r.Errors == 0 && r.OrchestrationError == "" && !interrupted
	r.ExitCode = ExitOK
	if !r.Success {
		r.ExitCode = ExitFailure
	}
	if r.OrchestrationError != "" {
		r.ExitCode = ExitInternal
	}
}

// FailedChecks lists the names of checks that failed in this run.
func (r *RunRecord) FailedChecks() []string {
	var out []string
	for _, res := range r.Results {
		if res.State == StateFailed {
			out = append(out, res.Name)
		}
	}
	return out
}

// Result returns the result for a check by name.
func (r *RunRecord) Result(name string) (CheckResult, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return CheckResult{}, false
}

// WorkerMarker records a currently active orchestrator process.
type WorkerMarker struct {
	PID       int       `json:"pid"`
	RunID     string    `json:"run_id"`
	Files     []string  `json:"files"`
	StartedAt time.Time `json:"started_at"`
	Mode      Mode      `json:"mode"`
	LogPath   string    `json:"log_path,omitempty"`
}

// Overlaps reports whether this marker's file set intersects files. An empty
// set stands for the whole project and overlaps everything.
func (m WorkerMarker) Overlaps(files []string) bool {
	return FileSetsOverlap(m.Files, files)
}

// FileSetsOverlap reports whether two normalized file sets share a path.
func FileSetsOverlap(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	seen := make(map[string]bool, len(a))
	for _, f := range a {
		seen[normalizePath(f)] = true
	}
	for _, f := range b {
		if seen[normalizePath(f)] {
			return true
		}
	}
	return false
}

// NormalizeFiles cleans, de-duplicates and sorts a file list.
func NormalizeFiles(files []string) []string {
	if len(files) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(files))
	out := make([]string, 0, len(files))
	for _, f := range files {
		n := normalizePath(f)
		if n == "" || n == "." || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalizePath(f string) string {
	f = strings.TrimSpace(f)
	if f == "" {
		return ""
	}
	return filepath.ToSlash(filepath.Clean(f))
}

// Acceptance is what the non-blocking path returns once a worker owns the
// run. Duplicate means an overlapping worker was already active and its run
// id is reported instead of starting a new one.
type Acceptance struct {
	RunID     string `json:"run_id"`
	PID       int    `json:"pid"`
	Duplicate bool   `json:"duplicate,omitempty"`
	LogPath   string `json:"log_path,omitempty"`
}
