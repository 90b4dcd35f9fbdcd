// Package runstore persists run records under the project state directory.
package runstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/fsutil"
	"github.com/gatekeep/gatekeep/internal/domain"
)

const (
	runsDir     = "runs"
	logsDir     = "logs"
	metricsDir  = "metrics"
	pointerFile = "latest.json"
	pointerLock = "latest.lock"
)

type pointer struct {
	ID string `json:"id"`
}

// Store implements domain.RunStore with one JSON file per run plus a
// "latest" pointer file.
type Store struct {
	dir string
	// mu orders pointer updates made by this process; other processes are
	// excluded by an advisory lock on latest.lock.
	mu sync.Mutex
}

// New creates a store rooted at dir, typically <project>/.gatekeep.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the state directory.
func (s *Store) Dir() string { return s.dir }

// Save writes r and advances the pointer if r is at least as recent as the
// record it currently names.
func (s *Store) Save(r *domain.RunRecord) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("saving run: record has no id")
	}
	if err := fsutil.WriteJSON(s.runPath(r.ID), r); err != nil {
		return fmt.Errorf("saving run %s: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockPointer()
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.pointerID()
	if err != nil {
		return fmt.Errorf("reading latest pointer: %w", err)
	}
	if r.ID < current {
		return nil
	}
	if err := fsutil.WriteJSON(filepath.Join(s.dir, pointerFile), pointer{ID: r.ID}); err != nil {
		return fmt.Errorf("updating latest pointer: %w", err)
	}
	return nil
}

// Load reads a run by id. Returns (nil, nil) if it does not exist.
func (s *Store) Load(id string) (*domain.RunRecord, error) {
	var r domain.RunRecord
	found, err := fsutil.ReadJSON(s.runPath(id), &r)
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	return &r, nil
}

// Latest returns the pointer target. When the pointer is missing or dangling
// it falls back to the newest record on disk.
func (s *Store) Latest() (*domain.RunRecord, error) {
	id, err := s.pointerID()
	if err != nil {
		return nil, fmt.Errorf("reading latest pointer: %w", err)
	}
	if id != "" {
		r, err := s.Load(id)
		if err != nil || r != nil {
			return r, err
		}
	}
	runs, err := s.List(1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// LatestWhere returns the newest record accepted by match, or nil. Records
// are loaded one at a time, newest first, and the walk stops at the first
// match.
func (s *Store) LatestWhere(match func(*domain.RunRecord) bool) (*domain.RunRecord, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		r, err := s.Load(id)
		if err != nil || r == nil {
			continue
		}
		if match(r) {
			return r, nil
		}
	}
	return nil, nil
}

// List returns up to limit records, newest first. Unreadable records are
// skipped so one corrupt file does not hide the rest of the history.
func (s *Store) List(limit int) ([]*domain.RunRecord, error) {
	ids, err := s.ids()
	if err != nil {
		return nil, err
	}
	var out []*domain.RunRecord
	for _, id := range ids {
		if limit > 0 && len(out) >= limit {
			break
		}
		r, err := s.Load(id)
		if err != nil || r == nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Prune deletes final records completed before cutoff together with their
// logs and metrics. The pointer target and running records are kept.
func (s *Store) Prune(cutoff time.Time) (int, error) {
	keep, err := s.pointerID()
	if err != nil {
		return 0, fmt.Errorf("reading latest pointer: %w", err)
	}
	ids, err := s.ids()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if id == keep {
			continue
		}
		r, err := s.Load(id)
		if err != nil || r == nil {
			continue
		}
		if !r.IsFinal() || !r.CompletedAt.Before(cutoff) {
			continue
		}
		for _, p := range []string{s.runPath(id), s.LogPath(id), s.MetricsPath(id)} {
			if err := fsutil.RemoveIfExists(p); err != nil {
				return removed, fmt.Errorf("pruning run %s: %w", id, err)
			}
		}
		removed++
	}
	return removed, nil
}

// LogPath returns the plain-text log location for a run.
func (s *Store) LogPath(id string) string {
	return filepath.Join(s.dir, logsDir, id+".log")
}

// MetricsPath returns the metrics textfile location for a run.
func (s *Store) MetricsPath(id string) string {
	return filepath.Join(s.dir, metricsDir, id+".prom")
}

func (s *Store) runPath(id string) string {
	return filepath.Join(s.dir, runsDir, id+".json")
}

// lockPointer takes the exclusive lock guarding the pointer read-compare-write
// against other processes sharing the state directory.
func (s *Store) lockPointer() (unlock func(), err error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(s.dir, pointerLock), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening pointer lock: %w", err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("locking latest pointer: %w", err)
	}
	return func() {
		_ = unlockFile(f)
		_ = f.Close()
	}, nil
}

func (s *Store) pointerID() (string, error) {
	var p pointer
	if _, err := fsutil.ReadJSON(filepath.Join(s.dir, pointerFile), &p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// ids lists stored run ids newest first. Ids sort by start time.
func (s *Store) ids() ([]string, error) {
	ids, err := fsutil.ListJSON(filepath.Join(s.dir, runsDir))
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}
