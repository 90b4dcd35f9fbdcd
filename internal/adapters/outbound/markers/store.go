// Package markers tracks active background workers, one file per run.
package markers

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gatekeep/gatekeep/internal/adapters/outbound/fsutil"
	"github.com/gatekeep/gatekeep/internal/domain"
)

const workersDir = "workers"

// Store is a file-based implementation of domain.MarkerStore.
type Store struct {
	dir string
}

// New creates a marker store under stateDir/workers.
func New(stateDir string) *Store {
	return &Store{dir: filepath.Join(stateDir, workersDir)}
}

// Write persists m, replacing any marker for the same run.
func (s *Store) Write(m domain.WorkerMarker) error {
	if m.RunID == "" {
		return fmt.Errorf("writing marker: run id is empty")
	}
	if err := fsutil.WriteJSON(s.path(m.RunID), m); err != nil {
		return fmt.Errorf("writing marker %s: %w", m.RunID, err)
	}
	return nil
}

// Delete removes the marker for runID. A missing marker is not an error.
func (s *Store) Delete(runID string) error {
	if err := fsutil.RemoveIfExists(s.path(runID)); err != nil {
		return fmt.Errorf("deleting marker %s: %w", runID, err)
	}
	return nil
}

// List returns every marker, oldest first. A corrupt marker is an error:
// liveness can not be judged without it.
func (s *Store) List() ([]domain.WorkerMarker, error) {
	ids, err := fsutil.ListJSON(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing markers: %w", err)
	}
	sort.Strings(ids)

	out := make([]domain.WorkerMarker, 0, len(ids))
	for _, id := range ids {
		var m domain.WorkerMarker
		found, err := fsutil.ReadJSON(s.path(id), &m)
		if err != nil {
			return nil, fmt.Errorf("reading marker %s: %w", id, err)
		}
		if !found {
			continue // removed by its owner since the listing
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *Store) path(runID string) string {
	return filepath.Join(s.dir, runID+".json")
}
