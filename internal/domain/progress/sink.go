// Package progress aggregates live check-state transitions published by
// concurrent check workers and hands consistent snapshots to renderers.
package progress

import (
	"sync"
	"time"

	"github.com/gatekeep/gatekeep/internal/domain"
)

// Event is one state transition of one check.
type Event struct {
	Check  string             `json:"check"`
	Tier   int                `json:"tier"`
	From   domain.CheckState  `json:"from"`
	To     domain.CheckState  `json:"to"`
	At     time.Time          `json:"at"`
	Result domain.CheckResult `json:"result"`
}

// Snapshot is a consistent view of all tracked checks.
type Snapshot struct {
	Results []domain.CheckResult
	Counts  map[domain.CheckState]int
	Done    int
	Total   int
}

// Sink is safe for concurrent use. A nil *Sink discards everything.
type Sink struct {
	mu          sync.Mutex
	current     map[string]domain.CheckResult
	order       []string
	events      []Event
	subscribers []func(Event)
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{current: make(map[string]domain.CheckResult)}
}

// Subscribe registers fn to receive every future event. fn runs while the
// sink lock is held, so it sees events in publication order and must not
// call back into the sink.
func (s *Sink) Subscribe(fn func(Event)) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Publish records r as the latest state of its check.
func (s *Sink) Publish(r domain.CheckResult) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, known := s.current[r.Name]
	if !known {
		s.order = append(s.order, r.Name)
	}
	s.current[r.Name] = r

	ev := Event{
		Check:  r.Name,
		Tier:   r.Tier,
		From:   prev.State,
		To:     r.State,
		At:     time.Now(),
		Result: r,
	}
	s.events = append(s.events, ev)
	for _, fn := range s.subscribers {
		fn(ev)
	}
}

// Snapshot returns the current state of every check seen so far, in order
// of first publication.
func (s *Sink) Snapshot() Snapshot {
	snap := Snapshot{Counts: make(map[domain.CheckState]int)}
	if s == nil {
		return snap
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Results = make([]domain.CheckResult, 0, len(s.order))
	for _, name := range s.order {
		r := s.current[name]
		snap.Results = append(snap.Results, r)
		snap.Counts[r.State]++
		if r.State.IsTerminal() {
			snap.Done++
		}
	}
	snap.Total = len(s.order)
	return snap
}

// Events returns a copy of every transition published so far.
func (s *Sink) Events() []Event {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
