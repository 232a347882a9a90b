package scraper

import (
	"sync"
	"time"
)

// Run states reported by the /scrape/status endpoint.
const (
	StateInProgress = "in_progress"
	StateReady      = "ready"
)

// Status is a point-in-time snapshot of the crawl run state, shaped for
// the /scrape/status endpoint.
type Status struct {
	Status        string     `json:"status"`
	LastUpdated   *time.Time `json:"lastUpdated"`
	DataAvailable bool       `json:"dataAvailable"`
}

// InProgress reports whether the snapshot was taken while a run was
// active.
func (s Status) InProgress() bool {
	return s.Status == StateInProgress
}

// RunState tracks whether a crawl is in flight and what the last run
// produced. It is the only shared mutable state in the crawl path; a
// process restart clears it.
type RunState struct {
	mu            sync.Mutex
	running       bool
	lastRun       time.Time
	dataAvailable bool
}

// NewRunState creates an idle run state.
func NewRunState() *RunState {
	return &RunState{}
}

// TryStart transitions into "running" if no run is in flight. It
// returns false when a run is already active; callers must reject, not
// queue, the duplicate trigger.
func (s *RunState) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Finish clears the running flag and records the run outcome.
func (s *RunState) Finish(produced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastRun = time.Now()
	if produced {
		s.dataAvailable = true
	}
}

// Running reports whether a run is in flight.
func (s *RunState) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Snapshot returns the current status.
func (s *RunState) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Status:        StateReady,
		DataAvailable: s.dataAvailable,
	}
	if s.running {
		st.Status = StateInProgress
	}
	if !s.lastRun.IsZero() {
		t := s.lastRun
		st.LastUpdated = &t
	}
	return st
}
