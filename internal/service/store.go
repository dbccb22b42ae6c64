package service

import (
	"sync"

	"github.com/timmy/tubescribe/internal/domain"
)

// JobStateStore holds the process-wide scrape job state: at most one
// in-flight descriptor and the last completed outcome. All mutation
// goes through TryAdmit and Complete, which are atomic with respect to
// each other and to the read operations.
type JobStateStore struct {
	mu          sync.Mutex
	inFlight    *domain.JobDescriptor
	lastOutcome *domain.JobOutcome
}

// NewJobStateStore creates an empty store.
func NewJobStateStore() *JobStateStore {
	return &JobStateStore{}
}

// TryAdmit installs desc as the in-flight job if none is running.
// Returns false, leaving the store unchanged, when a job is already in
// flight. Safe under concurrent calls from request handlers.
func (s *JobStateStore) TryAdmit(desc domain.JobDescriptor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight != nil {
		return false
	}
	d := desc
	s.inFlight = &d
	return true
}

// Complete clears the in-flight descriptor and atomically replaces the
// last outcome. Only the admitted runner calls this, exactly once per
// job, on every exit path.
func (s *JobStateStore) Complete(outcome *domain.JobOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = nil
	s.lastOutcome = outcome
}

// StatusView is a point-in-time read of the store.
type StatusView struct {
	Status     domain.JobStatus
	CurrentJob *domain.JobDescriptor
}

// Status reports the current job (nil when idle) and the effective
// status: running while a job is in flight, otherwise the last
// outcome's terminal status, or empty when nothing has run yet.
func (s *JobStateStore) Status() StatusView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := StatusView{}
	if s.inFlight != nil {
		d := *s.inFlight
		view.CurrentJob = &d
		view.Status = domain.JobStatusRunning
		return view
	}
	if s.lastOutcome != nil {
		view.Status = s.lastOutcome.Status
	}
	return view
}

// Result returns a snapshot of the last outcome, or nil when no job
// has completed. Later completions never mutate a returned snapshot.
func (s *JobStateStore) Result() *domain.JobOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastOutcome == nil {
		return nil
	}
	return copyOutcome(s.lastOutcome)
}

func copyOutcome(o *domain.JobOutcome) *domain.JobOutcome {
	snapshot := *o
	if o.Items != nil {
		snapshot.Items = make([]domain.RecordView, len(o.Items))
		copy(snapshot.Items, o.Items)
	}
	if o.Diagnostic != nil {
		d := *o.Diagnostic
		snapshot.Diagnostic = &d
	}
	return &snapshot
}
