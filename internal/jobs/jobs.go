// Package jobs tracks ingestion progress for UX feedback. Active jobs live
// in a map until terminal or cleaned up; terminal jobs move into a
// fixed-capacity ring buffer consumed for aggregate metrics.
package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateCancelled  State = "cancelled"
)

func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Job is one ingestion's progress record.
type Job struct {
	ID          string
	DocumentID  string
	State       State
	Progress    int // 0-100, non-decreasing while processing
	Message     string
	Error       string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

const DefaultHistorySize = 100

// Store holds active jobs and a bounded history of terminal ones. It is
// constructed once at process start and passed by dependency injection.
type Store struct {
	mu         sync.Mutex
	active     map[string]*Job
	history    []*Job
	historyCap int
	next       int
}

func NewStore(historySize int) *Store {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Store{
		active:     make(map[string]*Job),
		history:    make([]*Job, 0, historySize),
		historyCap: historySize,
	}
}

// Create registers a new pending job for a document ingestion.
func (s *Store) Create(documentID string) *Job {
	job := &Job{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		State:      StatePending,
		CreatedAt:  time.Now(),
	}
	s.mu.Lock()
	s.active[job.ID] = job
	s.mu.Unlock()
	return s.snapshot(job)
}

// Start moves a pending job to processing.
func (s *Store) Start(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.active[id]
	if !ok || job.State != StatePending {
		return
	}
	job.State = StateProcessing
	job.Progress = 0
}

// SetProgress updates a processing job. Progress is clamped to 0-100 and
// never decreases.
func (s *Store) SetProgress(id string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.active[id]
	if !ok || job.State != StateProcessing {
		return
	}
	if progress > 100 {
		progress = 100
	}
	if progress > job.Progress {
		job.Progress = progress
	}
	job.Message = message
}

// Complete finishes a job successfully.
func (s *Store) Complete(id string) {
	s.finish(id, StateCompleted, "")
}

// Fail finishes a job with an error string.
func (s *Store) Fail(id, errMsg string) {
	s.finish(id, StateFailed, errMsg)
}

// Cancel finishes a job as cancelled.
func (s *Store) Cancel(id string) {
	s.finish(id, StateCancelled, "")
}

// finish moves a job to a terminal state exactly once and evicts it from the
// active map into the history ring.
func (s *Store) finish(id string, state State, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.active[id]
	if !ok || job.State.Terminal() {
		return
	}
	job.State = state
	job.Error = errMsg
	if state == StateCompleted {
		job.Progress = 100
	}
	now := time.Now()
	job.CompletedAt = &now
	delete(s.active, id)

	if len(s.history) < s.historyCap {
		s.history = append(s.history, job)
		return
	}
	// ring is full, overwrite the oldest slot
	s.history[s.next] = job
	s.next = (s.next + 1) % s.historyCap
}

// Get returns a copy of a job by id, active or historical.
func (s *Store) Get(id string) (*Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.active[id]; ok {
		return s.snapshot(job), true
	}
	for _, job := range s.history {
		if job.ID == id {
			return s.snapshot(job), true
		}
	}
	return nil, false
}

// Cleanup removes active jobs created before the retention window and
// returns how many were removed.
func (s *Store) Cleanup(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, job := range s.active {
		if job.CreatedAt.Before(cutoff) {
			delete(s.active, id)
			removed++
		}
	}
	return removed
}

// Metrics is an aggregate snapshot over active and historical jobs.
type Metrics struct {
	Active      int
	Completed   int
	Failed      int
	Cancelled   int
	AvgDuration time.Duration
}

func (s *Store) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := Metrics{Active: len(s.active)}
	var total time.Duration
	completed := 0
	for _, job := range s.history {
		switch job.State {
		case StateCompleted:
			m.Completed++
			if job.CompletedAt != nil {
				total += job.CompletedAt.Sub(job.CreatedAt)
				completed++
			}
		case StateFailed:
			m.Failed++
		case StateCancelled:
			m.Cancelled++
		}
	}
	if completed > 0 {
		m.AvgDuration = total / time.Duration(completed)
	}
	return m
}

func (s *Store) snapshot(job *Job) *Job {
	cp := *job
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
