package model

import "sync"

// JobStatus tracks one async capture job.
type JobStatus struct {
	JobID         string            `json:"jobId"`
	Status        string            `json:"status"` // "queued", "processing", "completed", "failed"
	CorrelationID string            `json:"correlationId,omitempty"`
	Erro          string            `json:"erro,omitempty"`
	Resultado     *ResultadoCaptura `json:"resultado,omitempty"`
}

// JobStatusStore is an in-memory store for async capture job statuses.
type JobStatusStore struct {
	mu   sync.RWMutex
	jobs map[string]*JobStatus
}

// NewJobStatusStore creates a new job status store.
func NewJobStatusStore() *JobStatusStore {
	return &JobStatusStore{jobs: make(map[string]*JobStatus)}
}

// Set stores a job status.
func (s *JobStatusStore) Set(jobID string, status *JobStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = status
}

// Get retrieves a snapshot of a job status. Workers mutate their own copy
// between Set calls, so callers never share mutable state with a running job.
func (s *JobStatusStore) Get(jobID string) (*JobStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status, exists := s.jobs[jobID]
	if !exists {
		return nil, false
	}
	snapshot := *status
	return &snapshot, true
}

// Delete removes a job status.
func (s *JobStatusStore) Delete(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
}
