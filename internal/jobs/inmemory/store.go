package inmemory

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/dvloznov/family-finance/internal/jobs"
)

// Store keeps email job state in a map for the jobs API. Callers always get
// copies, so a returned job never changes under them.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.NotificationJob
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.NotificationJob)}
}

func (s *Store) SaveJob(_ context.Context, job *jobs.NotificationJob) error {
	if job.JobID == "" {
		return errors.New("SaveJob: job ID is required")
	}
	s.mu.Lock()
	s.jobs[job.JobID] = clone(job)
	s.mu.Unlock()
	return nil
}

func (s *Store) GetJob(_ context.Context, jobID string) (*jobs.NotificationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}
	return clone(job), nil
}

// ListJobs returns matching jobs oldest first, ties broken by ID.
func (s *Store) ListJobs(_ context.Context, filter jobs.JobFilter) ([]*jobs.NotificationJob, error) {
	s.mu.RLock()
	var out []*jobs.NotificationJob
	for _, job := range s.jobs {
		if matches(job, filter) {
			out = append(out, clone(job))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *jobs.NotificationJob) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.JobID, b.JobID)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*jobs.NotificationJob{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

// UpdateJobStatus sets the status. An empty errorMsg keeps the previous error.
func (s *Store) UpdateJobStatus(_ context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

func matches(job *jobs.NotificationJob, f jobs.JobFilter) bool {
	return (f.Kind == "" || job.Kind == f.Kind) &&
		(f.UserID == "" || job.UserID == f.UserID) &&
		(f.Status == "" || job.Status == f.Status)
}

func clone(job *jobs.NotificationJob) *jobs.NotificationJob {
	c := *job
	return &c
}

var _ jobs.JobStore = (*Store)(nil)
