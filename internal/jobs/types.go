// Package jobs defines the background job contract used for email delivery.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// JobType names what a job does.
type JobType string

// JobTypeSendNotification delivers one email.
const JobTypeSendNotification JobType = "send_notification"

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying marks a failed attempt that is waiting for its backoff.
	JobStatusRetrying JobStatus = "retrying"
)

// ErrJobNotFound is returned by JobStore lookups for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// NotificationJob is one email waiting to be sent. Kind selects the
// template (e.g. "budget_alert") and Payload carries its data as JSON.
// UserID is empty when the recipient has no account yet, as for invites.
type NotificationJob struct {
	JobID       string          `json:"job_id"`
	Kind        string          `json:"kind"`
	UserID      string          `json:"user_id,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Status      JobStatus       `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	RetryCount  int             `json:"retry_count"`
	MaxRetries  int             `json:"max_retries"`
}

// Job is what a JobHandler receives.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

func (j *NotificationJob) GetID() string        { return j.JobID }
func (j *NotificationJob) GetType() JobType     { return JobTypeSendNotification }
func (j *NotificationJob) GetStatus() JobStatus { return j.Status }

// Publisher enqueues jobs.
type Publisher interface {
	PublishNotification(ctx context.Context, job *NotificationJob) error
	Close() error
}

// Consumer runs a handler over queued jobs until stopped. Stop waits for
// jobs already being handled.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error makes the queue retry it
// while the job has retries left.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps the state of every job for the jobs API.
type JobStore interface {
	SaveJob(ctx context.Context, job *NotificationJob) error
	GetJob(ctx context.Context, jobID string) (*NotificationJob, error)
	// ListJobs returns matching jobs oldest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*NotificationJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs. Zero values match everything; a zero Limit
// means no limit.
type JobFilter struct {
	Kind   string
	UserID string
	Status JobStatus
	Limit  int
	Offset int
}
