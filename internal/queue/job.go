package queue

import (
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeSchedule asks a worker to build a schedule and reply with the result
	JobTypeSchedule JobType = "schedule_request"

	// DefaultMaxRetries is how often a job is requeued after a transient failure
	DefaultMaxRetries = 3
)

// Job represents a job in the queue
type Job struct {
	ID            uuid.UUID               `json:"id"`
	Type          JobType                 `json:"type"`
	Request       *models.ScheduleRequest `json:"request"`
	ReplyTo       string                  `json:"reply_to,omitempty"`       // Queue the JobReply is published to (empty = fire and forget)
	CorrelationID string                  `json:"correlation_id,omitempty"` // Echoed on the reply so callers can match it
	NotAfter      *time.Time              `json:"not_after,omitempty"`      // Latest time to process job (nil = no expiration)
	CreatedAt     time.Time               `json:"created_at"`
	RetryCount    int                     `json:"retry_count"`
	MaxRetries    int                     `json:"max_retries"`
}

// NewScheduleJob creates a schedule job for req
func NewScheduleJob(req *models.ScheduleRequest) *Job {
	id := uuid.New()
	return &Job{
		ID:            id,
		Type:          JobTypeSchedule,
		Request:       req,
		CorrelationID: id.String(),
		CreatedAt:     time.Now(),
		RetryCount:    0,
		MaxRetries:    DefaultMaxRetries,
	}
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}

	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// JobReply is published to a job's ReplyTo queue once the job is done.
// Exactly one of Result or Error is set.
type JobReply struct {
	JobID         uuid.UUID              `json:"job_id"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	Result        *models.ScheduleResult `json:"result,omitempty"`
	Error         string                 `json:"error,omitempty"`
	CompletedAt   time.Time              `json:"completed_at"`
}

// NewResultReply builds a successful reply for job
func NewResultReply(job *Job, result *models.ScheduleResult) *JobReply {
	return &JobReply{JobID: job.ID, CorrelationID: job.CorrelationID, Result: result, CompletedAt: time.Now().UTC()}
}

// NewErrorReply builds a failed reply for job
func NewErrorReply(job *Job, err error) *JobReply {
	return &JobReply{JobID: job.ID, CorrelationID: job.CorrelationID, Error: err.Error(), CompletedAt: time.Now().UTC()}
}
