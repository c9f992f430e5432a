package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/benvon/smart-schedule/internal/telemetry"
	"go.uber.org/zap"
)

// ErrMissingRequest is replied when a schedule job arrives without a request document
var ErrMissingRequest = errors.New("schedule job has no request")

// ScheduleRunner runs one scheduling pass; *scheduler.Scheduler implements it
type ScheduleRunner interface {
	Run(req *models.ScheduleRequest, clock scheduler.Clock) (*models.ScheduleResult, error)
}

// JobPublisher publishes replies and re-enqueues jobs for another attempt
type JobPublisher interface {
	queue.ReplyPublisher
	Enqueue(ctx context.Context, job *queue.Job) error
}

// ScheduleWorker processes schedule jobs
type ScheduleWorker struct {
	runner    ScheduleRunner
	publisher JobPublisher
	clock     scheduler.Clock
	logger    *zap.Logger
}

// NewScheduleWorker creates a new schedule worker. A nil clock reads the wall clock.
func NewScheduleWorker(runner ScheduleRunner, publisher JobPublisher, clock scheduler.Clock, logger *zap.Logger) *ScheduleWorker {
	if clock == nil {
		clock = scheduler.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleWorker{
		runner:    runner,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}
}

// ProcessJob runs the job carried by msg and settles the message.
// Rejected input is answered with an error reply and acked; it is never retried.
// Failing to deliver the reply re-enqueues the job until its retries run out,
// after which the message is dead-lettered.
func (w *ScheduleWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return fmt.Errorf("message has no job")
	}

	log := w.logger.With(
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
	)

	if job.Type != queue.JobTypeSchedule {
		// Unknown job type, send to DLQ
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if job.IsExpired() {
		log.Info("skipped_expired_job")
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return nil
	}

	reply, err := w.runJob(ctx, job)
	if err != nil {
		// The scheduler is deterministic, so a non-input failure would fail again
		log.Error("schedule_job_failed", zap.Error(err))
		w.publishBestEffort(ctx, job, queue.NewErrorReply(job, err), log)
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return err
	}

	if err := w.publisher.PublishReply(ctx, job.ReplyTo, reply); err != nil {
		return w.handlePublishError(ctx, msg, job, err, log)
	}

	if err := msg.Ack(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	log.Info("schedule_job_completed", zap.Bool("rejected", reply.Error != ""))
	return nil
}

// runJob returns the reply for job. Invalid input becomes an error reply rather than an error.
func (w *ScheduleWorker) runJob(ctx context.Context, job *queue.Job) (*queue.JobReply, error) {
	if job.Request == nil {
		return queue.NewErrorReply(job, ErrMissingRequest), nil
	}

	_, span := telemetry.StartScheduleSpan(ctx, "schedule.job", job.Request)
	result, err := w.runner.Run(job.Request, w.clock)
	telemetry.EndScheduleSpan(span, result, err)

	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			w.logger.Warn("schedule_job_rejected",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
			return queue.NewErrorReply(job, err), nil
		}
		return nil, err
	}
	return queue.NewResultReply(job, result), nil
}

func (w *ScheduleWorker) handlePublishError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error, log *zap.Logger) error {
	if !job.CanRetry() {
		log.Error("schedule_job_retries_exhausted", zap.Error(err))
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to publish reply after %d retries: %w", job.RetryCount, err)
	}

	retry := *job
	retry.IncrementRetry()
	if enqueueErr := w.publisher.Enqueue(ctx, &retry); enqueueErr != nil {
		log.Error("failed_to_reenqueue_job", zap.Error(enqueueErr))
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Warn("failed_to_nack_message", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to publish reply: %w", err)
	}

	// The retry carries the updated count, so the original delivery is done
	if ackErr := msg.Ack(); ackErr != nil {
		log.Warn("failed_to_ack_job_before_retry", zap.Error(ackErr))
	}
	log.Warn("schedule_job_requeued", zap.Int("next_retry", retry.RetryCount), zap.Error(err))
	return fmt.Errorf("failed to publish reply: %w", err)
}

func (w *ScheduleWorker) publishBestEffort(ctx context.Context, job *queue.Job, reply *queue.JobReply, log *zap.Logger) {
	if err := w.publisher.PublishReply(ctx, job.ReplyTo, reply); err != nil {
		log.Warn("failed_to_publish_error_reply", zap.Error(err))
	}
}
