package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benvon/smart-schedule/internal/models"
	"go.uber.org/zap"
)

// Call enqueues req as a schedule job and waits for the worker's reply.
// The reply queue is private to this call and removed once it returns.
// A context deadline is forwarded as the job's NotAfter so stale jobs are dropped.
func (q *RabbitMQQueue) Call(ctx context.Context, req *models.ScheduleRequest) (*JobReply, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open reply channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	replyQueue, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare reply queue: %w", err)
	}

	replies, err := ch.Consume(
		replyQueue.Name,
		"",    // consumer tag
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume reply queue: %w", err)
	}

	job := NewScheduleJob(req)
	job.ReplyTo = replyQueue.Name
	if deadline, ok := ctx.Deadline(); ok {
		job.NotAfter = &deadline
	}

	if err := q.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	q.logger.Debug("schedule_job_enqueued",
		zap.String("job_id", job.ID.String()),
		zap.String("reply_to", replyQueue.Name),
	)

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for reply to job %s: %w", job.ID, ctx.Err())
		case delivery, ok := <-replies:
			if !ok {
				return nil, fmt.Errorf("reply channel closed: %w", ErrQueueClosed)
			}
			if delivery.CorrelationId != job.CorrelationID {
				q.logger.Debug("ignored_unrelated_reply", zap.String("correlation_id", delivery.CorrelationId))
				continue
			}

			var reply JobReply
			if err := json.Unmarshal(delivery.Body, &reply); err != nil {
				return nil, fmt.Errorf("failed to decode reply: %w", err)
			}
			return &reply, nil
		}
	}
}
