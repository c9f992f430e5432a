package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// DefaultQueueName is the default queue name
	DefaultQueueName = "schedule_jobs"
	// DefaultExchangeName is the default exchange name
	DefaultExchangeName = "schedule"

	jobsRoutingKey = "jobs"
	dlqRoutingKey  = "dlq"
)

// ErrQueueClosed is returned when the broker connection is gone
var ErrQueueClosed = errors.New("rabbitmq connection closed")

// RabbitMQQueue implements JobQueue using RabbitMQ
type RabbitMQQueue struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	publishMu    sync.Mutex
	queueName    string
	dlqName      string
	exchangeName string
	logger       *zap.Logger
}

// Option configures a RabbitMQQueue
type Option func(*RabbitMQQueue)

// WithQueueName sets the job queue name; the dead letter queue is named after it
func WithQueueName(name string) Option {
	return func(q *RabbitMQQueue) {
		if name != "" {
			q.queueName = name
			q.dlqName = name + "_dlq"
		}
	}
}

// WithLogger sets the logger used for topology and delivery warnings
func WithLogger(logger *zap.Logger) Option {
	return func(q *RabbitMQQueue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// NewRabbitMQQueue connects to RabbitMQ and declares the job topology
func NewRabbitMQQueue(amqpURL string, opts ...Option) (*RabbitMQQueue, error) {
	queue := &RabbitMQQueue{
		queueName:    DefaultQueueName,
		dlqName:      DefaultQueueName + "_dlq",
		exchangeName: DefaultExchangeName,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(queue)
	}

	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	queue.conn = conn
	queue.channel = ch

	if err := queue.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup queues: %w", err)
	}

	return queue, nil
}

// QueueName returns the name of the job queue
func (q *RabbitMQQueue) QueueName() string {
	return q.queueName
}

// setup declares the exchange, the job queue and its dead letter queue
func (q *RabbitMQQueue) setup() error {
	err := q.channel.ExchangeDeclare(
		q.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	_, err = q.channel.QueueDeclare(
		q.dlqName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare DLQ: %w", err)
	}

	if err := q.channel.QueueBind(q.dlqName, dlqRoutingKey, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind DLQ: %w", err)
	}

	// Rejected and expired jobs are dead-lettered to the DLQ
	queueArgs := amqp.Table{
		"x-dead-letter-exchange":    q.exchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}
	_, err = q.channel.QueueDeclare(
		q.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		queueArgs,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := q.channel.QueueBind(q.queueName, jobsRoutingKey, q.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue to exchange: %w", err)
	}

	return nil
}

// Enqueue adds a job to the queue
func (q *RabbitMQQueue) Enqueue(ctx context.Context, job *Job) error {
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		Body:          jobJSON,
		DeliveryMode:  amqp.Persistent,
		MessageId:     job.ID.String(),
		CorrelationId: job.CorrelationID,
		ReplyTo:       job.ReplyTo,
		Timestamp:     job.CreatedAt,
		Type:          string(job.Type),
	}

	// Let the broker drop jobs nobody is waiting for any more
	if job.NotAfter != nil {
		ttl := time.Until(*job.NotAfter)
		if ttl <= 0 {
			return fmt.Errorf("job %s already expired", job.ID)
		}
		publishing.Expiration = fmt.Sprintf("%d", ttl.Milliseconds())
	}

	if err := q.publish(ctx, q.exchangeName, jobsRoutingKey, publishing); err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}
	return nil
}

// PublishReply publishes reply to the replyTo queue through the default exchange
func (q *RabbitMQQueue) PublishReply(ctx context.Context, replyTo string, reply *JobReply) error {
	if replyTo == "" {
		return nil
	}

	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		Body:          body,
		CorrelationId: reply.CorrelationID,
		Timestamp:     reply.CompletedAt,
	}
	if err := q.publish(ctx, "", replyTo, publishing); err != nil {
		return fmt.Errorf("failed to publish reply: %w", err)
	}
	return nil
}

func (q *RabbitMQQueue) publish(ctx context.Context, exchange, routingKey string, publishing amqp.Publishing) error {
	q.publishMu.Lock()
	defer q.publishMu.Unlock()

	return q.channel.PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		publishing,
	)
}

// Consume returns a channel of messages from the queue using async delivery
func (q *RabbitMQQueue) Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error) {
	if prefetchCount < 1 {
		prefetchCount = 1
	}

	// Separate channel for consuming so acks never contend with publishes
	consumeCh, err := q.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create consumer channel: %w", err)
	}

	// prefetchCount=1 gives each worker one job at a time (fair dispatch)
	if err := consumeCh.Qos(prefetchCount, 0, false); err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(
		q.queueName,
		"",    // consumer tag (empty = auto-generate)
		false, // auto-ack (false = manual ack required)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		_ = consumeCh.Close()
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	msgChan := make(chan *Message, prefetchCount)
	errChan := make(chan error, 1)

	go func() {
		defer close(msgChan)
		defer close(errChan)
		defer func() {
			// Channel may already be closed with the connection
			_ = consumeCh.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					errChan <- fmt.Errorf("delivery channel closed: %w", ErrQueueClosed)
					return
				}

				var job Job
				if err := json.Unmarshal(delivery.Body, &job); err != nil {
					// Poison message, straight to the DLQ
					_ = delivery.Nack(false, false)
					q.logger.Warn("dropped_undecodable_job",
						zap.String("message_id", delivery.MessageId),
						zap.Error(err),
					)
					continue
				}

				if job.IsExpired() {
					_ = delivery.Nack(false, false)
					q.logger.Info("dropped_expired_job", zap.String("job_id", job.ID.String()))
					continue
				}

				msg := newMessage(&job, delivery)

				select {
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				case msgChan <- msg:
				}
			}
		}
	}()

	return msgChan, errChan, nil
}

// PurgeOlderThan removes dead-lettered jobs whose publish timestamp is older than retention.
// The DLQ is FIFO, so the scan stops at the first message young enough to keep.
func (q *RabbitMQQueue) PurgeOlderThan(ctx context.Context, retention time.Duration) (int, error) {
	ch, err := q.conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("failed to open purge channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	cutoff := time.Now().Add(-retention)
	purged := 0
	for {
		if err := ctx.Err(); err != nil {
			return purged, err
		}

		msg, ok, err := ch.Get(q.dlqName, false)
		if err != nil {
			return purged, fmt.Errorf("failed to read DLQ: %w", err)
		}
		if !ok {
			return purged, nil
		}

		if msg.Timestamp.IsZero() || msg.Timestamp.Before(cutoff) {
			if err := msg.Ack(false); err != nil {
				return purged, fmt.Errorf("failed to ack DLQ message: %w", err)
			}
			purged++
			continue
		}

		return purged, msg.Nack(false, true)
	}
}

// HealthCheck verifies the queue connection is healthy
func (q *RabbitMQQueue) HealthCheck(ctx context.Context) error {
	if q.conn == nil || q.conn.IsClosed() {
		return ErrQueueClosed
	}
	if q.channel == nil || q.channel.IsClosed() {
		return fmt.Errorf("publish channel closed: %w", ErrQueueClosed)
	}
	return ctx.Err()
}

// Close closes the queue connection
func (q *RabbitMQQueue) Close() error {
	var err error
	if q.channel != nil {
		err = q.channel.Close()
	}
	if q.conn != nil {
		if closeErr := q.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
