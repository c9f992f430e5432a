package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// mockPublisher is a mock implementation of JobPublisher
type mockPublisher struct {
	publishErr error
	enqueueErr error
	replies    []*queue.JobReply
	replyTo    []string
	enqueued   []*queue.Job
}

func (m *mockPublisher) PublishReply(ctx context.Context, replyTo string, reply *queue.JobReply) error {
	m.replyTo = append(m.replyTo, replyTo)
	m.replies = append(m.replies, reply)
	return m.publishErr
}

func (m *mockPublisher) Enqueue(ctx context.Context, job *queue.Job) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

var _ JobPublisher = (*mockPublisher)(nil)

// mockMessage is a mock implementation of MessageInterface
type mockMessage struct {
	job       *queue.Job
	acked     bool
	nacked    bool
	requeued  bool
	ackCalled int
}

func (m *mockMessage) Ack() error {
	m.acked = true
	m.ackCalled++
	return nil
}

func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	return nil
}

func (m *mockMessage) GetJob() *queue.Job {
	return m.job
}

var _ queue.MessageInterface = (*mockMessage)(nil)

// mockRunner is a mock implementation of ScheduleRunner
type mockRunner struct {
	err    error
	called int
}

func (m *mockRunner) Run(req *models.ScheduleRequest, clock scheduler.Clock) (*models.ScheduleResult, error) {
	m.called++
	if m.err != nil {
		return nil, m.err
	}
	return models.NewScheduleResult(), nil
}

var testClock = scheduler.FixedClock{At: time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)}

func newJob(t *testing.T) *queue.Job {
	t.Helper()
	job := queue.NewScheduleJob(&models.ScheduleRequest{
		Tasks: []models.Task{{ID: "essay", Name: "Write essay", Hours: 3, Priority: "high", Importance: "important", Deadline: "2024-03-06"}},
	})
	job.ReplyTo = "amq.gen-reply"
	return job
}

func TestScheduleWorker_ProcessJob_RealScheduler(t *testing.T) {
	t.Parallel()

	s, err := scheduler.New(nil)
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	publisher := &mockPublisher{}
	worker := NewScheduleWorker(s, publisher, testClock, zap.NewNop())
	job := newJob(t)
	msg := &mockMessage{job: job}

	if err := worker.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	if !msg.acked || msg.nacked {
		t.Errorf("Expected message to be acked only, acked=%v nacked=%v", msg.acked, msg.nacked)
	}
	if len(publisher.replies) != 1 {
		t.Fatalf("Expected one reply, got %d", len(publisher.replies))
	}
	reply := publisher.replies[0]
	if publisher.replyTo[0] != "amq.gen-reply" {
		t.Errorf("Expected reply to amq.gen-reply, got %s", publisher.replyTo[0])
	}
	if reply.CorrelationID != job.CorrelationID {
		t.Errorf("Expected correlation ID %s, got %s", job.CorrelationID, reply.CorrelationID)
	}
	if reply.Error != "" || reply.Result == nil {
		t.Fatalf("Expected a result reply, got %+v", reply)
	}
	if got := reply.Result.Schedule.TaskHours("essay"); got != 3 {
		t.Errorf("Expected 3 hours scheduled for essay, got %v", got)
	}
}

func TestScheduleWorker_ProcessJob(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute)

	tests := []struct {
		name          string
		job           func(t *testing.T) *queue.Job
		runner        *mockRunner
		publisher     *mockPublisher
		expectError   bool
		expectAck     bool
		expectNack    bool
		expectReplies int
		expectRetry   bool
		expectRunner  bool
		checkReply    func(*testing.T, *queue.JobReply)
	}{
		{
			name:          "success",
			job:           newJob,
			runner:        &mockRunner{},
			publisher:     &mockPublisher{},
			expectAck:     true,
			expectReplies: 1,
			expectRunner:  true,
		},
		{
			name:          "invalid input replies with error and acks",
			job:           newJob,
			runner:        &mockRunner{err: &models.ValidationError{TaskIndex: 0, Field: "deadline", Reason: "must be a YYYY-MM-DD date"}},
			publisher:     &mockPublisher{},
			expectAck:     true,
			expectReplies: 1,
			expectRunner:  true,
			checkReply: func(t *testing.T, reply *queue.JobReply) {
				if reply.Error != "invalid tasks[0].deadline: must be a YYYY-MM-DD date" {
					t.Errorf("unexpected reply error %q", reply.Error)
				}
				if reply.Result != nil {
					t.Error("Expected no result on an error reply")
				}
			},
		},
		{
			name: "missing request",
			job: func(t *testing.T) *queue.Job {
				job := newJob(t)
				job.Request = nil
				return job
			},
			runner:        &mockRunner{},
			publisher:     &mockPublisher{},
			expectAck:     true,
			expectReplies: 1,
			checkReply: func(t *testing.T, reply *queue.JobReply) {
				if reply.Error != ErrMissingRequest.Error() {
					t.Errorf("unexpected reply error %q", reply.Error)
				}
			},
		},
		{
			name:          "unexpected scheduler error dead-letters",
			job:           newJob,
			runner:        &mockRunner{err: errors.New("boom")},
			publisher:     &mockPublisher{},
			expectError:   true,
			expectNack:    true,
			expectReplies: 1,
			expectRunner:  true,
		},
		{
			name: "unknown job type",
			job: func(t *testing.T) *queue.Job {
				job := newJob(t)
				job.Type = "calendar_sync"
				return job
			},
			runner:      &mockRunner{},
			publisher:   &mockPublisher{},
			expectError: true,
			expectNack:  true,
		},
		{
			name: "expired job is dropped",
			job: func(t *testing.T) *queue.Job {
				job := newJob(t)
				job.NotAfter = &past
				return job
			},
			runner:     &mockRunner{},
			publisher:  &mockPublisher{},
			expectNack: true,
		},
		{
			name:          "publish failure re-enqueues",
			job:           newJob,
			runner:        &mockRunner{},
			publisher:     &mockPublisher{publishErr: errors.New("channel closed")},
			expectError:   true,
			expectAck:     true,
			expectReplies: 1,
			expectRetry:   true,
			expectRunner:  true,
		},
		{
			name: "publish failure with retries exhausted dead-letters",
			job: func(t *testing.T) *queue.Job {
				job := newJob(t)
				job.RetryCount = job.MaxRetries
				return job
			},
			runner:        &mockRunner{},
			publisher:     &mockPublisher{publishErr: errors.New("channel closed")},
			expectError:   true,
			expectNack:    true,
			expectReplies: 1,
			expectRunner:  true,
		},
		{
			name:          "publish and re-enqueue failure dead-letters",
			job:           newJob,
			runner:        &mockRunner{},
			publisher:     &mockPublisher{publishErr: errors.New("channel closed"), enqueueErr: errors.New("connection closed")},
			expectError:   true,
			expectNack:    true,
			expectReplies: 1,
			expectRunner:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			worker := NewScheduleWorker(tt.runner, tt.publisher, testClock, zap.NewNop())
			msg := &mockMessage{job: tt.job(t)}

			err := worker.ProcessJob(context.Background(), msg)

			if tt.expectError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if msg.acked != tt.expectAck {
				t.Errorf("Expected acked=%v, got %v", tt.expectAck, msg.acked)
			}
			if msg.nacked != tt.expectNack {
				t.Errorf("Expected nacked=%v, got %v", tt.expectNack, msg.nacked)
			}
			if msg.requeued {
				t.Error("Expected messages never to be requeued in place")
			}
			if len(tt.publisher.replies) != tt.expectReplies {
				t.Errorf("Expected %d replies, got %d", tt.expectReplies, len(tt.publisher.replies))
			}
			if (tt.runner.called > 0) != tt.expectRunner {
				t.Errorf("Expected runner called=%v, got %d calls", tt.expectRunner, tt.runner.called)
			}
			if tt.expectRetry {
				if len(tt.publisher.enqueued) != 1 {
					t.Fatalf("Expected one re-enqueued job, got %d", len(tt.publisher.enqueued))
				}
				retry := tt.publisher.enqueued[0]
				if retry.RetryCount != msg.job.RetryCount+1 {
					t.Errorf("Expected retry count %d, got %d", msg.job.RetryCount+1, retry.RetryCount)
				}
				if retry.ID != msg.job.ID || retry.CorrelationID != msg.job.CorrelationID {
					t.Error("Expected retry to keep the job identity")
				}
			} else if len(tt.publisher.enqueued) != 0 {
				t.Errorf("Expected no re-enqueued jobs, got %d", len(tt.publisher.enqueued))
			}
			if tt.checkReply != nil && len(tt.publisher.replies) > 0 {
				tt.checkReply(t, tt.publisher.replies[0])
			}
		})
	}
}

func TestScheduleWorker_ProcessJob_NilJob(t *testing.T) {
	t.Parallel()

	worker := NewScheduleWorker(&mockRunner{}, &mockPublisher{}, nil, nil)
	msg := &mockMessage{}

	if err := worker.ProcessJob(context.Background(), msg); err == nil {
		t.Error("Expected error for a message without a job")
	}
	if !msg.nacked {
		t.Error("Expected message to be dead-lettered")
	}
}

func TestScheduleWorker_LogsRejectedInput(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	runner := &mockRunner{err: &models.ValidationError{TaskIndex: -1, Field: "tasks", Reason: "is required"}}
	worker := NewScheduleWorker(runner, &mockPublisher{}, testClock, zap.New(core))

	if err := worker.ProcessJob(context.Background(), &mockMessage{job: newJob(t)}); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}

	if logs.FilterMessage("schedule_job_rejected").Len() != 1 {
		t.Error("Expected a schedule_job_rejected entry")
	}
	completed := logs.FilterMessage("schedule_job_completed").All()
	if len(completed) != 1 || completed[0].ContextMap()["rejected"] != true {
		t.Errorf("Expected completion logged with rejected=true, got %v", completed)
	}
}
