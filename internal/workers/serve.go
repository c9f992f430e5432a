package workers

import (
	"context"

	"github.com/benvon/smart-schedule/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Handler settles one message
type Handler func(ctx context.Context, msg queue.MessageInterface) error

// Serve hands messages to handle with at most limit in flight until msgs is
// closed or ctx is done, then waits for the running handlers.
// Handler errors are logged; they never stop the loop.
func Serve[M queue.MessageInterface](ctx context.Context, msgs <-chan M, limit int, handle Handler, logger *zap.Logger) error {
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for {
		select {
		case <-ctx.Done():
			return waitAndReturn(&g, ctx.Err())
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("message_channel_closed")
				return waitAndReturn(&g, nil)
			}
			g.Go(func() error {
				if err := handle(ctx, msg); err != nil {
					fields := []zap.Field{zap.Error(err)}
					if job := msg.GetJob(); job != nil {
						fields = append(fields,
							zap.String("job_id", job.ID.String()),
							zap.String("job_type", string(job.Type)),
						)
					}
					logger.Error("failed_to_process_job", fields...)
				}
				return nil
			})
		}
	}
}

func waitAndReturn(g *errgroup.Group, err error) error {
	_ = g.Wait()
	return err
}
