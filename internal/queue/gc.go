package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// purgeTimeout bounds a single sweep of the dead-letter queue
const purgeTimeout = 2 * time.Minute

// GarbageCollector drops dead-lettered schedule jobs once they outlive the retention window.
type GarbageCollector struct {
	purger    DLQPurger
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
}

// NewGarbageCollector sweeps purger every interval. A nil purger makes every sweep a no-op.
func NewGarbageCollector(purger DLQPurger, interval, retention time.Duration, logger *zap.Logger) *GarbageCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GarbageCollector{purger: purger, interval: interval, retention: retention, logger: logger}
}

// Start sweeps on every tick and returns ctx.Err() once ctx is done. Failed sweeps are logged, not returned.
func (gc *GarbageCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := gc.sweep(ctx); err != nil {
			gc.logger.Warn("dlq_gc_failed", zap.Error(err))
		}
	}
}

func (gc *GarbageCollector) sweep(ctx context.Context) error {
	if gc.purger == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, purgeTimeout)
	defer cancel()

	purged, err := gc.purger.PurgeOlderThan(ctx, gc.retention)
	if err != nil {
		return fmt.Errorf("purge dead-lettered jobs: %w", err)
	}
	if purged == 0 {
		return nil
	}
	gc.logger.Info("dlq_gc_purged",
		zap.Int("messages", purged),
		zap.Duration("retention", gc.retention),
	)
	return nil
}
