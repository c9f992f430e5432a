package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/benvon/smart-schedule/internal/telemetry"
	"github.com/benvon/smart-schedule/internal/workers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName = "smart-schedule-worker"

	// DLQ garbage collection: run every hour, retain messages for 24 hours
	dlqGCInterval  = 1 * time.Hour
	dlqGCRetention = 24 * time.Hour
)

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging of scheduling decisions")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.RequireRabbitMQ(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// Ignore sync errors in production
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Float64("max_hours_per_day", cfg.MaxHoursPerDay),
		zap.String("queue", cfg.ScheduleQueue),
	)

	_, shutdownTracing := telemetry.Setup(context.Background(), cfg.OTELEnabled, serviceName, cfg.OTELEndpoint, zapLogger)
	defer shutdownTracing()

	sched, err := scheduler.New(zapLogger, cfg.SchedulerOptions()...)
	if err != nil {
		zapLogger.Fatal("failed_to_create_scheduler", zap.Error(err))
	}

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL,
		queue.WithQueueName(cfg.ScheduleQueue),
		queue.WithLogger(zapLogger),
	)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	worker := workers.NewScheduleWorker(sched, jobQueue, scheduler.SystemClock{}, zapLogger)

	// Cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	g, gctx := errgroup.WithContext(ctx)

	// Process messages
	g.Go(func() error {
		return workers.Serve(gctx, msgChan, cfg.RabbitMQPrefetch, worker.ProcessJob, zapLogger)
	})

	// Handle queue errors; a lost connection stops the worker so it can be restarted
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err, ok := <-errChan:
			if !ok {
				return nil
			}
			zapLogger.Error("queue_error", zap.Error(err))
			return err
		}
	})

	// Purge old dead-lettered jobs
	g.Go(func() error {
		dlqGC := queue.NewGarbageCollector(jobQueue, dlqGCInterval, dlqGCRetention, zapLogger)
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", dlqGCInterval),
			zap.Duration("retention", dlqGCRetention),
		)
		return dlqGC.Start(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		zapLogger.Error("worker_stopped_with_error", zap.Error(err))
		exitCode = 1
		return
	}

	zapLogger.Info("worker_stopped")
}
