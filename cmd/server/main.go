package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/handlers"
	"github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/middleware"
	"github.com/benvon/smart-schedule/internal/queue"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/benvon/smart-schedule/internal/telemetry"
	"github.com/benvon/smart-schedule/internal/version"
	"go.uber.org/zap"
)

const serviceName = "smart-schedule-api"

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug logging of scheduling decisions")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.ServerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// Ignore sync errors in production
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.Float64("max_hours_per_day", cfg.MaxHoursPerDay),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
		zap.String("version", version.Get().Version),
	)

	// Initialize OpenTelemetry if enabled
	tracing, shutdownTracing := telemetry.Setup(context.Background(), cfg.OTELEnabled, serviceName, cfg.OTELEndpoint, zapLogger)
	defer shutdownTracing()

	sched, err := scheduler.New(zapLogger, cfg.SchedulerOptions()...)
	if err != nil {
		zapLogger.Fatal("failed_to_create_scheduler", zap.Error(err))
	}

	checks := map[string]handlers.Pinger{"redis": nil, "rabbitmq": nil}

	// Redis is optional: without it the rate limiter keeps its counters in memory
	redisClient, err := middleware.NewRedisClient(context.Background(), cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_redis", zap.Error(err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		checks["redis"] = middleware.RedisPinger{Client: redisClient}
		zapLogger.Info("connected_to_redis")
	}

	// RabbitMQ is optional here; the server only reports on the workers' broker
	if cfg.RabbitMQURL != "" {
		if jobQueue := connectRabbitMQ(cfg, zapLogger); jobQueue != nil {
			defer func() {
				if err := jobQueue.Close(); err != nil {
					zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
				}
			}()
			checks["rabbitmq"] = handlers.PingerFunc(jobQueue.HealthCheck)
		}
	}

	rateLimitMW, err := middleware.RateLimit(cfg.RateLimit, redisClient, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	r, err := newRouter(routerDeps{
		cfg:         cfg,
		logger:      zapLogger,
		runner:      sched,
		clock:       scheduler.SystemClock{},
		healthCheck: handlers.NewHealthChecker(checks, zapLogger),
		rateLimit:   rateLimitMW,
		tracing:     tracing,
	})
	if err != nil {
		zapLogger.Fatal("failed_to_create_router", zap.Error(err))
	}

	// Setup server
	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Start server in a goroutine
	go func() {
		zapLogger.Info("server_starting",
			zap.String("port", cfg.ServerPort),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server_forced_to_shutdown", zap.Error(err))
		return
	}

	zapLogger.Info("server_exited")
}

// connectRabbitMQ retries with exponential backoff to ride out broker startup.
// It returns nil when the broker stays unreachable so the API can still serve schedules.
func connectRabbitMQ(cfg *config.Config, zapLogger *zap.Logger) *queue.RabbitMQQueue {
	const maxRetries = 5
	const initialDelay = 2 * time.Second

	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL,
			queue.WithQueueName(cfg.ScheduleQueue),
			queue.WithLogger(zapLogger),
		)
		if err == nil {
			zapLogger.Info("connected_to_rabbitmq", zap.String("queue", jobQueue.QueueName()))
			return jobQueue
		}

		delay := min(initialDelay*time.Duration(1<<uint(attempt)), 30*time.Second)
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)
		time.Sleep(delay)
	}

	zapLogger.Warn("rabbitmq_unavailable_health_check_disabled", zap.Int("max_retries", maxRetries))
	return nil
}
