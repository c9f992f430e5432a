package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/benvon/smart-schedule/internal/scheduler"
)

// Config holds application configuration
type Config struct {
	MaxHoursPerDay       float64
	MinSliceHours        float64
	OversizeDeadlineDays int
	DayStartHour         float64

	ServerPort       string
	FrontendURL      string
	EnableHSTS       bool
	RateLimit        string
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	ScheduleQueue    string
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		MaxHoursPerDay:       getEnvFloat("SCHEDULER_MAX_HOURS_PER_DAY", scheduler.DefaultSettings().DailyCapacity),
		MinSliceHours:        getEnvFloat("SCHEDULER_MIN_SLICE_HOURS", scheduler.DefaultMinSliceHours),
		OversizeDeadlineDays: getEnvInt("SCHEDULER_OVERSIZE_DEADLINE_DAYS", scheduler.DefaultOversizeDeadlineDays),
		DayStartHour:         getEnvFloat("SCHEDULER_DAY_START_HOUR", scheduler.DefaultDayStartHour),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:           getEnvBool("ENABLE_HSTS", false),
		RateLimit:            getEnv("RATE_LIMIT", "5-S"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RabbitMQURL:          getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:     getEnvInt("RABBITMQ_PREFETCH", 1),
		ScheduleQueue:        getEnv("SCHEDULE_QUEUE", "schedule_jobs"),
		WorkerDebugMode:      getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:      getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:          getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:         getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.schedulerSettings().Validate(); err != nil {
		return nil, err
	}
	if cfg.RabbitMQPrefetch < 1 {
		return nil, fmt.Errorf("RABBITMQ_PREFETCH must be at least 1, got %d", cfg.RabbitMQPrefetch)
	}

	return cfg, nil
}

// RequireRabbitMQ reports an error when no broker is configured
func (c *Config) RequireRabbitMQ() error {
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for asynchronous scheduling")
	}
	return nil
}

// AllowedOrigins splits FrontendURL into individual CORS origins
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.FrontendURL, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// SchedulerOptions converts the scheduler settings into options for scheduler.New
func (c *Config) SchedulerOptions() []scheduler.Option {
	return []scheduler.Option{
		scheduler.WithDailyCapacity(c.MaxHoursPerDay),
		scheduler.WithMinSliceHours(c.MinSliceHours),
		scheduler.WithOversizeDeadlineDays(c.OversizeDeadlineDays),
		scheduler.WithDayStartHour(c.DayStartHour),
	}
}

func (c *Config) schedulerSettings() scheduler.Settings {
	return scheduler.Settings{
		DailyCapacity:        c.MaxHoursPerDay,
		MinSliceHours:        c.MinSliceHours,
		OversizeDeadlineDays: c.OversizeDeadlineDays,
		DayStartHour:         c.DayStartHour,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
