package middleware

import (
	"fmt"
	"net/http"

	logpkg "github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	memorystore "github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const (
	// DefaultRateLimit is used when no rate is configured (5 requests per second)
	DefaultRateLimit = "5-S"

	rateLimitKeyPrefix = "smart-schedule:ratelimit"
)

// RateLimit limits requests per client IP at a ulule formatted rate such as "5-S" or "300-M".
// Counters live in Redis when redisClient is non-nil so replicas share one budget,
// otherwise in process memory.
func RateLimit(rateStr string, redisClient *redis.Client, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	if rateStr == "" {
		rateStr = DefaultRateLimit
	}
	rate, err := limiter.NewRateFromFormatted(rateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", rateStr, err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = redisstore.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix: rateLimitKeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memorystore.NewStoreWithOptions(limiter.StoreOptions{
			Prefix: rateLimitKeyPrefix,
		})
	}

	logger.Info("rate_limit_configured",
		zap.String("rate", rateStr),
		zap.Bool("redis_store", redisClient != nil),
	)

	instance := limiter.New(store, rate)
	mw := stdlibmw.NewMiddleware(instance,
		stdlibmw.WithKeyGetter(request.ClientIP),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("rate_limit_exceeded",
				zap.String("client_ip", request.ClientIP(r)),
				zap.String("path", logpkg.SanitizePath(r.URL.Path)),
			)
			respondErrorJSON(w, r, http.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded, retry later", logger)
		}),
		stdlibmw.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Error("rate_limit_store_error", zap.Error(err))
			respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred", logger)
		}),
	)
	return mw.Handler, nil
}
