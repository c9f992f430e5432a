package middleware

import (
	"net/http"

	"github.com/benvon/smart-schedule/internal/request"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// DefaultAllowedOrigin is used when no frontend origin is configured
const DefaultAllowedOrigin = "http://localhost:3000"

// CORS handles CORS headers and OPTIONS preflight requests for the given origins
func CORS(allowedOrigins []string, logger *zap.Logger) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{DefaultAllowedOrigin}
	}
	logger.Info("cors_configured", zap.Strings("allowed_origins", allowedOrigins))

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", request.RequestIDHeader},
		ExposedHeaders: []string{
			request.RequestIDHeader,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
		},
		MaxAge: 86400,
	})
	return c.Handler
}
