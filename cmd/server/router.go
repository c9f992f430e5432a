package main

import (
	"net/http"
	"time"

	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/handlers"
	"github.com/benvon/smart-schedule/internal/middleware"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// requestTimeout bounds a single request; it stays below the server's WriteTimeout
const requestTimeout = 30 * time.Second

type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	runner      handlers.ScheduleRunner
	clock       scheduler.Clock
	healthCheck *handlers.HealthChecker
	rateLimit   func(http.Handler) http.Handler
	tracing     bool
}

// newRouter wires routes and middleware.
// In gorilla/mux, middleware runs in registration order: the first registered is the outermost wrapper.
func newRouter(deps routerDeps) (*mux.Router, error) {
	r := mux.NewRouter()

	deps.logger.Info("setting_up_middleware")

	// 0. OpenTelemetry tracing (if enabled)
	if deps.tracing {
		r.Use(otelmux.Middleware(serviceName))
		deps.logger.Info("otel_middleware_enabled")
	}
	// 1. Security headers (should be set on all responses)
	r.Use(middleware.SecurityHeaders(deps.cfg.EnableHSTS))
	// 2. CORS from FRONTEND_URL
	r.Use(middleware.CORS(deps.cfg.AllowedOrigins(), deps.logger))
	// 3. Request ID, before anything that logs
	r.Use(middleware.RequestID)
	// 4. Request size limits (protects against DoS)
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, deps.logger))
	// 5. Content-Type validation for POST/PATCH/PUT requests
	r.Use(middleware.ContentType(deps.logger))
	// 6. Request timeout
	r.Use(middleware.Timeout(requestTimeout))
	// 7. Error handler (catches panics)
	r.Use(middleware.ErrorHandler(deps.logger))
	// 8. Logging (innermost, executes last before handler)
	r.Use(middleware.Logging(deps.logger))

	// Public routes (no rate limiting for health checks)
	r.HandleFunc("/healthz", deps.healthCheck.HealthCheck).Methods("GET")
	r.HandleFunc("/version", handlers.VersionInfo).Methods("GET")

	openAPIHandler, err := handlers.NewOpenAPIHandler(deps.logger)
	if err != nil {
		return nil, err
	}
	openAPIHandler.RegisterRoutes(r)

	// API v1 routes
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	if deps.rateLimit != nil {
		apiRouter.Use(deps.rateLimit)
	}
	scheduleHandler := handlers.NewScheduleHandler(deps.runner, deps.logger, handlers.WithClock(deps.clock))
	scheduleHandler.RegisterRoutes(apiRouter)

	// Catch-all OPTIONS handler for preflight requests
	// The CORS middleware will handle setting headers before this is called
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r, nil
}
