package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/benvon/smart-schedule/internal/version"
	"go.uber.org/zap"
)

const healthCheckTimeout = 5 * time.Second

// Pinger is a dependency that can report whether it is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger
type PingerFunc func(ctx context.Context) error

// Ping calls f
func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthChecker handles health check requests
type HealthChecker struct {
	checks map[string]Pinger
	logger *zap.Logger
}

// NewHealthChecker creates a health checker. A nil Pinger is reported as not configured.
func NewHealthChecker(checks map[string]Pinger, logger *zap.Logger) *HealthChecker {
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &HealthChecker{checks: checks, logger: logger}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended pings every dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		response.Checks = h.runChecks(r.Context())
		for name, result := range response.Checks {
			if result != "healthy" && result != "not configured" {
				response.Status = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				h.logger.Warn("health_check_failed", zap.String("dependency", name), zap.String("result", result))
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed_to_encode_health_response", zap.Error(err))
	}
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	for _, name := range names {
		pinger := h.checks[name]
		if pinger == nil {
			results[name] = "not configured"
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := pinger.Ping(checkCtx)
		cancel()

		if err != nil {
			results[name] = "unhealthy: " + err.Error()
		} else {
			results[name] = "healthy"
		}
	}
	return results
}

// VersionInfo handles the /version endpoint
func VersionInfo(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version":   info.Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
