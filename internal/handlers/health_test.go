package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

type stubPinger struct {
	err   error
	calls int
}

func (s *stubPinger) Ping(ctx context.Context) error {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("expected a deadline on the health check context")
	}
	return s.err
}

func TestHealthChecker_BasicMode(t *testing.T) {
	t.Parallel()

	redis := &stubPinger{err: errors.New("connection refused")}
	h := NewHealthChecker(map[string]Pinger{"redis": redis}, zap.NewNop())

	w := httptest.NewRecorder()
	h.HealthCheck(w, httptest.NewRequest("GET", "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var body HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body.Status != "healthy" {
		t.Errorf("Expected status healthy, got %s", body.Status)
	}
	if body.Checks != nil {
		t.Errorf("Expected no checks in basic mode, got %v", body.Checks)
	}
	if redis.calls != 0 {
		t.Error("Expected basic mode not to ping dependencies")
	}
}

func TestHealthChecker_ExtendedMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		wantBody   string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			checks:     map[string]Pinger{"redis": &stubPinger{}, "rabbitmq": &stubPinger{}},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
			wantChecks: map[string]string{"redis": "healthy", "rabbitmq": "healthy"},
		},
		{
			name:       "not configured is healthy",
			checks:     map[string]Pinger{"redis": nil, "rabbitmq": nil},
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
			wantChecks: map[string]string{"redis": "not configured", "rabbitmq": "not configured"},
		},
		{
			name: "one unhealthy",
			checks: map[string]Pinger{
				"redis":    &stubPinger{},
				"rabbitmq": PingerFunc(func(context.Context) error { return errors.New("channel closed") }),
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unhealthy",
			wantChecks: map[string]string{"redis": "healthy", "rabbitmq": "unhealthy: channel closed"},
		},
		{
			name:       "nothing to check",
			checks:     nil,
			wantStatus: http.StatusOK,
			wantBody:   "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewHealthChecker(tt.checks, zap.NewNop())
			w := httptest.NewRecorder()
			h.HealthCheck(w, httptest.NewRequest("GET", "/healthz?mode=extended", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var body HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body.Status != tt.wantBody {
				t.Errorf("Expected status %s, got %s", tt.wantBody, body.Status)
			}
			for name, want := range tt.wantChecks {
				if body.Checks[name] != want {
					t.Errorf("Expected check[%s] = %q, got %q", name, want, body.Checks[name])
				}
			}
		})
	}
}

func TestVersionInfo(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	VersionInfo(w, httptest.NewRequest("GET", "/version", nil))

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["version"] == "" {
		t.Error("Expected version to be set")
	}
}
