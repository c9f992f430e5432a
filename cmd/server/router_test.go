package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/smart-schedule/internal/config"
	"github.com/benvon/smart-schedule/internal/handlers"
	"github.com/benvon/smart-schedule/internal/middleware"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, rate string) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	sched, err := scheduler.New(logger)
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	rateLimit, err := middleware.RateLimit(rate, nil, logger)
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}

	r, err := newRouter(routerDeps{
		cfg:         &config.Config{FrontendURL: "http://localhost:3000"},
		logger:      logger,
		runner:      sched,
		clock:       scheduler.FixedClock{At: time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)},
		healthCheck: handlers.NewHealthChecker(map[string]handlers.Pinger{"redis": nil}, logger),
		rateLimit:   rateLimit,
	})
	if err != nil {
		t.Fatalf("newRouter() error = %v", err)
	}
	return r
}

func TestRouter_Schedule(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "100-M")
	body := `{"tasks":[{"_id":"essay","name":"Write essay","time":2,"priority":"high","importance":"important","deadline":"2024-03-04"}]}`
	req := httptest.NewRequest("POST", "/api/v1/schedule", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request ID header")
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("Expected security headers")
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Schedule map[string][]struct {
				StartTime string `json:"start_time"`
				EndTime   string `json:"end_time"`
			} `json:"schedule"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	slots := envelope.Data.Schedule["2024-03-04"]
	if !envelope.Success || len(slots) != 1 || slots[0].StartTime != "09:00" || slots[0].EndTime != "11:00" {
		t.Errorf("unexpected response %s", w.Body.String())
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "100-M")

	tests := []struct {
		path string
		want int
	}{
		{"/healthz", http.StatusOK},
		{"/version", http.StatusOK},
		{"/api/v1/openapi.json", http.StatusOK},
		{"/api/v1/openapi.yaml", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tt.want {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.want, w.Code)
		}
	}
}

func TestRouter_RejectsMissingContentType(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "100-M")
	req := httptest.NewRequest("POST", "/api/v1/schedule", strings.NewReader(`{"tasks":[]}`))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestRouter_RateLimitsAPIOnly(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "1-M")

	post := func() int {
		req := httptest.NewRequest("POST", "/api/v1/schedule", strings.NewReader(`{"tasks":[]}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := post(); code != http.StatusOK {
		t.Fatalf("Expected first request to pass, got %d", code)
	}
	if code := post(); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 on the second request, got %d", code)
	}

	req := httptest.NewRequest("GET", "/healthz", nil)
	req.RemoteAddr = "203.0.113.7:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected health checks to bypass the rate limit, got %d", w.Code)
	}
}

func TestRouter_Preflight(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, "100-M")
	req := httptest.NewRequest("OPTIONS", "/api/v1/schedule", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}
