package telemetry

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestInitTracer(t *testing.T) {
	// Exporter creation is lazy, so no collector needs to be listening
	for _, serviceName := range []string{"smart-schedule-worker", ""} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		tp, err := InitTracer(ctx, serviceName, "localhost:4318")
		if err != nil {
			cancel()
			t.Fatalf("InitTracer(%q) error = %v", serviceName, err)
		}
		if err := Shutdown(ctx, tp); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		cancel()
	}
}

func TestShutdown_NilProvider(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown() with nil provider should not error, got: %v", err)
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name       string
		enabled    bool
		endpoint   string
		wantActive bool
	}{
		{"disabled", false, "localhost:4318", false},
		{"enabled without endpoint", true, "", false},
		{"enabled", true, "localhost:4318", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active, shutdown := Setup(context.Background(), tt.enabled, "smart-schedule-test", tt.endpoint, zap.NewNop())
			if shutdown == nil {
				t.Fatal("Expected a non-nil shutdown function")
			}
			defer shutdown()

			if active != tt.wantActive {
				t.Errorf("Setup() active = %v, want %v", active, tt.wantActive)
			}
		})
	}
}
