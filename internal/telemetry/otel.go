package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/smart-schedule/internal/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// InstrumentationName identifies spans created by this module
const InstrumentationName = "github.com/benvon/smart-schedule"

// InitTracer initializes the OpenTelemetry tracer provider
func InitTracer(ctx context.Context, serviceName, endpoint string) (*sdktrace.TracerProvider, error) {
	// Create OTLP HTTP exporter
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(), // Use insecure for development; use WithTLSClientConfig for production
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Shutdown gracefully shuts down the tracer provider
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}

// Setup initializes tracing for a process when enabled. Failures are logged
// and leave tracing off. The returned function flushes and stops the provider
// and is never nil.
func Setup(ctx context.Context, enabled bool, serviceName, endpoint string, logger *zap.Logger) (active bool, shutdown func()) {
	noop := func() {}
	if !enabled {
		return false, noop
	}
	if endpoint == "" {
		logger.Warn("otel_enabled_but_endpoint_not_configured")
		return false, noop
	}

	tp, err := InitTracer(ctx, serviceName, endpoint)
	if err != nil {
		logger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		return false, noop
	}
	logger.Info("otel_tracer_initialized",
		zap.String("service", serviceName),
		zap.String("endpoint", endpoint),
	)

	return true, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := Shutdown(shutdownCtx, tp); err != nil {
			logger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}
}

// Tracer returns the module tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// StartScheduleSpan starts a span around one scheduling run
func StartScheduleSpan(ctx context.Context, name string, req *models.ScheduleRequest) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{}
	if req != nil {
		attrs = append(attrs, attribute.Int("schedule.tasks", len(req.Tasks)))
		if req.MaxHoursPerDay != nil {
			attrs = append(attrs, attribute.Float64("schedule.max_hours_per_day", *req.MaxHoursPerDay))
		}
		if req.StartDate != nil {
			attrs = append(attrs, attribute.String("schedule.start_date", req.StartDate.String()))
		}
	}
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndScheduleSpan records the outcome of a run and ends the span
func EndScheduleSpan(span trace.Span, result *models.ScheduleResult, err error) {
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	if result != nil {
		span.SetAttributes(
			attribute.Int("schedule.days", len(result.Schedule)),
			attribute.Int("schedule.unscheduled", len(result.Unscheduled)),
		)
	}
}
