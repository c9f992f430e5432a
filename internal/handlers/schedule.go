package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/benvon/smart-schedule/internal/input"
	"github.com/benvon/smart-schedule/internal/middleware"
	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/request"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/benvon/smart-schedule/internal/telemetry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ScheduleRunner runs one scheduling pass; *scheduler.Scheduler implements it
type ScheduleRunner interface {
	Run(req *models.ScheduleRequest, clock scheduler.Clock) (*models.ScheduleResult, error)
}

// ScheduleHandler handles schedule requests
type ScheduleHandler struct {
	runner ScheduleRunner
	clock  scheduler.Clock
	logger *zap.Logger
}

// ScheduleHandlerOption configures a ScheduleHandler
type ScheduleHandlerOption func(*ScheduleHandler)

// WithClock sets the clock used when a request has no start_date
func WithClock(clock scheduler.Clock) ScheduleHandlerOption {
	return func(h *ScheduleHandler) { h.clock = clock }
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(runner ScheduleRunner, logger *zap.Logger, opts ...ScheduleHandlerOption) *ScheduleHandler {
	h := &ScheduleHandler{runner: runner, clock: scheduler.SystemClock{}, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers schedule routes on the given router
// The router should already have the /api/v1 prefix
func (h *ScheduleHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/schedule", h.CreateSchedule).Methods("POST")
}

// CreateSchedule builds a schedule from the request body. The maxHoursPerDay
// and start_date query parameters override the body's values.
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	format := input.FormatJSON
	if middleware.IsYAML(r.Header.Get("Content-Type")) {
		format = input.FormatYAML
	}

	req, err := input.DecodeReader(r.Body, format)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Request body exceeds the maximum allowed size")
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	if err := applyQueryOverrides(r, req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	_, span := telemetry.StartScheduleSpan(r.Context(), "schedule.create", req)
	result, err := h.runner.Run(req, h.clock)
	telemetry.EndScheduleSpan(span, result, err)

	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			h.logger.Info("schedule_request_rejected",
				zap.String("request_id", request.RequestID(r)),
				zap.String("reason", err.Error()),
			)
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Error("schedule_run_failed",
			zap.String("request_id", request.RequestID(r)),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to build schedule")
		return
	}

	h.logger.Info("schedule_created",
		zap.String("request_id", request.RequestID(r)),
		zap.Int("tasks", len(req.Tasks)),
		zap.Int("scheduled_days", len(result.Schedule)),
		zap.Int("unscheduled", len(result.Unscheduled)),
	)
	respondJSON(w, http.StatusOK, result)
}

func applyQueryOverrides(r *http.Request, req *models.ScheduleRequest) error {
	query := r.URL.Query()

	if raw := query.Get("maxHoursPerDay"); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return &models.ValidationError{TaskIndex: -1, Field: "maxHoursPerDay", Reason: "must be a number"}
		}
		req.MaxHoursPerDay = &hours
	}

	if raw := query.Get("start_date"); raw != "" {
		start, err := models.ParseDate(raw)
		if err != nil {
			return &models.ValidationError{TaskIndex: -1, Field: "start_date", Reason: "must be a date in YYYY-MM-DD format"}
		}
		req.StartDate = &start
	}
	return nil
}
