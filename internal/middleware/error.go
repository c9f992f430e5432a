package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	logpkg "github.com/benvon/smart-schedule/internal/logger"
	"github.com/benvon/smart-schedule/internal/request"
	"go.uber.org/zap"
)

const (
	internalErrorType    = "Internal Server Error"
	internalErrorMessage = "An unexpected error occurred"
)

// ErrorResponse is the body written by middleware that rejects a request
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

func newErrorResponse(r *http.Request, errorType, message string) ErrorResponse {
	return ErrorResponse{
		Error:     errorType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
		RequestID: request.RequestID(r),
	}
}

// ErrorHandler turns a handler panic into a logged 500; panic details stay server side
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer recoverPanic(w, r, logger)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverPanic(w http.ResponseWriter, r *http.Request, logger *zap.Logger) {
	rec := recover()
	if rec == nil {
		return
	}
	if rec == http.ErrAbortHandler {
		panic(rec)
	}

	logger.Error("panic_recovered",
		zap.Any("error", rec),
		zap.String("method", r.Method),
		zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		zap.String("request_id", request.RequestID(r)),
		zap.Stack("stack"),
	)
	respondErrorJSON(w, r, http.StatusInternalServerError, internalErrorType, internalErrorMessage, logger)
}

// respondErrorJSON writes an ErrorResponse with the given status
func respondErrorJSON(w http.ResponseWriter, r *http.Request, status int, errorType, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(newErrorResponse(r, errorType, message)); err != nil {
		logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", status),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
	}
}
