package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/benvon/smart-schedule/internal/logger"
)

// maxClientErrorLength bounds error messages echoed back to clients
const maxClientErrorLength = 500

// envelope wraps every API response body
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondJSON sends data in a success envelope
func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

// respondJSONError sends an error envelope; message is sanitized and truncated
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	writeEnvelope(w, status, envelope{
		Error:   errorType,
		Message: logger.SanitizeString(message, maxClientErrorLength),
	})
}
