package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/smart-schedule/internal/middleware"
	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/scheduler"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// mondayClock pins "today" to 2024-03-04
var mondayClock = scheduler.FixedClock{At: time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)}

type scheduleEnvelope struct {
	Success bool                  `json:"success"`
	Data    models.ScheduleResult `json:"data"`
	Error   string                `json:"error"`
	Message string                `json:"message"`
}

func newScheduleRouter(t *testing.T, runner ScheduleRunner) *mux.Router {
	t.Helper()
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()
	NewScheduleHandler(runner, zap.NewNop(), WithClock(mondayClock)).RegisterRoutes(api)
	return r
}

func newRealRunner(t *testing.T) ScheduleRunner {
	t.Helper()
	s, err := scheduler.New(nil)
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	return s
}

func postSchedule(r http.Handler, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) scheduleEnvelope {
	t.Helper()
	var env scheduleEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return env
}

func TestCreateSchedule_JSON(t *testing.T) {
	t.Parallel()

	r := newScheduleRouter(t, newRealRunner(t))
	w := postSchedule(r, "/api/v1/schedule", "application/json", `{
		"tasks": [{"_id": "a", "name": "Lab report", "time": 2, "priority": "medium", "importance": "normal", "deadline": "2024-03-05"}]
	}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Error("Expected success to be true")
	}
	for _, day := range []string{"2024-03-04", "2024-03-05"} {
		slots := env.Data.Schedule[day]
		if len(slots) != 1 || slots[0].Hours != 1 || slots[0].StartTime != "09:00" || slots[0].EndTime != "10:00" {
			t.Errorf("Unexpected slots on %s: %+v", day, slots)
		}
	}
	if env.Data.Unscheduled == nil || len(env.Data.Unscheduled) != 0 {
		t.Errorf("Expected empty unscheduled_tasks, got %v", env.Data.Unscheduled)
	}
}

func TestCreateSchedule_YAML(t *testing.T) {
	t.Parallel()

	r := newScheduleRouter(t, newRealRunner(t))
	w := postSchedule(r, "/api/v1/schedule", "application/yaml", `
tasks:
  - _id: big
    name: Thesis chapter
    time: 10
    priority: high
    importance: important
    deadline: 2024-03-14
`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if len(env.Data.Unscheduled) != 1 || !env.Data.Unscheduled[0].ExceedsTimeLimit {
		t.Errorf("Expected oversized task to be deferred, got %+v", env.Data.Unscheduled)
	}
}

func TestCreateSchedule_QueryOverrides(t *testing.T) {
	t.Parallel()

	r := newScheduleRouter(t, newRealRunner(t))
	body := `{"tasks": [{"_id": "a", "name": "Slides", "time": 3, "deadline": "2024-03-11"}], "maxHoursPerDay": 1}`

	w := postSchedule(r, "/api/v1/schedule?maxHoursPerDay=8&start_date=2024-03-11", "application/json", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	slots := env.Data.Schedule["2024-03-11"]
	if len(slots) != 1 || slots[0].Hours != 3 {
		t.Errorf("Expected all 3 hours on the overridden start date, got %+v", env.Data.Schedule)
	}
}

func TestCreateSchedule_BadRequests(t *testing.T) {
	t.Parallel()

	r := newScheduleRouter(t, newRealRunner(t))

	tests := []struct {
		name        string
		path        string
		contentType string
		body        string
		wantMessage string
	}{
		{"malformed json", "/api/v1/schedule", "application/json", `{"tasks": [`, "malformed json"},
		{"empty body", "/api/v1/schedule", "application/json", "", "no input provided"},
		{"missing tasks", "/api/v1/schedule", "application/json", `{}`, "invalid tasks: is required"},
		{"bad deadline", "/api/v1/schedule", "application/json", `{"tasks": [{"name": "x", "time": 1, "deadline": "soon"}]}`, "invalid tasks[0].deadline"},
		{"negative duration", "/api/v1/schedule", "application/json", `{"tasks": [{"name": "x", "time": -1, "deadline": "2024-03-05"}]}`, "invalid tasks[0].time"},
		{"zero capacity", "/api/v1/schedule", "application/json", `{"tasks": [], "maxHoursPerDay": 0}`, "invalid maxHoursPerDay"},
		{"bad capacity query", "/api/v1/schedule?maxHoursPerDay=lots", "application/json", `{"tasks": []}`, "invalid maxHoursPerDay: must be a number"},
		{"infinite capacity query", "/api/v1/schedule?maxHoursPerDay=Inf", "application/json", `{"tasks": []}`, "invalid maxHoursPerDay"},
		{"bad start date query", "/api/v1/schedule?start_date=tomorrow", "application/json", `{"tasks": []}`, "invalid start_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := postSchedule(r, tt.path, tt.contentType, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d: %s", w.Code, w.Body.String())
			}
			env := decodeEnvelope(t, w)
			if env.Success {
				t.Error("Expected success to be false")
			}
			if !strings.Contains(env.Message, tt.wantMessage) {
				t.Errorf("Expected message containing %q, got %q", tt.wantMessage, env.Message)
			}
		})
	}
}

type failingRunner struct{ err error }

func (f failingRunner) Run(*models.ScheduleRequest, scheduler.Clock) (*models.ScheduleResult, error) {
	return nil, f.err
}

func TestCreateSchedule_InternalError(t *testing.T) {
	t.Parallel()

	r := newScheduleRouter(t, failingRunner{err: errors.New("commit task 3: daily capacity exceeded")})
	w := postSchedule(r, "/api/v1/schedule", "application/json", `{"tasks": []}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	env := decodeEnvelope(t, w)
	if strings.Contains(env.Message, "capacity") {
		t.Errorf("Expected internal details to be hidden, got %q", env.Message)
	}
}

func TestCreateSchedule_BodyTooLarge(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	r.Use(middleware.MaxRequestSize(32, zap.NewNop()))
	NewScheduleHandler(newRealRunner(t), zap.NewNop()).RegisterRoutes(r)

	req := httptest.NewRequest("POST", "/schedule", strings.NewReader(`{"tasks": [{"name": "`+strings.Repeat("x", 64)+`"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status 413, got %d", w.Code)
	}
}
