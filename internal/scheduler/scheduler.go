package scheduler

import (
	"errors"
	"fmt"
	"math"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/benvon/smart-schedule/internal/validation"
	"go.uber.org/zap"
)

const (
	// DefaultMinSliceHours is the smallest slice worth putting on a day
	DefaultMinSliceHours = 0.5
	// DefaultOversizeDeadlineDays is how close a deadline must be before a task
	// larger than one day's capacity is split across days
	DefaultOversizeDeadlineDays = 3
	// DefaultDayStartHour is the clock hour the first slot of each day starts at
	DefaultDayStartHour = 9.0
)

// ErrInvalidConfig is returned for unusable scheduler settings
var ErrInvalidConfig = errors.New("invalid scheduler configuration")

// Settings are the tunable constants of the allocation policy
type Settings struct {
	DailyCapacity        float64
	MinSliceHours        float64
	OversizeDeadlineDays int
	DayStartHour         float64
}

// DefaultSettings returns the standard policy: 5h days, 30 minute slices, 3 day oversize window, 09:00 start
func DefaultSettings() Settings {
	return Settings{
		DailyCapacity:        models.DefaultMaxHoursPerDay,
		MinSliceHours:        DefaultMinSliceHours,
		OversizeDeadlineDays: DefaultOversizeDeadlineDays,
		DayStartHour:         DefaultDayStartHour,
	}
}

// Validate reports the first unusable setting
func (s Settings) Validate() error {
	switch {
	case !(s.DailyCapacity > 0) || math.IsInf(s.DailyCapacity, 0):
		return fmt.Errorf("%w: daily capacity must be positive and finite, got %v", ErrInvalidConfig, s.DailyCapacity)
	case !(s.MinSliceHours > 0) || math.IsInf(s.MinSliceHours, 0):
		return fmt.Errorf("%w: minimum slice must be positive and finite, got %v", ErrInvalidConfig, s.MinSliceHours)
	case s.MinSliceHours > s.DailyCapacity:
		return fmt.Errorf("%w: minimum slice (%v) exceeds daily capacity (%v)", ErrInvalidConfig, s.MinSliceHours, s.DailyCapacity)
	case s.OversizeDeadlineDays < 0:
		return fmt.Errorf("%w: oversize deadline window must not be negative, got %d", ErrInvalidConfig, s.OversizeDeadlineDays)
	case !(s.DayStartHour >= 0 && s.DayStartHour < 24):
		return fmt.Errorf("%w: day start hour must be within [0, 24), got %v", ErrInvalidConfig, s.DayStartHour)
	}
	return nil
}

// Option adjusts scheduler settings
type Option func(*Settings)

// WithDailyCapacity sets the maximum hours per day
func WithDailyCapacity(hours float64) Option {
	return func(s *Settings) { s.DailyCapacity = hours }
}

// WithMinSliceHours sets the smallest slice that may be placed on a day
func WithMinSliceHours(hours float64) Option {
	return func(s *Settings) { s.MinSliceHours = hours }
}

// WithOversizeDeadlineDays sets the deadline window inside which oversized tasks are split
func WithOversizeDeadlineDays(days int) Option {
	return func(s *Settings) { s.OversizeDeadlineDays = days }
}

// WithDayStartHour sets the clock hour of each day's first slot
func WithDayStartHour(hour float64) Option {
	return func(s *Settings) { s.DayStartHour = hour }
}

// Scheduler allocates tasks onto days and time slots
type Scheduler struct {
	settings Settings
	log      *zap.Logger
}

// New creates a scheduler; a nil logger disables logging
func New(log *zap.Logger, opts ...Option) (*Scheduler, error) {
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{settings: settings, log: log}, nil
}

// Settings returns the scheduler's policy settings
func (s *Scheduler) Settings() Settings {
	return s.settings
}

// Run validates a request and schedules it. The request's maxHoursPerDay and
// start_date override the scheduler's capacity and the clock's date.
func (s *Scheduler) Run(req *models.ScheduleRequest, clock Clock) (*models.ScheduleResult, error) {
	if err := validation.ValidateScheduleRequest(req); err != nil {
		return nil, err
	}

	runner := s
	if req.MaxHoursPerDay != nil && *req.MaxHoursPerDay != s.settings.DailyCapacity {
		settings := s.settings
		settings.DailyCapacity = *req.MaxHoursPerDay
		if err := settings.Validate(); err != nil {
			return nil, &models.ValidationError{
				TaskIndex: -1,
				Field:     "maxHoursPerDay",
				Reason:    fmt.Sprintf("must be finite and at least the minimum slice of %v hours", settings.MinSliceHours),
			}
		}
		runner = &Scheduler{settings: settings, log: s.log}
	}

	start := Today(clock)
	if req.StartDate != nil {
		start = *req.StartDate
	}

	return runner.Schedule(req.Tasks, start)
}

// Schedule runs one deterministic pass over tasks with start as the first schedulable day.
// Every deadline is checked before any task is placed.
func (s *Scheduler) Schedule(tasks []models.Task, start models.Date) (*models.ScheduleResult, error) {
	planned := make([]plannedTask, 0, len(tasks))
	for i, task := range tasks {
		if task.Hours < 0 {
			return nil, &models.ValidationError{TaskIndex: i, Field: "time", Reason: "must be greater than or equal to 0"}
		}
		if math.IsNaN(task.Hours) || math.IsInf(task.Hours, 0) {
			return nil, &models.ValidationError{TaskIndex: i, Field: "time", Reason: "must be a finite number"}
		}
		deadline, err := validation.ParseDeadline(i, task)
		if err != nil {
			return nil, err
		}
		planned = append(planned, plannedTask{task: task, deadline: deadline, index: i})
	}

	agg := NewAggregator(s.settings.DailyCapacity)
	allocator := &dailyAllocator{settings: s.settings, log: s.log}
	result := models.NewScheduleResult()

	for _, pt := range sequence(planned, start) {
		entry, err := allocator.allocate(agg, pt, start)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			result.Unscheduled = append(result.Unscheduled, *entry)
		}
	}

	for _, day := range agg.Days() {
		result.Schedule[day.String()] = AssignSlots(agg.Slices(day), s.settings.DayStartHour)
	}

	s.log.Info("schedule_run_completed",
		zap.String("start_date", start.String()),
		zap.Float64("daily_capacity", s.settings.DailyCapacity),
		zap.Int("tasks", len(tasks)),
		zap.Int("scheduled_days", len(result.Schedule)),
		zap.Int("unscheduled", len(result.Unscheduled)),
	)
	return result, nil
}
