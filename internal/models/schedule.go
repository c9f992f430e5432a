package models

import (
	"sort"
)

// DefaultMaxHoursPerDay is the daily capacity used when a request does not override it
const DefaultMaxHoursPerDay = 5.0

// ScheduleRequest is the input document accepted by every scheduling surface
type ScheduleRequest struct {
	Tasks          []Task   `json:"tasks" validate:"required,dive"`
	MaxHoursPerDay *float64 `json:"maxHoursPerDay,omitempty" validate:"omitempty,gt=0,finite"`
	// StartDate pins the reference date; the caller's clock is used when nil
	StartDate *Date `json:"start_date,omitempty"`
}

// ScheduledSlice is the portion of a task committed to one day
type ScheduledSlice struct {
	TaskID            string     `json:"_id,omitempty"`
	Name              string     `json:"name"`
	Hours             float64    `json:"time"`
	Priority          Priority   `json:"priority"`
	Importance        Importance `json:"importance"`
	Deadline          string     `json:"deadline"`
	DaysUntilDeadline int        `json:"days_until_deadline"`
}

// ScheduledSlot is a slice with its clock range for the day
type ScheduledSlot struct {
	ScheduledSlice
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// UnscheduledEntry reports a task that could not be committed.
// Exactly one of ExceedsTimeLimit or the PartiallyScheduled/RemainingTime pair is set.
type UnscheduledEntry struct {
	Task
	DaysUntilDeadline  int      `json:"days_until_deadline"`
	ExceedsTimeLimit   bool     `json:"exceeds_time_limit,omitempty"`
	PartiallyScheduled *bool    `json:"partially_scheduled,omitempty"`
	RemainingTime      *float64 `json:"remaining_time,omitempty"`
}

// Schedule maps ISO dates to that day's ordered slots
type Schedule map[string][]ScheduledSlot

// Dates returns the scheduled dates in ascending order
func (s Schedule) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// TotalHours sums the slot hours for one date
func (s Schedule) TotalHours(date string) float64 {
	var total float64
	for _, slot := range s[date] {
		total += slot.Hours
	}
	return total
}

// TaskHours sums the hours scheduled for a task identifier across all days
func (s Schedule) TaskHours(taskID string) float64 {
	var total float64
	for _, slots := range s {
		for _, slot := range slots {
			if slot.TaskID == taskID {
				total += slot.Hours
			}
		}
	}
	return total
}

// ScheduleResult is the output document of a scheduling run
type ScheduleResult struct {
	Schedule    Schedule           `json:"schedule"`
	Unscheduled []UnscheduledEntry `json:"unscheduled_tasks"`
}

// NewScheduleResult returns an empty result that encodes as {} and [] rather than null
func NewScheduleResult() *ScheduleResult {
	return &ScheduleResult{
		Schedule:    Schedule{},
		Unscheduled: []UnscheduledEntry{},
	}
}
