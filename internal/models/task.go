package models

import "strings"

// Priority represents how soon the user wants a task done
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"

	// DefaultPriority is used for empty or unrecognized priority values
	DefaultPriority = PriorityMedium
)

// Importance represents how much a task matters regardless of its deadline
type Importance string

const (
	ImportanceOptional  Importance = "optional"
	ImportanceNormal    Importance = "normal"
	ImportanceImportant Importance = "important"
	ImportanceCritical  Importance = "critical"

	// DefaultImportance is used for empty or unrecognized importance values
	DefaultImportance = ImportanceNormal
)

// ParsePriority matches s case-insensitively against the known priorities.
// Unrecognized values resolve to DefaultPriority with ok set to false.
func ParsePriority(s string) (p Priority, ok bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityUrgent:
		return PriorityUrgent, true
	default:
		return DefaultPriority, false
	}
}

// ParseImportance matches s case-insensitively against the known importance levels.
// Unrecognized values resolve to DefaultImportance with ok set to false.
func ParseImportance(s string) (i Importance, ok bool) {
	switch Importance(strings.ToLower(strings.TrimSpace(s))) {
	case ImportanceOptional:
		return ImportanceOptional, true
	case ImportanceNormal:
		return ImportanceNormal, true
	case ImportanceImportant:
		return ImportanceImportant, true
	case ImportanceCritical:
		return ImportanceCritical, true
	default:
		return DefaultImportance, false
	}
}

// Score maps the priority onto 1 (low) through 4 (urgent).
// Unrecognized values score as DefaultPriority.
func (p Priority) Score() int {
	normalized, _ := ParsePriority(string(p))
	switch normalized {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityLow:
		return 1
	default:
		return 2
	}
}

// Score maps the importance onto 1 (optional) through 4 (critical).
// Unrecognized values score as DefaultImportance.
func (i Importance) Score() int {
	normalized, _ := ParseImportance(string(i))
	switch normalized {
	case ImportanceCritical:
		return 4
	case ImportanceImportant:
		return 3
	case ImportanceOptional:
		return 1
	default:
		return 2
	}
}

// Weight is the priority/importance product used to order a day's slots
func Weight(p Priority, i Importance) int {
	return p.Score() * i.Score()
}

// Task is a normalized task record submitted for scheduling.
// Priority and Importance keep the caller's spelling; scoring normalizes them.
type Task struct {
	ID         string     `json:"_id,omitempty"`
	Name       string     `json:"name"`
	Hours      float64    `json:"time" validate:"gte=0,finite"`
	Priority   Priority   `json:"priority"`
	Importance Importance `json:"importance"`
	Deadline   string     `json:"deadline" validate:"required,iso_date"`
}
