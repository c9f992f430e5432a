package scheduler

import (
	"time"

	"github.com/benvon/smart-schedule/internal/models"
)

// Clock supplies the reference time for a scheduling run
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

// Now returns the current local time
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time { return c.At }

// Today returns the calendar date of the clock's current time.
// A nil clock reads the wall clock.
func Today(c Clock) models.Date {
	if c == nil {
		c = SystemClock{}
	}
	return models.DateOf(c.Now())
}
