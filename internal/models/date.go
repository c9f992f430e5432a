package models

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire
const DateLayout = "2006-01-02"

// Date is a naive calendar date without time of day or zone
type Date struct {
	t time.Time
}

// NewDate returns the date for the given year, month and day
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return Date{t: t}, nil
}

// AddDays returns the date n days after d (n may be negative)
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the whole number of days from d to other; negative when other is earlier.
// Both dates sit at UTC midnight, so Unix seconds divide evenly and avoid time.Duration overflow.
func (d Date) DaysUntil(other Date) int {
	return int((other.t.Unix() - d.t.Unix()) / secondsPerDay)
}

// Before reports whether d is earlier than other
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

// After reports whether d is later than other
func (d Date) After(other Date) bool { return d.t.After(other.t) }

// IsZero reports whether d is the zero date
func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// MarshalText encodes the date as YYYY-MM-DD
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a YYYY-MM-DD date
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
