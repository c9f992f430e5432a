package models

import (
	"errors"
	"fmt"
)

// ErrInvalidInput marks errors caused by a malformed schedule request
var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes one rejected field of a schedule request.
// TaskIndex is -1 for request-level fields.
type ValidationError struct {
	TaskIndex int
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.TaskIndex < 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid tasks[%d].%s: %s", e.TaskIndex, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidInput
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
