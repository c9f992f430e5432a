package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/smart-schedule/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Report JSON field names so errors match the wire format
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := Validate.RegisterValidation("iso_date", validateISODate); err != nil {
		panic(fmt.Sprintf("failed to register iso_date validator: %v", err))
	}
	if err := Validate.RegisterValidation("finite", validateFinite); err != nil {
		panic(fmt.Sprintf("failed to register finite validator: %v", err))
	}
}

// validateFinite rejects NaN and infinite floats, which YAML and query strings can carry
func validateFinite(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validateISODate validates that a string is a YYYY-MM-DD calendar date
func validateISODate(fl validator.FieldLevel) bool {
	_, err := models.ParseDate(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateScheduleRequest checks the request shape before any task is scheduled.
// The first failing field is returned as a *models.ValidationError.
func ValidateScheduleRequest(req *models.ScheduleRequest) error {
	if req == nil {
		return &models.ValidationError{TaskIndex: -1, Field: "request", Reason: "is required"}
	}

	err := Validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return toValidationError(validationErrors[0])
}

// ParseDeadline validates and parses a task's deadline field
func ParseDeadline(index int, task models.Task) (models.Date, error) {
	d, err := models.ParseDate(task.Deadline)
	if err != nil {
		return models.Date{}, &models.ValidationError{TaskIndex: index, Field: "deadline", Reason: describeTag("iso_date", "")}
	}
	return d, nil
}

// toValidationError converts a validator field error into the model error,
// recovering the task index from namespaces like ScheduleRequest.tasks[3].deadline
func toValidationError(fe validator.FieldError) *models.ValidationError {
	index := -1
	ns := fe.Namespace()
	if open := strings.Index(ns, "tasks["); open >= 0 {
		rest := ns[open+len("tasks["):]
		if end := strings.Index(rest, "]"); end > 0 {
			if _, err := fmt.Sscanf(rest[:end], "%d", &index); err != nil {
				index = -1
			}
		}
	}
	return &models.ValidationError{
		TaskIndex: index,
		Field:     fe.Field(),
		Reason:    describeTag(fe.Tag(), fe.Param()),
	}
}

func describeTag(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "iso_date":
		return "must be a date in YYYY-MM-DD format"
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "finite":
		return "must be a finite number"
	default:
		return fmt.Sprintf("failed %s validation", tag)
	}
}
