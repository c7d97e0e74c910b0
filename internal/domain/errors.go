package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or missing.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidLevel is returned for a proficiency code outside A1..C2.
	ErrInvalidLevel = errors.New("invalid proficiency level")

	// ErrInvalidTaskKind is returned for an unknown generation task kind.
	ErrInvalidTaskKind = errors.New("invalid task kind")

	// ErrInvalidOperation is returned for an unknown task operation.
	ErrInvalidOperation = errors.New("invalid task operation")

	// ErrInvalidTransition is returned when a task status change would move
	// backwards or leave a terminal state.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrEmptyTopic is returned when a generation request has no topic.
	ErrEmptyTopic = errors.New("topic cannot be empty")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError creates a ValidationError wrapping err.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}
