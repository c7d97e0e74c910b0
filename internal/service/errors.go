package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/store"
	"github.com/phrazzld/coach-api/internal/task"
)

// Common service errors - sentinel errors used across service implementations.
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in ServiceError
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource belongs to a different user than the
	// caller. The API layer responds with 404 so the resource's existence is
	// not revealed.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrAdminRequired indicates the operation is reserved for admins.
	// API layer should map this to HTTP 403 Forbidden.
	ErrAdminRequired = errors.New("admin privileges required")

	// ErrEmptyMessage is returned for a chat turn without text or audio.
	ErrEmptyMessage = domain.NewValidationError("message", "is required", domain.ErrValidation)
)

// Caller identifies the authenticated user making a request.
type Caller struct {
	UserID  uuid.UUID
	IsAdmin bool
}

func (c Caller) requireAdmin() error {
	if !c.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

// ServiceError wraps unexpected errors from a service with context.
type ServiceError struct {
	// Service names the service, e.g. "generation" or "chat"
	Service string
	// Operation is the operation that failed (e.g., "request_lesson")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err in a ServiceError. Expected conditions the API
// maps directly (not found, validation, ownership, admin, backpressure)
// are returned unwrapped.
func newServiceError(service, operation, message string, err error) error {
	if err == nil {
		return nil
	}
	if isExpected(err) {
		return err
	}
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func isExpected(err error) bool {
	var validation *domain.ValidationError
	switch {
	case store.IsNotFoundError(err),
		errors.As(err, &validation),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, ErrNotOwned),
		errors.Is(err, ErrAdminRequired),
		errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return true
	}
	return false
}
