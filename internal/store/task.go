package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
)

// TaskStore persists generation tasks.
type TaskStore interface {
	// Create inserts a new task. The task must be valid.
	Create(ctx context.Context, task *domain.GenerationTask) error

	// GetByID returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error)

	// Transition writes the task's status, result, error and timestamps,
	// but only if the stored row is still in status from. It returns
	// ErrStaleTask when the row has moved on and ErrTaskNotFound when it
	// does not exist.
	Transition(ctx context.Context, task *domain.GenerationTask, from domain.TaskStatus) error

	// ListByStatus returns tasks in status, oldest first. A positive
	// olderThan limits the result to tasks not updated within that window.
	ListByStatus(ctx context.Context, status domain.TaskStatus, olderThan time.Duration) ([]*domain.GenerationTask, error)
}
