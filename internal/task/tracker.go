package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// Tracker records the lifecycle of generation tasks. Every transition is a
// compare-and-set on the stored status, so a task that has already moved on
// is never overwritten.
type Tracker struct {
	store  store.TaskStore
	logger *slog.Logger
}

// NewTracker creates a Tracker backed by s.
func NewTracker(s store.TaskStore, logger *slog.Logger) *Tracker {
	if s == nil {
		panic("task store cannot be nil")
	}
	return &Tracker{
		store:  s,
		logger: logger.With(slog.String("component", "task_tracker")),
	}
}

// Create persists a new pending task.
func (t *Tracker) Create(
	ctx context.Context,
	userID uuid.UUID,
	kind domain.TaskKind,
	op domain.TaskOperation,
	topic string,
	level domain.Level,
	targetID *uuid.UUID,
) (*domain.GenerationTask, error) {
	task, err := domain.NewGenerationTask(userID, kind, op, topic, level, targetID)
	if err != nil {
		return nil, err
	}
	if err := t.Insert(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Insert persists an already built pending task.
func (t *Tracker) Insert(ctx context.Context, task *domain.GenerationTask) error {
	if task.Status != domain.TaskStatusPending {
		return fmt.Errorf("%w: new task is %s", domain.ErrInvalidTransition, task.Status)
	}
	if err := t.store.Create(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	logger.FromContextOrDefault(ctx, t.logger).Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("task_type", string(task.Kind)),
		slog.String("operation", string(task.Operation)))
	return nil
}

// ListByStatus returns tasks in status, oldest first. A positive olderThan
// keeps only tasks not updated within that window.
func (t *Tracker) ListByStatus(ctx context.Context, status domain.TaskStatus, olderThan time.Duration) ([]*domain.GenerationTask, error) {
	return t.store.ListByStatus(ctx, status, olderThan)
}

// MarkProcessing moves task from pending to processing.
func (t *Tracker) MarkProcessing(ctx context.Context, task *domain.GenerationTask) error {
	return t.transition(ctx, task, func(next *domain.GenerationTask) error {
		return next.MarkProcessing()
	})
}

// MarkCompleted moves task from processing to completed with resultID.
func (t *Tracker) MarkCompleted(ctx context.Context, task *domain.GenerationTask, resultID uuid.UUID) error {
	return t.transition(ctx, task, func(next *domain.GenerationTask) error {
		return next.MarkCompleted(resultID)
	})
}

// MarkFailed moves a non-terminal task to failed with message.
func (t *Tracker) MarkFailed(ctx context.Context, task *domain.GenerationTask, message string) error {
	return t.transition(ctx, task, func(next *domain.GenerationTask) error {
		return next.MarkFailed(message)
	})
}

// Get returns the task if userID owns it or isAdmin is set. A task owned by
// someone else is reported as not found.
func (t *Tracker) Get(ctx context.Context, id, userID uuid.UUID, isAdmin bool) (*domain.GenerationTask, error) {
	task, err := t.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !task.VisibleTo(userID, isAdmin) {
		logger.FromContextOrDefault(ctx, t.logger).Warn("task lookup by non-owner",
			slog.String("task_id", id.String()),
			slog.String("user_id", userID.String()))
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

// transition applies mutate to a copy of task and stores it only if the row
// is still in task's current status. task is updated on success.
func (t *Tracker) transition(
	ctx context.Context,
	task *domain.GenerationTask,
	mutate func(*domain.GenerationTask) error,
) error {
	from := task.Status
	next := *task
	if err := mutate(&next); err != nil {
		return err
	}
	if err := t.store.Transition(ctx, &next, from); err != nil {
		if errors.Is(err, store.ErrStaleTask) {
			logger.FromContextOrDefault(ctx, t.logger).Warn("task moved on before transition",
				slog.String("task_id", task.ID.String()),
				slog.String("from", string(from)),
				slog.String("to", string(next.Status)))
		}
		return err
	}
	*task = next
	return nil
}
