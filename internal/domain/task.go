package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskKind identifies what a generation task produces.
type TaskKind string

// Supported task kinds.
const (
	TaskKindLesson  TaskKind = "lesson"
	TaskKindBook    TaskKind = "book"
	TaskKindChapter TaskKind = "chapter"
)

// Valid reports whether k is a known kind.
func (k TaskKind) Valid() bool {
	switch k {
	case TaskKindLesson, TaskKindBook, TaskKindChapter:
		return true
	default:
		return false
	}
}

// TaskStatus is the lifecycle state of a generation task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// TaskOperation says whether a task creates a new entity, rewrites an
// existing one, or fills the chapter bodies of an outlined book.
type TaskOperation string

// Supported task operations.
const (
	OperationGenerate    TaskOperation = "generate"
	OperationRegenerate  TaskOperation = "regenerate"
	OperationFillContent TaskOperation = "fill_content"
)

// Valid reports whether o is a known operation.
func (o TaskOperation) Valid() bool {
	switch o {
	case OperationGenerate, OperationRegenerate, OperationFillContent:
		return true
	default:
		return false
	}
}

// GenerationTask records one asynchronous content-generation job.
//
// ResultID is set iff Status is completed and ErrorMessage is non-empty iff
// Status is failed. Transitions only move forward along
// pending -> processing -> {completed, failed}.
type GenerationTask struct {
	ID           uuid.UUID     `json:"id"`
	UserID       uuid.UUID     `json:"user_id"`
	Kind         TaskKind      `json:"task_type"`
	Operation    TaskOperation `json:"operation"`
	Status       TaskStatus    `json:"status"`
	Topic        string        `json:"topic"`
	Level        Level         `json:"level"`
	TargetID     *uuid.UUID    `json:"target_id,omitempty"`
	ResultID     *uuid.UUID    `json:"result_id,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// NewGenerationTask creates a pending task. targetID names the entity being
// regenerated or filled and must be set for every operation except generate.
func NewGenerationTask(
	userID uuid.UUID,
	kind TaskKind,
	op TaskOperation,
	topic string,
	level Level,
	targetID *uuid.UUID,
) (*GenerationTask, error) {
	now := time.Now().UTC()
	t := &GenerationTask{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Operation: op,
		Status:    TaskStatusPending,
		Topic:     strings.TrimSpace(topic),
		Level:     level,
		TargetID:  targetID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks field values and the status/result/error invariants.
func (t *GenerationTask) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if t.UserID == uuid.Nil {
		return NewValidationError("user_id", "is required", ErrInvalidID)
	}
	if !t.Kind.Valid() {
		return NewValidationError("task_type", "is not supported", ErrInvalidTaskKind)
	}
	if !t.Operation.Valid() {
		return NewValidationError("operation", "is not supported", ErrInvalidOperation)
	}
	if t.Topic == "" {
		return NewValidationError("topic", "is required", ErrEmptyTopic)
	}
	if !t.Level.Valid() {
		return NewValidationError("level", "is not supported", ErrInvalidLevel)
	}
	if t.Operation != OperationGenerate && (t.TargetID == nil || *t.TargetID == uuid.Nil) {
		return NewValidationError("target_id", "is required for "+string(t.Operation), ErrInvalidID)
	}
	if t.Kind == TaskKindChapter && t.Operation == OperationGenerate {
		return NewValidationError("operation", "chapters are only regenerated", ErrInvalidOperation)
	}
	if !t.Status.Valid() {
		return NewValidationError("status", "is not supported", ErrValidation)
	}
	if (t.Status == TaskStatusCompleted) != (t.ResultID != nil) {
		return NewValidationError("result_id", "must be set only for completed tasks", ErrValidation)
	}
	if (t.Status == TaskStatusFailed) != (t.ErrorMessage != "") {
		return NewValidationError("error_message", "must be set only for failed tasks", ErrValidation)
	}
	return nil
}

// MarkProcessing moves a pending task to processing.
func (t *GenerationTask) MarkProcessing() error {
	if t.Status != TaskStatusPending {
		return t.transitionError(TaskStatusProcessing)
	}
	t.Status = TaskStatusProcessing
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkCompleted moves a processing task to completed with resultID.
func (t *GenerationTask) MarkCompleted(resultID uuid.UUID) error {
	if t.Status != TaskStatusProcessing {
		return t.transitionError(TaskStatusCompleted)
	}
	if resultID == uuid.Nil {
		return NewValidationError("result_id", "is required", ErrInvalidID)
	}
	now := time.Now().UTC()
	t.Status = TaskStatusCompleted
	t.ResultID = &resultID
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

// MarkFailed moves any non-terminal task to failed. An empty message is
// replaced so the failed/error invariant still holds.
func (t *GenerationTask) MarkFailed(message string) error {
	if t.Status.Terminal() {
		return t.transitionError(TaskStatusFailed)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		message = "generation failed"
	}
	now := time.Now().UTC()
	t.Status = TaskStatusFailed
	t.ErrorMessage = message
	t.UpdatedAt = now
	t.CompletedAt = &now
	return nil
}

// VisibleTo reports whether userID may read the task. Admins see every task.
func (t *GenerationTask) VisibleTo(userID uuid.UUID, isAdmin bool) bool {
	return isAdmin || t.UserID == userID
}

func (t *GenerationTask) transitionError(to TaskStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
}
