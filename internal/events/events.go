package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
)

// Event types.
const (
	// TypeGenerationRequested carries a pending domain.GenerationTask.
	TypeGenerationRequested = "generation_requested"
)

// Event is a typed message with a JSON payload.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewEvent serializes payload into a new event of eventType.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NewGenerationRequested wraps a pending task.
func NewGenerationRequested(task *domain.GenerationTask) (*Event, error) {
	return NewEvent(TypeGenerationRequested, task)
}

// UnmarshalPayload decodes the event payload into v.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// GenerationTask decodes the task of a GenerationRequested event.
func (e *Event) GenerationTask() (*domain.GenerationTask, error) {
	if e.Type != TypeGenerationRequested {
		return nil, fmt.Errorf("event %s is %q, not %q", e.ID, e.Type, TypeGenerationRequested)
	}
	var t domain.GenerationTask
	if err := e.UnmarshalPayload(&t); err != nil {
		return nil, fmt.Errorf("failed to decode task payload: %w", err)
	}
	return &t, nil
}

// EventHandler processes events.
type EventHandler interface {
	// HandleEvent returns an error if the event cannot be handled.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter publishes events to handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}
