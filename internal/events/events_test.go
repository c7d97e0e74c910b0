package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	type testPayload struct {
		ID     uuid.UUID `json:"id"`
		Action string    `json:"action"`
	}
	payload := testPayload{ID: uuid.New(), Action: "test_action"}

	event, err := NewEvent("test_event", payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "test_event", event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded testPayload
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent("bad", make(chan int))
	assert.Error(t, err)
}

func TestGenerationRequested_RoundTrip(t *testing.T) {
	target := uuid.New()
	task, err := domain.NewGenerationTask(uuid.New(), domain.TaskKindBook, domain.OperationFillContent,
		"Travel", domain.LevelB1, &target)
	require.NoError(t, err)

	event, err := NewGenerationRequested(task)
	require.NoError(t, err)
	assert.Equal(t, TypeGenerationRequested, event.Type)

	got, err := event.GenerationTask()
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.UserID, got.UserID)
	assert.Equal(t, domain.TaskKindBook, got.Kind)
	assert.Equal(t, domain.OperationFillContent, got.Operation)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	require.NotNil(t, got.TargetID)
	assert.Equal(t, target, *got.TargetID)
}

func TestGenerationTask_WrongType(t *testing.T) {
	event, err := NewEvent("other", map[string]string{})
	require.NoError(t, err)

	_, err = event.GenerationTask()
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	LastEvent    *Event
	HandlerError error
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	var got *Event
	h := HandlerFunc(func(ctx context.Context, e *Event) error {
		got = e
		return errors.New("handler error")
	})

	event, err := NewEvent("test_type", nil)
	require.NoError(t, err)

	assert.EqualError(t, h.HandleEvent(context.Background(), event), "handler error")
	assert.Same(t, event, got)
}
