package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/coach-api/internal/events"
	"github.com/phrazzld/coach-api/internal/platform/logger"
)

// SubmitEventHandler implements events.EventHandler by decoding the task
// carried by a GenerationRequested event and submitting it for execution.
type SubmitEventHandler struct {
	submitter Submitter
	logger    *slog.Logger
}

// NewSubmitEventHandler creates a handler that submits to submitter.
func NewSubmitEventHandler(submitter Submitter, logger *slog.Logger) *SubmitEventHandler {
	return &SubmitEventHandler{
		submitter: submitter,
		logger:    logger.With("component", "submit_event_handler"),
	}
}

// HandleEvent processes GenerationRequested events and ignores others.
// Submission errors, including ErrQueueFull, are returned wrapped.
func (h *SubmitEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	if event.Type != events.TypeGenerationRequested {
		log.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	t, err := event.GenerationTask()
	if err != nil {
		log.Error("failed to decode task", "error", err, "event_id", event.ID)
		return err
	}
	if err := t.Validate(); err != nil {
		log.Error("event carries invalid task", "error", err, "event_id", event.ID)
		return fmt.Errorf("invalid task in event %s: %w", event.ID, err)
	}

	if err := h.submitter.Submit(ctx, t); err != nil {
		log.Error("failed to submit task",
			"error", err,
			"task_id", t.ID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("task submitted",
		"task_id", t.ID,
		"task_type", jobType(t),
		"event_id", event.ID)
	return nil
}

var _ events.EventHandler = (*SubmitEventHandler)(nil)
