package api

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
)

// GenerateRequest asks for new content on a topic at a CEFR level.
type GenerateRequest struct {
	Topic string `json:"topic" validate:"required,max=200"`
	Level string `json:"level" validate:"required"`
}

// TaskSubmittedResponse is the body of a 303 answer to a generation request.
type TaskSubmittedResponse struct {
	TaskID    uuid.UUID         `json:"task_id"`
	Status    domain.TaskStatus `json:"status"`
	StatusURL string            `json:"status_url"`
}

// StatusURL is the polling endpoint of a task.
func StatusURL(taskID uuid.UUID) string {
	return fmt.Sprintf("/api/generation/%s", taskID)
}

// ChatRequest is one text chat turn. An empty ConversationID starts a new
// conversation.
type ChatRequest struct {
	Message        string `json:"message" validate:"required,max=4000"`
	ConversationID string `json:"conversation_id"`
}

// PracticeTimeRequest adds practice minutes. A missing value adds one.
type PracticeTimeRequest struct {
	Minutes *int `json:"minutes" validate:"omitempty,gt=0,lte=1440"`
}

// PracticeTimeResponse reports the new practice total.
type PracticeTimeResponse struct {
	Status   string `json:"status"`
	NewTotal int    `json:"new_total"`
}

// LessonListResponse is one page of lessons.
type LessonListResponse struct {
	Lessons []*domain.Lesson `json:"lessons"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// BookListResponse lists books without paging.
type BookListResponse struct {
	Books []*domain.Book `json:"books"`
}

// PublishResponse reports a book's publication state after a change.
type PublishResponse struct {
	ID          uuid.UUID `json:"id"`
	IsPublished bool      `json:"is_published"`
}

// parseConversationID maps the optional conversation_id to a pointer.
func parseConversationID(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError("conversation_id", "has invalid format", domain.ErrInvalidID)
	}
	return &id, nil
}
