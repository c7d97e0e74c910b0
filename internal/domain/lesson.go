package domain

import (
	"time"

	"github.com/google/uuid"
)

// Question is one exercise or quiz item.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// DialogueLine is one line of a conversational-practice script.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Lesson is a generated lesson. FullContent is markdown.
type Lesson struct {
	ID                     uuid.UUID      `json:"id"`
	TopicID                uuid.UUID      `json:"topic_id"`
	Title                  string         `json:"title"`
	Summary                string         `json:"summary"`
	FullContent            string         `json:"full_content"`
	Exercises              []Question     `json:"exercises"`
	Quiz                   []Question     `json:"quiz"`
	ConversationalPractice []DialogueLine `json:"conversational_practice"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// NewLesson creates an empty lesson attached to topicID.
func NewLesson(topicID uuid.UUID) *Lesson {
	now := time.Now().UTC()
	return &Lesson{
		ID:                     uuid.New(),
		TopicID:                topicID,
		Exercises:              []Question{},
		Quiz:                   []Question{},
		ConversationalPractice: []DialogueLine{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}
}

// Validate checks the identifiers and title.
func (l *Lesson) Validate() error {
	if l.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if l.TopicID == uuid.Nil {
		return NewValidationError("topic_id", "is required", ErrInvalidID)
	}
	if l.Title == "" {
		return NewValidationError("title", "is required", ErrValidation)
	}
	return nil
}
