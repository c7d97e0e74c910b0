package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Topic is a subject at a given level. Lessons attach to a topic, and a
// (name, level) pair identifies at most one topic.
type Topic struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Level       Level     `json:"level"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewTopic builds a topic with a fresh ID.
func NewTopic(name string, level Level) (*Topic, error) {
	t := &Topic{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Level:     level,
		CreatedAt: time.Now().UTC(),
	}
	if t.Name == "" {
		return nil, NewValidationError("name", "is required", ErrEmptyTopic)
	}
	if !level.Valid() {
		return nil, NewValidationError("level", "is not supported", ErrInvalidLevel)
	}
	return t, nil
}
