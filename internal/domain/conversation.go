package domain

import (
	"time"

	"github.com/google/uuid"
)

// VoiceMessageMarker is stored as the user side of an audio turn.
const VoiceMessageMarker = "[voice message]"

// Turn is one exchange in a conversation.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"ai"`
}

// Conversation is a chat session owned by one user. History is oldest first.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	History   []Turn    `json:"history"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation starts an empty session for userID.
func NewConversation(userID uuid.UUID) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:        uuid.New(),
		UserID:    userID,
		History:   []Turn{},
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Append records a completed exchange.
func (c *Conversation) Append(user, assistant string) {
	c.History = append(c.History, Turn{User: user, Assistant: assistant})
	c.UpdatedAt = time.Now().UTC()
}

// OwnedBy reports whether userID owns the conversation.
func (c *Conversation) OwnedBy(userID uuid.UUID) bool {
	return c.UserID == userID
}
