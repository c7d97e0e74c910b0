package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
)

// ConversationStore persists chat sessions.
type ConversationStore interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	// UpdateHistory stores the full history of a conversation.
	UpdateHistory(ctx context.Context, conv *domain.Conversation) error
	// CountStartedByDay counts a user's conversations per calendar day
	// starting on or after since.
	CountStartedByDay(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.DailyCount, error)
}

// ProgressStore persists per-user progress.
type ProgressStore interface {
	// Get returns the user's progress, or a fresh record when none is stored.
	Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error)
	// Save upserts the progress record.
	Save(ctx context.Context, progress *domain.UserProgress) error
	// AddCompletedLesson records lessonID in the user's completed set and
	// reports whether it was newly added.
	AddCompletedLesson(ctx context.Context, userID, lessonID uuid.UUID) (bool, error)
	WithTx(tx *sql.Tx) ProgressStore
}

// SettingsStore persists runtime key/value settings.
type SettingsStore interface {
	// GetSettings returns the stored values for keys. Missing keys are
	// absent from the map.
	GetSettings(ctx context.Context, keys ...string) (map[string]string, error)
	SetSettings(ctx context.Context, values map[string]string) error
}
