package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// PostgresConversationStore implements store.ConversationStore. History is
// a JSONB array of {"user", "ai"} pairs.
type PostgresConversationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ConversationStore = (*PostgresConversationStore)(nil)

// NewPostgresConversationStore creates a PostgresConversationStore. It
// panics if db is nil.
func NewPostgresConversationStore(db store.DBTX, logger *slog.Logger) *PostgresConversationStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresConversationStore{db: db, logger: logger.With(slog.String("component", "conversation_store"))}
}

// Create implements store.ConversationStore.
func (s *PostgresConversationStore) Create(ctx context.Context, c *domain.Conversation) error {
	history, err := json.Marshal(c.History)
	if err != nil {
		return fmt.Errorf("%w: failed to encode history: %v", store.ErrInvalidEntity, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, history, started_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, history, c.StartedAt, c.UpdatedAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create conversation",
			slog.String("conversation_id", c.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.ConversationStore.
func (s *PostgresConversationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	var (
		c       domain.Conversation
		history []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, history, started_at, updated_at FROM conversations WHERE id = $1`, id,
	).Scan(&c.ID, &c.UserID, &history, &c.StartedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrConversationNotFound)
	}
	decodeList(history, &c.History)
	return &c, nil
}

// UpdateHistory implements store.ConversationStore.
func (s *PostgresConversationStore) UpdateHistory(ctx context.Context, c *domain.Conversation) error {
	history, err := json.Marshal(c.History)
	if err != nil {
		return fmt.Errorf("%w: failed to encode history: %v", store.ErrInvalidEntity, err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET history = $1, updated_at = $2 WHERE id = $3`,
		history, c.UpdatedAt, c.ID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrConversationNotFound)
}

// CountStartedByDay implements store.ConversationStore.
func (s *PostgresConversationStore) CountStartedByDay(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]domain.DailyCount, error) {
	query := `
		SELECT date_trunc('day', started_at) AS day, COUNT(*)
		FROM conversations
		WHERE user_id = $1 AND started_at >= $2
		GROUP BY day
		ORDER BY day
	`
	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	counts := []domain.DailyCount{}
	for rows.Next() {
		var dc domain.DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan session count: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session counts: %w", err)
	}
	return counts, nil
}
