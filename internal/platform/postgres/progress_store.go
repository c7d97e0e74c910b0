package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// PostgresProgressStore implements store.ProgressStore.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// NewPostgresProgressStore creates a PostgresProgressStore. It panics if db
// is nil.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProgressStore{db: db, logger: logger.With(slog.String("component", "progress_store"))}
}

// Get implements store.ProgressStore.
func (s *PostgresProgressStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	query := `
		SELECT p.current_level, p.practice_time_minutes, p.words_learned, p.current_streak,
			p.last_activity_date, p.updated_at,
			(SELECT COUNT(*) FROM user_completed_lessons c WHERE c.user_id = p.user_id)
		FROM user_progress p
		WHERE p.user_id = $1
	`
	p := domain.NewUserProgress(userID)
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.CurrentLevel, &p.PracticeTimeMinutes, &p.WordsLearned, &p.CurrentStreak,
		&last, &p.UpdatedAt, &p.CompletedLessons,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return p, nil
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get progress",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	if last.Valid {
		p.LastActivityDate = &last.Time
	}
	return p, nil
}

// Save implements store.ProgressStore.
func (s *PostgresProgressStore) Save(ctx context.Context, p *domain.UserProgress) error {
	query := `
		INSERT INTO user_progress (user_id, current_level, practice_time_minutes, words_learned,
			current_streak, last_activity_date, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			current_level = EXCLUDED.current_level,
			practice_time_minutes = EXCLUDED.practice_time_minutes,
			words_learned = EXCLUDED.words_learned,
			current_streak = EXCLUDED.current_streak,
			last_activity_date = EXCLUDED.last_activity_date,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		p.UserID, p.CurrentLevel, p.PracticeTimeMinutes, p.WordsLearned,
		p.CurrentStreak, nullTime(p.LastActivityDate), p.UpdatedAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save progress",
			slog.String("user_id", p.UserID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// AddCompletedLesson implements store.ProgressStore.
func (s *PostgresProgressStore) AddCompletedLesson(ctx context.Context, userID, lessonID uuid.UUID) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO user_completed_lessons (user_id, lesson_id, completed_at)
		VALUES ($1, $2, now())
		ON CONFLICT DO NOTHING
	`, userID, lessonID)
	if err != nil {
		return false, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// WithTx implements store.ProgressStore.
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{db: tx, logger: s.logger}
}
