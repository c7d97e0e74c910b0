package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// PostgresTopicStore implements store.TopicStore.
type PostgresTopicStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TopicStore = (*PostgresTopicStore)(nil)

// NewPostgresTopicStore creates a PostgresTopicStore. It panics if db is nil.
func NewPostgresTopicStore(db store.DBTX, logger *slog.Logger) *PostgresTopicStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTopicStore{db: db, logger: logger.With(slog.String("component", "topic_store"))}
}

// GetOrCreate implements store.TopicStore.
func (s *PostgresTopicStore) GetOrCreate(ctx context.Context, name string, level domain.Level) (*domain.Topic, error) {
	topic, err := domain.NewTopic(name, level)
	if err != nil {
		return nil, err
	}

	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO topics (id, name, level, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, level) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, level, description, created_at
	`
	var out domain.Topic
	err = s.db.QueryRowContext(ctx, query,
		topic.ID, topic.Name, topic.Level, topic.Description, topic.CreatedAt,
	).Scan(&out.ID, &out.Name, &out.Level, &out.Description, &out.CreatedAt)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get or create topic",
			slog.String("name", topic.Name),
			slog.String("error", err.Error()))
		return nil, mapNotFound(err, store.ErrTopicNotFound)
	}
	return &out, nil
}

// GetByID implements store.TopicStore.
func (s *PostgresTopicStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	query := `
		SELECT id, name, level, description, created_at
		FROM topics
		WHERE id = $1
	`
	var out domain.Topic
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&out.ID, &out.Name, &out.Level, &out.Description, &out.CreatedAt)
	if err != nil {
		return nil, mapNotFound(err, store.ErrTopicNotFound)
	}
	return &out, nil
}

// WithTx implements store.TopicStore.
func (s *PostgresTopicStore) WithTx(tx *sql.Tx) store.TopicStore {
	return &PostgresTopicStore{db: tx, logger: s.logger}
}

// PostgresLessonStore implements store.LessonStore. List fields are stored
// as JSONB.
type PostgresLessonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.LessonStore = (*PostgresLessonStore)(nil)

// NewPostgresLessonStore creates a PostgresLessonStore. It panics if db is nil.
func NewPostgresLessonStore(db store.DBTX, logger *slog.Logger) *PostgresLessonStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLessonStore{db: db, logger: logger.With(slog.String("component", "lesson_store"))}
}

const lessonColumns = `id, topic_id, title, summary, full_content, exercises, quiz,
	conversational_practice, created_at, updated_at`

// Create implements store.LessonStore.
func (s *PostgresLessonStore) Create(ctx context.Context, l *domain.Lesson) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := l.Validate(); err != nil {
		return err
	}
	lists, err := encodeLessonLists(l)
	if err != nil {
		return err
	}

	query := `INSERT INTO lessons (` + lessonColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err = s.db.ExecContext(ctx, query,
		l.ID, l.TopicID, l.Title, l.Summary, l.FullContent,
		lists[0], lists[1], lists[2], l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create lesson",
			slog.String("lesson_id", l.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	log.Info("lesson created", slog.String("lesson_id", l.ID.String()))
	return nil
}

// Update implements store.LessonStore.
func (s *PostgresLessonStore) Update(ctx context.Context, l *domain.Lesson) error {
	if err := l.Validate(); err != nil {
		return err
	}
	lists, err := encodeLessonLists(l)
	if err != nil {
		return err
	}
	l.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE lessons
		SET title = $1, summary = $2, full_content = $3, exercises = $4, quiz = $5,
			conversational_practice = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := s.db.ExecContext(ctx, query,
		l.Title, l.Summary, l.FullContent, lists[0], lists[1], lists[2], l.UpdatedAt, l.ID)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update lesson",
			slog.String("lesson_id", l.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrLessonNotFound)
}

// GetByID implements store.LessonStore.
func (s *PostgresLessonStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	l, err := scanLesson(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err, store.ErrLessonNotFound)
	}
	return l, nil
}

// List implements store.LessonStore.
func (s *PostgresLessonStore) List(ctx context.Context, limit, offset int) ([]*domain.Lesson, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + lessonColumns + ` FROM lessons ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	lessons := []*domain.Lesson{}
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lesson rows: %w", err)
	}
	return lessons, nil
}

// WithTx implements store.LessonStore.
func (s *PostgresLessonStore) WithTx(tx *sql.Tx) store.LessonStore {
	return &PostgresLessonStore{db: tx, logger: s.logger}
}

func encodeLessonLists(l *domain.Lesson) ([3][]byte, error) {
	var out [3][]byte
	for i, v := range []any{l.Exercises, l.Quiz, l.ConversationalPractice} {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("%w: failed to encode lesson lists: %v", store.ErrInvalidEntity, err)
		}
		out[i] = b
	}
	return out, nil
}

func scanLesson(row rowScanner) (*domain.Lesson, error) {
	var (
		l                         domain.Lesson
		exercises, quiz, practice []byte
	)
	err := row.Scan(&l.ID, &l.TopicID, &l.Title, &l.Summary, &l.FullContent,
		&exercises, &quiz, &practice, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	decodeList(exercises, &l.Exercises)
	decodeList(quiz, &l.Quiz)
	decodeList(practice, &l.ConversationalPractice)
	return &l, nil
}

// decodeList decodes a JSONB list column. Rows written before a column
// held a list, or holding JSON null, decode to an empty list.
func decodeList[T any](raw []byte, dst *[]T) {
	if len(strings.TrimSpace(string(raw))) == 0 || json.Unmarshal(raw, dst) != nil || *dst == nil {
		*dst = []T{}
	}
}
