package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

const taskColumns = `id, user_id, task_type, operation, status, topic, level,
	target_id, result_id, error_message, created_at, updated_at, completed_at`

// PostgresTaskStore implements store.TaskStore.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// NewPostgresTaskStore creates a PostgresTaskStore. It panics if db is nil.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Create implements store.TaskStore.
func (s *PostgresTaskStore) Create(ctx context.Context, t *domain.GenerationTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := t.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("task_id", t.ID.String()),
			slog.String("error", err.Error()))
		return err
	}

	query := `INSERT INTO generation_tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.UserID, t.Kind, t.Operation, t.Status, t.Topic, t.Level,
		nullUUID(t.TargetID), nullUUID(t.ResultID), t.ErrorMessage,
		t.CreatedAt, t.UpdatedAt, nullTime(t.CompletedAt),
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("task_id", t.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", t.ID.String()),
		slog.String("task_type", string(t.Kind)))
	return nil
}

// GetByID implements store.TaskStore.
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error) {
	query := `SELECT ` + taskColumns + ` FROM generation_tasks WHERE id = $1`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err, store.ErrTaskNotFound)
	}
	return t, nil
}

// Transition implements store.TaskStore.
func (s *PostgresTaskStore) Transition(ctx context.Context, t *domain.GenerationTask, from domain.TaskStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE generation_tasks
		SET status = $1, result_id = $2, error_message = $3, updated_at = $4, completed_at = $5
		WHERE id = $6 AND status = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		t.Status, nullUUID(t.ResultID), t.ErrorMessage, t.UpdatedAt, nullTime(t.CompletedAt),
		t.ID, from,
	)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("task_id", t.ID.String()),
			slog.String("status", string(t.Status)),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrStaleTask); err != nil {
		// Distinguish a missing task from one that has already moved on.
		var exists bool
		if qErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM generation_tasks WHERE id = $1)`, t.ID).Scan(&exists); qErr == nil && !exists {
			return store.ErrTaskNotFound
		}
		log.Warn("task transition lost",
			slog.String("task_id", t.ID.String()),
			slog.String("from", string(from)),
			slog.String("to", string(t.Status)))
		return err
	}
	return nil
}

// ListByStatus implements store.TaskStore.
func (s *PostgresTaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
	olderThan time.Duration,
) ([]*domain.GenerationTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM generation_tasks WHERE status = $1`
	args := []any{status}
	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := []*domain.GenerationTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.GenerationTask, error) {
	var (
		t                  domain.GenerationTask
		targetID, resultID uuid.NullUUID
		completedAt        sql.NullTime
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.Kind, &t.Operation, &t.Status, &t.Topic, &t.Level,
		&targetID, &resultID, &t.ErrorMessage, &t.CreatedAt, &t.UpdatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if targetID.Valid {
		t.TargetID = &targetID.UUID
	}
	if resultID.Valid {
		t.ResultID = &resultID.UUID
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
