package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

// recordingEmitter captures the tasks carried by emitted events.
type recordingEmitter struct {
	err error

	mu    sync.Mutex
	tasks []*domain.GenerationTask
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	t, err := event.GenerationTask()
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.tasks = append(e.tasks, t)
	e.mu.Unlock()
	return e.err
}

func (e *recordingEmitter) last(t *testing.T) *domain.GenerationTask {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	require.NotEmpty(t, e.tasks)
	return e.tasks[len(e.tasks)-1]
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}
