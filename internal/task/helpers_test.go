package task

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/mocks"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeJob runs fn, or returns a fresh ID when fn is nil.
type fakeJob struct {
	task *domain.GenerationTask
	fn   func(ctx context.Context) (uuid.UUID, error)
	runs atomic.Int32
}

func (j *fakeJob) Task() *domain.GenerationTask { return j.task }
func (j *fakeJob) Type() string                 { return jobType(j.task) }

func (j *fakeJob) Execute(ctx context.Context) (uuid.UUID, error) {
	j.runs.Add(1)
	if j.fn != nil {
		return j.fn(ctx)
	}
	return uuid.New(), nil
}

// fakeFactory builds fakeJobs that all run fn.
type fakeFactory struct {
	fn  func(ctx context.Context) (uuid.UUID, error)
	err error
}

func (f *fakeFactory) NewJob(t *domain.GenerationTask) (Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &fakeJob{task: t, fn: f.fn}, nil
}

func newLessonTask(t *testing.T) *domain.GenerationTask {
	t.Helper()
	task, err := domain.NewGenerationTask(uuid.New(), domain.TaskKindLesson, domain.OperationGenerate,
		"Past Tense", domain.LevelB1, nil)
	require.NoError(t, err)
	return task
}

func newTargetTask(t *testing.T, kind domain.TaskKind, op domain.TaskOperation, target uuid.UUID) *domain.GenerationTask {
	t.Helper()
	task, err := domain.NewGenerationTask(uuid.New(), kind, op, "Travel", domain.LevelB1, &target)
	require.NoError(t, err)
	return task
}

// waitForStatus polls until the stored task reaches status.
func waitForStatus(t *testing.T, s *mocks.TaskStore, id uuid.UUID, status domain.TaskStatus) *domain.GenerationTask {
	t.Helper()
	require.Eventually(t, func() bool {
		got := s.Get(id)
		return got != nil && got.Status == status
	}, 2*time.Second, 5*time.Millisecond, "task %s never reached %s", id, status)
	return s.Get(id)
}
