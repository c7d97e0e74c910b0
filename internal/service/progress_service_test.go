package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/mocks"
	"github.com/phrazzld/coach-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressFixture struct {
	svc      *ProgressService
	progress *mocks.ProgressStore
	content  *mocks.ContentStore
	convs    *mocks.ConversationStore
}

func newProgressFixture(t *testing.T, db store.Beginner) *progressFixture {
	t.Helper()
	progress := mocks.NewProgressStore()
	content := mocks.NewContentStore()
	convs := mocks.NewConversationStore()
	svc, err := NewProgressService(db, progress, content.Lessons(), convs, testLogger())
	require.NoError(t, err)
	return &progressFixture{svc: svc, progress: progress, content: content, convs: convs}
}

func (f *progressFixture) seedLesson(t *testing.T) *domain.Lesson {
	t.Helper()
	l := domain.NewLesson(uuid.New())
	l.Title = "Phrasal verbs"
	require.NoError(t, f.content.Lessons().Create(context.Background(), l))
	return l
}

func TestProgressService_ViewLesson(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	for i := 0; i < 3; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	f := newProgressFixture(t, db)
	ctx := context.Background()
	user := uuid.New()
	lesson := f.seedLesson(t)

	day := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return day }

	got, err := f.svc.ViewLesson(ctx, user, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, lesson.ID, got.ID)

	p, err := f.progress.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, p.CompletedLessons)
	assert.Equal(t, domain.LessonPracticeMinutes, p.PracticeTimeMinutes)
	assert.Equal(t, 1, p.CurrentStreak)

	// Second view the same day changes nothing.
	_, err = f.svc.ViewLesson(ctx, user, lesson.ID)
	require.NoError(t, err)
	p, err = f.progress.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.LessonPracticeMinutes, p.PracticeTimeMinutes)
	assert.Equal(t, 1, p.CurrentStreak)

	// Next day extends the streak without crediting the lesson again.
	f.svc.now = func() time.Time { return day.AddDate(0, 0, 1) }
	_, err = f.svc.ViewLesson(ctx, user, lesson.ID)
	require.NoError(t, err)
	p, err = f.progress.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentStreak)
	assert.Equal(t, domain.LessonPracticeMinutes, p.PracticeTimeMinutes)
}

func TestProgressService_ViewMissingLesson(t *testing.T) {
	t.Parallel()
	db, _ := newMockDB(t)
	f := newProgressFixture(t, db)

	_, err := f.svc.ViewLesson(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, store.ErrLessonNotFound)
}

func TestProgressService_ViewLessonSaveFailureRollsBack(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	f := newProgressFixture(t, db)
	f.progress.SaveErr = errors.New("disk full")
	lesson := f.seedLesson(t)

	_, err := f.svc.ViewLesson(context.Background(), uuid.New(), lesson.ID)
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "view_lesson", svcErr.Operation)
}

func TestProgressService_Get(t *testing.T) {
	t.Parallel()
	db, _ := newMockDB(t)
	f := newProgressFixture(t, db)
	ctx := context.Background()
	user := uuid.New()

	now := time.Date(2026, 3, 8, 15, 0, 0, 0, time.UTC) // Sunday
	f.svc.now = func() time.Time { return now }

	for _, started := range []time.Time{
		now.Add(-time.Hour),
		now.Add(-2 * time.Hour),
		now.AddDate(0, 0, -3),
		now.AddDate(0, 0, -10),
	} {
		c := domain.NewConversation(user)
		c.StartedAt = started
		require.NoError(t, f.convs.Create(ctx, c))
	}

	view, err := f.svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelA1.DisplayName(), view.LevelName)
	assert.Equal(t, []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}, view.Chart.Labels)
	assert.Equal(t, []int{0, 0, 0, 1, 0, 0, 2}, view.Chart.Data)
}

func TestProgressService_AddPracticeTime(t *testing.T) {
	t.Parallel()
	db, _ := newMockDB(t)
	f := newProgressFixture(t, db)
	ctx := context.Background()
	user := uuid.New()

	total, err := f.svc.AddPracticeTime(ctx, user, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultPracticeMinutes, total)

	five := 5
	total, err = f.svc.AddPracticeTime(ctx, user, &five)
	require.NoError(t, err)
	assert.Equal(t, DefaultPracticeMinutes+5, total)

	negative := -3
	_, err = f.svc.AddPracticeTime(ctx, user, &negative)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
