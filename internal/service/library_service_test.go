package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/mocks"
	"github.com/phrazzld/coach-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLibraryFixture(t *testing.T) (*LibraryService, *mocks.ContentStore) {
	t.Helper()
	content := mocks.NewContentStore()
	svc, err := NewLibraryService(content.Lessons(), content.Books(), testLogger())
	require.NoError(t, err)
	return svc, content
}

func seedBook(t *testing.T, content *mocks.ContentStore, title string, published bool, created time.Time) *domain.Book {
	t.Helper()
	b := domain.NewBook("Travel", domain.LevelB1)
	b.Title = title
	b.IsPublished = published
	b.CreatedAt = created
	b.SetOutline([]domain.ChapterStub{{Title: "One"}, {Title: "Two"}})
	require.NoError(t, content.Books().Create(context.Background(), b))
	return b
}

func TestLibraryService_Books(t *testing.T) {
	t.Parallel()
	svc, content := newLibraryFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()
	older := seedBook(t, content, "Older", true, now.Add(-time.Hour))
	newer := seedBook(t, content, "Newer", true, now)
	draft := seedBook(t, content, "Draft", false, now.Add(time.Minute))

	published, err := svc.PublishedBooks(ctx)
	require.NoError(t, err)
	require.Len(t, published, 2)
	assert.Equal(t, newer.ID, published[0].ID)
	assert.Equal(t, older.ID, published[1].ID)

	_, err = svc.AllBooks(ctx, member)
	assert.ErrorIs(t, err, ErrAdminRequired)
	all, err := svc.AllBooks(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.Book(ctx, member, draft.ID)
	assert.ErrorIs(t, err, store.ErrBookNotFound)
	got, err := svc.Book(ctx, admin, draft.ID)
	require.NoError(t, err)
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, "One", got.Chapters[0].Title)
	assert.Equal(t, "Two", got.Chapters[1].Title)

	_, err = svc.Book(ctx, member, uuid.New())
	assert.ErrorIs(t, err, store.ErrBookNotFound)
}

func TestLibraryService_AdminActions(t *testing.T) {
	t.Parallel()
	svc, content := newLibraryFixture(t)
	ctx := context.Background()
	book := seedBook(t, content, "Draft", false, time.Now())

	assert.ErrorIs(t, svc.SetPublished(ctx, member, book.ID, true), ErrAdminRequired)
	require.NoError(t, svc.SetPublished(ctx, admin, book.ID, true))
	got, err := svc.Book(ctx, member, book.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPublished)

	require.NoError(t, svc.SetPublished(ctx, admin, book.ID, false))
	_, err = svc.Book(ctx, member, book.ID)
	assert.ErrorIs(t, err, store.ErrBookNotFound)

	assert.ErrorIs(t, svc.DeleteBook(ctx, member, book.ID), ErrAdminRequired)
	require.NoError(t, svc.DeleteBook(ctx, admin, book.ID))
	_, err = svc.Book(ctx, admin, book.ID)
	assert.ErrorIs(t, err, store.ErrBookNotFound)
	assert.ErrorIs(t, svc.DeleteBook(ctx, admin, book.ID), store.ErrBookNotFound)
}

func TestLibraryService_ListLessonsClampsPaging(t *testing.T) {
	t.Parallel()
	svc, content := newLibraryFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		l := domain.NewLesson(uuid.New())
		l.Title = "Lesson"
		l.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, content.Lessons().Create(ctx, l))
	}

	got, err := svc.ListLessons(ctx, 0, -1)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.True(t, got[0].CreatedAt.After(got[1].CreatedAt))

	got, err = svc.ListLessons(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
