package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/service"
	"github.com/phrazzld/coach-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibraryHandler_ListLessons(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedLimit  int
		expectedOffset int
	}{
		{name: "defaults", expectedStatus: http.StatusOK, expectedLimit: service.DefaultLessonPageSize},
		{name: "explicit page", query: "?limit=5&offset=10", expectedStatus: http.StatusOK, expectedLimit: 5, expectedOffset: 10},
		{name: "limit clamped", query: "?limit=1000", expectedStatus: http.StatusOK, expectedLimit: service.MaxLessonPageSize},
		{name: "negative offset", query: "?offset=-1", expectedStatus: http.StatusBadRequest},
		{name: "non numeric limit", query: "?limit=ten", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lib := &fakeLibraryService{
				ListLessonsFn: func(_ context.Context, limit, offset int) ([]*domain.Lesson, error) {
					assert.Equal(t, tt.expectedOffset, offset)
					return []*domain.Lesson{domain.NewLesson(uuid.New())}, nil
				},
			}
			rec := serve(t, NewLibraryHandler(lib, &fakeProgressService{}).ListLessons, testRequest{
				method: http.MethodGet, pattern: "/api/lessons", path: "/api/lessons" + tt.query, userID: memberID,
			})

			require.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp LessonListResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Len(t, resp.Lessons, 1)
			assert.Equal(t, tt.expectedLimit, resp.Limit)
			assert.Equal(t, tt.expectedOffset, resp.Offset)
		})
	}
}

func TestLibraryHandler_GetLessonRecordsView(t *testing.T) {
	lesson := domain.NewLesson(uuid.New())
	lesson.Title = "Past Simple"
	var viewed uuid.UUID

	progress := &fakeProgressService{
		ViewLessonFn: func(_ context.Context, userID, lessonID uuid.UUID) (*domain.Lesson, error) {
			if lessonID != lesson.ID {
				return nil, store.ErrLessonNotFound
			}
			viewed = userID
			return lesson, nil
		},
	}
	h := NewLibraryHandler(&fakeLibraryService{}, progress)
	pattern := "/api/lessons/{id}"

	rec := serve(t, h.GetLesson, testRequest{
		method: http.MethodGet, pattern: pattern, path: "/api/lessons/" + lesson.ID.String(), userID: memberID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, memberID, viewed)
	var got domain.Lesson
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Past Simple", got.Title)

	rec = serve(t, h.GetLesson, testRequest{
		method: http.MethodGet, pattern: pattern, path: "/api/lessons/" + uuid.NewString(), userID: memberID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Lesson not found", decodeError(t, rec).Error)
}

func TestLibraryHandler_Books(t *testing.T) {
	published := domain.NewBook("Travel", domain.LevelA2)
	published.IsPublished = true
	draft := domain.NewBook("Business", domain.LevelC1)

	lib := &fakeLibraryService{
		PublishedBooksFn: func(context.Context) ([]*domain.Book, error) {
			return []*domain.Book{published}, nil
		},
		AllBooksFn: func(_ context.Context, c service.Caller) ([]*domain.Book, error) {
			if !c.IsAdmin {
				return nil, service.ErrAdminRequired
			}
			return []*domain.Book{published, draft}, nil
		},
		BookFn: func(_ context.Context, c service.Caller, id uuid.UUID) (*domain.Book, error) {
			switch {
			case id == published.ID:
				return published, nil
			case id == draft.ID && c.IsAdmin:
				return draft, nil
			}
			return nil, store.ErrBookNotFound
		},
	}
	h := NewLibraryHandler(lib, &fakeProgressService{})

	t.Run("library lists published books", func(t *testing.T) {
		rec := serve(t, h.Library, testRequest{method: http.MethodGet, pattern: "/api/library", path: "/api/library", userID: memberID})
		require.Equal(t, http.StatusOK, rec.Code)
		var resp BookListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Books, 1)
		assert.Equal(t, published.ID, resp.Books[0].ID)
	})

	t.Run("admin lists every book", func(t *testing.T) {
		req := testRequest{method: http.MethodGet, pattern: "/api/admin/books", path: "/api/admin/books", userID: adminID, admin: true}
		rec := serve(t, h.AdminBooks, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp BookListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Books, 2)

		req.userID, req.admin = memberID, false
		rec = serve(t, h.AdminBooks, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("draft hidden from members", func(t *testing.T) {
		pattern := "/api/books/{id}"
		rec := serve(t, h.GetBook, testRequest{
			method: http.MethodGet, pattern: pattern, path: "/api/books/" + draft.ID.String(), userID: memberID,
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Book not found", decodeError(t, rec).Error)

		rec = serve(t, h.GetBook, testRequest{
			method: http.MethodGet, pattern: pattern, path: "/api/books/" + draft.ID.String(), userID: adminID, admin: true,
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestLibraryHandler_PublishAndDelete(t *testing.T) {
	bookID := uuid.New()
	var state *bool
	deleted := false

	lib := &fakeLibraryService{
		SetPublishedFn: func(_ context.Context, c service.Caller, id uuid.UUID, published bool) error {
			if !c.IsAdmin {
				return service.ErrAdminRequired
			}
			if id != bookID {
				return store.ErrBookNotFound
			}
			state = &published
			return nil
		},
		DeleteBookFn: func(_ context.Context, c service.Caller, id uuid.UUID) error {
			if !c.IsAdmin {
				return service.ErrAdminRequired
			}
			deleted = true
			return nil
		},
	}
	h := NewLibraryHandler(lib, &fakeProgressService{})
	path := "/api/admin/books/" + bookID.String()

	rec := serve(t, h.Publish, testRequest{
		method: http.MethodPost, pattern: "/api/admin/books/{id}/publish", path: path + "/publish", userID: adminID, admin: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+bookID.String()+`","is_published":true}`, rec.Body.String())
	require.NotNil(t, state)
	assert.True(t, *state)

	rec = serve(t, h.Unpublish, testRequest{
		method: http.MethodPost, pattern: "/api/admin/books/{id}/unpublish", path: path + "/unpublish", userID: adminID, admin: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *state)

	rec = serve(t, h.Publish, testRequest{
		method: http.MethodPost, pattern: "/api/admin/books/{id}/publish",
		path: "/api/admin/books/" + uuid.NewString() + "/publish", userID: adminID, admin: true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h.DeleteBook, testRequest{
		method: http.MethodDelete, pattern: "/api/admin/books/{id}", path: path, userID: memberID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, deleted)

	rec = serve(t, h.DeleteBook, testRequest{
		method: http.MethodDelete, pattern: "/api/admin/books/{id}", path: path, userID: adminID, admin: true,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.True(t, deleted)
}
