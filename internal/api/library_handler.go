package api

import (
	"net/http"

	"github.com/phrazzld/coach-api/internal/api/shared"
	"github.com/phrazzld/coach-api/internal/service"
)

// LibraryHandler serves lessons, the book library and admin book actions.
type LibraryHandler struct {
	library  LibraryService
	progress ProgressService
}

// NewLibraryHandler creates a LibraryHandler. Lesson views are recorded
// through progress.
func NewLibraryHandler(library LibraryService, progress ProgressService) *LibraryHandler {
	return &LibraryHandler{library: library, progress: progress}
}

// ListLessons handles GET /api/lessons?limit=&offset=.
func (h *LibraryHandler) ListLessons(w http.ResponseWriter, r *http.Request) {
	if _, ok := handleCaller(w, r); !ok {
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultLessonPageSize)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	lessons, err := h.library.ListLessons(r.Context(), limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list lessons")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, LessonListResponse{
		Lessons: lessons,
		Limit:   service.LessonPageLimit(limit),
		Offset:  offset,
	})
}

// GetLesson handles GET /api/lessons/{id}. Viewing a lesson records it in
// the caller's progress.
func (h *LibraryHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	c, id, ok := handleCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	lesson, err := h.progress.ViewLesson(r.Context(), c.UserID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load lesson")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, lesson)
}

// Library handles GET /api/library.
func (h *LibraryHandler) Library(w http.ResponseWriter, r *http.Request) {
	if _, ok := handleCaller(w, r); !ok {
		return
	}
	books, err := h.library.PublishedBooks(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list books")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, BookListResponse{Books: books})
}

// GetBook handles GET /api/books/{id}.
func (h *LibraryHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	c, id, ok := handleCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	book, err := h.library.Book(r.Context(), c, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load book")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, book)
}

// AdminBooks handles GET /api/admin/books.
func (h *LibraryHandler) AdminBooks(w http.ResponseWriter, r *http.Request) {
	c, ok := handleCaller(w, r)
	if !ok {
		return
	}
	books, err := h.library.AllBooks(r.Context(), c)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list books")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, BookListResponse{Books: books})
}

// Publish handles POST /api/admin/books/{id}/publish.
func (h *LibraryHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

// Unpublish handles POST /api/admin/books/{id}/unpublish.
func (h *LibraryHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *LibraryHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	c, id, ok := handleCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.library.SetPublished(r.Context(), c, id, published); err != nil {
		HandleAPIError(w, r, err, "Failed to update book")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PublishResponse{ID: id, IsPublished: published})
}

// DeleteBook handles DELETE /api/admin/books/{id}.
func (h *LibraryHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	c, id, ok := handleCallerAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.library.DeleteBook(r.Context(), c, id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
