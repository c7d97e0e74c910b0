package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// Lesson list paging bounds.
const (
	DefaultLessonPageSize = 20
	MaxLessonPageSize     = 100
)

// LibraryService serves lessons and books, and the admin actions on books.
type LibraryService struct {
	lessons store.LessonStore
	books   store.BookStore
	logger  *slog.Logger
}

// NewLibraryService creates a LibraryService.
func NewLibraryService(lessons store.LessonStore, books store.BookStore, logger *slog.Logger) (*LibraryService, error) {
	if lessons == nil || books == nil {
		return nil, &ServiceError{Service: "library", Operation: "create_service", Message: "stores cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryService{lessons: lessons, books: books, logger: logger.With("component", "library_service")}, nil
}

// LessonPageLimit clamps a requested page size to [1, MaxLessonPageSize],
// using DefaultLessonPageSize for zero or negative values.
func LessonPageLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLessonPageSize
	case limit > MaxLessonPageSize:
		return MaxLessonPageSize
	}
	return limit
}

// ListLessons returns lessons newest first, paged with LessonPageLimit.
func (s *LibraryService) ListLessons(ctx context.Context, limit, offset int) ([]*domain.Lesson, error) {
	limit = LessonPageLimit(limit)
	if offset < 0 {
		offset = 0
	}
	lessons, err := s.lessons.List(ctx, limit, offset)
	if err != nil {
		return nil, newServiceError("library", "list_lessons", "failed to list lessons", err)
	}
	return lessons, nil
}

// PublishedBooks returns the published books, newest first.
func (s *LibraryService) PublishedBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.books.List(ctx, true)
	if err != nil {
		return nil, newServiceError("library", "list_books", "failed to list books", err)
	}
	return books, nil
}

// AllBooks returns every book, published or not. Admin only.
func (s *LibraryService) AllBooks(ctx context.Context, c Caller) ([]*domain.Book, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	books, err := s.books.List(ctx, false)
	if err != nil {
		return nil, newServiceError("library", "list_all_books", "failed to list books", err)
	}
	return books, nil
}

// Book returns a book with its chapters in order. Unpublished books are
// reported as not found to non-admins.
func (s *LibraryService) Book(ctx context.Context, c Caller, id uuid.UUID) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("library", "get_book", "failed to load book", err)
	}
	if !book.IsPublished && !c.IsAdmin {
		return nil, store.ErrBookNotFound
	}
	return book, nil
}

// SetPublished publishes or unpublishes a book. Admin only.
func (s *LibraryService) SetPublished(ctx context.Context, c Caller, id uuid.UUID, published bool) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if err := s.books.SetPublished(ctx, id, published); err != nil {
		return newServiceError("library", "set_published", "failed to update book", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("book publication changed",
		"book_id", id,
		"published", published,
		"user_id", c.UserID)
	return nil
}

// DeleteBook removes a book and its chapters. Admin only.
func (s *LibraryService) DeleteBook(ctx context.Context, c Caller, id uuid.UUID) error {
	if err := c.requireAdmin(); err != nil {
		return err
	}
	if err := s.books.Delete(ctx, id); err != nil {
		return newServiceError("library", "delete_book", "failed to delete book", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("book deleted",
		"book_id", id,
		"user_id", c.UserID)
	return nil
}
