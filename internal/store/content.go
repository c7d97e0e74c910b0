package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
)

// TopicStore persists topics.
type TopicStore interface {
	// GetOrCreate returns the topic identified by (name, level), creating it
	// when absent.
	GetOrCreate(ctx context.Context, name string, level domain.Level) (*domain.Topic, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)
	WithTx(tx *sql.Tx) TopicStore
}

// LessonStore persists lessons.
type LessonStore interface {
	Create(ctx context.Context, lesson *domain.Lesson) error
	// Update rewrites the generated fields of an existing lesson.
	Update(ctx context.Context, lesson *domain.Lesson) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)
	// List returns lessons newest first.
	List(ctx context.Context, limit, offset int) ([]*domain.Lesson, error)
	WithTx(tx *sql.Tx) LessonStore
}

// BookStore persists books and their chapters.
type BookStore interface {
	// Create inserts the book row and its chapters.
	Create(ctx context.Context, book *domain.Book) error
	// Update rewrites title, description and publication state.
	Update(ctx context.Context, book *domain.Book) error
	// GetByID returns the book with chapters ordered by Order.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error)
	// List returns books newest first, optionally only published ones.
	List(ctx context.Context, publishedOnly bool) ([]*domain.Book, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	// Delete removes the book and its chapters.
	Delete(ctx context.Context, id uuid.UUID) error

	// ReplaceChapters deletes a book's chapters and inserts chapters.
	ReplaceChapters(ctx context.Context, bookID uuid.UUID, chapters []*domain.Chapter) error
	GetChapter(ctx context.Context, id uuid.UUID) (*domain.Chapter, error)
	// UpdateChapterContent stores the body of one chapter.
	UpdateChapterContent(ctx context.Context, id uuid.UUID, content string) error

	WithTx(tx *sql.Tx) BookStore
}
