package domain

import (
	"time"

	"github.com/google/uuid"
)

// Book is a generated book. Chapters are ordered by Order.
type Book struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Topic       string     `json:"topic"`
	Level       Level      `json:"level"`
	IsPublished bool       `json:"is_published"`
	Chapters    []*Chapter `json:"chapters"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Chapter belongs to a book. Content stays empty until the fill pass
// generates it.
type Chapter struct {
	ID        uuid.UUID `json:"id"`
	BookID    uuid.UUID `json:"book_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Content   string    `json:"content"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBook creates an unpublished book without chapters.
func NewBook(topic string, level Level) *Book {
	now := time.Now().UTC()
	return &Book{
		ID:        uuid.New(),
		Topic:     topic,
		Level:     level,
		Chapters:  []*Chapter{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetOutline replaces the chapter list with stubs built from the outline,
// numbered from 1 in the given order.
func (b *Book) SetOutline(stubs []ChapterStub) {
	now := time.Now().UTC()
	b.Chapters = make([]*Chapter, 0, len(stubs))
	for i, s := range stubs {
		b.Chapters = append(b.Chapters, &Chapter{
			ID:        uuid.New(),
			BookID:    b.ID,
			Title:     s.Title,
			Summary:   s.Summary,
			Order:     i + 1,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	b.UpdatedAt = now
}

// ChapterStub is an outline entry without a body.
type ChapterStub struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Validate checks the identifiers and title.
func (b *Book) Validate() error {
	if b.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if b.Title == "" {
		return NewValidationError("title", "is required", ErrValidation)
	}
	if !b.Level.Valid() {
		return NewValidationError("level", "is not supported", ErrInvalidLevel)
	}
	return nil
}
