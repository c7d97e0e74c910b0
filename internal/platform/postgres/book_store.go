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

const (
	bookColumns    = `id, title, description, topic, level, is_published, created_at, updated_at`
	chapterColumns = `id, book_id, title, summary, content, position, created_at, updated_at`
)

// PostgresBookStore implements store.BookStore. Chapter order is kept in
// the position column.
type PostgresBookStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.BookStore = (*PostgresBookStore)(nil)

// NewPostgresBookStore creates a PostgresBookStore. It panics if db is nil.
func NewPostgresBookStore(db store.DBTX, logger *slog.Logger) *PostgresBookStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresBookStore{db: db, logger: logger.With(slog.String("component", "book_store"))}
}

// Create implements store.BookStore. Call it inside a transaction so the
// book and its chapters are written together.
func (s *PostgresBookStore) Create(ctx context.Context, b *domain.Book) error {
	log := logger.FromContextOrDefault(ctx, s.logger)
	if err := b.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO books (` + bookColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.db.ExecContext(ctx, query,
		b.ID, b.Title, b.Description, b.Topic, b.Level, b.IsPublished, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		log.Error("failed to create book",
			slog.String("book_id", b.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	if err := s.insertChapters(ctx, b.Chapters); err != nil {
		return err
	}

	log.Info("book created",
		slog.String("book_id", b.ID.String()),
		slog.Int("chapters", len(b.Chapters)))
	return nil
}

// Update implements store.BookStore.
func (s *PostgresBookStore) Update(ctx context.Context, b *domain.Book) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE books SET title = $1, description = $2, is_published = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query, b.Title, b.Description, b.IsPublished, b.UpdatedAt, b.ID)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrBookNotFound)
}

// GetByID implements store.BookStore.
func (s *PostgresBookStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	b, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err, store.ErrBookNotFound)
	}

	chapters, err := s.listChapters(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Chapters = chapters
	return b, nil
}

// List implements store.BookStore. Chapters are not loaded.
func (s *PostgresBookStore) List(ctx context.Context, publishedOnly bool) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	if publishedOnly {
		query += ` WHERE is_published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	books := []*domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}
	return books, nil
}

// SetPublished implements store.BookStore.
func (s *PostgresBookStore) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE books SET is_published = $1, updated_at = $2 WHERE id = $3`,
		published, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrBookNotFound)
}

// Delete implements store.BookStore. Chapters go with the book through the
// foreign key cascade.
func (s *PostgresBookStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrBookNotFound); err != nil {
		return err
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("book deleted", slog.String("book_id", id.String()))
	return nil
}

// ReplaceChapters implements store.BookStore.
func (s *PostgresBookStore) ReplaceChapters(ctx context.Context, bookID uuid.UUID, chapters []*domain.Chapter) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chapters WHERE book_id = $1`, bookID); err != nil {
		return MapError(err)
	}
	return s.insertChapters(ctx, chapters)
}

// GetChapter implements store.BookStore.
func (s *PostgresBookStore) GetChapter(ctx context.Context, id uuid.UUID) (*domain.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE id = $1`
	c, err := scanChapter(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err, store.ErrChapterNotFound)
	}
	return c, nil
}

// UpdateChapterContent implements store.BookStore.
func (s *PostgresBookStore) UpdateChapterContent(ctx context.Context, id uuid.UUID, content string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET content = $1, updated_at = $2 WHERE id = $3`,
		content, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrChapterNotFound)
}

// WithTx implements store.BookStore.
func (s *PostgresBookStore) WithTx(tx *sql.Tx) store.BookStore {
	return &PostgresBookStore{db: tx, logger: s.logger}
}

func (s *PostgresBookStore) insertChapters(ctx context.Context, chapters []*domain.Chapter) error {
	query := `INSERT INTO chapters (` + chapterColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, c := range chapters {
		_, err := s.db.ExecContext(ctx, query,
			c.ID, c.BookID, c.Title, c.Summary, c.Content, c.Order, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to insert chapter",
				slog.String("book_id", c.BookID.String()),
				slog.Int("order", c.Order),
				slog.String("error", err.Error()))
			return MapError(err)
		}
	}
	return nil
}

func (s *PostgresBookStore) listChapters(ctx context.Context, bookID uuid.UUID) ([]*domain.Chapter, error) {
	query := `SELECT ` + chapterColumns + ` FROM chapters WHERE book_id = $1 ORDER BY position ASC`
	rows, err := s.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	chapters := []*domain.Chapter{}
	for rows.Next() {
		c, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		chapters = append(chapters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapter rows: %w", err)
	}
	return chapters, nil
}

func scanBook(row rowScanner) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.Topic, &b.Level,
		&b.IsPublished, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Chapters = []*domain.Chapter{}
	return &b, nil
}

func scanChapter(row rowScanner) (*domain.Chapter, error) {
	var c domain.Chapter
	err := row.Scan(&c.ID, &c.BookID, &c.Title, &c.Summary, &c.Content, &c.Order, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
