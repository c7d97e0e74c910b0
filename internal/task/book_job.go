package task

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/generation/repair"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// bookOutlineJob is the first book stage: it writes the title, description
// and chapter stubs. Regenerate replaces the outline of the target book.
type bookOutlineJob struct {
	baseJob
}

func (j *bookOutlineJob) Execute(ctx context.Context) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, j.deps.Logger)

	var book *domain.Book
	if j.task.Operation == domain.OperationRegenerate {
		b, err := j.deps.Books.GetByID(ctx, *j.task.TargetID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load book: %w", err)
		}
		book = b
	}

	gen, err := j.deps.Generators.NewGenerator(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create generator: %w", err)
	}

	res := gen.GenerateBookOutline(ctx, j.task.Topic, j.task.Level)
	if res.Failed() {
		log.Warn("outline generation degraded to fallback", slog.String("reason", res.Failure.Message))
	}

	creating := book == nil
	if creating {
		book = domain.NewBook(j.task.Topic, j.task.Level)
	}
	applyOutline(book, res.Outline)

	err = store.RunInTransaction(ctx, j.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		books := j.deps.Books.WithTx(tx)
		if creating {
			return books.Create(ctx, book)
		}
		if err := books.Update(ctx, book); err != nil {
			return err
		}
		return books.ReplaceChapters(ctx, book.ID, book.Chapters)
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Info("book outline saved",
		slog.String("book_id", book.ID.String()),
		slog.Int("chapters", len(book.Chapters)))
	return book.ID, nil
}

func applyOutline(b *domain.Book, o *generation.OutlineContent) {
	b.Title = strings.TrimSpace(o.Title)
	if b.Title == "" {
		b.Title = generation.FallbackBookTitle
	}
	b.Description = o.Description
	b.SetOutline(o.Chapters)
}

// bookContentJob is the second book stage: it fills every chapter body in
// outline order. Each chapter is committed on its own, and a chapter whose
// generation failed stores an inline error instead of aborting the book.
type bookContentJob struct {
	baseJob
}

func (j *bookContentJob) Execute(ctx context.Context) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, j.deps.Logger)

	book, err := j.deps.Books.GetByID(ctx, *j.task.TargetID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load book: %w", err)
	}

	gen, err := j.deps.Generators.NewGenerator(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create generator: %w", err)
	}

	failed := 0
	for _, ch := range book.Chapters {
		if err := ctx.Err(); err != nil {
			return uuid.Nil, err
		}

		content, ok := chapterBody(gen.GenerateChapterContent(ctx, ch.Title, book.Title, book.Level))
		if !ok {
			failed++
			log.Warn("chapter generation failed",
				slog.String("chapter_id", ch.ID.String()),
				slog.Int("order", ch.Order))
		}

		if err := j.saveChapter(ctx, ch.ID, content); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save chapter %d: %w", ch.Order, err)
		}
		ch.Content = content
	}

	log.Info("book content generated",
		slog.String("book_id", book.ID.String()),
		slog.Int("chapters", len(book.Chapters)),
		slog.Int("failed_chapters", failed))
	return book.ID, nil
}

func (j *bookContentJob) saveChapter(ctx context.Context, id uuid.UUID, content string) error {
	return store.RunInTransaction(ctx, j.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		return j.deps.Books.WithTx(tx).UpdateChapterContent(ctx, id, content)
	})
}

// chapterJob regenerates the body of one chapter.
type chapterJob struct {
	baseJob
}

func (j *chapterJob) Execute(ctx context.Context) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, j.deps.Logger)

	ch, err := j.deps.Books.GetChapter(ctx, *j.task.TargetID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load chapter: %w", err)
	}
	book, err := j.deps.Books.GetByID(ctx, ch.BookID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load book: %w", err)
	}

	gen, err := j.deps.Generators.NewGenerator(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create generator: %w", err)
	}

	content, ok := chapterBody(gen.GenerateChapterContent(ctx, ch.Title, book.Title, book.Level))
	if !ok {
		log.Warn("chapter generation failed", slog.String("chapter_id", ch.ID.String()))
	}

	err = store.RunInTransaction(ctx, j.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		return j.deps.Books.WithTx(tx).UpdateChapterContent(ctx, ch.ID, content)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return ch.ID, nil
}

// chapterBody returns the markdown to store for res and whether generation
// produced real content.
func chapterBody(res generation.Result) (string, bool) {
	if res.Failed() {
		return repair.ChapterError(res.Failure.Message), false
	}
	body := strings.TrimSpace(res.Body())
	if body == "" {
		return repair.ChapterError("the response was empty"), false
	}
	return body, true
}
