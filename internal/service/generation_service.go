package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/events"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// TaskReader looks up tasks on behalf of a caller. task.Tracker
// implements it.
type TaskReader interface {
	Get(ctx context.Context, id, userID uuid.UUID, isAdmin bool) (*domain.GenerationTask, error)
}

// GenerationService creates generation tasks and reports their status.
// Tasks are handed to the background executor as GenerationRequested
// events; the request never waits for the language model.
type GenerationService struct {
	tasks   TaskReader
	emitter events.EventEmitter
	topics  store.TopicStore
	lessons store.LessonStore
	books   store.BookStore
	logger  *slog.Logger
}

// NewGenerationService creates a GenerationService. It returns an error if
// any dependency is nil.
func NewGenerationService(
	tasks TaskReader,
	emitter events.EventEmitter,
	topics store.TopicStore,
	lessons store.LessonStore,
	books store.BookStore,
	logger *slog.Logger,
) (*GenerationService, error) {
	switch {
	case tasks == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "tasks cannot be nil"}
	case emitter == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "emitter cannot be nil"}
	case topics == nil, lessons == nil, books == nil:
		return nil, &ServiceError{Service: "generation", Operation: "create_service", Message: "stores cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationService{
		tasks:   tasks,
		emitter: emitter,
		topics:  topics,
		lessons: lessons,
		books:   books,
		logger:  logger.With("component", "generation_service"),
	}, nil
}

// RequestLesson queues generation of a new lesson.
func (s *GenerationService) RequestLesson(ctx context.Context, c Caller, topic, level string) (*domain.GenerationTask, error) {
	lvl, err := domain.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, "request_lesson", c, domain.TaskKindLesson, domain.OperationGenerate, topic, lvl, nil)
}

// RegenerateLesson queues regeneration of an existing lesson under its
// original topic and level.
func (s *GenerationService) RegenerateLesson(ctx context.Context, c Caller, lessonID uuid.UUID) (*domain.GenerationTask, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, newServiceError("generation", "regenerate_lesson", "failed to load lesson", err)
	}
	topic, err := s.topics.GetByID(ctx, lesson.TopicID)
	if err != nil {
		return nil, newServiceError("generation", "regenerate_lesson", "failed to load topic", err)
	}
	return s.submit(ctx, "regenerate_lesson", c, domain.TaskKindLesson, domain.OperationRegenerate,
		topic.Name, topic.Level, &lesson.ID)
}

// RequestBook queues generation of a new book outline. Admin only.
func (s *GenerationService) RequestBook(ctx context.Context, c Caller, topic, level string) (*domain.GenerationTask, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	lvl, err := domain.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, "request_book", c, domain.TaskKindBook, domain.OperationGenerate, topic, lvl, nil)
}

// RegenerateBook queues a new outline for an existing book, replacing its
// chapters. Admin only.
func (s *GenerationService) RegenerateBook(ctx context.Context, c Caller, bookID uuid.UUID) (*domain.GenerationTask, error) {
	return s.bookTask(ctx, "regenerate_book", c, bookID, domain.OperationRegenerate)
}

// FillBookContent queues generation of every chapter body of a book.
// Admin only.
func (s *GenerationService) FillBookContent(ctx context.Context, c Caller, bookID uuid.UUID) (*domain.GenerationTask, error) {
	return s.bookTask(ctx, "fill_book_content", c, bookID, domain.OperationFillContent)
}

// RegenerateChapter queues regeneration of one chapter body. Admin only.
func (s *GenerationService) RegenerateChapter(ctx context.Context, c Caller, chapterID uuid.UUID) (*domain.GenerationTask, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	ch, err := s.books.GetChapter(ctx, chapterID)
	if err != nil {
		return nil, newServiceError("generation", "regenerate_chapter", "failed to load chapter", err)
	}
	book, err := s.books.GetByID(ctx, ch.BookID)
	if err != nil {
		return nil, newServiceError("generation", "regenerate_chapter", "failed to load book", err)
	}
	return s.submit(ctx, "regenerate_chapter", c, domain.TaskKindChapter, domain.OperationRegenerate,
		book.Topic, book.Level, &ch.ID)
}

func (s *GenerationService) bookTask(
	ctx context.Context,
	op string,
	c Caller,
	bookID uuid.UUID,
	operation domain.TaskOperation,
) (*domain.GenerationTask, error) {
	if err := c.requireAdmin(); err != nil {
		return nil, err
	}
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return nil, newServiceError("generation", op, "failed to load book", err)
	}
	return s.submit(ctx, op, c, domain.TaskKindBook, operation, book.Topic, book.Level, &book.ID)
}

func (s *GenerationService) submit(
	ctx context.Context,
	op string,
	c Caller,
	kind domain.TaskKind,
	operation domain.TaskOperation,
	topic string,
	level domain.Level,
	targetID *uuid.UUID,
) (*domain.GenerationTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	t, err := domain.NewGenerationTask(c.UserID, kind, operation, topic, level, targetID)
	if err != nil {
		return nil, err
	}

	event, err := events.NewGenerationRequested(t)
	if err != nil {
		return nil, newServiceError("generation", op, "failed to create event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Error("failed to emit generation event",
			"error", err,
			"task_id", t.ID,
			"event_id", event.ID)
		return nil, newServiceError("generation", op, "failed to submit task", err)
	}

	log.Info("generation task submitted",
		"task_id", t.ID,
		"task_type", t.Kind,
		"operation", t.Operation,
		"user_id", c.UserID)
	return t, nil
}

// TaskStatus is the polling view of a task.
type TaskStatus struct {
	Status      domain.TaskStatus `json:"status"`
	TaskType    domain.TaskKind   `json:"task_type"`
	Topic       string            `json:"topic"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Status reports the task's progress. Tasks of other users are reported
// as not found unless the caller is an admin. A completed task carries the
// page showing its result.
func (s *GenerationService) Status(ctx context.Context, c Caller, taskID uuid.UUID) (*TaskStatus, error) {
	t, err := s.tasks.Get(ctx, taskID, c.UserID, c.IsAdmin)
	if err != nil {
		return nil, newServiceError("generation", "task_status", "failed to load task", err)
	}

	out := &TaskStatus{Status: t.Status, TaskType: t.Kind, Topic: t.Topic}
	switch t.Status {
	case domain.TaskStatusCompleted:
		url, err := s.redirectURL(ctx, t)
		if err != nil {
			return nil, newServiceError("generation", "task_status", "failed to resolve result", err)
		}
		out.RedirectURL = url
	case domain.TaskStatusFailed:
		out.Error = t.ErrorMessage
	}
	return out, nil
}

// LibraryURL is the redirect for a completed task whose result no longer
// exists.
const LibraryURL = "/library"

func (s *GenerationService) redirectURL(ctx context.Context, t *domain.GenerationTask) (string, error) {
	id := *t.ResultID
	switch t.Kind {
	case domain.TaskKindLesson:
		return fmt.Sprintf("/lessons/%s", id), nil
	case domain.TaskKindBook:
		if t.Operation == domain.OperationFillContent {
			return fmt.Sprintf("/library/books/%s", id), nil
		}
		return fmt.Sprintf("/admin/books/%s/preview", id), nil
	case domain.TaskKindChapter:
		ch, err := s.books.GetChapter(ctx, id)
		if errors.Is(err, store.ErrChapterNotFound) {
			// The book was deleted after the chapter completed.
			return LibraryURL, nil
		}
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("/library/books/%s#chapter-%s", ch.BookID, ch.ID), nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrInvalidTaskKind, t.Kind)
}
