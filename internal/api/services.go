package api

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/service"
)

// GenerationService submits generation tasks and reports their status.
type GenerationService interface {
	RequestLesson(ctx context.Context, c service.Caller, topic, level string) (*domain.GenerationTask, error)
	RegenerateLesson(ctx context.Context, c service.Caller, lessonID uuid.UUID) (*domain.GenerationTask, error)
	RequestBook(ctx context.Context, c service.Caller, topic, level string) (*domain.GenerationTask, error)
	RegenerateBook(ctx context.Context, c service.Caller, bookID uuid.UUID) (*domain.GenerationTask, error)
	FillBookContent(ctx context.Context, c service.Caller, bookID uuid.UUID) (*domain.GenerationTask, error)
	RegenerateChapter(ctx context.Context, c service.Caller, chapterID uuid.UUID) (*domain.GenerationTask, error)
	Status(ctx context.Context, c service.Caller, taskID uuid.UUID) (*service.TaskStatus, error)
}

// ChatService answers text and voice chat turns.
type ChatService interface {
	Chat(ctx context.Context, userID uuid.UUID, conversationID *uuid.UUID, message string) (*service.ChatReply, error)
	VoiceChat(
		ctx context.Context,
		userID uuid.UUID,
		conversationID *uuid.UUID,
		audio []byte,
		mimeType string,
	) (*service.ChatReply, error)
}

// ProgressService reads and updates learner progress.
type ProgressService interface {
	Get(ctx context.Context, userID uuid.UUID) (*service.ProgressView, error)
	AddPracticeTime(ctx context.Context, userID uuid.UUID, minutes *int) (int, error)
	ViewLesson(ctx context.Context, userID, lessonID uuid.UUID) (*domain.Lesson, error)
}

// LibraryService lists lessons and books and runs admin book actions.
type LibraryService interface {
	ListLessons(ctx context.Context, limit, offset int) ([]*domain.Lesson, error)
	PublishedBooks(ctx context.Context) ([]*domain.Book, error)
	AllBooks(ctx context.Context, c service.Caller) ([]*domain.Book, error)
	Book(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.Book, error)
	SetPublished(ctx context.Context, c service.Caller, id uuid.UUID, published bool) error
	DeleteBook(ctx context.Context, c service.Caller, id uuid.UUID) error
}

// SettingsService reads and updates the runtime AI settings.
type SettingsService interface {
	AISettings(ctx context.Context, c service.Caller) (*service.AISettingsView, error)
	UpdateAISettings(ctx context.Context, c service.Caller, u service.AISettingsUpdate) (*service.AISettingsView, error)
}

var (
	_ GenerationService = (*service.GenerationService)(nil)
	_ ChatService       = (*service.ChatService)(nil)
	_ ProgressService   = (*service.ProgressService)(nil)
	_ LibraryService    = (*service.LibraryService)(nil)
	_ SettingsService   = (*service.SettingsService)(nil)
)
