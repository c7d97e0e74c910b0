package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/api/shared"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/service"
	"github.com/stretchr/testify/require"
)

var (
	memberID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	adminID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

type fakeGenerationService struct {
	RequestLessonFn     func(ctx context.Context, c service.Caller, topic, level string) (*domain.GenerationTask, error)
	RegenerateLessonFn  func(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error)
	RequestBookFn       func(ctx context.Context, c service.Caller, topic, level string) (*domain.GenerationTask, error)
	RegenerateBookFn    func(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error)
	FillBookContentFn   func(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error)
	RegenerateChapterFn func(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error)
	StatusFn            func(ctx context.Context, c service.Caller, id uuid.UUID) (*service.TaskStatus, error)
}

func (f *fakeGenerationService) RequestLesson(ctx context.Context, c service.Caller, topic, level string) (*domain.GenerationTask, error) {
	return f.RequestLessonFn(ctx, c, topic, level)
}

func (f *fakeGenerationService) RegenerateLesson(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error) {
	return f.RegenerateLessonFn(ctx, c, id)
}

func (f *fakeGenerationService) RequestBook(ctx context.Context, c service.Caller, topic, level string) (*domain.GenerationTask, error) {
	return f.RequestBookFn(ctx, c, topic, level)
}

func (f *fakeGenerationService) RegenerateBook(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error) {
	return f.RegenerateBookFn(ctx, c, id)
}

func (f *fakeGenerationService) FillBookContent(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error) {
	return f.FillBookContentFn(ctx, c, id)
}

func (f *fakeGenerationService) RegenerateChapter(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.GenerationTask, error) {
	return f.RegenerateChapterFn(ctx, c, id)
}

func (f *fakeGenerationService) Status(ctx context.Context, c service.Caller, id uuid.UUID) (*service.TaskStatus, error) {
	return f.StatusFn(ctx, c, id)
}

type fakeChatService struct {
	ChatFn      func(ctx context.Context, userID uuid.UUID, convID *uuid.UUID, message string) (*service.ChatReply, error)
	VoiceChatFn func(ctx context.Context, userID uuid.UUID, convID *uuid.UUID, audio []byte, mime string) (*service.ChatReply, error)
}

func (f *fakeChatService) Chat(ctx context.Context, userID uuid.UUID, convID *uuid.UUID, message string) (*service.ChatReply, error) {
	return f.ChatFn(ctx, userID, convID, message)
}

func (f *fakeChatService) VoiceChat(
	ctx context.Context,
	userID uuid.UUID,
	convID *uuid.UUID,
	audio []byte,
	mime string,
) (*service.ChatReply, error) {
	return f.VoiceChatFn(ctx, userID, convID, audio, mime)
}

type fakeProgressService struct {
	GetFn             func(ctx context.Context, userID uuid.UUID) (*service.ProgressView, error)
	AddPracticeTimeFn func(ctx context.Context, userID uuid.UUID, minutes *int) (int, error)
	ViewLessonFn      func(ctx context.Context, userID, lessonID uuid.UUID) (*domain.Lesson, error)
}

func (f *fakeProgressService) Get(ctx context.Context, userID uuid.UUID) (*service.ProgressView, error) {
	return f.GetFn(ctx, userID)
}

func (f *fakeProgressService) AddPracticeTime(ctx context.Context, userID uuid.UUID, minutes *int) (int, error) {
	return f.AddPracticeTimeFn(ctx, userID, minutes)
}

func (f *fakeProgressService) ViewLesson(ctx context.Context, userID, lessonID uuid.UUID) (*domain.Lesson, error) {
	return f.ViewLessonFn(ctx, userID, lessonID)
}

type fakeLibraryService struct {
	ListLessonsFn    func(ctx context.Context, limit, offset int) ([]*domain.Lesson, error)
	PublishedBooksFn func(ctx context.Context) ([]*domain.Book, error)
	AllBooksFn       func(ctx context.Context, c service.Caller) ([]*domain.Book, error)
	BookFn           func(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.Book, error)
	SetPublishedFn   func(ctx context.Context, c service.Caller, id uuid.UUID, published bool) error
	DeleteBookFn     func(ctx context.Context, c service.Caller, id uuid.UUID) error
}

func (f *fakeLibraryService) ListLessons(ctx context.Context, limit, offset int) ([]*domain.Lesson, error) {
	return f.ListLessonsFn(ctx, limit, offset)
}

func (f *fakeLibraryService) PublishedBooks(ctx context.Context) ([]*domain.Book, error) {
	return f.PublishedBooksFn(ctx)
}

func (f *fakeLibraryService) AllBooks(ctx context.Context, c service.Caller) ([]*domain.Book, error) {
	return f.AllBooksFn(ctx, c)
}

func (f *fakeLibraryService) Book(ctx context.Context, c service.Caller, id uuid.UUID) (*domain.Book, error) {
	return f.BookFn(ctx, c, id)
}

func (f *fakeLibraryService) SetPublished(ctx context.Context, c service.Caller, id uuid.UUID, published bool) error {
	return f.SetPublishedFn(ctx, c, id, published)
}

func (f *fakeLibraryService) DeleteBook(ctx context.Context, c service.Caller, id uuid.UUID) error {
	return f.DeleteBookFn(ctx, c, id)
}

type fakeSettingsService struct {
	AISettingsFn       func(ctx context.Context, c service.Caller) (*service.AISettingsView, error)
	UpdateAISettingsFn func(ctx context.Context, c service.Caller, u service.AISettingsUpdate) (*service.AISettingsView, error)
}

func (f *fakeSettingsService) AISettings(ctx context.Context, c service.Caller) (*service.AISettingsView, error) {
	return f.AISettingsFn(ctx, c)
}

func (f *fakeSettingsService) UpdateAISettings(
	ctx context.Context,
	c service.Caller,
	u service.AISettingsUpdate,
) (*service.AISettingsView, error) {
	return f.UpdateAISettingsFn(ctx, c, u)
}

// testRequest describes one request routed through a chi router so that
// path parameters resolve.
type testRequest struct {
	method  string
	pattern string
	path    string
	body    io.Reader
	header  http.Header
	userID  uuid.UUID
	admin   bool
}

func serve(t *testing.T, h http.HandlerFunc, tr testRequest) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(tr.method, tr.path, tr.body)
	for k, vs := range tr.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if tr.userID != uuid.Nil {
		req = req.WithContext(shared.WithIdentity(req.Context(), tr.userID, tr.admin))
	}

	r := chi.NewRouter()
	r.MethodFunc(tr.method, tr.pattern, h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func pendingTask(t *testing.T, kind domain.TaskKind, op domain.TaskOperation, target *uuid.UUID) *domain.GenerationTask {
	t.Helper()
	task, err := domain.NewGenerationTask(memberID, kind, op, "Past Tense", domain.LevelB1, target)
	require.NoError(t, err)
	return task
}
