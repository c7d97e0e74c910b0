package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/generation/repair"
)

// ChapterCall records one GenerateChapterContent call.
type ChapterCall struct {
	ChapterTitle string
	BookTitle    string
	Level        domain.Level
}

// MockGenerator implements generation.Generator for testing. A nil Fn
// field falls back to the matching default result, and a missing default
// yields the repair fallback.
type MockGenerator struct {
	LessonFn  func(ctx context.Context, topic string, level domain.Level) generation.Result
	OutlineFn func(ctx context.Context, topic string, level domain.Level) generation.Result
	ChapterFn func(ctx context.Context, chapterTitle, bookTitle string, level domain.Level) generation.Result
	ChatFn    func(ctx context.Context, history []generation.Message, message string) string
	AudioFn   func(ctx context.Context, history []generation.Message, audio []byte, mimeType string) string

	Lesson  *generation.LessonContent
	Outline *generation.OutlineContent
	Reply   string

	mu           sync.Mutex
	lessonCalls  int
	outlineCalls int
	chapterCalls []ChapterCall
	chatHistory  [][]generation.Message
}

var _ generation.Generator = (*MockGenerator)(nil)

// GenerateLesson implements generation.Generator.
func (m *MockGenerator) GenerateLesson(ctx context.Context, topic string, level domain.Level) generation.Result {
	m.mu.Lock()
	m.lessonCalls++
	m.mu.Unlock()

	if m.LessonFn != nil {
		return m.LessonFn(ctx, topic, level)
	}
	if m.Lesson == nil {
		return repair.Fallback("", generation.KindLesson, "no lesson configured")
	}
	l := *m.Lesson
	res := generation.Result{Kind: generation.KindLesson, Lesson: &l}
	res.Normalize()
	return res
}

// GenerateBookOutline implements generation.Generator.
func (m *MockGenerator) GenerateBookOutline(ctx context.Context, topic string, level domain.Level) generation.Result {
	m.mu.Lock()
	m.outlineCalls++
	m.mu.Unlock()

	if m.OutlineFn != nil {
		return m.OutlineFn(ctx, topic, level)
	}
	if m.Outline == nil {
		return repair.Fallback("", generation.KindOutline, "no outline configured")
	}
	o := *m.Outline
	res := generation.Result{Kind: generation.KindOutline, Outline: &o}
	res.Normalize()
	return res
}

// GenerateChapterContent implements generation.Generator. Without ChapterFn
// it returns a body naming the chapter.
func (m *MockGenerator) GenerateChapterContent(
	ctx context.Context,
	chapterTitle, bookTitle string,
	level domain.Level,
) generation.Result {
	m.mu.Lock()
	m.chapterCalls = append(m.chapterCalls, ChapterCall{ChapterTitle: chapterTitle, BookTitle: bookTitle, Level: level})
	m.mu.Unlock()

	if m.ChapterFn != nil {
		return m.ChapterFn(ctx, chapterTitle, bookTitle, level)
	}
	return generation.Result{
		Kind:    generation.KindChapter,
		Chapter: &generation.ChapterContent{Content: "## " + chapterTitle},
	}
}

// Chat implements generation.Generator.
func (m *MockGenerator) Chat(ctx context.Context, history []generation.Message, message string) string {
	m.mu.Lock()
	m.chatHistory = append(m.chatHistory, history)
	m.mu.Unlock()

	if m.ChatFn != nil {
		return m.ChatFn(ctx, history, message)
	}
	return m.Reply
}

// ChatWithAudio implements generation.Generator.
func (m *MockGenerator) ChatWithAudio(
	ctx context.Context,
	history []generation.Message,
	audio []byte,
	mimeType string,
) string {
	m.mu.Lock()
	m.chatHistory = append(m.chatHistory, history)
	m.mu.Unlock()

	if m.AudioFn != nil {
		return m.AudioFn(ctx, history, audio, mimeType)
	}
	return m.Reply
}

// LessonCalls returns how many lessons were requested.
func (m *MockGenerator) LessonCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lessonCalls
}

// OutlineCalls returns how many outlines were requested.
func (m *MockGenerator) OutlineCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outlineCalls
}

// ChapterCalls returns the chapter requests in call order.
func (m *MockGenerator) ChapterCalls() []ChapterCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChapterCall(nil), m.chapterCalls...)
}

// ChatHistories returns the history passed to each chat call.
func (m *MockGenerator) ChatHistories() [][]generation.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]generation.Message(nil), m.chatHistory...)
}

// MockGeneratorFactory implements generation.GeneratorFactory.
type MockGeneratorFactory struct {
	Generator generation.Generator
	Err       error

	mu    sync.Mutex
	calls int
}

var _ generation.GeneratorFactory = (*MockGeneratorFactory)(nil)

// NewGenerator implements generation.GeneratorFactory.
func (f *MockGeneratorFactory) NewGenerator(context.Context) (generation.Generator, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Generator, nil
}

// Calls returns how many generators were built.
func (f *MockGeneratorFactory) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
