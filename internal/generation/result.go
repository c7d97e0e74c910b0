package generation

import (
	"context"

	"github.com/phrazzld/coach-api/internal/domain"
)

// Kind names the content shape a prompt asks the model for.
type Kind string

// Content shapes.
const (
	KindLesson  Kind = "lesson"
	KindOutline Kind = "book_outline"
	KindChapter Kind = "chapter"
)

// Fallback texts used when nothing could be recovered from a response.
const (
	FallbackLessonTitle   = "Error Generating Lesson"
	FallbackLessonSummary = "There was an error generating the content. Please check your API key and try again."
	FallbackBookTitle     = "Untitled Book"
	FallbackSpeaker       = "System"
	FallbackPracticeText  = "Error generating practice."
)

// Replies sent in place of a chat answer when the provider fails.
const (
	ChatApology  = "Sorry, connection error. Try again."
	AudioApology = "I couldn't process your voice message. Please try again."
)

// LessonContent is the lesson shape.
type LessonContent struct {
	Title                  string                `json:"title"`
	Summary                string                `json:"summary"`
	FullContent            string                `json:"full_content"`
	Exercises              []domain.Question     `json:"exercises"`
	Quiz                   []domain.Question     `json:"quiz"`
	ConversationalPractice []domain.DialogueLine `json:"conversational_practice"`
}

// OutlineContent is the book outline shape.
type OutlineContent struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Chapters    []domain.ChapterStub `json:"chapters"`
}

// ChapterContent is the chapter body shape.
type ChapterContent struct {
	Content string `json:"content"`
}

// Failure describes why a result is the error-shaped fallback.
type Failure struct {
	Message string `json:"message"`
	Excerpt string `json:"excerpt"`
}

// Result is a tagged union over the three content shapes. Exactly the
// field matching Kind is non-nil. Failure is set when the shape was
// populated with safe defaults because nothing usable was recovered.
type Result struct {
	Kind     Kind
	Lesson   *LessonContent
	Outline  *OutlineContent
	Chapter  *ChapterContent
	Failure  *Failure
	Repaired bool
}

// Failed reports whether r is an error-shaped fallback.
func (r Result) Failed() bool {
	return r.Failure != nil
}

// Body returns the markdown body for lesson and chapter results.
func (r Result) Body() string {
	switch r.Kind {
	case KindLesson:
		if r.Lesson != nil {
			return r.Lesson.FullContent
		}
	case KindChapter:
		if r.Chapter != nil {
			return r.Chapter.Content
		}
	}
	return ""
}

// Normalize replaces nil slices with empty ones so consumers never see a
// missing list, and fills the shape for Kind if it is absent.
func (r *Result) Normalize() {
	switch r.Kind {
	case KindLesson:
		if r.Lesson == nil {
			r.Lesson = &LessonContent{}
		}
		if r.Lesson.Exercises == nil {
			r.Lesson.Exercises = []domain.Question{}
		}
		if r.Lesson.Quiz == nil {
			r.Lesson.Quiz = []domain.Question{}
		}
		if r.Lesson.ConversationalPractice == nil {
			r.Lesson.ConversationalPractice = []domain.DialogueLine{}
		}
		normalizeQuestions(r.Lesson.Exercises)
		normalizeQuestions(r.Lesson.Quiz)
	case KindOutline:
		if r.Outline == nil {
			r.Outline = &OutlineContent{}
		}
		if r.Outline.Chapters == nil {
			r.Outline.Chapters = []domain.ChapterStub{}
		}
	case KindChapter:
		if r.Chapter == nil {
			r.Chapter = &ChapterContent{}
		}
	}
}

func normalizeQuestions(qs []domain.Question) {
	for i := range qs {
		if qs[i].Options == nil {
			qs[i].Options = []string{}
		}
	}
}

// Message is one prior turn passed to a chat call.
type Message struct {
	Role string
	Text string
}

// Chat roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// HistoryFromTurns flattens stored turns into alternating user/model messages.
func HistoryFromTurns(turns []domain.Turn) []Message {
	msgs := make([]Message, 0, len(turns)*2)
	for _, t := range turns {
		msgs = append(msgs,
			Message{Role: RoleUser, Text: t.User},
			Message{Role: RoleModel, Text: t.Assistant},
		)
	}
	return msgs
}

// Generator is the boundary between the jobs and the language model. None
// of its methods return errors: failures degrade to well-typed fallback
// results or apology strings.
type Generator interface {
	GenerateLesson(ctx context.Context, topic string, level domain.Level) Result
	GenerateBookOutline(ctx context.Context, topic string, level domain.Level) Result
	GenerateChapterContent(ctx context.Context, chapterTitle, bookTitle string, level domain.Level) Result
	Chat(ctx context.Context, history []Message, message string) string
	ChatWithAudio(ctx context.Context, history []Message, audio []byte, mimeType string) string
}

// GeneratorFactory builds a Generator from the current runtime settings.
// Jobs call it once per run so settings changes apply without a restart.
type GeneratorFactory interface {
	NewGenerator(ctx context.Context) (Generator, error)
}
