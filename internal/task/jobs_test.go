package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/generation/repair"
	"github.com/phrazzld/coach-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type jobFixture struct {
	content *mocks.ContentStore
	gen     *mocks.MockGenerator
	gens    *mocks.MockGeneratorFactory
	db      sqlmock.Sqlmock
	factory *GenerationJobFactory
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	content := mocks.NewContentStore()
	gen := &mocks.MockGenerator{}
	gens := &mocks.MockGeneratorFactory{Generator: gen}
	factory, err := NewGenerationJobFactory(JobDeps{
		DB:         db,
		Generators: gens,
		Topics:     content.Topics(),
		Lessons:    content.Lessons(),
		Books:      content.Books(),
		Logger:     setupTestLogger(),
	})
	require.NoError(t, err)

	return &jobFixture{content: content, gen: gen, gens: gens, db: mock, factory: factory}
}

// expectCommits expects n transactions that commit.
func (f *jobFixture) expectCommits(n int) {
	for i := 0; i < n; i++ {
		f.db.ExpectBegin()
		f.db.ExpectCommit()
	}
}

func (f *jobFixture) run(t *testing.T, task *domain.GenerationTask) (uuid.UUID, error) {
	t.Helper()
	job, err := f.factory.NewJob(task)
	require.NoError(t, err)
	return job.Execute(context.Background())
}

func (f *jobFixture) seedBook(t *testing.T, chapters int) *domain.Book {
	t.Helper()
	book := domain.NewBook("Travel", domain.LevelB1)
	book.Title = "Travel English"
	stubs := make([]domain.ChapterStub, chapters)
	for i := range stubs {
		stubs[i] = domain.ChapterStub{Title: fmt.Sprintf("Chapter %d", i+1)}
	}
	book.SetOutline(stubs)
	require.NoError(t, f.content.Books().Create(context.Background(), book))
	return book
}

func TestNewGenerationJobFactory_Validation(t *testing.T) {
	t.Parallel()
	content := mocks.NewContentStore()
	_, err := NewGenerationJobFactory(JobDeps{
		Generators: &mocks.MockGeneratorFactory{},
		Topics:     content.Topics(), Lessons: content.Lessons(), Books: content.Books(),
	})
	assert.ErrorIs(t, err, ErrNilDB)
}

func TestNewJob_Dispatch(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	target := uuid.New()

	tests := []struct {
		task *domain.GenerationTask
		want any
	}{
		{newLessonTask(t), &lessonJob{}},
		{newTargetTask(t, domain.TaskKindLesson, domain.OperationRegenerate, target), &lessonJob{}},
		{newTargetTask(t, domain.TaskKindBook, domain.OperationRegenerate, target), &bookOutlineJob{}},
		{newTargetTask(t, domain.TaskKindBook, domain.OperationFillContent, target), &bookContentJob{}},
		{newTargetTask(t, domain.TaskKindChapter, domain.OperationRegenerate, target), &chapterJob{}},
	}
	for _, tt := range tests {
		job, err := f.factory.NewJob(tt.task)
		require.NoError(t, err)
		assert.IsType(t, tt.want, job)
		assert.Equal(t, jobType(tt.task), job.Type())
		assert.Same(t, tt.task, job.Task())
	}

	lessonFill := newTargetTask(t, domain.TaskKindLesson, domain.OperationRegenerate, target)
	lessonFill.Operation = domain.OperationFillContent
	_, err := f.factory.NewJob(lessonFill)
	assert.ErrorIs(t, err, ErrUnsupportedTask)
}

func TestLessonJob_Generate(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.gen.Lesson = &generation.LessonContent{
		Title:       "Talking About Yesterday",
		Summary:     "Regular and irregular past forms.",
		FullContent: "## Past Tense",
		Exercises:   []domain.Question{{Question: "Go ->", Answer: "went"}},
		Quiz:        []domain.Question{{Question: "I ___ home.", Options: []string{"go", "went"}, Answer: "went"}},
	}
	f.expectCommits(1)

	id, err := f.run(t, newLessonTask(t))
	require.NoError(t, err)

	lesson, err := f.content.Lessons().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Talking About Yesterday", lesson.Title)
	assert.Equal(t, "## Past Tense", lesson.FullContent)
	assert.Len(t, lesson.Exercises, 1)
	assert.Len(t, lesson.Quiz, 1)
	assert.NotNil(t, lesson.ConversationalPractice)
	assert.Equal(t, 1, f.content.TopicCount())
	assert.Equal(t, 1, f.gens.Calls())
}

func TestLessonJob_GenerateReusesTopic(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.gen.Lesson = &generation.LessonContent{Title: "One"}
	f.expectCommits(2)

	first, err := f.run(t, newLessonTask(t))
	require.NoError(t, err)
	second, err := f.run(t, newLessonTask(t))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, 1, f.content.TopicCount())
}

func TestLessonJob_FallbackIsPersisted(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.expectCommits(1)

	id, err := f.run(t, newLessonTask(t))
	require.NoError(t, err)

	lesson, err := f.content.Lessons().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, generation.FallbackLessonTitle, lesson.Title)
}

func TestLessonJob_EmptyTitle(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.gen.Lesson = &generation.LessonContent{FullContent: "body"}
	f.expectCommits(1)

	id, err := f.run(t, newLessonTask(t))
	require.NoError(t, err)
	lesson, _ := f.content.Lessons().GetByID(context.Background(), id)
	assert.Equal(t, UntitledLesson, lesson.Title)
}

func TestLessonJob_Regenerate(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	existing := domain.NewLesson(uuid.New())
	existing.Title = "Old"
	require.NoError(t, f.content.Lessons().Create(context.Background(), existing))

	f.gen.Lesson = &generation.LessonContent{Title: "New", FullContent: "## New"}
	f.expectCommits(1)

	id, err := f.run(t, newTargetTask(t, domain.TaskKindLesson, domain.OperationRegenerate, existing.ID))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, id)

	lesson, _ := f.content.Lessons().GetByID(context.Background(), id)
	assert.Equal(t, "New", lesson.Title)
	assert.Equal(t, existing.TopicID, lesson.TopicID)
	assert.Equal(t, 0, f.content.TopicCount())
}

func TestLessonJob_RegenerateMissingLesson(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)

	_, err := f.run(t, newTargetTask(t, domain.TaskKindLesson, domain.OperationRegenerate, uuid.New()))
	assert.ErrorContains(t, err, "failed to load lesson")
	assert.Equal(t, 0, f.gen.LessonCalls())
}

func TestLessonJob_GeneratorFactoryError(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.gens.Err = generation.ErrInvalidConfig

	_, err := f.run(t, newLessonTask(t))
	assert.ErrorIs(t, err, generation.ErrInvalidConfig)
}

func TestLessonJob_SaveErrorRollsBack(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.gen.Lesson = &generation.LessonContent{Title: "T"}
	f.content.CreateLessonErr = errors.New("disk full")
	f.db.ExpectBegin()
	f.db.ExpectRollback()

	_, err := f.run(t, newLessonTask(t))
	assert.EqualError(t, err, "disk full")
}

func TestBookOutlineJob_Generate(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.gen.Outline = &generation.OutlineContent{
		Title:       "Travel English",
		Description: "Getting around.",
		Chapters: []domain.ChapterStub{
			{Title: "At the Airport"}, {Title: "At the Hotel"}, {Title: "Ordering Food"},
		},
	}
	f.expectCommits(1)

	task, err := domain.NewGenerationTask(uuid.New(), domain.TaskKindBook, domain.OperationGenerate,
		"Travel", domain.LevelA2, nil)
	require.NoError(t, err)

	id, err := f.run(t, task)
	require.NoError(t, err)

	book, err := f.content.Books().GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Travel English", book.Title)
	assert.Equal(t, domain.LevelA2, book.Level)
	assert.False(t, book.IsPublished)
	require.Len(t, book.Chapters, 3)
	for i, ch := range book.Chapters {
		assert.Equal(t, i+1, ch.Order)
		assert.Empty(t, ch.Content)
	}
	assert.Equal(t, "Ordering Food", book.Chapters[2].Title)
}

func TestBookOutlineJob_FallbackTitle(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	f.expectCommits(1)

	task, err := domain.NewGenerationTask(uuid.New(), domain.TaskKindBook, domain.OperationGenerate,
		"Travel", domain.LevelA2, nil)
	require.NoError(t, err)

	id, err := f.run(t, task)
	require.NoError(t, err)
	book, _ := f.content.Books().GetByID(context.Background(), id)
	assert.Equal(t, generation.FallbackBookTitle, book.Title)
	assert.Empty(t, book.Chapters)
}

func TestBookOutlineJob_Regenerate(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	book := f.seedBook(t, 4)
	f.gen.Outline = &generation.OutlineContent{
		Title:    "Travel English, Revised",
		Chapters: []domain.ChapterStub{{Title: "One"}, {Title: "Two"}},
	}
	f.expectCommits(1)

	id, err := f.run(t, newTargetTask(t, domain.TaskKindBook, domain.OperationRegenerate, book.ID))
	require.NoError(t, err)
	assert.Equal(t, book.ID, id)

	got, _ := f.content.Books().GetByID(context.Background(), id)
	assert.Equal(t, "Travel English, Revised", got.Title)
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, "One", got.Chapters[0].Title)
}

func TestBookContentJob_FillsChaptersInOrder(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	book := f.seedBook(t, 3)
	f.expectCommits(3)

	id, err := f.run(t, newTargetTask(t, domain.TaskKindBook, domain.OperationFillContent, book.ID))
	require.NoError(t, err)
	assert.Equal(t, book.ID, id)

	calls := f.gen.ChapterCalls()
	require.Len(t, calls, 3)
	for i, c := range calls {
		assert.Equal(t, fmt.Sprintf("Chapter %d", i+1), c.ChapterTitle)
		assert.Equal(t, "Travel English", c.BookTitle)
		assert.Equal(t, domain.LevelB1, c.Level)
	}

	got, _ := f.content.Books().GetByID(context.Background(), book.ID)
	for i, ch := range got.Chapters {
		assert.Equal(t, fmt.Sprintf("## Chapter %d", i+1), ch.Content)
	}
}

func TestBookContentJob_ChapterFailureIsInline(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	book := f.seedBook(t, 8)
	f.gen.ChapterFn = func(ctx context.Context, title, bookTitle string, level domain.Level) generation.Result {
		if title == "Chapter 3" {
			return repair.Fallback("", generation.KindChapter, "quota exceeded")
		}
		return generation.Result{Kind: generation.KindChapter, Chapter: &generation.ChapterContent{Content: "## " + title}}
	}
	f.expectCommits(8)

	_, err := f.run(t, newTargetTask(t, domain.TaskKindBook, domain.OperationFillContent, book.ID))
	require.NoError(t, err)

	got, _ := f.content.Books().GetByID(context.Background(), book.ID)
	require.Len(t, got.Chapters, 8)
	for _, ch := range got.Chapters {
		if ch.Order == 3 {
			assert.Equal(t, repair.ChapterError("quota exceeded"), ch.Content)
			continue
		}
		assert.Equal(t, "## "+ch.Title, ch.Content)
	}
}

func TestBookContentJob_SaveErrorKeepsEarlierChapters(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	book := f.seedBook(t, 5)
	third := book.Chapters[2].ID
	f.content.UpdateChapterFn = func(id uuid.UUID, content string) error {
		if id == third {
			return errors.New("lost connection")
		}
		return nil
	}
	f.expectCommits(2)
	f.db.ExpectBegin()
	f.db.ExpectRollback()

	_, err := f.run(t, newTargetTask(t, domain.TaskKindBook, domain.OperationFillContent, book.ID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chapter 3")

	got, _ := f.content.Books().GetByID(context.Background(), book.ID)
	assert.Equal(t, "## Chapter 1", got.Chapters[0].Content)
	assert.Equal(t, "## Chapter 2", got.Chapters[1].Content)
	assert.Empty(t, got.Chapters[2].Content)
	assert.Empty(t, got.Chapters[3].Content)
}

func TestChapterJob_Regenerate(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	book := f.seedBook(t, 3)
	target := book.Chapters[1]
	f.expectCommits(1)

	id, err := f.run(t, newTargetTask(t, domain.TaskKindChapter, domain.OperationRegenerate, target.ID))
	require.NoError(t, err)
	assert.Equal(t, target.ID, id)

	ch, _ := f.content.Books().GetChapter(context.Background(), target.ID)
	assert.Equal(t, "## Chapter 2", ch.Content)

	calls := f.gen.ChapterCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Travel English", calls[0].BookTitle)
}

func TestChapterJob_EmptyBodyBecomesInlineError(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)
	book := f.seedBook(t, 1)
	f.gen.ChapterFn = func(context.Context, string, string, domain.Level) generation.Result {
		return generation.Result{Kind: generation.KindChapter, Chapter: &generation.ChapterContent{Content: "  "}}
	}
	f.expectCommits(1)

	_, err := f.run(t, newTargetTask(t, domain.TaskKindChapter, domain.OperationRegenerate, book.Chapters[0].ID))
	require.NoError(t, err)

	ch, _ := f.content.Books().GetChapter(context.Background(), book.Chapters[0].ID)
	assert.True(t, strings.HasPrefix(ch.Content, "::: warning"))
}

func TestChapterJob_MissingChapter(t *testing.T) {
	t.Parallel()
	f := newJobFixture(t)

	_, err := f.run(t, newTargetTask(t, domain.TaskKindChapter, domain.OperationRegenerate, uuid.New()))
	assert.ErrorContains(t, err, "failed to load chapter")
}
