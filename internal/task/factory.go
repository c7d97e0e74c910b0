package task

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/store"
)

// Common errors
var (
	ErrNilGeneratorFactory = errors.New("generator factory cannot be nil")
	ErrNilStore            = errors.New("store cannot be nil")
	ErrNilDB               = errors.New("database cannot be nil")
	ErrUnsupportedTask     = errors.New("unsupported task kind and operation")
)

// JobDeps are the collaborators shared by every generation job. DB opens a
// fresh transaction per write; jobs never reuse a connection from the
// submitting request.
type JobDeps struct {
	DB         store.Beginner
	Generators generation.GeneratorFactory
	Topics     store.TopicStore
	Lessons    store.LessonStore
	Books      store.BookStore
	Logger     *slog.Logger
}

func (d JobDeps) validate() error {
	switch {
	case d.DB == nil:
		return ErrNilDB
	case d.Generators == nil:
		return ErrNilGeneratorFactory
	case d.Topics == nil, d.Lessons == nil, d.Books == nil:
		return ErrNilStore
	}
	return nil
}

// GenerationJobFactory builds jobs for every task kind and operation.
type GenerationJobFactory struct {
	deps JobDeps
}

var _ JobFactory = (*GenerationJobFactory)(nil)

// NewGenerationJobFactory validates deps and returns a factory.
func NewGenerationJobFactory(deps JobDeps) (*GenerationJobFactory, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	deps.Logger = deps.Logger.With(slog.String("component", "generation_jobs"))
	return &GenerationJobFactory{deps: deps}, nil
}

// NewJob implements JobFactory.
func (f *GenerationJobFactory) NewJob(t *domain.GenerationTask) (Job, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	base := baseJob{task: t, deps: f.deps}

	switch {
	case t.Kind == domain.TaskKindLesson && t.Operation != domain.OperationFillContent:
		return &lessonJob{baseJob: base}, nil
	case t.Kind == domain.TaskKindBook && t.Operation == domain.OperationFillContent:
		return &bookContentJob{baseJob: base}, nil
	case t.Kind == domain.TaskKindBook:
		return &bookOutlineJob{baseJob: base}, nil
	case t.Kind == domain.TaskKindChapter && t.Operation == domain.OperationRegenerate:
		return &chapterJob{baseJob: base}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedTask, jobType(t))
}

type baseJob struct {
	task *domain.GenerationTask
	deps JobDeps
}

func (j *baseJob) Task() *domain.GenerationTask { return j.task }

func (j *baseJob) Type() string { return jobType(j.task) }
