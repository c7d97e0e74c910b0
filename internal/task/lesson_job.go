package task

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/generation"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// UntitledLesson replaces an empty generated title.
const UntitledLesson = "Untitled Lesson"

// lessonJob generates a lesson for the task's topic and level. Generate
// creates the lesson under its topic; regenerate rewrites the target lesson.
type lessonJob struct {
	baseJob
}

func (j *lessonJob) Execute(ctx context.Context) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, j.deps.Logger)

	var existing *domain.Lesson
	if j.task.Operation == domain.OperationRegenerate {
		l, err := j.deps.Lessons.GetByID(ctx, *j.task.TargetID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to load lesson: %w", err)
		}
		existing = l
	}

	gen, err := j.deps.Generators.NewGenerator(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create generator: %w", err)
	}

	res := gen.GenerateLesson(ctx, j.task.Topic, j.task.Level)
	if res.Failed() {
		log.Warn("lesson generation degraded to fallback", slog.String("reason", res.Failure.Message))
	}

	var lessonID uuid.UUID
	err = store.RunInTransaction(ctx, j.deps.DB, func(ctx context.Context, tx *sql.Tx) error {
		lessons := j.deps.Lessons.WithTx(tx)

		if existing != nil {
			applyLesson(existing, res.Lesson)
			lessonID = existing.ID
			return lessons.Update(ctx, existing)
		}

		topic, err := j.deps.Topics.WithTx(tx).GetOrCreate(ctx, j.task.Topic, j.task.Level)
		if err != nil {
			return fmt.Errorf("failed to resolve topic: %w", err)
		}
		lesson := domain.NewLesson(topic.ID)
		applyLesson(lesson, res.Lesson)
		lessonID = lesson.ID
		return lessons.Create(ctx, lesson)
	})
	if err != nil {
		return uuid.Nil, err
	}

	log.Info("lesson saved", slog.String("lesson_id", lessonID.String()))
	return lessonID, nil
}

func applyLesson(l *domain.Lesson, c *generation.LessonContent) {
	l.Title = strings.TrimSpace(c.Title)
	if l.Title == "" {
		l.Title = UntitledLesson
	}
	l.Summary = c.Summary
	l.FullContent = c.FullContent
	l.Exercises = c.Exercises
	l.Quiz = c.Quiz
	l.ConversationalPractice = c.ConversationalPractice
	l.UpdatedAt = time.Now().UTC()
}
