package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/platform/logger"
	"github.com/phrazzld/coach-api/internal/store"
)

// DefaultPracticeMinutes is credited when a practice-time report omits the
// number of minutes.
const DefaultPracticeMinutes = 1

// chartDays is the span of the voice session chart.
const chartDays = 7

// ProgressView is a user's progress with the voice session chart.
type ProgressView struct {
	Progress  *domain.UserProgress `json:"progress"`
	LevelName string               `json:"level_name"`
	Chart     domain.SessionChart  `json:"chart"`
}

// ProgressService tracks lesson completion, streaks and practice time.
type ProgressService struct {
	db            store.Beginner
	progress      store.ProgressStore
	lessons       store.LessonStore
	conversations store.ConversationStore
	now           func() time.Time
	logger        *slog.Logger
}

// NewProgressService creates a ProgressService.
func NewProgressService(
	db store.Beginner,
	progress store.ProgressStore,
	lessons store.LessonStore,
	conversations store.ConversationStore,
	logger *slog.Logger,
) (*ProgressService, error) {
	if db == nil || progress == nil || lessons == nil || conversations == nil {
		return nil, &ServiceError{Service: "progress", Operation: "create_service", Message: "dependencies cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressService{
		db:            db,
		progress:      progress,
		lessons:       lessons,
		conversations: conversations,
		now:           time.Now,
		logger:        logger.With("component", "progress_service"),
	}, nil
}

// ViewLesson returns the lesson and records the view. The first view of a
// lesson completes it and credits domain.LessonPracticeMinutes; every view
// updates the streak.
func (s *ProgressService) ViewLesson(ctx context.Context, userID, lessonID uuid.UUID) (*domain.Lesson, error) {
	lesson, err := s.lessons.GetByID(ctx, lessonID)
	if err != nil {
		return nil, newServiceError("progress", "view_lesson", "failed to load lesson", err)
	}

	now := s.now()
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProgress := s.progress.WithTx(tx)

		p, err := txProgress.Get(ctx, userID)
		if err != nil {
			return err
		}
		added, err := txProgress.AddCompletedLesson(ctx, userID, lessonID)
		if err != nil {
			return err
		}
		if added {
			p.RecordLessonCompleted()
		}
		p.TouchStreak(now)
		return txProgress.Save(ctx, p)
	})
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to record lesson view",
			"error", err,
			"user_id", userID,
			"lesson_id", lessonID)
		return nil, newServiceError("progress", "view_lesson", "failed to record progress", err)
	}
	return lesson, nil
}

// Get returns the user's progress and their conversations per day over the
// last week, oldest day first.
func (s *ProgressService) Get(ctx context.Context, userID uuid.UUID) (*ProgressView, error) {
	p, err := s.progress.Get(ctx, userID)
	if err != nil {
		return nil, newServiceError("progress", "get_progress", "failed to load progress", err)
	}

	now := s.now()
	y, m, d := now.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(chartDays - 1))
	counts, err := s.conversations.CountStartedByDay(ctx, userID, since)
	if err != nil {
		return nil, newServiceError("progress", "get_progress", "failed to count sessions", err)
	}

	return &ProgressView{
		Progress:  p,
		LevelName: p.CurrentLevel.DisplayName(),
		Chart:     domain.BuildSessionChart(now, counts),
	}, nil
}

// AddPracticeTime credits minutes of practice and returns the new total.
// A nil minutes credits DefaultPracticeMinutes.
func (s *ProgressService) AddPracticeTime(ctx context.Context, userID uuid.UUID, minutes *int) (int, error) {
	n := DefaultPracticeMinutes
	if minutes != nil {
		n = *minutes
	}

	p, err := s.progress.Get(ctx, userID)
	if err != nil {
		return 0, newServiceError("progress", "add_practice_time", "failed to load progress", err)
	}
	if err := p.AddPracticeMinutes(n); err != nil {
		return 0, err
	}
	if err := s.progress.Save(ctx, p); err != nil {
		return 0, newServiceError("progress", "add_practice_time", "failed to save progress", err)
	}
	return p.PracticeTimeMinutes, nil
}
