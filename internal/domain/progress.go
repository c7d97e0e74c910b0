package domain

import (
	"time"

	"github.com/google/uuid"
)

// Practice time credited for activities.
const (
	LessonPracticeMinutes = 10
	ChatPracticeMinutes   = 1
)

// UserProgress tracks a learner's activity.
type UserProgress struct {
	UserID              uuid.UUID  `json:"user_id"`
	CurrentLevel        Level      `json:"current_level"`
	CompletedLessons    int        `json:"completed_lessons"`
	PracticeTimeMinutes int        `json:"practice_time_minutes"`
	WordsLearned        int        `json:"words_learned"`
	CurrentStreak       int        `json:"current_streak"`
	LastActivityDate    *time.Time `json:"last_activity_date,omitempty"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// NewUserProgress returns the starting progress for userID.
func NewUserProgress(userID uuid.UUID) *UserProgress {
	return &UserProgress{
		UserID:       userID,
		CurrentLevel: LevelA1,
		UpdatedAt:    time.Now().UTC(),
	}
}

// RecordLessonCompleted credits a first view of a lesson. Callers only call
// it when the lesson was not already in the completed set.
func (p *UserProgress) RecordLessonCompleted() {
	p.CompletedLessons++
	p.PracticeTimeMinutes += LessonPracticeMinutes
	p.UpdatedAt = time.Now().UTC()
}

// AddPracticeMinutes adds non-negative minutes to the practice total.
func (p *UserProgress) AddPracticeMinutes(minutes int) error {
	if minutes < 0 {
		return NewValidationError("minutes", "must not be negative", ErrValidation)
	}
	p.PracticeTimeMinutes += minutes
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// TouchStreak updates the daily streak for activity on now's calendar day:
// same day leaves it unchanged, the following day extends it, and any
// longer gap restarts it at 1.
func (p *UserProgress) TouchStreak(now time.Time) {
	today := truncateDay(now)
	if p.LastActivityDate != nil {
		last := truncateDay(*p.LastActivityDate)
		switch {
		case last.Equal(today):
			return
		case last.AddDate(0, 0, 1).Equal(today):
			p.CurrentStreak++
		default:
			p.CurrentStreak = 1
		}
	} else {
		p.CurrentStreak = 1
	}
	p.LastActivityDate = &today
	p.UpdatedAt = now.UTC()
}

// DailyCount is a count of sessions started on Day.
type DailyCount struct {
	Day   time.Time
	Count int
}

// SessionChart holds a trailing seven day series, oldest first.
type SessionChart struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// BuildSessionChart fills a seven day window ending on now's day. Days
// without sessions get a zero count. Labels are short weekday names.
func BuildSessionChart(now time.Time, counts []DailyCount) SessionChart {
	byDay := make(map[string]int, len(counts))
	for _, c := range counts {
		byDay[truncateDay(c.Day).Format(time.DateOnly)] += c.Count
	}

	chart := SessionChart{Labels: make([]string, 0, 7), Data: make([]int, 0, 7)}
	start := truncateDay(now).AddDate(0, 0, -6)
	for i := 0; i < 7; i++ {
		day := start.AddDate(0, 0, i)
		chart.Labels = append(chart.Labels, day.Format("Mon"))
		chart.Data = append(chart.Data, byDay[day.Format(time.DateOnly)])
	}
	return chart
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
