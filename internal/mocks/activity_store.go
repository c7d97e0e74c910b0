package mocks

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/store"
)

// ConversationStore is an in-memory store.ConversationStore.
type ConversationStore struct {
	UpdateErr error

	mu    sync.Mutex
	convs map[uuid.UUID]domain.Conversation
}

var _ store.ConversationStore = (*ConversationStore)(nil)

// NewConversationStore returns an empty ConversationStore.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{convs: make(map[uuid.UUID]domain.Conversation)}
}

func (s *ConversationStore) Create(ctx context.Context, c *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[c.ID] = cloneConversation(c)
	return nil
}

func (s *ConversationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, store.ErrConversationNotFound
	}
	out := cloneConversation(&c)
	return &out, nil
}

func (s *ConversationStore) UpdateHistory(ctx context.Context, c *domain.Conversation) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.convs[c.ID]; !ok {
		return store.ErrConversationNotFound
	}
	s.convs[c.ID] = cloneConversation(c)
	return nil
}

func (s *ConversationStore) CountStartedByDay(
	ctx context.Context,
	userID uuid.UUID,
	since time.Time,
) ([]domain.DailyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay := map[time.Time]int{}
	for _, c := range s.convs {
		if c.UserID != userID || c.StartedAt.Before(since) {
			continue
		}
		y, m, d := c.StartedAt.Date()
		byDay[time.Date(y, m, d, 0, 0, 0, 0, c.StartedAt.Location())]++
	}
	out := make([]domain.DailyCount, 0, len(byDay))
	for day, n := range byDay {
		out = append(out, domain.DailyCount{Day: day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, nil
}

func cloneConversation(c *domain.Conversation) domain.Conversation {
	out := *c
	out.History = append([]domain.Turn{}, c.History...)
	return out
}

// ProgressStore is an in-memory store.ProgressStore.
type ProgressStore struct {
	SaveErr error

	mu        sync.Mutex
	progress  map[uuid.UUID]domain.UserProgress
	completed map[uuid.UUID]map[uuid.UUID]bool
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// NewProgressStore returns an empty ProgressStore.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		progress:  make(map[uuid.UUID]domain.UserProgress),
		completed: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (s *ProgressStore) Get(ctx context.Context, userID uuid.UUID) (*domain.UserProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[userID]
	if !ok {
		p = *domain.NewUserProgress(userID)
	}
	p.CompletedLessons = len(s.completed[userID])
	return &p, nil
}

func (s *ProgressStore) Save(ctx context.Context, p *domain.UserProgress) error {
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[p.UserID] = *p
	return nil
}

func (s *ProgressStore) AddCompletedLesson(ctx context.Context, userID, lessonID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.completed[userID]
	if !ok {
		set = map[uuid.UUID]bool{}
		s.completed[userID] = set
	}
	if set[lessonID] {
		return false, nil
	}
	set[lessonID] = true
	return true, nil
}

func (s *ProgressStore) WithTx(*sql.Tx) store.ProgressStore { return s }

// SettingsStore is an in-memory store.SettingsStore.
type SettingsStore struct {
	GetErr error
	SetErr error

	mu     sync.Mutex
	values map[string]string
}

var _ store.SettingsStore = (*SettingsStore)(nil)

// NewSettingsStore returns a SettingsStore seeded with values.
func NewSettingsStore(values map[string]string) *SettingsStore {
	s := &SettingsStore{values: map[string]string{}}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *SettingsStore) GetSettings(ctx context.Context, keys ...string) (map[string]string, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *SettingsStore) SetSettings(ctx context.Context, values map[string]string) error {
	if s.SetErr != nil {
		return s.SetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.values[k] = v
	}
	return nil
}
