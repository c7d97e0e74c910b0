package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/coach-api/internal/domain"
	"github.com/phrazzld/coach-api/internal/store"
)

// TaskStore is an in-memory store.TaskStore. Transition is a
// compare-and-set on status like the postgres store. The Err fields make
// the matching method fail.
type TaskStore struct {
	CreateErr     error
	TransitionErr error
	ListErr       error

	mu    sync.Mutex
	tasks map[uuid.UUID]domain.GenerationTask
	// history records every status written per task, in order.
	history map[uuid.UUID][]domain.TaskStatus
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore returns an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:   make(map[uuid.UUID]domain.GenerationTask),
		history: make(map[uuid.UUID][]domain.TaskStatus),
	}
}

// Put stores t as is, bypassing validation.
func (s *TaskStore) Put(t *domain.GenerationTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = *t
	s.history[t.ID] = append(s.history[t.ID], t.Status)
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, t *domain.GenerationTask) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return store.ErrDuplicate
	}
	s.tasks[t.ID] = *t
	s.history[t.ID] = []domain.TaskStatus{t.Status}
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GenerationTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return &t, nil
}

// Transition implements store.TaskStore.
func (s *TaskStore) Transition(ctx context.Context, t *domain.GenerationTask, from domain.TaskStatus) error {
	if s.TransitionErr != nil {
		return s.TransitionErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[t.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	if cur.Status != from {
		return store.ErrStaleTask
	}
	s.tasks[t.ID] = *t
	s.history[t.ID] = append(s.history[t.ID], t.Status)
	return nil
}

// ListByStatus implements store.TaskStore.
func (s *TaskStore) ListByStatus(
	ctx context.Context,
	status domain.TaskStatus,
	olderThan time.Duration,
) ([]*domain.GenerationTask, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	var out []*domain.GenerationTask
	for _, t := range s.tasks {
		if t.Status != status {
			continue
		}
		if olderThan > 0 && t.UpdatedAt.After(cutoff) {
			continue
		}
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// History returns the statuses written for id, oldest first.
func (s *TaskStore) History(id uuid.UUID) []domain.TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TaskStatus(nil), s.history[id]...)
}

// Get returns the stored task or nil.
func (s *TaskStore) Get(id uuid.UUID) *domain.GenerationTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil
	}
	return &t
}
