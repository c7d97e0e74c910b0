package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local WindowStore used when no Redis address is
// configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	times     []time.Time
	expiresAt time.Time
}

var _ WindowStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Load implements WindowStore.
func (s *MemoryStore) Load(_ context.Context, key string) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return []time.Time{}, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return []time.Time{}, nil
	}
	return append([]time.Time(nil), e.times...), nil
}

// Save implements WindowStore. Expired keys are swept on each call.
func (s *MemoryStore) Save(_ context.Context, key string, times []time.Time, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[key] = memoryEntry{
		times:     append([]time.Time(nil), times...),
		expiresAt: now.Add(expiry),
	}
	return nil
}
