package memory

import (
	"context"
	"sync"
	"time"

	"streak-service/internal/domain/repository"
)

// DedupStore keeps notification keys in process memory until they expire
type DedupStore struct {
	mu   sync.Mutex
	keys map[string]time.Time
	now  func() time.Time
}

var _ repository.DedupStore = (*DedupStore)(nil)

// NewDedupStore creates a new in-memory dedup store
func NewDedupStore() *DedupStore {
	return &DedupStore{
		keys: make(map[string]time.Time),
		now:  time.Now,
	}
}

func (s *DedupStore) MarkIfUnseen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expires, ok := s.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.keys[key] = now.Add(ttl)
	return true, nil
}

func (s *DedupStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.keys, key)
	return nil
}

// Sweep drops expired keys and returns how many were removed
func (s *DedupStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for k, expires := range s.keys {
		if !now.Before(expires) {
			delete(s.keys, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys, expired or not
func (s *DedupStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
