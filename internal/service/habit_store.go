package service

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/repository"
	"streak-service/internal/domain/streak"
	"streak-service/internal/errors"
	"streak-service/internal/logger"
)

const (
	defaultCacheSize = 10000
	defaultCacheTTL  = time.Minute
)

// HabitStore is a bounded write-through cache in front of a habit repository.
// Entries expire after the cache TTL so writes from other instances become visible.
// Callers serialize writes per habit; the store only guards fills against them.
type HabitStore struct {
	repo   repository.HabitRepository
	engine *streak.Engine
	now    func() time.Time

	mu    sync.Mutex
	cache *expirable.LRU[string, *entity.Habit]
}

// StoreOption configures a HabitStore
type StoreOption func(*storeOptions)

type storeOptions struct {
	size int
	ttl  time.Duration
}

// WithCacheSize bounds the number of cached habits
func WithCacheSize(size int) StoreOption {
	return func(o *storeOptions) {
		if size > 0 {
			o.size = size
		}
	}
}

// WithCacheTTL sets how long a cached habit is served before it is reloaded
func WithCacheTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// NewHabitStore creates a new habit store
func NewHabitStore(repo repository.HabitRepository, engine *streak.Engine, now func() time.Time, opts ...StoreOption) *HabitStore {
	if now == nil {
		now = time.Now
	}
	o := storeOptions{size: defaultCacheSize, ttl: defaultCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &HabitStore{
		repo:   repo,
		engine: engine,
		now:    now,
		cache:  expirable.NewLRU[string, *entity.Habit](o.size, nil, o.ttl),
	}
}

func cacheKey(userID, habitID string) string {
	return userID + "/" + habitID
}

// Get returns a copy of the habit, loading and repairing it on a cache miss
func (s *HabitStore) Get(ctx context.Context, userID, habitID string) (*entity.Habit, error) {
	k := cacheKey(userID, habitID)
	if cached, ok := s.cache.Get(k); ok {
		return cached.Clone(), nil
	}

	habit, err := s.repo.Load(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, errors.KindNotFound) {
			return nil, err
		}
		return nil, errors.NewStorageUnavailable(err)
	}

	repaired, changed := s.engine.Reconcile(habit, habit.LocalDay(s.now()))
	if changed {
		logger.Warn("habit streak drifted from its record, repairing",
			"habit_id", habitID,
			"stored_streak", habit.Streak,
			"streak", repaired.Streak,
		)
		repaired.UpdatedAt = s.now().UTC()
		if err := s.repo.Save(ctx, repaired); err != nil {
			logger.Warn("failed to persist repaired habit", "habit_id", habitID, "error", err)
			if errors.Is(err, errors.KindConflict) {
				// someone else wrote it; serve the repair once and reload next time
				return repaired.Clone(), nil
			}
		}
	}

	return s.fill(k, repaired).Clone(), nil
}

// fill caches a freshly loaded habit unless a writer got there first.
func (s *HabitStore) fill(k string, loaded *entity.Habit) *entity.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.cache.Peek(k); ok && existing.Version >= loaded.Version {
		return existing
	}
	s.cache.Add(k, loaded)
	return loaded
}

// Put stages next in the cache and writes it through.
// On failure the cache is rolled back to prev. A version conflict evicts the habit
// and is returned as is; other failures become StorageUnavailable.
func (s *HabitStore) Put(ctx context.Context, prev, next *entity.Habit) error {
	k := cacheKey(next.UserID, next.ID)

	s.mu.Lock()
	s.cache.Add(k, next.Clone())
	s.mu.Unlock()

	if err := s.repo.Save(ctx, next); err != nil {
		if errors.Is(err, errors.KindConflict) {
			s.Evict(next.UserID, next.ID)
			return err
		}

		s.mu.Lock()
		if prev != nil {
			s.cache.Add(k, prev.Clone())
		} else {
			s.cache.Remove(k)
		}
		s.mu.Unlock()

		if errors.Is(err, errors.KindNotFound) {
			return err
		}
		return errors.NewStorageUnavailable(err)
	}

	// Save bumped the version
	s.mu.Lock()
	s.cache.Add(k, next.Clone())
	s.mu.Unlock()
	return nil
}

// Create persists a new habit and caches it
func (s *HabitStore) Create(ctx context.Context, habit *entity.Habit) error {
	if err := s.repo.Create(ctx, habit); err != nil {
		if errors.KindOf(err) != "" {
			return err
		}
		return errors.NewStorageUnavailable(err)
	}

	s.mu.Lock()
	s.cache.Add(cacheKey(habit.UserID, habit.ID), habit.Clone())
	s.mu.Unlock()
	return nil
}

// Evict drops a habit from the cache so the next Get reloads it
func (s *HabitStore) Evict(userID, habitID string) {
	s.mu.Lock()
	s.cache.Remove(cacheKey(userID, habitID))
	s.mu.Unlock()
}

// Len returns the number of cached habits
func (s *HabitStore) Len() int {
	return s.cache.Len()
}
