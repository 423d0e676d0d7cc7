package memory

import (
	"context"
	"fmt"
	"sync"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/repository"
	"streak-service/internal/errors"
)

type habitRepository struct {
	mu     sync.RWMutex
	habits map[string]*entity.Habit
}

// NewHabitRepository creates a new in-memory habit repository
func NewHabitRepository() repository.HabitRepository {
	return &habitRepository{
		habits: make(map[string]*entity.Habit),
	}
}

func key(userID, habitID string) string {
	return userID + "/" + habitID
}

func (r *habitRepository) Create(ctx context.Context, habit *entity.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(habit.UserID, habit.ID)
	if _, ok := r.habits[k]; ok {
		return errors.NewInvalidRequest(fmt.Sprintf("habit already exists: %s", habit.ID))
	}
	r.habits[k] = habit.Clone()
	return nil
}

func (r *habitRepository) Load(ctx context.Context, userID, habitID string) (*entity.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.habits[key(userID, habitID)]
	if !ok {
		return nil, errors.NewNotFound(habitID)
	}
	return habit.Clone(), nil
}

func (r *habitRepository) Save(ctx context.Context, habit *entity.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(habit.UserID, habit.ID)
	stored, ok := r.habits[k]
	if !ok {
		return errors.NewNotFound(habit.ID)
	}
	if stored.Version != habit.Version {
		return errors.NewConflict(habit.ID)
	}
	habit.Version++
	r.habits[k] = habit.Clone()
	return nil
}
