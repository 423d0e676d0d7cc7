package repository

import (
	"context"

	"streak-service/internal/domain/entity"
)

// HabitRepository defines the interface for habit streak persistence.
// Load returns an error matching errors.ErrNotFound when the habit does not exist for the user.
type HabitRepository interface {
	// Create creates a new habit
	Create(ctx context.Context, habit *entity.Habit) error

	// Load retrieves a habit with its completion record by ID and user ID
	Load(ctx context.Context, userID, habitID string) (*entity.Habit, error)

	// Save replaces the streak state and completion record of an existing habit.
	// The write applies only if the stored version equals habit.Version, which is then incremented.
	// A stale version returns an error of kind errors.KindConflict.
	Save(ctx context.Context, habit *entity.Habit) error
}
