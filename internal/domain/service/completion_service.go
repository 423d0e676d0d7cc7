package service

import (
	"context"

	"streak-service/internal/domain/entity"
)

// CompletionCoordinator defines habit completion and streak operations
type CompletionCoordinator interface {
	// Toggle marks the habit completed or uncompleted for today and returns the outcome
	Toggle(ctx context.Context, habitID, userID string, complete bool) entity.Outcome

	// ToggleAsync runs Toggle on its own goroutine and delivers the outcome to listener
	ToggleAsync(ctx context.Context, habitID, userID string, complete bool, listener entity.Listener)

	// Remind dispatches a reminder for the habit under the habit's exclusivity
	Remind(ctx context.Context, event entity.ReminderEvent, userID string) error

	// Register creates a new habit with an empty streak
	Register(ctx context.Context, userID, habitID, title string, timezoneOffsetHours int32) (*entity.Habit, error)

	// Describe retrieves a habit with its statistics
	Describe(ctx context.Context, habitID, userID string) (*entity.Habit, entity.HabitStats, error)
}
