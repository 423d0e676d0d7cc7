package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/service"
	"streak-service/internal/domain/streak"
	"streak-service/internal/errors"
	"streak-service/internal/logger"
	"streak-service/pkg/keylock"
)

type completionService struct {
	store      *HabitStore
	engine     *streak.Engine
	dispatcher service.NotificationDispatcher
	locks      *keylock.KeyedMutex
	now        func() time.Time
}

// NewCompletionService creates a new completion coordinator
func NewCompletionService(
	store *HabitStore,
	engine *streak.Engine,
	dispatcher service.NotificationDispatcher,
	now func() time.Time,
) service.CompletionCoordinator {
	if now == nil {
		now = time.Now
	}
	return &completionService{
		store:      store,
		engine:     engine,
		dispatcher: dispatcher,
		locks:      keylock.New(),
		now:        now,
	}
}

func (s *completionService) Toggle(ctx context.Context, habitID, userID string, complete bool) entity.Outcome {
	if userID == "" {
		return errorOutcome(habitID, errors.NewNotAuthenticated())
	}
	if habitID == "" {
		return errorOutcome(habitID, errors.NewMalformedEvent("habit_id is required"))
	}

	unlock, err := s.locks.LockContext(ctx, habitID)
	if err != nil {
		return errorOutcome(habitID, err)
	}
	transition, err := s.apply(ctx, habitID, userID, complete)
	unlock()

	if err != nil {
		logger.Warn("toggle failed", "habit_id", habitID, "complete", complete, "error", err)
		return errorOutcome(habitID, err)
	}

	habit := transition.Habit
	if transition.MilestoneCrossed {
		s.dispatcher.NotifyMilestone(ctx, entity.NotificationIntent{
			Kind:    entity.NotificationKindMilestone,
			HabitID: habit.ID,
			UserID:  habit.UserID,
			Title:   habit.Title,
			Streak:  habit.Streak,
			Day:     habit.LocalDay(s.now()),
		})
	}

	switch {
	case !transition.Changed:
		return entity.Outcome{Kind: entity.OutcomeStreakUpdated, HabitID: habitID, Streak: habit.Streak}
	case complete:
		logger.Info("habit completed", "habit_id", habitID, "streak", habit.Streak)
		return entity.Outcome{Kind: entity.OutcomeCompleted, HabitID: habitID, Streak: habit.Streak}
	default:
		logger.Info("habit uncompleted", "habit_id", habitID, "streak", habit.Streak)
		return entity.Outcome{Kind: entity.OutcomeUncompleted, HabitID: habitID, Streak: habit.Streak}
	}
}

// maxConflictRetries bounds reloads after another writer changed the habit
const maxConflictRetries = 3

// apply runs load, transition and save; the caller holds the habit lock.
// A version conflict reloads the habit and replays the action.
func (s *completionService) apply(ctx context.Context, habitID, userID string, complete bool) (streak.Transition, error) {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		var transition streak.Transition
		transition, err = s.applyOnce(ctx, habitID, userID, complete)
		if !errors.Is(err, errors.KindConflict) {
			return transition, err
		}
		logger.Debug("habit changed concurrently, retrying", "habit_id", habitID, "attempt", attempt+1)
	}
	return streak.Transition{}, errors.NewStorageUnavailable(err)
}

func (s *completionService) applyOnce(ctx context.Context, habitID, userID string, complete bool) (streak.Transition, error) {
	current, err := s.store.Get(ctx, userID, habitID)
	if err != nil {
		return streak.Transition{}, err
	}

	now := s.now()
	action := entity.ActionUncomplete
	if complete {
		action = entity.ActionComplete
	}
	event := entity.CompletionEvent{
		HabitID:   habitID,
		Action:    action,
		Source:    entity.SourceDirect,
		Timestamp: now,
	}

	transition := s.engine.Next(current, event, current.LocalDay(now))
	if !transition.Changed {
		return transition, nil
	}

	transition.Habit.UpdatedAt = now.UTC()
	if err := s.store.Put(ctx, current, transition.Habit); err != nil {
		return streak.Transition{}, err
	}
	return transition, nil
}

func (s *completionService) ToggleAsync(ctx context.Context, habitID, userID string, complete bool, listener entity.Listener) {
	go func() {
		s.Toggle(ctx, habitID, userID, complete).Deliver(listener)
	}()
}

func (s *completionService) Remind(ctx context.Context, event entity.ReminderEvent, userID string) error {
	if userID == "" {
		return errors.NewNotAuthenticated()
	}
	if event.HabitID == "" {
		return errors.NewMalformedEvent("habit_id is required")
	}

	intent := entity.NotificationIntent{
		Kind:    entity.NotificationKindReminder,
		HabitID: event.HabitID,
		UserID:  userID,
		Title:   event.Title,
		Streak:  event.CurrentStreak,
		Day:     entity.DayOf(s.now().UTC()),
	}

	unlock, err := s.locks.LockContext(ctx, event.HabitID)
	if err != nil {
		return err
	}
	habit, err := s.store.Get(ctx, userID, event.HabitID)
	unlock()

	switch {
	case err == nil:
		intent.Streak = habit.Streak
		intent.Day = habit.LocalDay(s.now())
		if intent.Title == "" {
			intent.Title = habit.Title
		}
	case errors.Is(err, errors.KindNotFound):
		logger.Debug("dropping reminder for unknown habit", "habit_id", event.HabitID)
		return err
	default:
		logger.Warn("reminder using event values, storage unavailable", "habit_id", event.HabitID, "error", err)
	}

	if intent.Title == "" {
		return errors.NewMalformedEvent("title is required")
	}

	s.dispatcher.NotifyReminder(ctx, intent)
	return nil
}

func (s *completionService) Register(ctx context.Context, userID, habitID, title string, timezoneOffsetHours int32) (*entity.Habit, error) {
	if userID == "" {
		return nil, errors.NewNotAuthenticated()
	}
	if title == "" {
		return nil, errors.NewInvalidRequest("title is required")
	}
	if timezoneOffsetHours < -12 || timezoneOffsetHours > 14 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("timezone offset out of range: %d", timezoneOffsetHours))
	}
	if habitID == "" {
		habitID = uuid.New().String()
	}

	now := s.now().UTC()
	habit := &entity.Habit{
		ID:                  habitID,
		UserID:              userID,
		Title:               title,
		TimezoneOffsetHours: timezoneOffsetHours,
		Streak:              0,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.Create(ctx, habit); err != nil {
		return nil, err
	}

	logger.Info("habit registered", "habit_id", habitID, "user_id", userID)
	return habit, nil
}

func (s *completionService) Describe(ctx context.Context, habitID, userID string) (*entity.Habit, entity.HabitStats, error) {
	if userID == "" {
		return nil, entity.HabitStats{}, errors.NewNotAuthenticated()
	}

	unlock, err := s.locks.LockContext(ctx, habitID)
	if err != nil {
		return nil, entity.HabitStats{}, err
	}
	habit, err := s.store.Get(ctx, userID, habitID)
	unlock()
	if err != nil {
		return nil, entity.HabitStats{}, err
	}

	return habit, s.engine.Stats(habit, habit.LocalDay(s.now())), nil
}

func errorOutcome(habitID string, err error) entity.Outcome {
	return entity.Outcome{Kind: entity.OutcomeError, HabitID: habitID, Err: err}
}
