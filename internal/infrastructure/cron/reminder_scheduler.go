package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"streak-service/internal/domain/entity"
	"streak-service/internal/identity"
	"streak-service/internal/logger"
)

// Frequency of a scheduled reminder
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Reminder describes a recurring "habit is due" trigger
type Reminder struct {
	HabitID string
	UserID  string
	Title   string

	// At is the local wall-clock time, HH:MM
	At        string
	Frequency Frequency
	// Weekday is used by weekly reminders
	Weekday time.Weekday
	// DayOfMonth is used by monthly reminders, 1-31
	DayOfMonth int

	TimezoneOffsetHours int32
}

// ReminderHandler receives reminder payloads when they fire
type ReminderHandler interface {
	HandleReminder(ctx context.Context, payload map[string]any, source entity.Source)
}

// ReminderScheduler fires reminder triggers into ingestion on their schedule
type ReminderScheduler struct {
	handler ReminderHandler
	cron    *cron.Cron

	mu      sync.Mutex
	entries map[string]cron.EntryID // keyed by user and habit
}

// NewReminderScheduler creates a new reminder scheduler
func NewReminderScheduler(handler ReminderHandler) *ReminderScheduler {
	return &ReminderScheduler{
		handler: handler,
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// Start starts the scheduler
func (s *ReminderScheduler) Start() {
	s.cron.Start()
	logger.Info("reminder scheduler started", "reminders", s.Len())
}

// Stop stops the scheduler and waits for running reminders
func (s *ReminderScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("reminder scheduler stopped")
}

func entryKey(userID, habitID string) string {
	return userID + "/" + habitID
}

// Schedule adds a reminder, replacing any reminder the same user already scheduled for the habit
func (s *ReminderScheduler) Schedule(r Reminder) error {
	if r.HabitID == "" || r.UserID == "" || r.Title == "" {
		return fmt.Errorf("reminder requires habit, user and title")
	}

	schedule, err := parseSchedule(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := entryKey(r.UserID, r.HabitID)
	if id, ok := s.entries[k]; ok {
		s.cron.Remove(id)
	}
	s.entries[k] = s.cron.Schedule(schedule, s.job(r))

	logger.Info("reminder scheduled", "habit_id", r.HabitID, "user_id", r.UserID, "frequency", r.Frequency, "at", r.At)
	return nil
}

// Cancel removes the user's reminder for the habit and reports whether one existed
func (s *ReminderScheduler) Cancel(userID, habitID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := entryKey(userID, habitID)
	id, ok := s.entries[k]
	if !ok {
		return false
	}
	s.cron.Remove(id)
	delete(s.entries, k)

	logger.Info("reminder cancelled", "habit_id", habitID, "user_id", userID)
	return true
}

// Next returns the next fire time of the user's reminder for the habit
func (s *ReminderScheduler) Next(userID, habitID string, from time.Time) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[entryKey(userID, habitID)]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Schedule.Next(from), true
}

// Len returns the number of scheduled reminders
func (s *ReminderScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *ReminderScheduler) job(r Reminder) cron.Job {
	return cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		ctx = identity.WithUserID(ctx, r.UserID)
		s.handler.HandleReminder(ctx, map[string]any{
			"habit_id":       r.HabitID,
			"title":          r.Title,
			"current_streak": 0,
		}, entity.SourceReminder)
	})
}

func parseSchedule(r Reminder) (cron.Schedule, error) {
	at, err := time.Parse("15:04", r.At)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder time %q: %w", r.At, err)
	}

	var spec string
	switch r.Frequency {
	case Daily, "":
		spec = fmt.Sprintf("%d %d * * *", at.Minute(), at.Hour())
	case Weekly:
		spec = fmt.Sprintf("%d %d * * %d", at.Minute(), at.Hour(), r.Weekday)
	case Monthly:
		if r.DayOfMonth < 1 || r.DayOfMonth > 31 {
			return nil, fmt.Errorf("invalid day of month %d", r.DayOfMonth)
		}
		spec = fmt.Sprintf("%d %d %d * *", at.Minute(), at.Hour(), r.DayOfMonth)
	default:
		return nil, fmt.Errorf("unknown reminder frequency %q", r.Frequency)
	}

	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}

	// evaluate the spec in the habit's timezone
	if spec, ok := schedule.(*cron.SpecSchedule); ok {
		spec.Location = time.FixedZone("", int(r.TimezoneOffsetHours)*3600)
	}
	return schedule, nil
}
