// Package streak computes habit streak transitions. It performs no I/O.
package streak

import (
	"sort"
	"time"

	"streak-service/internal/domain/entity"
)

const (
	DefaultMilestoneInterval = 7
	DefaultGapResetDays      = 2
	DefaultWindowDays        = 30
)

// Config holds the streak rule parameters
type Config struct {
	// A positive multiple of MilestoneInterval reached from below is a milestone
	MilestoneInterval int
	// A gap of GapResetDays or more days since the last completion resets the streak to 1
	GapResetDays int
	// Number of days kept in the completion record
	WindowDays int
}

// DefaultConfig returns the default streak rules
func DefaultConfig() Config {
	return Config{
		MilestoneInterval: DefaultMilestoneInterval,
		GapResetDays:      DefaultGapResetDays,
		WindowDays:        DefaultWindowDays,
	}
}

// Engine applies completion events to habit state
type Engine struct {
	cfg Config
}

// New creates an engine, replacing out-of-range parameters with defaults
func New(cfg Config) *Engine {
	if cfg.MilestoneInterval <= 0 {
		cfg.MilestoneInterval = DefaultMilestoneInterval
	}
	if cfg.GapResetDays < 2 {
		cfg.GapResetDays = DefaultGapResetDays
	}
	// yesterday must always be inside the window
	if cfg.WindowDays < cfg.GapResetDays {
		cfg.WindowDays = cfg.GapResetDays
	}
	return &Engine{cfg: cfg}
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Transition is the result of applying one event
type Transition struct {
	Habit            *entity.Habit
	PreviousStreak   int
	StreakDelta      int
	MilestoneCrossed bool
	// Changed is false for idempotent no-ops
	Changed bool
}

// Next applies event to current as of today (a day in the habit's timezone).
// current is never modified.
func (e *Engine) Next(current *entity.Habit, event entity.CompletionEvent, today time.Time) Transition {
	today = entity.DayOf(today)
	next := current.Clone()
	prev := current.Streak
	completedToday := current.CompletedOn(today)

	if event.Complete() == completedToday {
		return Transition{Habit: next, PreviousStreak: prev}
	}

	var newStreak int
	if event.Complete() {
		newStreak = 1
		if current.LastCompletedOn != nil {
			gap := entity.DaysBetween(*current.LastCompletedOn, today)
			if gap >= 1 && gap < e.cfg.GapResetDays {
				newStreak = prev + 1
			}
		}
		setDay(next, today, true, newStreak)
		next.LastCompletedOn = &today
	} else {
		if before, ok := latestCompletedBefore(current, today); ok {
			newStreak = before.Streak
			day := before.Day
			next.LastCompletedOn = &day
		} else {
			newStreak = prev - 1
			if newStreak < 0 {
				newStreak = 0
			}
			next.LastCompletedOn = nil
		}
		setDay(next, today, false, 0)
	}

	next.Streak = newStreak
	e.trim(next, today)

	return Transition{
		Habit:            next,
		PreviousStreak:   prev,
		StreakDelta:      newStreak - prev,
		MilestoneCrossed: event.Complete() && e.crossed(prev, newStreak),
		Changed:          true,
	}
}

func (e *Engine) crossed(prev, next int) bool {
	return next > 0 && next > prev && next%e.cfg.MilestoneInterval == 0
}

// Reconcile recomputes streak, last-completed day and per-day running streaks from the record.
// The oldest completed day in the window seeds the run with its stored value, since the run
// may have started before the window. It returns a repaired copy and whether anything differed.
func (e *Engine) Reconcile(h *entity.Habit, today time.Time) (*entity.Habit, bool) {
	today = entity.DayOf(today)
	fixed := h.Clone()
	sortRecord(fixed)
	e.trim(fixed, today)

	var last *time.Time
	running := 0
	for i := range fixed.Record {
		d := &fixed.Record[i]
		if !d.Completed {
			d.Streak = 0
			continue
		}
		switch {
		case last == nil && d.Streak > 0:
			running = d.Streak
		case last == nil:
			running = 1
		default:
			gap := entity.DaysBetween(*last, d.Day)
			if gap >= 1 && gap < e.cfg.GapResetDays {
				running++
			} else {
				running = 1
			}
		}
		d.Streak = running
		day := d.Day
		last = &day
	}

	if last != nil {
		fixed.Streak = running
		fixed.LastCompletedOn = last
	} else if fixed.LastCompletedOn != nil && entity.DaysBetween(*fixed.LastCompletedOn, today) < e.cfg.WindowDays {
		// a completion inside the window must appear in the record
		fixed.Streak = 0
		fixed.LastCompletedOn = nil
	}
	if fixed.Streak < 0 {
		fixed.Streak = 0
	}

	return fixed, !sameState(h, fixed)
}

// Stats computes statistics over the completion window
func (e *Engine) Stats(h *entity.Habit, today time.Time) entity.HabitStats {
	today = entity.DayOf(today)
	stats := entity.HabitStats{
		CurrentStreak: h.Streak,
		LongestStreak: h.Streak,
		WindowDays:    e.cfg.WindowDays,
	}
	if h.LastCompletedOn != nil {
		last := *h.LastCompletedOn
		stats.LastCompleted = &last
	}

	for _, d := range h.Record {
		if !d.Completed || entity.DaysBetween(d.Day, today) >= e.cfg.WindowDays {
			continue
		}
		stats.CompletedDays++
		if d.Streak > stats.LongestStreak {
			stats.LongestStreak = d.Streak
		}
	}

	days := e.cfg.WindowDays
	if !h.CreatedAt.IsZero() {
		if age := entity.DaysBetween(h.LocalDay(h.CreatedAt), today) + 1; age > 0 && age < days {
			days = age
		}
	}
	if days > 0 {
		stats.CompletionRate = float64(stats.CompletedDays) / float64(days)
	}
	return stats
}

func (e *Engine) trim(h *entity.Habit, today time.Time) {
	kept := h.Record[:0]
	for _, d := range h.Record {
		if entity.DaysBetween(d.Day, today) < e.cfg.WindowDays {
			kept = append(kept, d)
		}
	}
	h.Record = kept
}

func setDay(h *entity.Habit, day time.Time, completed bool, streak int) {
	for i := range h.Record {
		if h.Record[i].Day.Equal(day) {
			h.Record[i].Completed = completed
			h.Record[i].Streak = streak
			return
		}
	}
	h.Record = append(h.Record, entity.DayCompletion{Day: day, Completed: completed, Streak: streak})
	sortRecord(h)
}

func latestCompletedBefore(h *entity.Habit, day time.Time) (entity.DayCompletion, bool) {
	var found entity.DayCompletion
	ok := false
	for _, d := range h.Record {
		if d.Completed && d.Day.Before(day) && (!ok || d.Day.After(found.Day)) {
			found = d
			ok = true
		}
	}
	return found, ok
}

func sortRecord(h *entity.Habit) {
	sort.SliceStable(h.Record, func(i, j int) bool {
		return h.Record[i].Day.Before(h.Record[j].Day)
	})
}

func sameState(a, b *entity.Habit) bool {
	if a.Streak != b.Streak || len(a.Record) != len(b.Record) {
		return false
	}
	if (a.LastCompletedOn == nil) != (b.LastCompletedOn == nil) {
		return false
	}
	if a.LastCompletedOn != nil && !a.LastCompletedOn.Equal(*b.LastCompletedOn) {
		return false
	}
	for i := range a.Record {
		if !a.Record[i].Day.Equal(b.Record[i].Day) ||
			a.Record[i].Completed != b.Record[i].Completed ||
			a.Record[i].Streak != b.Record[i].Streak {
			return false
		}
	}
	return true
}
