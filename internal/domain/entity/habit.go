package entity

import (
	"time"
)

// DateLayout is the wire and storage format of a completion day
const DateLayout = "2006-01-02"

// Habit represents a user's habit and its streak state
type Habit struct {
	ID     string
	UserID string

	// Basic info
	Title string

	// Timezone offset in hours from UTC (-12 to +14)
	TimezoneOffsetHours int32

	// Streak state
	Streak          int
	LastCompletedOn *time.Time
	Record          []DayCompletion

	// Metadata
	CreatedAt time.Time
	UpdatedAt time.Time
	// Version is bumped by every successful Save
	Version int64
}

// DayCompletion is one day of the bounded completion record.
// Streak holds the running streak after the day was processed, 0 when not completed.
type DayCompletion struct {
	Day       time.Time
	Completed bool
	Streak    int
}

// Clone returns a deep copy of the habit, so callers can mutate it freely
func (h *Habit) Clone() *Habit {
	if h == nil {
		return nil
	}
	c := *h
	if h.LastCompletedOn != nil {
		last := *h.LastCompletedOn
		c.LastCompletedOn = &last
	}
	if h.Record != nil {
		c.Record = make([]DayCompletion, len(h.Record))
		copy(c.Record, h.Record)
	}
	return &c
}

// GetLocalTime converts a UTC time to the habit's local timezone
func (h *Habit) GetLocalTime(utcTime time.Time) time.Time {
	offset := time.Duration(h.TimezoneOffsetHours) * time.Hour
	return utcTime.UTC().Add(offset)
}

// LocalDay returns the calendar day of t in the habit's timezone
func (h *Habit) LocalDay(t time.Time) time.Time {
	return DayOf(h.GetLocalTime(t))
}

// CompletedOn reports whether the record marks day as completed
func (h *Habit) CompletedOn(day time.Time) bool {
	for _, d := range h.Record {
		if d.Day.Equal(day) {
			return d.Completed
		}
	}
	return false
}

// DayOf truncates t to a UTC midnight carrying t's wall-clock date
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole days from a to b
func DaysBetween(a, b time.Time) int {
	return int(DayOf(b).Sub(DayOf(a)).Hours() / 24)
}

// ParseDay parses a "YYYY-MM-DD" day
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDay formats a day as "YYYY-MM-DD"
func FormatDay(day time.Time) string {
	return day.Format(DateLayout)
}
