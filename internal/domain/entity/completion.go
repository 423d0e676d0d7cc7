package entity

import "time"

// Action is the requested change of a habit's completion status
type Action string

const (
	ActionComplete   Action = "complete"
	ActionUncomplete Action = "uncomplete"
)

// Source identifies where a trigger came from
type Source string

const (
	SourceBroadcast Source = "broadcast"
	SourceReminder  Source = "reminder"
	SourceDirect    Source = "direct"
)

// CompletionEvent asks for a habit to be completed or uncompleted.
// It is created at ingestion and consumed once by the coordinator.
type CompletionEvent struct {
	HabitID   string
	Action    Action
	Source    Source
	Timestamp time.Time
}

// Complete reports whether the event marks the habit as done
func (e CompletionEvent) Complete() bool {
	return e.Action == ActionComplete
}

// ReminderEvent asks for a "habit is due" notification
type ReminderEvent struct {
	HabitID       string
	Title         string
	CurrentStreak int
	Source        Source
	Timestamp     time.Time
}

// HabitStats represents habit statistics over the completion window
type HabitStats struct {
	CurrentStreak  int
	LongestStreak  int
	CompletedDays  int
	WindowDays     int
	CompletionRate float64
	LastCompleted  *time.Time
}
