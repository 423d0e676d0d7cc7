package entity

import (
	"fmt"
	"time"
)

// NotificationKind represents the kind of a habit notification
type NotificationKind string

const (
	NotificationKindMilestone NotificationKind = "milestone"
	NotificationKindReminder  NotificationKind = "reminder"
)

// NotificationIntent is produced by the coordinator and consumed once by the dispatcher.
// It is never persisted.
type NotificationIntent struct {
	Kind    NotificationKind
	HabitID string
	UserID  string
	Title   string
	Streak  int
	Day     time.Time
}

// DedupKey identifies the intent for duplicate suppression.
// Habit ids are only unique per user, so the key starts with the user.
// Milestones are keyed by streak value, reminders by day.
func (n NotificationIntent) DedupKey() string {
	if n.Kind == NotificationKindReminder {
		return fmt.Sprintf("%s:%s:%s:%s", n.UserID, n.HabitID, n.Kind, FormatDay(n.Day))
	}
	return fmt.Sprintf("%s:%s:%s:%d", n.UserID, n.HabitID, n.Kind, n.Streak)
}

// Notification is what a display channel receives
type Notification struct {
	ID      string
	Kind    NotificationKind
	HabitID string
	UserID  string
	Title   string
	Streak  int
	Subject string
	Text    string
	Created time.Time
}

// Render builds the user-visible subject and text for the intent
func (n NotificationIntent) Render() (subject, text string) {
	switch n.Kind {
	case NotificationKindMilestone:
		return "Habit Streak Milestone!", fmt.Sprintf("%s: %d day streak! 🔥", n.Title, n.Streak)
	default:
		streakText := ""
		if n.Streak > 0 {
			streakText = fmt.Sprintf(" (Current streak: %d days)", n.Streak)
		}
		return "Habit Reminder", n.Title + streakText
	}
}
