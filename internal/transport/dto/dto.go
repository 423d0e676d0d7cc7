// Package dto converts between loosely-typed transport payloads and domain values.
// The same maps back the gRPC structpb messages and the HTTP JSON bodies.
package dto

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"streak-service/internal/domain/entity"
	"streak-service/internal/errors"
	"streak-service/internal/infrastructure/cron"
)

// Outcome renders a toggle outcome
func Outcome(o entity.Outcome) map[string]any {
	m := map[string]any{
		"habit_id": o.HabitID,
		"outcome":  string(o.Kind),
		"streak":   o.Streak,
	}
	if o.Err != nil {
		m["message"] = o.Message()
	}
	return m
}

// Habit renders a habit with its statistics
func Habit(h *entity.Habit, stats entity.HabitStats) map[string]any {
	record := make([]any, 0, len(h.Record))
	for _, d := range h.Record {
		record = append(record, map[string]any{
			"day":       entity.FormatDay(d.Day),
			"completed": d.Completed,
			"streak":    d.Streak,
		})
	}

	m := map[string]any{
		"habit_id":              h.ID,
		"user_id":               h.UserID,
		"title":                 h.Title,
		"timezone_offset_hours": int(h.TimezoneOffsetHours),
		"streak":                h.Streak,
		"longest_streak":        stats.LongestStreak,
		"completed_days":        stats.CompletedDays,
		"window_days":           stats.WindowDays,
		"completion_rate":       stats.CompletionRate,
		"record":                record,
		"created_at":            h.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":            h.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if h.LastCompletedOn != nil {
		m["last_completed_on"] = entity.FormatDay(*h.LastCompletedOn)
	}
	return m
}

// String reads a required string field
func String(m map[string]any, key string) (string, error) {
	v, ok := m[key].(string)
	if !ok || v == "" {
		return "", errors.NewInvalidRequest(fmt.Sprintf("%s is required", key))
	}
	return v, nil
}

// OptionalString reads a string field, empty when absent
func OptionalString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

// Bool reads a required boolean field
func Bool(m map[string]any, key string) (bool, error) {
	v, ok := m[key].(bool)
	if !ok {
		return false, errors.NewInvalidRequest(fmt.Sprintf("%s must be a boolean", key))
	}
	return v, nil
}

// Int reads an optional whole-number field, def when absent
func Int(m map[string]any, key string, def int) (int, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		if v == math.Trunc(v) {
			return int(v), nil
		}
	case int:
		return v, nil
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
	}
	return 0, errors.NewInvalidRequest(fmt.Sprintf("%s must be a whole number", key))
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Reminder reads a reminder schedule request for habitID owned by userID
func Reminder(m map[string]any, habitID, userID string) (cron.Reminder, error) {
	r := cron.Reminder{
		HabitID:   habitID,
		UserID:    userID,
		Title:     OptionalString(m, "title"),
		At:        OptionalString(m, "at"),
		Frequency: cron.Frequency(OptionalString(m, "frequency")),
	}
	if r.Frequency == "" {
		r.Frequency = cron.Daily
	}
	if r.Title == "" {
		return cron.Reminder{}, errors.NewInvalidRequest("title is required")
	}
	if r.At == "" {
		return cron.Reminder{}, errors.NewInvalidRequest("at is required")
	}

	if name := OptionalString(m, "weekday"); name != "" {
		wd, ok := weekdays[strings.ToLower(name)]
		if !ok {
			return cron.Reminder{}, errors.NewInvalidRequest(fmt.Sprintf("unknown weekday %q", name))
		}
		r.Weekday = wd
	} else {
		n, err := Int(m, "weekday", 0)
		if err != nil {
			return cron.Reminder{}, err
		}
		r.Weekday = time.Weekday(n)
	}

	day, err := Int(m, "day_of_month", 1)
	if err != nil {
		return cron.Reminder{}, err
	}
	r.DayOfMonth = day

	offset, err := Int(m, "timezone_offset_hours", 0)
	if err != nil {
		return cron.Reminder{}, err
	}
	r.TimezoneOffsetHours = int32(offset)

	return r, nil
}
