package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/service"
	"streak-service/internal/errors"
	"streak-service/internal/identity"
	"streak-service/internal/logger"
)

// Payload keys, with the names older clients still send
var (
	habitIDKeys = []string{"habit_id", "habitId", "taskId", "task_id"}
	titleKeys   = []string{"title", "taskTitle", "task_title"}
	streakKeys  = []string{"current_streak", "currentStreak"}
)

// Ingestion validates external triggers, resolves identity and hands them to the coordinator
type Ingestion struct {
	coordinator service.CompletionCoordinator
	identity    service.IdentityProvider
	now         func() time.Time
}

// NewIngestion creates a new ingestion service
func NewIngestion(
	coordinator service.CompletionCoordinator,
	identity service.IdentityProvider,
	now func() time.Time,
) *Ingestion {
	if now == nil {
		now = time.Now
	}
	return &Ingestion{
		coordinator: coordinator,
		identity:    identity,
		now:         now,
	}
}

// HandleCompletion processes a completion trigger and reports its outcome to listener.
// Malformed payloads are dropped without calling the listener.
func (i *Ingestion) HandleCompletion(ctx context.Context, payload map[string]any, source entity.Source, listener entity.Listener) {
	event, err := ParseCompletion(payload, source, i.now())
	if err != nil {
		logger.Debug("dropping completion event", "source", source, "error", err)
		return
	}

	userID, err := i.resolve(ctx, payload)
	if err != nil || userID == "" {
		entity.Outcome{
			Kind:    entity.OutcomeError,
			HabitID: event.HabitID,
			Err:     errors.NewNotAuthenticated(),
		}.Deliver(listener)
		return
	}

	i.coordinator.Toggle(ctx, event.HabitID, userID, event.Complete()).Deliver(listener)
}

// HandleReminder processes a scheduled reminder trigger
func (i *Ingestion) HandleReminder(ctx context.Context, payload map[string]any, source entity.Source) {
	event, err := ParseReminder(payload, source, i.now())
	if err != nil {
		logger.Debug("dropping reminder event", "source", source, "error", err)
		return
	}

	userID, err := i.resolve(ctx, payload)
	if err != nil || userID == "" {
		logger.Debug("dropping reminder without session", "habit_id", event.HabitID)
		return
	}

	if err := i.coordinator.Remind(ctx, event, userID); err != nil {
		logger.Debug("reminder not dispatched", "habit_id", event.HabitID, "error", err)
	}
}

func (i *Ingestion) resolve(ctx context.Context, payload map[string]any) (string, error) {
	if token, ok := stringField(payload, "access_token"); ok {
		ctx = identity.WithToken(ctx, token)
	}

	userID, err := i.identity.ResolveUserID(ctx)
	if err != nil {
		logger.Warn("identity lookup failed", "error", err)
		return "", err
	}
	return userID, nil
}

// ParseCompletion validates a completion payload
func ParseCompletion(payload map[string]any, source entity.Source, now time.Time) (entity.CompletionEvent, error) {
	habitID, ok := stringField(payload, habitIDKeys...)
	if !ok {
		return entity.CompletionEvent{}, errors.NewMalformedEvent("habit_id is required")
	}

	action, err := parseAction(payload)
	if err != nil {
		return entity.CompletionEvent{}, err
	}

	return entity.CompletionEvent{
		HabitID:   habitID,
		Action:    action,
		Source:    source,
		Timestamp: now,
	}, nil
}

// ParseReminder validates a reminder payload
func ParseReminder(payload map[string]any, source entity.Source, now time.Time) (entity.ReminderEvent, error) {
	habitID, ok := stringField(payload, habitIDKeys...)
	if !ok {
		return entity.ReminderEvent{}, errors.NewMalformedEvent("habit_id is required")
	}

	title, ok := stringField(payload, titleKeys...)
	if !ok {
		return entity.ReminderEvent{}, errors.NewMalformedEvent("title is required")
	}

	raw, ok := field(payload, streakKeys...)
	if !ok {
		return entity.ReminderEvent{}, errors.NewMalformedEvent("current_streak is required")
	}
	streak, err := toStreak(raw)
	if err != nil {
		return entity.ReminderEvent{}, errors.NewMalformedEvent(err.Error())
	}

	return entity.ReminderEvent{
		HabitID:       habitID,
		Title:         title,
		CurrentStreak: streak,
		Source:        source,
		Timestamp:     now,
	}, nil
}

func parseAction(payload map[string]any) (entity.Action, error) {
	if raw, ok := field(payload, "action", "status"); ok {
		s, _ := raw.(string)
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "complete", "completed":
			return entity.ActionComplete, nil
		case "uncomplete", "uncompleted", "pending":
			return entity.ActionUncomplete, nil
		}
		return "", errors.NewMalformedEvent(fmt.Sprintf("unknown action %v", raw))
	}

	if raw, ok := field(payload, "completed"); ok {
		if b, ok := raw.(bool); ok {
			if b {
				return entity.ActionComplete, nil
			}
			return entity.ActionUncomplete, nil
		}
		return "", errors.NewMalformedEvent("completed must be a boolean")
	}

	return "", errors.NewMalformedEvent("action is required")
}

// field returns the first non-null value stored under one of keys
func field(payload map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := payload[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// stringField returns the first non-empty string or integral value stored under one of keys
func stringField(payload map[string]any, keys ...string) (string, bool) {
	raw, ok := field(payload, keys...)
	if !ok {
		return "", false
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		if v != math.Trunc(v) {
			return "", false
		}
		s = strconv.FormatInt(int64(v), 10)
	default:
		return "", false
	}
	return s, s != ""
}

func toStreak(raw any) (int, error) {
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int32:
		n = int(v)
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("current_streak must be a whole number")
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("current_streak is not numeric: %q", v)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("current_streak has unsupported type %T", raw)
	}

	if n < 0 {
		return 0, fmt.Errorf("current_streak must not be negative")
	}
	return n, nil
}
