package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/service"
	"streak-service/internal/errors"
	"streak-service/internal/infrastructure/cron"
	"streak-service/internal/transport/dto"
)

// ReminderScheduler manages recurring reminders
type ReminderScheduler interface {
	Schedule(r cron.Reminder) error
	Cancel(userID, habitID string) bool
}

type StreakServiceHandler struct {
	coordinator service.CompletionCoordinator
	identity    service.IdentityProvider
	reminders   ReminderScheduler
}

// NewStreakServiceHandler creates a handler. reminders may be nil when scheduling is disabled.
func NewStreakServiceHandler(
	coordinator service.CompletionCoordinator,
	identity service.IdentityProvider,
	reminders ReminderScheduler,
) *StreakServiceHandler {
	return &StreakServiceHandler{
		coordinator: coordinator,
		identity:    identity,
		reminders:   reminders,
	}
}

func (h *StreakServiceHandler) ToggleHabit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()

	habitID, err := dto.String(in, "habit_id")
	if err != nil {
		return nil, toStatus(err)
	}
	completed, err := dto.Bool(in, "completed")
	if err != nil {
		return nil, toStatus(err)
	}

	userID, err := h.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	outcome := h.coordinator.Toggle(ctx, habitID, userID, completed)
	if outcome.Kind == entity.OutcomeError {
		return nil, toStatus(outcome.Err)
	}

	return structpb.NewStruct(dto.Outcome(outcome))
}

func (h *StreakServiceHandler) GetHabit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	habitID, err := dto.String(req.AsMap(), "habit_id")
	if err != nil {
		return nil, toStatus(err)
	}

	userID, err := h.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	habit, stats, err := h.coordinator.Describe(ctx, habitID, userID)
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(dto.Habit(habit, stats))
}

func (h *StreakServiceHandler) RegisterHabit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in := req.AsMap()

	offset, err := dto.Int(in, "timezone_offset_hours", 0)
	if err != nil {
		return nil, toStatus(err)
	}

	userID, err := h.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	habit, err := h.coordinator.Register(ctx, userID, dto.OptionalString(in, "habit_id"), dto.OptionalString(in, "title"), int32(offset))
	if err != nil {
		return nil, toStatus(err)
	}

	return structpb.NewStruct(dto.Habit(habit, entity.HabitStats{}))
}

func (h *StreakServiceHandler) ScheduleReminder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if h.reminders == nil {
		return nil, status.Error(codes.Unimplemented, "reminders are disabled")
	}

	in := req.AsMap()
	habitID, err := dto.String(in, "habit_id")
	if err != nil {
		return nil, toStatus(err)
	}

	userID, err := h.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	reminder, err := dto.Reminder(in, habitID, userID)
	if err != nil {
		return nil, toStatus(err)
	}
	if err := h.reminders.Schedule(reminder); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	return structpb.NewStruct(map[string]any{
		"habit_id":  habitID,
		"frequency": string(reminder.Frequency),
		"at":        reminder.At,
	})
}

func (h *StreakServiceHandler) CancelReminder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if h.reminders == nil {
		return nil, status.Error(codes.Unimplemented, "reminders are disabled")
	}

	habitID, err := dto.String(req.AsMap(), "habit_id")
	if err != nil {
		return nil, toStatus(err)
	}

	userID, err := h.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	return structpb.NewStruct(map[string]any{
		"habit_id":  habitID,
		"cancelled": h.reminders.Cancel(userID, habitID),
	})
}

func (h *StreakServiceHandler) resolveUser(ctx context.Context) (string, error) {
	userID, err := h.identity.ResolveUserID(ctx)
	if err != nil || userID == "" {
		return "", toStatus(errors.NewNotAuthenticated())
	}
	return userID, nil
}

// toStatus maps a classified error to a gRPC status
func toStatus(err error) error {
	var code codes.Code
	switch errors.KindOf(err) {
	case errors.KindInvalidRequest, errors.KindMalformedEvent:
		code = codes.InvalidArgument
	case errors.KindNotAuthenticated:
		code = codes.Unauthenticated
	case errors.KindNotFound:
		code = codes.NotFound
	case errors.KindStorageUnavailable:
		code = codes.Unavailable
	default:
		return status.Error(codes.Internal, fmt.Sprintf("internal error: %v", err))
	}
	return status.Error(code, err.Error())
}
