package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/service"
	"streak-service/internal/errors"
	"streak-service/internal/identity"
	"streak-service/internal/infrastructure/cron"
	"streak-service/internal/transport/dto"
)

// ReminderScheduler manages recurring reminders
type ReminderScheduler interface {
	Schedule(r cron.Reminder) error
	Cancel(userID, habitID string) bool
}

type Handler struct {
	coordinator service.CompletionCoordinator
	reminders   ReminderScheduler
}

// NewHandler creates a handler. reminders may be nil when scheduling is disabled.
func NewHandler(coordinator service.CompletionCoordinator, reminders ReminderScheduler) *Handler {
	return &Handler{
		coordinator: coordinator,
		reminders:   reminders,
	}
}

func (h *Handler) registerHabit(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	offset, err := dto.Int(body, "timezone_offset_hours", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	habit, err := h.coordinator.Register(
		r.Context(),
		identity.UserIDFrom(r.Context()),
		dto.OptionalString(body, "habit_id"),
		dto.OptionalString(body, "title"),
		int32(offset),
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, dto.Habit(habit, entity.HabitStats{}))
}

func (h *Handler) getHabit(w http.ResponseWriter, r *http.Request) {
	habit, stats, err := h.coordinator.Describe(r.Context(), chi.URLParam(r, "habitID"), identity.UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, dto.Habit(habit, stats))
}

func (h *Handler) completeHabit(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, true)
}

func (h *Handler) uncompleteHabit(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, false)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, complete bool) {
	outcome := h.coordinator.Toggle(r.Context(), chi.URLParam(r, "habitID"), identity.UserIDFrom(r.Context()), complete)
	if outcome.Kind == entity.OutcomeError {
		writeError(w, r, outcome.Err)
		return
	}

	writeSuccess(w, http.StatusOK, dto.Outcome(outcome))
}

func (h *Handler) scheduleReminder(w http.ResponseWriter, r *http.Request) {
	if h.reminders == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{
			Status: "error",
			Error:  errorPayload{Code: "not_implemented", Message: "reminders are disabled"},
		})
		return
	}

	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	habitID := chi.URLParam(r, "habitID")
	reminder, err := dto.Reminder(body, habitID, identity.UserIDFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.reminders.Schedule(reminder); err != nil {
		writeError(w, r, errors.NewInvalidRequest(err.Error()))
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"habit_id":  habitID,
		"frequency": string(reminder.Frequency),
		"at":        reminder.At,
	})
}

func (h *Handler) cancelReminder(w http.ResponseWriter, r *http.Request) {
	if h.reminders == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{
			Status: "error",
			Error:  errorPayload{Code: "not_implemented", Message: "reminders are disabled"},
		})
		return
	}

	habitID := chi.URLParam(r, "habitID")
	if !h.reminders.Cancel(identity.UserIDFrom(r.Context()), habitID) {
		writeError(w, r, errors.NewNotFound(habitID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, errors.NewInvalidRequest("invalid JSON body: "+err.Error()))
		return nil, false
	}
	return body, true
}
