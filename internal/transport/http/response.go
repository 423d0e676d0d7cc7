package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"streak-service/internal/errors"
)

type successResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Status string       `json:"status"`
	Error  errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Status: "success", Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := mapDomainError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{
		Status: "error",
		Error: errorPayload{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetReqID(r.Context()),
		},
	})
}

func mapDomainError(err error) (int, string) {
	switch errors.KindOf(err) {
	case errors.KindInvalidRequest:
		return http.StatusBadRequest, "invalid_request"
	case errors.KindMalformedEvent:
		return http.StatusBadRequest, "malformed_event"
	case errors.KindNotAuthenticated:
		return http.StatusUnauthorized, "not_authenticated"
	case errors.KindNotFound:
		return http.StatusNotFound, "not_found"
	case errors.KindStorageUnavailable:
		return http.StatusServiceUnavailable, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
