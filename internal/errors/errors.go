package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies failures crossing the coordinator boundary.
type Kind string

const (
	KindMalformedEvent              Kind = "MALFORMED_EVENT"
	KindNotAuthenticated            Kind = "NOT_AUTHENTICATED"
	KindNotFound                    Kind = "NOT_FOUND"
	KindStorageUnavailable          Kind = "STORAGE_UNAVAILABLE"
	KindNotificationDeliveryFailure Kind = "NOTIFICATION_DELIVERY_FAILURE"
	KindInvalidRequest              Kind = "INVALID_REQUEST"
	KindConflict                    Kind = "CONFLICT"
)

// Error is a classified error with a user-visible message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrMalformedEvent              = &Error{Kind: KindMalformedEvent, Message: "malformed event"}
	ErrNotAuthenticated            = &Error{Kind: KindNotAuthenticated, Message: "User not logged in"}
	ErrNotFound                    = &Error{Kind: KindNotFound, Message: "habit not found"}
	ErrStorageUnavailable          = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable"}
	ErrNotificationDeliveryFailure = &Error{Kind: KindNotificationDeliveryFailure, Message: "notification delivery failed"}
)

// NewMalformedEvent creates an error for an event missing required fields.
func NewMalformedEvent(reason string) *Error {
	return &Error{
		Kind:    KindMalformedEvent,
		Message: fmt.Sprintf("malformed event: %s", reason),
	}
}

// NewNotAuthenticated creates an error for a request without a resolvable identity.
func NewNotAuthenticated() *Error {
	return &Error{
		Kind:    KindNotAuthenticated,
		Message: "User not logged in",
	}
}

// NewNotFound creates an error for a habit unknown to the store.
func NewNotFound(habitID string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("habit not found: %s", habitID),
	}
}

// NewStorageUnavailable wraps a persistence failure.
func NewStorageUnavailable(err error) *Error {
	return &Error{
		Kind:    KindStorageUnavailable,
		Message: "storage unavailable, please try again",
		Err:     err,
	}
}

// NewNotificationDeliveryFailure wraps a display channel failure.
func NewNotificationDeliveryFailure(channel string, err error) *Error {
	return &Error{
		Kind:    KindNotificationDeliveryFailure,
		Message: fmt.Sprintf("notification delivery via %s failed", channel),
		Err:     err,
	}
}

// NewInvalidRequest creates an error for invalid request parameters.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Kind:    KindInvalidRequest,
		Message: msg,
	}
}

// NewConflict creates an error for a write based on a stale version of the habit.
func NewConflict(habitID string) *Error {
	return &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("habit was modified concurrently: %s", habitID),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err has the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
