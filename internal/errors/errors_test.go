package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatching(t *testing.T) {
	cause := fmt.Errorf("dial tcp: connection refused")
	err := fmt.Errorf("save habit: %w", NewStorageUnavailable(cause))

	assert.True(t, stderrors.Is(err, ErrStorageUnavailable))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, KindStorageUnavailable, KindOf(err))
	assert.True(t, Is(err, KindStorageUnavailable))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"not authenticated", NewNotAuthenticated(), "User not logged in"},
		{"not found", NewNotFound("h1"), "habit not found: h1"},
		{"malformed", NewMalformedEvent("missing habit_id"), "malformed event: missing habit_id"},
		{"invalid", NewInvalidRequest("title is required"), "title is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
