package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// SessionChecker looks up login sessions written by the user service
type SessionChecker struct {
	client *redis.Client
}

// NewSessionChecker creates a new session checker
func NewSessionChecker(client *redis.Client) *SessionChecker {
	return &SessionChecker{client: client}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// Exists checks if a session exists
func (s *SessionChecker) Exists(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	result, err := s.client.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return result > 0, nil
}
