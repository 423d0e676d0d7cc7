package repository

import (
	"context"
	"time"
)

// DedupStore remembers notification keys for a suppression window
type DedupStore interface {
	// MarkIfUnseen records key for ttl and reports whether it was not already recorded
	MarkIfUnseen(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Forget removes key, so a later MarkIfUnseen succeeds again
	Forget(ctx context.Context, key string) error
}
