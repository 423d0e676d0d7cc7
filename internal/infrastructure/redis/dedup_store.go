package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"streak-service/internal/domain/repository"
)

// DedupStore keeps notification keys in Redis so replicas share suppression
type DedupStore struct {
	client *redis.Client
	prefix string
}

var _ repository.DedupStore = (*DedupStore)(nil)

// NewDedupStore creates a new Redis dedup store
func NewDedupStore(client *redis.Client) *DedupStore {
	return &DedupStore{
		client: client,
		prefix: "streak:notified:",
	}
}

func (s *DedupStore) key(k string) string {
	return s.prefix + k
}

func (s *DedupStore) MarkIfUnseen(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.key(key), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark notification: %w", err)
	}
	return ok, nil
}

func (s *DedupStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to forget notification: %w", err)
	}
	return nil
}
