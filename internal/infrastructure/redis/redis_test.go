package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"streak-service/internal/config"
)

// unreachableClient points at a port nothing listens on
func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestNewClient_FailsWithoutServer(t *testing.T) {
	_, err := NewClient(context.Background(), &config.RedisConfig{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}, 0)
	assert.Error(t, err)
}

func TestDedupStore_ReportsConnectionErrors(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	store := NewDedupStore(client)

	ok, err := store.MarkIfUnseen(context.Background(), "read:milestone:7", time.Hour)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, store.Forget(context.Background(), "read:milestone:7"))
	assert.Equal(t, "streak:notified:read:milestone:7", store.key("read:milestone:7"))
}

func TestSessionChecker(t *testing.T) {
	client := unreachableClient()
	defer client.Close()
	checker := NewSessionChecker(client)

	active, err := checker.Exists(context.Background(), "")
	assert.NoError(t, err)
	assert.False(t, active)

	_, err = checker.Exists(context.Background(), "s1")
	assert.Error(t, err)
	assert.Equal(t, "session:s1", sessionKey("s1"))
}
