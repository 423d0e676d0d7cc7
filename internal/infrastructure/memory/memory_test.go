package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streak-service/internal/domain/entity"
	"streak-service/internal/errors"
)

func TestHabitRepository_CreateLoadSave(t *testing.T) {
	ctx := context.Background()
	repo := NewHabitRepository()

	habit := &entity.Habit{ID: "h1", UserID: "u1", Title: "Read"}
	require.NoError(t, repo.Create(ctx, habit))
	assert.Error(t, repo.Create(ctx, habit))

	loaded, err := repo.Load(ctx, "u1", "h1")
	require.NoError(t, err)
	assert.Equal(t, "Read", loaded.Title)

	// callers get copies
	loaded.Streak = 3
	again, err := repo.Load(ctx, "u1", "h1")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Streak)

	require.NoError(t, repo.Save(ctx, loaded))
	again, err = repo.Load(ctx, "u1", "h1")
	require.NoError(t, err)
	assert.Equal(t, 3, again.Streak)
}

func TestHabitRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewHabitRepository()
	require.NoError(t, repo.Create(ctx, &entity.Habit{ID: "h1", UserID: "u1"}))

	_, err := repo.Load(ctx, "u2", "h1")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	err = repo.Save(ctx, &entity.Habit{ID: "missing", UserID: "u1"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestHabitRepository_StaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewHabitRepository()
	require.NoError(t, repo.Create(ctx, &entity.Habit{ID: "h1", UserID: "u1", Title: "Read"}))

	first, err := repo.Load(ctx, "u1", "h1")
	require.NoError(t, err)
	second, err := repo.Load(ctx, "u1", "h1")
	require.NoError(t, err)

	first.Streak = 1
	require.NoError(t, repo.Save(ctx, first))
	assert.EqualValues(t, 1, first.Version)

	second.Streak = 5
	err = repo.Save(ctx, second)
	assert.True(t, errors.Is(err, errors.KindConflict))

	stored, err := repo.Load(ctx, "u1", "h1")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Streak)
	assert.EqualValues(t, 1, stored.Version)
}

func TestDedupStore_SuppressesWithinWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	store := NewDedupStore()
	store.now = func() time.Time { return now }

	first, err := store.MarkIfUnseen(ctx, "h1:milestone:7", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.MarkIfUnseen(ctx, "h1:milestone:7", time.Hour)
	require.NoError(t, err)
	assert.False(t, second)

	now = now.Add(time.Hour)
	third, err := store.MarkIfUnseen(ctx, "h1:milestone:7", time.Hour)
	require.NoError(t, err)
	assert.True(t, third)
}

func TestDedupStore_ForgetAndSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	store := NewDedupStore()
	store.now = func() time.Time { return now }

	_, _ = store.MarkIfUnseen(ctx, "a", time.Minute)
	_, _ = store.MarkIfUnseen(ctx, "b", time.Hour)

	require.NoError(t, store.Forget(ctx, "a"))
	ok, _ := store.MarkIfUnseen(ctx, "a", time.Minute)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}
