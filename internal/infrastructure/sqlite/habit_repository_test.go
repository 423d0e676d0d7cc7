package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/repository"
	"streak-service/internal/errors"
)

func newRepo(t *testing.T) repository.HabitRepository {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "streaks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHabitRepository(db)
}

func TestHabitRepository_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	now := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	habit := &entity.Habit{
		ID:                  "read",
		UserID:              "u1",
		Title:               "Read",
		TimezoneOffsetHours: -5,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	require.NoError(t, repo.Create(ctx, habit))

	loaded, err := repo.Load(ctx, "u1", "read")
	require.NoError(t, err)
	assert.Equal(t, "Read", loaded.Title)
	assert.Equal(t, int32(-5), loaded.TimezoneOffsetHours)
	assert.Nil(t, loaded.LastCompletedOn)
	assert.Empty(t, loaded.Record)
	assert.True(t, loaded.CreatedAt.Equal(now))

	today := entity.DayOf(now)
	yesterday := today.AddDate(0, 0, -1)
	loaded.Streak = 2
	loaded.LastCompletedOn = &today
	loaded.Record = []entity.DayCompletion{
		{Day: yesterday, Completed: true, Streak: 1},
		{Day: today, Completed: true, Streak: 2},
	}
	require.NoError(t, repo.Save(ctx, loaded))

	again, err := repo.Load(ctx, "u1", "read")
	require.NoError(t, err)
	assert.Equal(t, 2, again.Streak)
	require.NotNil(t, again.LastCompletedOn)
	assert.True(t, again.LastCompletedOn.Equal(today))
	assert.Equal(t, loaded.Record, again.Record)

	// shrinking the record removes rows
	again.Record = again.Record[1:]
	require.NoError(t, repo.Save(ctx, again))
	final, err := repo.Load(ctx, "u1", "read")
	require.NoError(t, err)
	assert.Len(t, final.Record, 1)
}

func TestHabitRepository_Errors(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	habit := &entity.Habit{ID: "read", UserID: "u1", Title: "Read"}
	require.NoError(t, repo.Create(ctx, habit))

	err := repo.Create(ctx, habit)
	assert.True(t, errors.Is(err, errors.KindInvalidRequest))

	_, err = repo.Load(ctx, "u2", "read")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	err = repo.Save(ctx, &entity.Habit{ID: "missing", UserID: "u1"})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestHabitRepository_StaleVersionConflicts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &entity.Habit{ID: "read", UserID: "u1", Title: "Read"}))

	first, err := repo.Load(ctx, "u1", "read")
	require.NoError(t, err)
	second, err := repo.Load(ctx, "u1", "read")
	require.NoError(t, err)

	first.Streak = 1
	require.NoError(t, repo.Save(ctx, first))
	assert.EqualValues(t, 1, first.Version)

	second.Streak = 5
	err = repo.Save(ctx, second)
	assert.True(t, errors.Is(err, errors.KindConflict))
	assert.EqualValues(t, 0, second.Version)

	stored, err := repo.Load(ctx, "u1", "read")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Streak)
	assert.EqualValues(t, 1, stored.Version)
}

func TestHabitRepository_ConcurrentSaves(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Create(ctx, &entity.Habit{ID: id, UserID: "u1", Title: id}))
	}

	var wg sync.WaitGroup
	for _, id := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			h, err := repo.Load(ctx, "u1", id)
			if !assert.NoError(t, err) {
				return
			}
			h.Streak = 3
			assert.NoError(t, repo.Save(ctx, h))
		}(id)
	}
	wg.Wait()

	for _, id := range []string{"a", "b", "c", "d"} {
		h, err := repo.Load(ctx, "u1", id)
		require.NoError(t, err)
		assert.Equal(t, 3, h.Streak)
	}
}
