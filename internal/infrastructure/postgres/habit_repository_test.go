package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streak-service/internal/domain/entity"
	"streak-service/internal/errors"
	"streak-service/internal/infrastructure/db"
)

// openPool connects to STREAK_TEST_DATABASE_DSN or skips the test
func openPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("STREAK_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("STREAK_TEST_DATABASE_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.MigratePostgres(ctx, pool))
	_, err = pool.Exec(ctx, `DELETE FROM habits WHERE user_id = 'postgres-test'`)
	require.NoError(t, err)
	return pool
}

func TestHabitRepository_RoundTrip(t *testing.T) {
	pool := openPool(t)
	repo := NewHabitRepository(pool)
	ctx := context.Background()

	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	habit := &entity.Habit{
		ID:        "read",
		UserID:    "postgres-test",
		Title:     "Read",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, habit))

	err := repo.Create(ctx, habit)
	assert.True(t, errors.Is(err, errors.KindInvalidRequest))

	yesterday := entity.DayOf(now).AddDate(0, 0, -1)
	today := entity.DayOf(now)
	habit.Streak = 2
	habit.LastCompletedOn = &today
	habit.Record = []entity.DayCompletion{
		{Day: yesterday, Completed: true, Streak: 1},
		{Day: today, Completed: true, Streak: 2},
	}
	require.NoError(t, repo.Save(ctx, habit))

	loaded, err := repo.Load(ctx, "postgres-test", "read")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Streak)
	require.NotNil(t, loaded.LastCompletedOn)
	assert.True(t, loaded.LastCompletedOn.Equal(today))
	require.Len(t, loaded.Record, 2)
	assert.True(t, loaded.Record[0].Day.Equal(yesterday))
	assert.Equal(t, 2, loaded.Record[1].Streak)

	_, err = repo.Load(ctx, "postgres-test", "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	err = repo.Save(ctx, &entity.Habit{ID: "missing", UserID: "postgres-test"})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	stale := loaded.Clone()
	stale.Version = 0
	err = repo.Save(ctx, stale)
	assert.True(t, errors.Is(err, errors.KindConflict))
}
