package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/repository"
	"streak-service/internal/errors"
)

const uniqueViolation = "23505"

type habitRepository struct {
	pool *pgxpool.Pool
}

// NewHabitRepository creates a new PostgreSQL habit repository
func NewHabitRepository(pool *pgxpool.Pool) repository.HabitRepository {
	return &habitRepository{pool: pool}
}

func (r *habitRepository) Create(ctx context.Context, habit *entity.Habit) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO habits (
			id, user_id, title, timezone_offset_hours,
			streak, last_completed_on, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.Exec(ctx, query,
		habit.ID, habit.UserID, habit.Title, habit.TimezoneOffsetHours,
		habit.Streak, habit.LastCompletedOn, habit.CreatedAt, habit.UpdatedAt, habit.Version,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errors.NewInvalidRequest(fmt.Sprintf("habit already exists: %s", habit.ID))
		}
		return fmt.Errorf("failed to create habit: %w", err)
	}

	if err := insertRecord(ctx, tx, habit); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *habitRepository) Load(ctx context.Context, userID, habitID string) (*entity.Habit, error) {
	query := `
		SELECT
			id, user_id, title, timezone_offset_hours,
			streak, last_completed_on, created_at, updated_at, version
		FROM habits
		WHERE id = $1 AND user_id = $2
	`

	habit := &entity.Habit{}
	err := r.pool.QueryRow(ctx, query, habitID, userID).Scan(
		&habit.ID, &habit.UserID, &habit.Title, &habit.TimezoneOffsetHours,
		&habit.Streak, &habit.LastCompletedOn, &habit.CreatedAt, &habit.UpdatedAt, &habit.Version,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, errors.NewNotFound(habitID)
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT day, completed, streak
		FROM habit_completions
		WHERE user_id = $1 AND habit_id = $2
		ORDER BY day ASC
	`, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d entity.DayCompletion
		if err := rows.Scan(&d.Day, &d.Completed, &d.Streak); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		d.Day = entity.DayOf(d.Day)
		habit.Record = append(habit.Record, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}

	if habit.LastCompletedOn != nil {
		last := entity.DayOf(*habit.LastCompletedOn)
		habit.LastCompletedOn = &last
	}

	return habit, nil
}

func (r *habitRepository) Save(ctx context.Context, habit *entity.Habit) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE habits SET
			streak = $3,
			last_completed_on = $4,
			updated_at = $5,
			version = version + 1
		WHERE id = $1 AND user_id = $2 AND version = $6
	`

	result, err := tx.Exec(ctx, query,
		habit.ID, habit.UserID,
		habit.Streak, habit.LastCompletedOn, habit.UpdatedAt, habit.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM habits WHERE id = $1 AND user_id = $2)`,
			habit.ID, habit.UserID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check habit: %w", err)
		}
		if exists {
			return errors.NewConflict(habit.ID)
		}
		return errors.NewNotFound(habit.ID)
	}

	// the record is small and bounded, so it is replaced wholesale
	if _, err := tx.Exec(ctx,
		`DELETE FROM habit_completions WHERE user_id = $1 AND habit_id = $2`,
		habit.UserID, habit.ID,
	); err != nil {
		return fmt.Errorf("failed to clear completions: %w", err)
	}

	if err := insertRecord(ctx, tx, habit); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit habit: %w", err)
	}
	habit.Version++
	return nil
}

func insertRecord(ctx context.Context, tx pgx.Tx, habit *entity.Habit) error {
	if len(habit.Record) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"habit_completions"},
		[]string{"user_id", "habit_id", "day", "completed", "streak"},
		pgx.CopyFromSlice(len(habit.Record), func(i int) ([]any, error) {
			d := habit.Record[i]
			return []any{habit.UserID, habit.ID, entity.DayOf(d.Day), d.Completed, d.Streak}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to write completions: %w", err)
	}
	return nil
}
