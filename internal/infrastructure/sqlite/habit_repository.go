package sqlite

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/repository"
	"streak-service/internal/errors"
)

type habitRepository struct {
	db *sql.DB
}

// NewHabitRepository creates a new SQLite habit repository
func NewHabitRepository(db *sql.DB) repository.HabitRepository {
	return &habitRepository{db: db}
}

func (r *habitRepository) Create(ctx context.Context, habit *entity.Habit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM habits WHERE user_id = ? AND id = ?`,
		habit.UserID, habit.ID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check habit: %w", err)
	}
	if exists > 0 {
		return errors.NewInvalidRequest(fmt.Sprintf("habit already exists: %s", habit.ID))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO habits (
			id, user_id, title, timezone_offset_hours,
			streak, last_completed_on, created_at, updated_at, version
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		habit.ID, habit.UserID, habit.Title, habit.TimezoneOffsetHours,
		habit.Streak, formatOptionalDay(habit.LastCompletedOn),
		formatTime(habit.CreatedAt), formatTime(habit.UpdatedAt), habit.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}

	if err := insertRecord(ctx, tx, habit); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *habitRepository) Load(ctx context.Context, userID, habitID string) (*entity.Habit, error) {
	var (
		habit                = &entity.Habit{}
		lastCompleted        sql.NullString
		createdAt, updatedAt string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT
			id, user_id, title, timezone_offset_hours,
			streak, last_completed_on, created_at, updated_at, version
		FROM habits
		WHERE id = ? AND user_id = ?
	`, habitID, userID).Scan(
		&habit.ID, &habit.UserID, &habit.Title, &habit.TimezoneOffsetHours,
		&habit.Streak, &lastCompleted, &createdAt, &updatedAt, &habit.Version,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFound(habitID)
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	if lastCompleted.Valid {
		day, err := entity.ParseDay(lastCompleted.String)
		if err != nil {
			return nil, fmt.Errorf("invalid last_completed_on %q: %w", lastCompleted.String, err)
		}
		habit.LastCompletedOn = &day
	}
	if habit.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if habit.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT day, completed, streak
		FROM habit_completions
		WHERE user_id = ? AND habit_id = ?
		ORDER BY day ASC
	`, userID, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			d   entity.DayCompletion
			raw string
		)
		if err := rows.Scan(&raw, &d.Completed, &d.Streak); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		if d.Day, err = entity.ParseDay(raw); err != nil {
			return nil, fmt.Errorf("invalid completion day %q: %w", raw, err)
		}
		habit.Record = append(habit.Record, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}

	return habit, nil
}

func (r *habitRepository) Save(ctx context.Context, habit *entity.Habit) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE habits SET
			streak = ?,
			last_completed_on = ?,
			updated_at = ?,
			version = version + 1
		WHERE id = ? AND user_id = ? AND version = ?
	`,
		habit.Streak, formatOptionalDay(habit.LastCompletedOn), formatTime(habit.UpdatedAt),
		habit.ID, habit.UserID, habit.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if affected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM habits WHERE user_id = ? AND id = ?`,
			habit.UserID, habit.ID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check habit: %w", err)
		}
		if exists > 0 {
			return errors.NewConflict(habit.ID)
		}
		return errors.NewNotFound(habit.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM habit_completions WHERE user_id = ? AND habit_id = ?`,
		habit.UserID, habit.ID,
	); err != nil {
		return fmt.Errorf("failed to clear completions: %w", err)
	}

	if err := insertRecord(ctx, tx, habit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit habit: %w", err)
	}
	habit.Version++
	return nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, habit *entity.Habit) error {
	if len(habit.Record) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO habit_completions (user_id, habit_id, day, completed, streak)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare completion insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range habit.Record {
		if _, err := stmt.ExecContext(ctx, habit.UserID, habit.ID, entity.FormatDay(d.Day), d.Completed, d.Streak); err != nil {
			return fmt.Errorf("failed to write completion: %w", err)
		}
	}
	return nil
}

func formatOptionalDay(day *time.Time) any {
	if day == nil {
		return nil
	}
	return entity.FormatDay(*day)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
