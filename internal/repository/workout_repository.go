package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habittracker/backend/internal/model"
	"habittracker/backend/internal/workout"
)

const sessionColumns = `id, status, exercise_index, reps, duration_minutes, skipped_count,
	started_at, ended_at, created_at, updated_at`

type WorkoutRepository struct {
	db *sql.DB
}

func NewWorkoutRepository(db *sql.DB) *WorkoutRepository {
	return &WorkoutRepository{db: db}
}

func (r *WorkoutRepository) InsertTx(ctx context.Context, tx *sql.Tx, session *model.WorkoutSession) error {
	_, err := tx.ExecContext(
		ctx,
		`INSERT INTO workout_sessions (`+sessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Status,
		session.ExerciseIndex,
		session.Reps,
		session.DurationMinutes,
		session.SkippedCount,
		formatTime(session.StartedAt),
		formatOptionalTime(session.EndedAt),
		formatTime(session.CreatedAt),
		formatTime(session.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert workout session: %w", err)
	}
	return nil
}

// GetActiveTx returns the running session, or ErrNotFound.
func (r *WorkoutRepository) GetActiveTx(ctx context.Context, tx *sql.Tx) (*model.WorkoutSession, error) {
	row := tx.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM workout_sessions
		 WHERE status = ?
		 ORDER BY started_at DESC
		 LIMIT 1`,
		workout.StatusRunning,
	)
	return scanWorkoutSession(row)
}

func (r *WorkoutRepository) UpdateTx(ctx context.Context, tx *sql.Tx, session *model.WorkoutSession) error {
	result, err := tx.ExecContext(
		ctx,
		`UPDATE workout_sessions
		 SET status = ?,
		     exercise_index = ?,
		     reps = ?,
		     skipped_count = ?,
		     ended_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		session.Status,
		session.ExerciseIndex,
		session.Reps,
		session.SkippedCount,
		formatOptionalTime(session.EndedAt),
		formatTime(session.UpdatedAt),
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("update workout session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update workout session: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WorkoutRepository) List(ctx context.Context, limit int) ([]model.WorkoutSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+sessionColumns+`
		 FROM workout_sessions
		 ORDER BY started_at DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list workout sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.WorkoutSession, 0, limit)
	for rows.Next() {
		session, scanErr := scanWorkoutSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout sessions: %w", err)
	}
	return sessions, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkoutSession(s scanner) (*model.WorkoutSession, error) {
	session := model.WorkoutSession{}
	var status string
	var startedAt string
	var endedAt sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&status,
		&session.ExerciseIndex,
		&session.Reps,
		&session.DurationMinutes,
		&session.SkippedCount,
		&startedAt,
		&endedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan workout session: %w", err)
	}
	session.Status = workout.Status(status)

	if session.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse workout session started_at: %w", err)
	}
	if endedAt.Valid {
		parsedEndedAt, parseErr := parseTime(endedAt.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse workout session ended_at: %w", parseErr)
		}
		session.EndedAt = &parsedEndedAt
	}
	if session.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse workout session created_at: %w", err)
	}
	if session.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse workout session updated_at: %w", err)
	}
	return &session, nil
}

func formatOptionalTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
