package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	apperrors "habittracker/backend/internal/errors"
	"habittracker/backend/internal/model"
	"habittracker/backend/internal/repository"
	"habittracker/backend/internal/streak"
	"habittracker/backend/internal/workout"
)

type WorkoutService struct {
	keeper  *StreakKeeper
	repo    *repository.WorkoutRepository
	catalog workout.Catalog
}

type SessionView struct {
	model.WorkoutSession
	Exercise      *workout.Exercise `json:"exercise,omitempty"`
	ExerciseCount int               `json:"exerciseCount"`
	IsLast        bool              `json:"isLast"`
}

// StepResult is returned by every session transition. State is set when the step finished the workout.
type StepResult struct {
	Session   SessionView `json:"session"`
	Completed bool        `json:"completed"`
	State     *StateView  `json:"state,omitempty"`
}

type step func(s *workout.Session) (workout.Event, error)

func NewWorkoutService(keeper *StreakKeeper, repo *repository.WorkoutRepository, catalog workout.Catalog) *WorkoutService {
	return &WorkoutService{keeper: keeper, repo: repo, catalog: catalog}
}

func (s *WorkoutService) Exercises() workout.Catalog {
	return s.catalog
}

// Start opens a new session unless one is running or today's workout is already done.
func (s *WorkoutService) Start(ctx context.Context, durationMinutes int) (*SessionView, *apperrors.APIError) {
	now := s.keeper.Now()
	tx, err := s.keeper.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, apiErr := s.keeper.LoadActivated(ctx, tx)
	if apiErr != nil {
		return nil, apiErr
	}
	if state.WorkoutCompletedToday(now) {
		return nil, apperrors.Conflict("workout_already_completed", "today's workout is already completed", map[string]interface{}{
			"state": s.keeper.View(state),
		})
	}

	active, err := s.repo.GetActiveTx(ctx, tx)
	if err == nil {
		return nil, apperrors.Conflict("workout_in_progress", "a workout is already running", map[string]interface{}{
			"session": s.view(active),
		})
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to get workout session")
	}

	session, err := workout.NewSession(uuid.NewString(), s.catalog, durationMinutes, now)
	if err != nil {
		return nil, workoutError(err)
	}
	row := model.WorkoutSession{Session: session, CreatedAt: now, UpdatedAt: now}
	if err := s.repo.InsertTx(ctx, tx, &row); err != nil {
		return nil, apperrors.Internal("failed to create workout session")
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	log.WithFields(log.Fields{
		"session_id": row.ID,
		"duration":   row.DurationMinutes,
	}).Info("workout started")
	view := s.view(&row)
	return &view, nil
}

func (s *WorkoutService) Session(ctx context.Context) (*SessionView, *apperrors.APIError) {
	tx, err := s.keeper.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	active, apiErr := s.getActive(ctx, tx)
	if apiErr != nil {
		return nil, apiErr
	}
	view := s.view(active)
	return &view, nil
}

func (s *WorkoutService) Advance(ctx context.Context) (*StepResult, *apperrors.APIError) {
	return s.apply(ctx, func(session *workout.Session) (workout.Event, error) {
		return session.Advance(s.catalog, s.keeper.Now())
	})
}

func (s *WorkoutService) Skip(ctx context.Context) (*StepResult, *apperrors.APIError) {
	return s.apply(ctx, func(session *workout.Session) (workout.Event, error) {
		return session.Skip(s.catalog, s.keeper.Now())
	})
}

func (s *WorkoutService) Complete(ctx context.Context) (*StepResult, *apperrors.APIError) {
	return s.apply(ctx, func(session *workout.Session) (workout.Event, error) {
		return session.Complete(s.catalog, s.keeper.Now())
	})
}

func (s *WorkoutService) AdjustReps(ctx context.Context, delta int) (*StepResult, *apperrors.APIError) {
	return s.apply(ctx, func(session *workout.Session) (workout.Event, error) {
		return workout.Event{}, session.AdjustReps(delta)
	})
}

func (s *WorkoutService) Cancel(ctx context.Context) (*StepResult, *apperrors.APIError) {
	result, apiErr := s.apply(ctx, func(session *workout.Session) (workout.Event, error) {
		return workout.Event{}, session.Cancel(s.keeper.Now())
	})
	if apiErr != nil {
		return nil, apiErr
	}
	s.keeper.metrics.CounterWorkoutsCancelled.Inc()
	log.WithField("session_id", result.Session.ID).Info("workout cancelled")
	return result, nil
}

func (s *WorkoutService) History(ctx context.Context, limit int) ([]model.WorkoutSession, *apperrors.APIError) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	sessions, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to get history")
	}
	return sessions, nil
}

// apply runs fn against the running session and persists it. A completion event is recorded in the
// streak ledger within the same transaction.
func (s *WorkoutService) apply(ctx context.Context, fn step) (*StepResult, *apperrors.APIError) {
	tx, err := s.keeper.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	active, apiErr := s.getActive(ctx, tx)
	if apiErr != nil {
		return nil, apiErr
	}

	event, err := fn(&active.Session)
	if err != nil {
		return nil, workoutError(err)
	}
	active.UpdatedAt = s.keeper.Now()
	if err := s.repo.UpdateTx(ctx, tx, active); err != nil {
		return nil, apperrors.Internal("failed to update workout session")
	}

	result := StepResult{Completed: event.Completed}
	var completedState *streak.State
	if event.Completed {
		state, apiErr := s.recordCompletion(ctx, tx)
		if apiErr != nil {
			return nil, apiErr
		}
		completedState = &state
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	if completedState != nil {
		s.keeper.metrics.CounterWorkoutsCompleted.Inc()
		s.keeper.metrics.GaugeCurrentStreak.Set(float64(completedState.CurrentStreak))
		log.WithFields(log.Fields{
			"session_id": active.ID,
			"skipped":    active.SkippedCount,
			"streak":     completedState.CurrentStreak,
		}).Info("workout completed")
		view := s.keeper.View(*completedState)
		result.State = &view
	}
	result.Session = s.view(active)
	return &result, nil
}

func (s *WorkoutService) recordCompletion(ctx context.Context, tx *sql.Tx) (streak.State, *apperrors.APIError) {
	state, apiErr := s.keeper.LoadActivated(ctx, tx)
	if apiErr != nil {
		return streak.State{}, apiErr
	}
	state.Ledger = streak.OnWorkoutCompleted(state.Ledger, s.keeper.Today())
	state.Version++
	if apiErr := s.keeper.Save(ctx, tx, state); apiErr != nil {
		return streak.State{}, apiErr
	}
	return state, nil
}

func (s *WorkoutService) getActive(ctx context.Context, tx *sql.Tx) (*model.WorkoutSession, *apperrors.APIError) {
	active, err := s.repo.GetActiveTx(ctx, tx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("no_active_workout", "no workout is running")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get workout session")
	}
	return active, nil
}

func (s *WorkoutService) view(session *model.WorkoutSession) SessionView {
	view := SessionView{
		WorkoutSession: *session,
		ExerciseCount:  len(s.catalog),
		IsLast:         session.IsLast(s.catalog),
	}
	if session.Running() {
		if current, err := session.Current(s.catalog); err == nil {
			view.Exercise = &current
		}
	}
	return view
}

func workoutError(err error) *apperrors.APIError {
	switch {
	case errors.Is(err, workout.ErrInvalidDuration):
		return apperrors.BadRequest("invalid_duration", err.Error())
	case errors.Is(err, workout.ErrNotLastExercise):
		return apperrors.Conflict("not_last_exercise", err.Error(), nil)
	case errors.Is(err, workout.ErrSessionClosed):
		return apperrors.Conflict("workout_not_running", err.Error(), nil)
	case errors.Is(err, workout.ErrExerciseNotFound), errors.Is(err, workout.ErrEmptyCatalog):
		return apperrors.Internal(err.Error())
	default:
		return apperrors.Internal("workout step failed")
	}
}
