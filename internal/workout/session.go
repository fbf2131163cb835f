package workout

import (
	"errors"
	"time"
)

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

const DefaultDurationMinutes = 30

// AllowedDurations are the session lengths offered when starting a workout.
var AllowedDurations = []int{15, 30, 45}

var (
	ErrSessionClosed    = errors.New("workout session is not running")
	ErrNotLastExercise  = errors.New("workout can only be finished on the last exercise")
	ErrInvalidDuration  = errors.New("workout duration must be 15, 30 or 45 minutes")
	ErrExerciseNotFound = errors.New("current exercise is not in the catalog")
)

// Session walks a catalog front to back. Reps is the counter for the current exercise.
type Session struct {
	ID              string     `json:"id"`
	Status          Status     `json:"status"`
	ExerciseIndex   int        `json:"exerciseIndex"`
	Reps            int        `json:"reps"`
	DurationMinutes int        `json:"durationMinutes"`
	SkippedCount    int        `json:"skippedCount"`
	StartedAt       time.Time  `json:"startedAt"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// Event is returned by the transition that finishes a session.
type Event struct {
	Completed bool
	SessionID string
	At        time.Time
}

func ValidDuration(minutes int) bool {
	for _, d := range AllowedDurations {
		if d == minutes {
			return true
		}
	}
	return false
}

// NewSession starts at the first exercise. A zero duration selects DefaultDurationMinutes.
func NewSession(id string, catalog Catalog, durationMinutes int, now time.Time) (Session, error) {
	if len(catalog) == 0 {
		return Session{}, ErrEmptyCatalog
	}
	if durationMinutes == 0 {
		durationMinutes = DefaultDurationMinutes
	}
	if !ValidDuration(durationMinutes) {
		return Session{}, ErrInvalidDuration
	}
	return Session{
		ID:              id,
		Status:          StatusRunning,
		ExerciseIndex:   0,
		Reps:            catalog[0].DefaultReps,
		DurationMinutes: durationMinutes,
		StartedAt:       now,
	}, nil
}

func (s *Session) Running() bool {
	return s.Status == StatusRunning
}

func (s *Session) IsLast(catalog Catalog) bool {
	return s.ExerciseIndex >= catalog.Last()
}

func (s *Session) Current(catalog Catalog) (Exercise, error) {
	if s.ExerciseIndex < 0 || s.ExerciseIndex >= len(catalog) {
		return Exercise{}, ErrExerciseNotFound
	}
	return catalog[s.ExerciseIndex], nil
}

// Advance moves to the next exercise, or completes the session when on the last one.
func (s *Session) Advance(catalog Catalog, now time.Time) (Event, error) {
	if !s.Running() {
		return Event{}, ErrSessionClosed
	}
	if len(catalog) == 0 {
		return Event{}, ErrEmptyCatalog
	}
	if s.IsLast(catalog) {
		return s.finish(now), nil
	}
	s.ExerciseIndex++
	s.Reps = catalog[s.ExerciseIndex].DefaultReps
	return Event{}, nil
}

// Skip advances without performing the current exercise.
func (s *Session) Skip(catalog Catalog, now time.Time) (Event, error) {
	event, err := s.Advance(catalog, now)
	if err != nil {
		return Event{}, err
	}
	s.SkippedCount++
	return event, nil
}

// Complete finishes the session explicitly; only allowed on the last exercise.
func (s *Session) Complete(catalog Catalog, now time.Time) (Event, error) {
	if !s.Running() {
		return Event{}, ErrSessionClosed
	}
	if !s.IsLast(catalog) {
		return Event{}, ErrNotLastExercise
	}
	return s.finish(now), nil
}

// AdjustReps changes the rep counter, never letting it drop below one.
func (s *Session) AdjustReps(delta int) error {
	if !s.Running() {
		return ErrSessionClosed
	}
	s.Reps += delta
	if s.Reps < 1 {
		s.Reps = 1
	}
	return nil
}

// Cancel discards the session without a completion event.
func (s *Session) Cancel(now time.Time) error {
	if !s.Running() {
		return ErrSessionClosed
	}
	s.Status = StatusCancelled
	s.EndedAt = &now
	return nil
}

func (s *Session) finish(now time.Time) Event {
	s.Status = StatusCompleted
	s.EndedAt = &now
	return Event{Completed: true, SessionID: s.ID, At: now}
}
