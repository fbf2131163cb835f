package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"habittracker/backend/internal/calendar"
	apperrors "habittracker/backend/internal/errors"
	"habittracker/backend/internal/metrics"
	"habittracker/backend/internal/repository"
	"habittracker/backend/internal/restday"
	"habittracker/backend/internal/streak"
)

type StreakOptions struct {
	Location         *time.Location
	WeekStart        time.Weekday
	FallbackCapacity int
	DefaultRestQuota int
	// PersistFullState stores every ledger field; otherwise only the last workout date survives a restart.
	PersistFullState bool
	Now              func() time.Time
}

// StreakKeeper loads, activates and saves the owner's streak state inside a caller's transaction.
type StreakKeeper struct {
	kvRepo     *repository.KVRepository
	classifier *restday.Classifier
	metrics    *metrics.Manager
	opts       StreakOptions
	ephemeral  *streak.MemoryStore
}

type StateView struct {
	CurrentStreak         int       `json:"currentStreak"`
	FallbackCapacity      int       `json:"fallbackCapacity"`
	FallbacksUsed         int       `json:"fallbacksUsed"`
	FallbacksLeft         int       `json:"fallbacksLeft"`
	RestQuota             int       `json:"restQuota"`
	RestDays              []string  `json:"restDays"`
	LastWorkoutDate       *string   `json:"lastWorkoutDate,omitempty"`
	WorkoutCompletedToday bool      `json:"workoutCompletedToday"`
	TodayIsRestDay        bool      `json:"todayIsRestDay"`
	Version               int       `json:"version"`
	ServerTime            time.Time `json:"serverTime"`
}

func NewStreakKeeper(
	kvRepo *repository.KVRepository,
	classifier *restday.Classifier,
	metricsManager *metrics.Manager,
	opts StreakOptions,
) *StreakKeeper {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if classifier == nil {
		classifier = restday.NewClassifier(nil)
	}
	if metricsManager == nil {
		metricsManager = metrics.NewManager("habits", "server", prometheus.NewRegistry())
	}
	return &StreakKeeper{
		kvRepo:     kvRepo,
		classifier: classifier,
		metrics:    metricsManager,
		opts:       opts,
		ephemeral:  streak.NewMemoryStore(),
	}
}

func (k *StreakKeeper) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return k.kvRepo.BeginTx(ctx)
}

// Now returns the current time in the configured location.
func (k *StreakKeeper) Now() time.Time {
	return k.opts.Now().In(k.opts.Location)
}

func (k *StreakKeeper) Today() time.Time {
	return calendar.Day(k.Now())
}

func (k *StreakKeeper) store(tx *sql.Tx) streak.Store {
	durable := k.kvRepo.StoreTx(tx)
	if k.opts.PersistFullState {
		return durable
	}
	return streak.NewSplitStore(durable, k.ephemeral)
}

func (k *StreakKeeper) defaults() streak.Defaults {
	return streak.Defaults{
		FallbackCapacity: k.opts.FallbackCapacity,
		RestQuota:        k.opts.DefaultRestQuota,
	}
}

func (k *StreakKeeper) Load(ctx context.Context, tx *sql.Tx) (streak.State, *apperrors.APIError) {
	state, err := streak.Load(ctx, k.store(tx), k.defaults(), k.opts.Location)
	if err != nil {
		log.Errorf("load streak state: %s", err)
		return streak.State{}, apperrors.Internal("failed to load streak state")
	}
	return state, nil
}

func (k *StreakKeeper) Save(ctx context.Context, tx *sql.Tx, state streak.State) *apperrors.APIError {
	if err := streak.Save(ctx, k.store(tx), state); err != nil {
		log.Errorf("save streak state: %s", err)
		return apperrors.Internal("failed to save streak state")
	}
	return nil
}

// LoadActivated loads the state and applies missed-day accounting for today. A penalty bumps the
// version; the evaluation marker alone is saved without one.
func (k *StreakKeeper) LoadActivated(ctx context.Context, tx *sql.Tx) (streak.State, *apperrors.APIError) {
	state, apiErr := k.Load(ctx, tx)
	if apiErr != nil {
		return streak.State{}, apiErr
	}

	before := state.LastEvaluated
	ledger, outcome := streak.OnAppActivate(state.Ledger, k.Today(), k.yesterdayIsRest(state.RestQuota))
	state.Ledger = ledger
	defer k.metrics.GaugeCurrentStreak.Set(float64(state.CurrentStreak))
	if before == state.LastEvaluated {
		return state, nil
	}

	switch outcome {
	case streak.OutcomeFallbackUsed:
		state.Version++
		k.metrics.CounterFallbacksConsumed.Inc()
		log.WithFields(log.Fields{
			"fallbacks_used": state.FallbacksUsed,
			"fallbacks_left": state.FallbacksLeft(),
		}).Info("missed workout covered by a fallback")
	case streak.OutcomeStreakBroken:
		state.Version++
		k.metrics.CounterStreaksBroken.Inc()
		log.Info("missed workout with no fallbacks left, streak reset")
	}

	if apiErr := k.Save(ctx, tx, state); apiErr != nil {
		return streak.State{}, apiErr
	}
	return state, nil
}

// yesterdayIsRest classifies a day against its own month so the check holds across month boundaries.
func (k *StreakKeeper) yesterdayIsRest(quota int) func(time.Time) bool {
	return func(day time.Time) bool {
		return k.classifier.IsRestDay(day, quota, day)
	}
}

func (k *StreakKeeper) View(state streak.State) StateView {
	now := k.Now()
	today := calendar.Day(now)

	view := StateView{
		CurrentStreak:         state.CurrentStreak,
		FallbackCapacity:      state.FallbackCapacity,
		FallbacksUsed:         state.FallbacksUsed,
		FallbacksLeft:         state.FallbacksLeft(),
		RestQuota:             state.RestQuota,
		RestDays:              weekdayNames(k.classifier.RestDays(state.RestQuota)),
		WorkoutCompletedToday: state.WorkoutCompletedToday(today),
		TodayIsRestDay:        k.classifier.IsRestDay(today, state.RestQuota, today),
		Version:               state.Version,
		ServerTime:            now,
	}
	if state.LastWorkoutDate != nil {
		date := state.LastWorkoutDate.Format(calendar.DateLayout)
		view.LastWorkoutDate = &date
	}
	return view
}

func (k *StreakKeeper) ensureVersion(baseVersion int, state streak.State) *apperrors.APIError {
	if baseVersion <= 0 || baseVersion == state.Version {
		return nil
	}
	view := k.View(state)
	return apperrors.Conflict("state_conflict", "state changed on another device", map[string]interface{}{
		"state": view,
	})
}

func weekdayNames(days []time.Weekday) []string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}
	return names
}
