package service

import (
	"context"
	"strings"
	"time"

	"habittracker/backend/internal/calendar"
	apperrors "habittracker/backend/internal/errors"
	"habittracker/backend/internal/restday"
	"habittracker/backend/internal/streak"
)

type HabitService struct {
	keeper     *StreakKeeper
	classifier *restday.Classifier
	grids      *calendar.GridCache
}

type CalendarView struct {
	Month     string                                              `json:"month"`
	WeekStart string                                              `json:"weekStart"`
	Weekdays  []string                                            `json:"weekdays"`
	RestQuota int                                                 `json:"restQuota"`
	Weeks     [calendar.Weeks][calendar.DaysPerWeek]calendar.Cell `json:"weeks"`
}

func NewHabitService(keeper *StreakKeeper, classifier *restday.Classifier, grids *calendar.GridCache) *HabitService {
	if classifier == nil {
		classifier = restday.NewClassifier(nil)
	}
	if grids == nil {
		grids = calendar.NewGridCache(1)
	}
	return &HabitService{keeper: keeper, classifier: classifier, grids: grids}
}

// GetState runs today's missed-workout accounting and returns the result.
func (s *HabitService) GetState(ctx context.Context) (*StateView, *apperrors.APIError) {
	tx, err := s.keeper.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, apiErr := s.keeper.LoadActivated(ctx, tx)
	if apiErr != nil {
		return nil, apiErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	view := s.keeper.View(state)
	return &view, nil
}

// SetRestQuota stores quota as given. Values outside [0,7] are kept and simply schedule no rest days.
func (s *HabitService) SetRestQuota(ctx context.Context, baseVersion, quota int) (*StateView, *apperrors.APIError) {
	return s.mutate(ctx, baseVersion, func(state *streak.State) {
		state.RestQuota = quota
	})
}

// Reset zeroes the current streak. Fallback usage and the last workout date are kept.
func (s *HabitService) Reset(ctx context.Context, baseVersion int) (*StateView, *apperrors.APIError) {
	return s.mutate(ctx, baseVersion, func(state *streak.State) {
		state.Ledger = streak.Reset(state.Ledger)
	})
}

func (s *HabitService) mutate(ctx context.Context, baseVersion int, apply func(*streak.State)) (*StateView, *apperrors.APIError) {
	tx, err := s.keeper.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, apiErr := s.keeper.LoadActivated(ctx, tx)
	if apiErr != nil {
		return nil, apiErr
	}

	if apiErr := s.keeper.ensureVersion(baseVersion, state); apiErr != nil {
		return nil, apiErr
	}

	apply(&state)
	state.Version++

	if apiErr := s.keeper.Save(ctx, tx, state); apiErr != nil {
		return nil, apiErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	s.keeper.metrics.GaugeCurrentStreak.Set(float64(state.CurrentStreak))
	view := s.keeper.View(state)
	return &view, nil
}

// Calendar renders the month named by month (YYYY-MM); an empty month means the current one.
func (s *HabitService) Calendar(ctx context.Context, month string) (*CalendarView, *apperrors.APIError) {
	today := s.keeper.Today()
	ref := today
	if month = strings.TrimSpace(month); month != "" {
		parsed, err := time.ParseInLocation(calendar.MonthLayout, month, today.Location())
		if err != nil {
			return nil, apperrors.BadRequest("invalid_month", "month must be formatted as YYYY-MM")
		}
		ref = parsed
	}

	tx, err := s.keeper.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to start transaction")
	}
	defer tx.Rollback()

	state, apiErr := s.keeper.LoadActivated(ctx, tx)
	if apiErr != nil {
		return nil, apiErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, apperrors.Internal("failed to commit transaction")
	}

	weekStart := s.keeper.opts.WeekStart
	grid := s.grids.Get(ref, weekStart)
	headers := calendar.WeekdayHeaders(weekStart)

	view := CalendarView{
		Month:     calendar.FirstOfMonth(ref).Format(calendar.MonthLayout),
		WeekStart: weekStart.String(),
		Weekdays:  weekdayNames(headers[:]),
		RestQuota: state.RestQuota,
		Weeks:     calendar.Cells(grid, ref, today, s.classifier.ForQuota(state.RestQuota), state.LastWorkoutDate),
	}
	return &view, nil
}
