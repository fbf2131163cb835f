package streak

import (
	"time"

	"habittracker/backend/internal/calendar"
)

const DefaultFallbackCapacity = 2

// Ledger is the streak bookkeeping for one owner.
type Ledger struct {
	CurrentStreak    int
	FallbackCapacity int
	FallbacksUsed    int
	LastWorkoutDate  *time.Time
	// LastEvaluated is the last day missed-workout accounting ran for.
	LastEvaluated *time.Time
}

// Outcome describes what an activation did to the ledger.
type Outcome string

const (
	OutcomeNone         Outcome = "none"
	OutcomeFallbackUsed Outcome = "fallback_used"
	OutcomeStreakBroken Outcome = "streak_broken"
)

func NewLedger(fallbackCapacity int) Ledger {
	if fallbackCapacity < 0 {
		fallbackCapacity = 0
	}
	return Ledger{FallbackCapacity: fallbackCapacity}
}

func (l Ledger) FallbacksLeft() int {
	left := l.FallbackCapacity - l.FallbacksUsed
	if left < 0 {
		return 0
	}
	return left
}

func (l Ledger) WorkoutCompletedToday(today time.Time) bool {
	return l.LastWorkoutDate != nil && calendar.SameDay(*l.LastWorkoutDate, today)
}

// OnAppActivate applies the missed-workout rule for yesterday. Only a single prior day is inspected,
// and the rule runs at most once per calendar day.
func OnAppActivate(l Ledger, today time.Time, isRestDay func(time.Time) bool) (Ledger, Outcome) {
	if l.LastWorkoutDate == nil {
		return l, OutcomeNone
	}
	today = calendar.Day(today)
	if l.LastEvaluated != nil && calendar.SameDay(*l.LastEvaluated, today) {
		return l, OutcomeNone
	}

	yesterday := today.AddDate(0, 0, -1)
	last := *l.LastWorkoutDate
	evaluated := today
	l.LastEvaluated = &evaluated

	if calendar.SameDay(last, today) || calendar.SameDay(last, yesterday) {
		return l, OutcomeNone
	}
	if isRestDay != nil && isRestDay(yesterday) {
		return l, OutcomeNone
	}

	if l.FallbacksUsed < l.FallbackCapacity {
		l.FallbacksUsed++
		return l, OutcomeFallbackUsed
	}
	l.CurrentStreak = 0
	return l, OutcomeStreakBroken
}

// OnWorkoutCompleted records a workout for today. Fallback credits are never replenished.
func OnWorkoutCompleted(l Ledger, today time.Time) Ledger {
	day := calendar.Day(today)
	l.LastWorkoutDate = &day
	l.CurrentStreak++
	return l
}

// Reset zeroes the streak without touching fallback usage or the last workout date.
func Reset(l Ledger) Ledger {
	l.CurrentStreak = 0
	return l
}
