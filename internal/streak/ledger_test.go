package streak

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"habittracker/backend/internal/restday"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time {
	return &t
}

// quota 3 rests on Monday, Wednesday and Friday.
func quotaThree(date time.Time) bool {
	return restday.NewClassifier(nil).IsRestDay(date, 3, date)
}

func TestOnAppActivate_NoPriorWorkout(t *testing.T) {
	l := NewLedger(DefaultFallbackCapacity)
	l.CurrentStreak = 4

	got, outcome := OnAppActivate(l, day(2026, time.October, 14), quotaThree)
	assert.Equal(t, OutcomeNone, outcome)
	assert.Equal(t, l, got)
}

func TestOnAppActivate_MissedDayUsesFallback(t *testing.T) {
	// 2026-10-14 is a Wednesday, so yesterday (Tuesday) is a workout day for quota 3.
	today := day(2026, time.October, 14)
	l := Ledger{
		CurrentStreak:    7,
		FallbackCapacity: 2,
		LastWorkoutDate:  ptr(today.AddDate(0, 0, -3)),
	}

	got, outcome := OnAppActivate(l, today, quotaThree)
	assert.Equal(t, OutcomeFallbackUsed, outcome)
	assert.Equal(t, 1, got.FallbacksUsed)
	assert.Equal(t, 7, got.CurrentStreak)
}

func TestOnAppActivate_NoFallbacksLeftBreaksStreak(t *testing.T) {
	today := day(2026, time.October, 14)
	l := Ledger{
		CurrentStreak:    7,
		FallbackCapacity: 2,
		FallbacksUsed:    2,
		LastWorkoutDate:  ptr(today.AddDate(0, 0, -3)),
	}

	got, outcome := OnAppActivate(l, today, quotaThree)
	assert.Equal(t, OutcomeStreakBroken, outcome)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 2, got.FallbacksUsed)
}

func TestOnAppActivate_RecentWorkoutOrRestDay(t *testing.T) {
	today := day(2026, time.October, 14)
	tests := []struct {
		name        string
		today       time.Time
		lastWorkout time.Time
	}{
		{"worked out today", today, today},
		{"worked out yesterday", today, today.AddDate(0, 0, -1)},
		// 2026-10-15 is a Thursday; yesterday is a Wednesday rest day.
		{"yesterday was a rest day", day(2026, time.October, 15), day(2026, time.October, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Ledger{CurrentStreak: 3, FallbackCapacity: 2, LastWorkoutDate: ptr(tt.lastWorkout)}
			got, outcome := OnAppActivate(l, tt.today, quotaThree)
			assert.Equal(t, OutcomeNone, outcome)
			assert.Equal(t, 3, got.CurrentStreak)
			assert.Equal(t, 0, got.FallbacksUsed)
		})
	}
}

func TestOnAppActivate_IdempotentForSameDay(t *testing.T) {
	today := day(2026, time.October, 14)
	l := Ledger{CurrentStreak: 7, FallbackCapacity: 2, LastWorkoutDate: ptr(today.AddDate(0, 0, -3))}

	once, _ := OnAppActivate(l, today, quotaThree)
	twice, outcome := OnAppActivate(once, today.Add(5*time.Hour), quotaThree)
	assert.Equal(t, OutcomeNone, outcome)
	assert.Equal(t, once, twice)
	assert.Equal(t, 1, twice.FallbacksUsed)

	// a later day is evaluated again; Friday's yesterday is Thursday, a workout day
	next, outcome := OnAppActivate(twice, today.AddDate(0, 0, 2), quotaThree)
	assert.Equal(t, OutcomeFallbackUsed, outcome)
	assert.Equal(t, 2, next.FallbacksUsed)
}

func TestOnAppActivate_OnlyInspectsYesterday(t *testing.T) {
	// Ten days without a workout still costs a single fallback.
	today := day(2026, time.October, 14)
	l := Ledger{CurrentStreak: 7, FallbackCapacity: 2, LastWorkoutDate: ptr(today.AddDate(0, 0, -10))}

	got, _ := OnAppActivate(l, today, quotaThree)
	assert.Equal(t, 1, got.FallbacksUsed)
	assert.Equal(t, 7, got.CurrentStreak)
}

func TestOnWorkoutCompleted(t *testing.T) {
	today := time.Date(2026, time.October, 14, 18, 42, 0, 0, time.UTC)
	l := Ledger{CurrentStreak: 7, FallbackCapacity: 2, FallbacksUsed: 1}

	got := OnWorkoutCompleted(l, today)
	require.NotNil(t, got.LastWorkoutDate)
	assert.Equal(t, day(2026, time.October, 14), *got.LastWorkoutDate)
	assert.Equal(t, 8, got.CurrentStreak)
	assert.Equal(t, 1, got.FallbacksUsed)
	assert.True(t, got.WorkoutCompletedToday(today))
	assert.False(t, got.WorkoutCompletedToday(today.AddDate(0, 0, 1)))
	assert.Nil(t, l.LastWorkoutDate)
}

func TestReset(t *testing.T) {
	l := Ledger{CurrentStreak: 9, FallbackCapacity: 2, FallbacksUsed: 1}
	got := Reset(l)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 1, got.FallbacksUsed)
	assert.Equal(t, 1, got.FallbacksLeft())
}

func TestFallbacksLeft(t *testing.T) {
	assert.Equal(t, 2, NewLedger(2).FallbacksLeft())
	assert.Equal(t, 0, Ledger{FallbackCapacity: 2, FallbacksUsed: 5}.FallbacksLeft())
	assert.Equal(t, 0, NewLedger(-1).FallbackCapacity)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	state := State{
		Ledger: Ledger{
			CurrentStreak:    5,
			FallbackCapacity: 2,
			FallbacksUsed:    1,
			LastWorkoutDate:  ptr(day(2026, time.October, 13)),
			LastEvaluated:    ptr(day(2026, time.October, 14)),
		},
		RestQuota: 3,
		Version:   4,
	}
	require.NoError(t, Save(ctx, store, state))

	raw, ok, err := store.Get(ctx, KeyLastWorkoutDate)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2026-10-13", raw)

	loaded, err := Load(ctx, store, Defaults{FallbackCapacity: 2, RestQuota: 0}, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestLoad_Defaults(t *testing.T) {
	loaded, err := Load(context.Background(), NewMemoryStore(), Defaults{FallbackCapacity: 2, RestQuota: 3}, time.UTC)
	require.NoError(t, err)
	assert.Nil(t, loaded.LastWorkoutDate)
	assert.Equal(t, 3, loaded.RestQuota)
	assert.Equal(t, 1, loaded.Version)
	assert.Equal(t, 2, loaded.FallbacksLeft())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyLastWorkoutDate, "yesterday"))
	require.NoError(t, store.Set(ctx, KeyCurrentStreak, "many"))
	require.NoError(t, store.Set(ctx, KeyFallbacksUsed, "9"))

	loaded, err := Load(ctx, store, Defaults{FallbackCapacity: 2}, time.UTC)
	require.NoError(t, err)
	assert.Nil(t, loaded.LastWorkoutDate)
	assert.Equal(t, 0, loaded.CurrentStreak)
	assert.Equal(t, 2, loaded.FallbacksUsed)
}

type failingStore struct {
	failKey string
}

func (f failingStore) Get(_ context.Context, key string) (string, bool, error) {
	if key == f.failKey {
		return "", false, errors.New("disk unavailable")
	}
	return "", false, nil
}

func (f failingStore) Set(context.Context, string, string) error {
	return errors.New("disk unavailable")
}

func TestLoad_StorageFailure(t *testing.T) {
	ctx := context.Background()

	loaded, err := Load(ctx, failingStore{failKey: KeyLastWorkoutDate}, Defaults{FallbackCapacity: 2}, time.UTC)
	require.NoError(t, err)
	assert.Nil(t, loaded.LastWorkoutDate)

	_, err = Load(ctx, failingStore{failKey: KeyCurrentStreak}, Defaults{FallbackCapacity: 2}, time.UTC)
	assert.Error(t, err)

	err = Save(ctx, failingStore{}, State{Ledger: NewLedger(2)})
	assert.Error(t, err)
}

func TestSplitStore(t *testing.T) {
	ctx := context.Background()
	durable := NewMemoryStore()
	split := NewSplitStore(durable, NewMemoryStore())

	state := State{
		Ledger:    Ledger{CurrentStreak: 3, FallbackCapacity: 2, LastWorkoutDate: ptr(day(2026, time.October, 13))},
		RestQuota: 2,
		Version:   2,
	}
	require.NoError(t, Save(ctx, split, state))

	// a cold start only sees the durable slot
	restarted, err := Load(ctx, NewSplitStore(durable, NewMemoryStore()), Defaults{FallbackCapacity: 2}, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, restarted.LastWorkoutDate)
	assert.Equal(t, day(2026, time.October, 13), *restarted.LastWorkoutDate)
	assert.Equal(t, 0, restarted.CurrentStreak)
	assert.Equal(t, 0, restarted.RestQuota)

	_, ok, err := durable.Get(ctx, KeyCurrentStreak)
	require.NoError(t, err)
	assert.False(t, ok)
}
