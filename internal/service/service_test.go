package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"habittracker/backend/internal/db"
	"habittracker/backend/internal/metrics"
	"habittracker/backend/internal/repository"
	"habittracker/backend/internal/streak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionCleaner"),
	)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close()
	})

	_, currentFile, _, _ := runtime.Caller(0)
	require.NoError(t, db.RunMigrations(database, filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")))
	return database
}

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time {
		return time.Date(y, m, d, 20, 0, 0, 0, time.UTC)
	}
}

func newKeeper(database *sql.DB, manager *metrics.Manager, persistFull bool, now func() time.Time) *StreakKeeper {
	return NewStreakKeeper(repository.NewKVRepository(database), nil, manager, StreakOptions{
		Location:         time.UTC,
		WeekStart:        time.Monday,
		FallbackCapacity: streak.DefaultFallbackCapacity,
		DefaultRestQuota: 3,
		PersistFullState: persistFull,
		Now:              now,
	})
}

func recordWorkout(t *testing.T, keeper *StreakKeeper) streak.State {
	t.Helper()
	ctx := context.Background()

	tx, err := keeper.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	state, apiErr := keeper.LoadActivated(ctx, tx)
	require.Nil(t, apiErr)
	state.Ledger = streak.OnWorkoutCompleted(state.Ledger, keeper.Today())
	state.Version++
	require.Nil(t, keeper.Save(ctx, tx, state))
	require.NoError(t, tx.Commit())
	return state
}

func TestAuthService_TokenRoundTrip(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	auth, err := NewAuthService(string(hash), "", "secret", time.Hour)
	require.NoError(t, err)

	_, apiErr := auth.IssueToken("nope")
	require.NotNil(t, apiErr)
	assert.Equal(t, 401, apiErr.Status)

	result, apiErr := auth.IssueToken("s3cret")
	require.Nil(t, apiErr)
	assert.WithinDuration(t, time.Now().Add(time.Hour), result.ExpiresAt, time.Minute)

	subject, apiErr := auth.ParseToken(result.Token)
	require.Nil(t, apiErr)
	assert.Equal(t, OwnerSubject, subject)

	other, err := NewAuthService(string(hash), "", "another-secret", time.Hour)
	require.NoError(t, err)
	_, apiErr = other.ParseToken(result.Token)
	assert.NotNil(t, apiErr)
}

func TestAuthService_RejectsForeignSubjectAndExpiredTokens(t *testing.T) {
	auth, err := NewAuthService("", "pass", "secret", time.Hour)
	require.NoError(t, err)

	sign := func(claims jwt.RegisteredClaims) string {
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		return signed
	}

	_, apiErr := auth.ParseToken(sign(jwt.RegisteredClaims{
		Subject:   "someone-else",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}))
	assert.NotNil(t, apiErr)

	_, apiErr = auth.ParseToken(sign(jwt.RegisteredClaims{
		Subject:   OwnerSubject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}))
	assert.NotNil(t, apiErr)

	_, err = NewAuthService("", "", "secret", time.Hour)
	assert.ErrorIs(t, err, ErrPassphraseNotConfigured)
}

func TestStreakKeeper_PartialPersistenceForgetsStreakOnRestart(t *testing.T) {
	database := openTestDB(t)
	now := fixedClock(2026, time.October, 14)

	first := newKeeper(database, metrics.NewTestManager(), false, now)
	state := recordWorkout(t, first)
	require.Equal(t, 1, state.CurrentStreak)

	restarted := newKeeper(database, metrics.NewTestManager(), false, now)
	ctx := context.Background()
	tx, err := restarted.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	loaded, apiErr := restarted.Load(ctx, tx)
	require.Nil(t, apiErr)
	assert.Equal(t, 0, loaded.CurrentStreak)
	require.NotNil(t, loaded.LastWorkoutDate)
	assert.Equal(t, "2026-10-14", loaded.LastWorkoutDate.Format("2006-01-02"))
}

func TestStreakKeeper_FullPersistenceSurvivesRestart(t *testing.T) {
	database := openTestDB(t)
	now := fixedClock(2026, time.October, 14)

	recordWorkout(t, newKeeper(database, metrics.NewTestManager(), true, now))

	restarted := newKeeper(database, metrics.NewTestManager(), true, now)
	ctx := context.Background()
	tx, err := restarted.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	loaded, apiErr := restarted.Load(ctx, tx)
	require.Nil(t, apiErr)
	assert.Equal(t, 1, loaded.CurrentStreak)
	assert.Equal(t, 2, loaded.Version)
}

func TestStreakKeeper_ActivationMetrics(t *testing.T) {
	database := openTestDB(t)
	manager := metrics.NewTestManager()

	// Monday workout, then Friday and the following Monday open with a missed day behind them.
	recordWorkout(t, newKeeper(database, manager, true, fixedClock(2026, time.October, 12)))

	activate := func(day int) streak.State {
		keeper := newKeeper(database, manager, true, fixedClock(2026, time.October, day))
		ctx := context.Background()
		tx, err := keeper.BeginTx(ctx)
		require.NoError(t, err)
		defer tx.Rollback()
		state, apiErr := keeper.LoadActivated(ctx, tx)
		require.Nil(t, apiErr)
		require.NoError(t, tx.Commit())
		return state
	}

	activate(16)
	activate(19)
	state := activate(23)

	assert.Equal(t, 0, state.CurrentStreak)
	assert.Equal(t, float64(2), testutil.ToFloat64(manager.CounterFallbacksConsumed))
	assert.Equal(t, float64(1), testutil.ToFloat64(manager.CounterStreaksBroken))
	assert.Equal(t, float64(0), testutil.ToFloat64(manager.GaugeCurrentStreak))
}

func TestStreakKeeper_YesterdayInPreviousMonth(t *testing.T) {
	database := openTestDB(t)
	manager := metrics.NewTestManager()

	// Wednesday 2026-09-30 is a rest day for quota 3 even when viewed from October.
	recordWorkout(t, newKeeper(database, manager, true, fixedClock(2026, time.September, 28)))
	keeper := newKeeper(database, manager, true, fixedClock(2026, time.October, 1))

	ctx := context.Background()
	tx, err := keeper.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	state, apiErr := keeper.LoadActivated(ctx, tx)
	require.Nil(t, apiErr)
	assert.Equal(t, 0, state.FallbacksUsed)
	assert.Equal(t, 1, state.CurrentStreak)
}
