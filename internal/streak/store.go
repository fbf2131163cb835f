package streak

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"habittracker/backend/internal/calendar"
)

const (
	KeyLastWorkoutDate = "LastWorkoutDate"
	KeyCurrentStreak   = "CurrentStreak"
	KeyFallbacksUsed   = "FallbacksUsed"
	KeyRestQuota       = "RestQuota"
	KeyLastEvaluated   = "LastEvaluated"
	KeyStateVersion    = "StateVersion"
)

// Store is the key-value capability the ledger persists through.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// State is everything persisted for the owner: the ledger, the chosen rest quota and a version
// used for optimistic concurrency.
type State struct {
	Ledger
	RestQuota int
	Version   int
}

type Defaults struct {
	FallbackCapacity int
	RestQuota        int
}

// Load reads the state from store. A missing, unreadable or malformed last workout date is treated as
// no prior workout.
func Load(ctx context.Context, store Store, defaults Defaults, loc *time.Location) (State, error) {
	state := State{
		Ledger:    NewLedger(defaults.FallbackCapacity),
		RestQuota: defaults.RestQuota,
		Version:   1,
	}

	raw, ok, err := store.Get(ctx, KeyLastWorkoutDate)
	switch {
	case err != nil:
		log.Warnf("read %s, assuming no prior workout: %s", KeyLastWorkoutDate, err)
	case ok:
		if date, parseErr := time.ParseInLocation(calendar.DateLayout, raw, loc); parseErr == nil {
			state.LastWorkoutDate = &date
		} else {
			log.Warnf("malformed %s %q, assuming no prior workout", KeyLastWorkoutDate, raw)
		}
	}

	ints := []struct {
		key  string
		dest *int
	}{
		{KeyCurrentStreak, &state.CurrentStreak},
		{KeyFallbacksUsed, &state.FallbacksUsed},
		{KeyRestQuota, &state.RestQuota},
		{KeyStateVersion, &state.Version},
	}
	for _, item := range ints {
		raw, ok, err := store.Get(ctx, item.key)
		if err != nil {
			return State{}, fmt.Errorf("read %s: %w", item.key, err)
		}
		if !ok {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			log.Warnf("malformed %s %q, using %d", item.key, raw, *item.dest)
			continue
		}
		*item.dest = value
	}

	raw, ok, err = store.Get(ctx, KeyLastEvaluated)
	if err != nil {
		return State{}, fmt.Errorf("read %s: %w", KeyLastEvaluated, err)
	}
	if ok {
		if date, parseErr := time.ParseInLocation(calendar.DateLayout, raw, loc); parseErr == nil {
			state.LastEvaluated = &date
		}
	}

	if state.CurrentStreak < 0 {
		state.CurrentStreak = 0
	}
	if state.FallbacksUsed < 0 {
		state.FallbacksUsed = 0
	}
	if state.FallbacksUsed > state.FallbackCapacity {
		state.FallbacksUsed = state.FallbackCapacity
	}
	return state, nil
}

// Save writes every field of state. Empty optional dates are stored as "".
func Save(ctx context.Context, store Store, state State) error {
	values := []struct {
		key   string
		value string
	}{
		{KeyLastWorkoutDate, formatDate(state.LastWorkoutDate)},
		{KeyCurrentStreak, strconv.Itoa(state.CurrentStreak)},
		{KeyFallbacksUsed, strconv.Itoa(state.FallbacksUsed)},
		{KeyRestQuota, strconv.Itoa(state.RestQuota)},
		{KeyLastEvaluated, formatDate(state.LastEvaluated)},
		{KeyStateVersion, strconv.Itoa(state.Version)},
	}
	for _, item := range values {
		if item.key == KeyLastWorkoutDate && item.value == "" {
			continue
		}
		if err := store.Set(ctx, item.key, item.value); err != nil {
			return fmt.Errorf("write %s: %w", item.key, err)
		}
	}
	return nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(calendar.DateLayout)
}

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// SplitStore persists only the last workout date durably and keeps every other key in ephemeral,
// which reproduces an app that forgets its streak on a cold start.
type SplitStore struct {
	durable   Store
	ephemeral Store
}

func NewSplitStore(durable, ephemeral Store) *SplitStore {
	return &SplitStore{durable: durable, ephemeral: ephemeral}
}

func (s *SplitStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == KeyLastWorkoutDate {
		return s.durable.Get(ctx, key)
	}
	return s.ephemeral.Get(ctx, key)
}

func (s *SplitStore) Set(ctx context.Context, key, value string) error {
	if key == KeyLastWorkoutDate {
		return s.durable.Set(ctx, key, value)
	}
	return s.ephemeral.Set(ctx, key, value)
}
