package restday

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsRestDay_DefaultTable(t *testing.T) {
	c := NewClassifier(nil)
	// 2026-10-12 is a Monday.
	week := map[time.Weekday]time.Time{}
	for i := 0; i < 7; i++ {
		d := day(2026, time.October, 12+i)
		week[d.Weekday()] = d
	}
	ref := day(2026, time.October, 1)

	tests := []struct {
		quota int
		rest  []time.Weekday
	}{
		{0, nil},
		{1, []time.Weekday{time.Wednesday}},
		{2, []time.Weekday{time.Tuesday, time.Friday}},
		{3, []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{4, []time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Saturday}},
		{5, []time.Weekday{time.Monday, time.Tuesday, time.Thursday, time.Friday, time.Saturday}},
		{6, []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}},
		{7, []time.Weekday{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday}},
		{-1, nil},
		{8, nil},
		{100, nil},
	}

	for _, tt := range tests {
		want := NewWeekdaySet(tt.rest...)
		for wd, d := range week {
			assert.Equal(t, want.Contains(wd), c.IsRestDay(d, tt.quota, ref), "quota %d on %s", tt.quota, wd)
		}
		if tt.quota >= MinQuota && tt.quota <= MaxQuota {
			assert.Len(t, c.RestDays(tt.quota), len(tt.rest))
		} else {
			assert.Empty(t, c.RestDays(tt.quota))
		}
	}
}

func TestIsRestDay_OutsideReferenceMonth(t *testing.T) {
	c := NewClassifier(nil)
	ref := day(2026, time.October, 15)
	for quota := -1; quota <= 8; quota++ {
		for _, d := range []time.Time{day(2026, time.September, 30), day(2026, time.November, 4), day(2025, time.October, 15)} {
			assert.False(t, c.IsRestDay(d, quota, ref), "quota %d date %s", quota, d)
		}
	}
}

func TestIsRestDay_DependsOnlyOnWeekdayAndQuota(t *testing.T) {
	c := NewClassifier(nil)
	base := day(2026, time.October, 14)
	for quota := 0; quota <= 7; quota++ {
		want := c.IsRestDay(base, quota, base)
		for weeks := -300; weeks <= 300; weeks += 13 {
			d := base.AddDate(0, 0, 7*weeks)
			assert.Equal(t, want, c.IsRestDay(d, quota, d), "quota %d date %s", quota, d)
		}
	}
}

func TestIsRestDay_QuotaExtremes(t *testing.T) {
	c := NewClassifier(nil)
	ref := day(2026, time.February, 1)
	for d := ref; d.Month() == time.February; d = d.AddDate(0, 0, 1) {
		assert.False(t, c.IsRestDay(d, 0, ref))
		assert.True(t, c.IsRestDay(d, 7, ref))
	}
}

func TestDefaultTable_NotMonotonic(t *testing.T) {
	table := DefaultTable()
	assert.False(t, table.Monotonic())
	assert.False(t, table[3].IsSubsetOf(table[4]))
	assert.True(t, table[1].IsSubsetOf(table[3]))
	for q := MinQuota; q <= MaxQuota; q++ {
		assert.Equal(t, q, table[q].Len(), "quota %d", q)
	}
}

func TestParseTable_Override(t *testing.T) {
	table, err := ParseTable(`
[rest_days]
"3" = ["Tue", "thursday", "SAT"]
`)
	require.NoError(t, err)

	c := NewClassifier(table)
	assert.True(t, c.IsRestWeekday(time.Tuesday, 3))
	assert.True(t, c.IsRestWeekday(time.Saturday, 3))
	assert.False(t, c.IsRestWeekday(time.Monday, 3))
	// untouched quotas keep the defaults
	assert.True(t, c.IsRestWeekday(time.Wednesday, 1))
}

func TestParseTable_Errors(t *testing.T) {
	_, err := ParseTable(`[rest_days]
"9" = ["mon"]`)
	assert.Error(t, err)

	_, err = ParseTable(`[rest_days]
"2" = ["funday"]`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownWeekday))

	_, err = ParseTable(`rest_days = [`)
	assert.Error(t, err)
}

func TestLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rest_days.toml")
	require.NoError(t, os.WriteFile(path, []byte("[rest_days]\n\"1\" = [\"sun\"]\n"), 0o644))

	table, err := LoadTable(path)
	require.NoError(t, err)
	assert.Equal(t, NewWeekdaySet(time.Sunday), table[1])

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
