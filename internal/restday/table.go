package restday

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	MinQuota = 0
	MaxQuota = 7
)

var ErrUnknownWeekday = errors.New("unknown weekday")

// WeekdaySet is a bitmask of weekdays, bit n set for time.Weekday(n).
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

func (s WeekdaySet) Contains(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			n++
		}
	}
	return n
}

// IsSubsetOf reports whether every day in s is also in other.
func (s WeekdaySet) IsSubsetOf(other WeekdaySet) bool {
	return s&^other == 0
}

func (s WeekdaySet) Weekdays() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

// Table maps a weekly rest quota to the weekdays that are rest days for it.
type Table map[int]WeekdaySet

// DefaultTable is the home screen revision of the rest-day mapping.
// It is not monotonic: quota 4 drops Wednesday and Friday from quota 3.
func DefaultTable() Table {
	return Table{
		0: 0,
		1: NewWeekdaySet(time.Wednesday),
		2: NewWeekdaySet(time.Tuesday, time.Friday),
		3: NewWeekdaySet(time.Monday, time.Wednesday, time.Friday),
		4: NewWeekdaySet(time.Monday, time.Tuesday, time.Thursday, time.Saturday),
		5: NewWeekdaySet(time.Monday, time.Tuesday, time.Thursday, time.Friday, time.Saturday),
		6: NewWeekdaySet(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday),
		7: NewWeekdaySet(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday),
	}
}

// Monotonic reports whether each quota's rest days include all rest days of the quota below it.
func (t Table) Monotonic() bool {
	for q := MinQuota + 1; q <= MaxQuota; q++ {
		if !t[q-1].IsSubsetOf(t[q]) {
			return false
		}
	}
	return true
}

type tableFile struct {
	RestDays map[string][]string `toml:"rest_days"`
}

// LoadTable reads a TOML override of the default table. Quotas missing from the file keep their
// default weekdays. Example:
//
//	[rest_days]
//	"3" = ["tue", "thu", "sat"]
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rest day table: %w", err)
	}
	return ParseTable(string(data))
}

func ParseTable(data string) (Table, error) {
	var file tableFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("decode rest day table: %w", err)
	}

	table := DefaultTable()
	keys := make([]string, 0, len(file.RestDays))
	for k := range file.RestDays {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		quota, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || quota < MinQuota || quota > MaxQuota {
			return nil, fmt.Errorf("rest day quota %q must be between %d and %d", key, MinQuota, MaxQuota)
		}

		var set WeekdaySet
		for _, name := range file.RestDays[key] {
			day, err := ParseWeekday(name)
			if err != nil {
				return nil, fmt.Errorf("rest day quota %d: %w", quota, err)
			}
			set |= NewWeekdaySet(day)
		}
		table[quota] = set
	}
	return table, nil
}

// ParseWeekday accepts English weekday names and their three-letter abbreviations, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if normalized == full || normalized == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("%w: %q", ErrUnknownWeekday, name)
}
