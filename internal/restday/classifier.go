package restday

import (
	"time"

	"habittracker/backend/internal/calendar"
)

type Classifier struct {
	table Table
}

// NewClassifier uses DefaultTable when table is nil.
func NewClassifier(table Table) *Classifier {
	if table == nil {
		table = DefaultTable()
	}
	return &Classifier{table: table}
}

// IsRestDay reports whether date is a scheduled rest day for quota. Days outside referenceMonth are
// never rest days; quotas outside [0,7] never rest.
func (c *Classifier) IsRestDay(date time.Time, quota int, referenceMonth time.Time) bool {
	if !calendar.SameMonth(date, referenceMonth) {
		return false
	}
	return c.IsRestWeekday(date.Weekday(), quota)
}

func (c *Classifier) IsRestWeekday(day time.Weekday, quota int) bool {
	if quota < MinQuota || quota > MaxQuota {
		return false
	}
	return c.table[quota].Contains(day)
}

// RestDays returns the rest weekdays for quota.
func (c *Classifier) RestDays(quota int) []time.Weekday {
	if quota < MinQuota || quota > MaxQuota {
		return []time.Weekday{}
	}
	return c.table[quota].Weekdays()
}

// ForQuota binds quota, for use as a calendar.RestDayFunc.
func (c *Classifier) ForQuota(quota int) calendar.RestDayFunc {
	return func(date, referenceMonth time.Time) bool {
		return c.IsRestDay(date, quota, referenceMonth)
	}
}
