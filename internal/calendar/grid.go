package calendar

import "time"

const (
	Weeks       = 6
	DaysPerWeek = 7
	GridCells   = Weeks * DaysPerWeek

	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Grid is a month laid out as six full weeks starting on the configured week start day.
type Grid [Weeks][DaysPerWeek]time.Time

// Day truncates t to midnight of its calendar day in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FirstOfMonth returns midnight of the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func SameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}

// WeekdayOffset is the number of days between the week start and the first day of ref's month.
func WeekdayOffset(ref time.Time, weekStart time.Weekday) int {
	first := FirstOfMonth(ref)
	return (int(first.Weekday()) - int(weekStart) + DaysPerWeek) % DaysPerWeek
}

// BuildMonthGrid lays out the month containing ref as 42 consecutive days, padded with days from the
// neighbouring months so the first cell falls on weekStart.
func BuildMonthGrid(ref time.Time, weekStart time.Weekday) Grid {
	first := FirstOfMonth(ref)
	start := first.AddDate(0, 0, -WeekdayOffset(ref, weekStart))

	var grid Grid
	for i := 0; i < GridCells; i++ {
		grid[i/DaysPerWeek][i%DaysPerWeek] = start.AddDate(0, 0, i)
	}
	return grid
}

// Dates flattens the grid in display order.
func (g Grid) Dates() []time.Time {
	dates := make([]time.Time, 0, GridCells)
	for _, week := range g {
		dates = append(dates, week[:]...)
	}
	return dates
}

// WeekdayHeaders returns the weekday column order for a grid starting on weekStart.
func WeekdayHeaders(weekStart time.Weekday) [DaysPerWeek]time.Weekday {
	var headers [DaysPerWeek]time.Weekday
	for i := range headers {
		headers[i] = time.Weekday((int(weekStart) + i) % DaysPerWeek)
	}
	return headers
}
