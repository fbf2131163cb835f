package calendar

import "time"

// Cell is one rendered day of the month view.
type Cell struct {
	Date               string `json:"date"`
	Day                int    `json:"day"`
	IsToday            bool   `json:"isToday"`
	IsCurrentMonth     bool   `json:"isCurrentMonth"`
	IsRestDay          bool   `json:"isRestDay"`
	IsWorkoutCompleted bool   `json:"isWorkoutCompleted"`
}

// RestDayFunc reports whether date is a rest day when viewing referenceMonth.
type RestDayFunc func(date, referenceMonth time.Time) bool

// Cells projects a grid into display cells. lastWorkout may be nil.
func Cells(grid Grid, ref, today time.Time, isRest RestDayFunc, lastWorkout *time.Time) [Weeks][DaysPerWeek]Cell {
	var cells [Weeks][DaysPerWeek]Cell
	for w, week := range grid {
		for d, date := range week {
			cell := Cell{
				Date:           date.Format(DateLayout),
				Day:            date.Day(),
				IsToday:        SameDay(date, today),
				IsCurrentMonth: SameMonth(date, ref),
			}
			if isRest != nil {
				cell.IsRestDay = isRest(date, ref)
			}
			if lastWorkout != nil {
				cell.IsWorkoutCompleted = SameDay(date, *lastWorkout)
			}
			cells[w][d] = cell
		}
	}
	return cells
}
