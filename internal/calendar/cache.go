package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

// GridCache memoizes month grids. A grid only depends on (month, week start, location), so entries never expire.
type GridCache struct {
	cache *freecache.Cache
}

func NewGridCache(sizeMegabytes int) *GridCache {
	if sizeMegabytes <= 0 {
		sizeMegabytes = 1
	}
	return &GridCache{cache: freecache.NewCache(sizeMegabytes * 1024 * 1024)}
}

func (c *GridCache) Get(ref time.Time, weekStart time.Weekday) Grid {
	key := []byte(fmt.Sprintf("grid::%s::%d::%s", ref.Format(MonthLayout), weekStart, ref.Location()))

	if raw, err := c.cache.Get(key); err == nil {
		if grid, ok := decodeGrid(string(raw), ref.Location()); ok {
			return grid
		}
		log.Warnf("discarding malformed cached grid for %s", ref.Format(MonthLayout))
	}

	grid := BuildMonthGrid(ref, weekStart)
	if err := c.cache.Set(key, []byte(encodeGrid(grid)), 0); err != nil {
		log.Debugf("cache month grid %s: %s", ref.Format(MonthLayout), err)
	}
	return grid
}

func encodeGrid(grid Grid) string {
	parts := make([]string, 0, GridCells)
	for _, date := range grid.Dates() {
		parts = append(parts, date.Format(DateLayout))
	}
	return strings.Join(parts, ",")
}

func decodeGrid(raw string, loc *time.Location) (Grid, bool) {
	var grid Grid
	parts := strings.Split(raw, ",")
	if len(parts) != GridCells {
		return grid, false
	}
	for i, part := range parts {
		date, err := time.ParseInLocation(DateLayout, part, loc)
		if err != nil {
			return grid, false
		}
		grid[i/DaysPerWeek][i%DaysPerWeek] = date
	}
	return grid, true
}
