// Package heatmap projects punch timestamps onto the fixed-grid "growth
// wall" calendar the mobile client renders. The projection is a pure
// function of the events, the window size and an injected "now", so it is
// trivially testable and identical on every call.
package heatmap

import "time"

const (
	// Rows is the number of weekday rows; columns are weeks.
	Rows = 7
	// DefaultWeeks is the window the client renders by default.
	DefaultWeeks = 20
	// MaxIntensity saturates per-day event counts into ordinal buckets.
	MaxIntensity = 4
)

// Cell is one day bucket of the grid. Week counts columns left to right
// (0 = oldest), Weekday is the row with Sunday = 0. MonthAnchor marks the
// first day of a month (the caller renders the month label above that
// column); WeekdayAnchor marks the Mon/Wed/Fri rows that carry weekday
// labels. Anchors come out of the same day-walk as the cells so they can
// never misalign with them.
type Cell struct {
	Day           time.Time  `json:"date"`
	Week          int        `json:"week"`
	Weekday       int        `json:"weekday"`
	Intensity     int        `json:"intensity"`
	MonthAnchor   bool       `json:"monthAnchor,omitempty"`
	Month         time.Month `json:"month,omitempty"`
	WeekdayAnchor bool       `json:"weekdayAnchor,omitempty"`
}

// Grid is a weeks x 7 matrix of day buckets. Cells are emitted in
// day-walk order, newest first; use At for positional lookup.
type Grid struct {
	Weeks int    `json:"weeks"`
	Cells []Cell `json:"cells"`
}

// At returns the cell at (week, weekday), if present. The oldest column
// may be partially filled when the walk stops at weeks*7 cells.
func (g Grid) At(week, weekday int) (Cell, bool) {
	for _, c := range g.Cells {
		if c.Week == week && c.Weekday == weekday {
			return c, true
		}
	}
	return Cell{}, false
}

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time, loc *time.Location) dayKey {
	l := t.In(loc)
	return dayKey{l.Year(), l.Month(), l.Day()}
}

// Project buckets events into a weeks x 7 grid whose rightmost column is
// the current week: today sits at (weeks-1, now.Weekday()) and the walk
// steps one calendar day at a time from the Saturday of that week down to
// the Sunday of the oldest one, filling rows upward and then columns
// leftward, for exactly weeks*7 cells. The few cells of the current week
// after today lie in the future and therefore always bucket to zero.
// weeks <= 0 yields an empty grid. Per-day intensity is min(count, 4);
// days without events get 0.
func Project(events []time.Time, weeks int, now time.Time) Grid {
	if weeks <= 0 {
		return Grid{Weeks: 0, Cells: []Cell{}}
	}

	loc := now.Location()
	counts := make(map[dayKey]int, len(events))
	for _, e := range events {
		counts[keyOf(e, loc)]++
	}

	total := weeks * Rows
	cells := make([]Cell, 0, total)

	today := time.Date(now.In(loc).Year(), now.In(loc).Month(), now.In(loc).Day(), 0, 0, 0, 0, loc)
	col := weeks - 1
	row := Rows - 1
	day := today.AddDate(0, 0, (Rows-1)-int(today.Weekday()))

	for i := 0; i < total; i++ {
		intensity := counts[keyOf(day, loc)]
		if intensity > MaxIntensity {
			intensity = MaxIntensity
		}
		c := Cell{
			Day:           day,
			Week:          col,
			Weekday:       row,
			Intensity:     intensity,
			WeekdayAnchor: row == 1 || row == 3 || row == 5,
		}
		if day.Day() == 1 {
			c.MonthAnchor = true
			c.Month = day.Month()
		}
		cells = append(cells, c)

		// AddDate instead of -24h so DST transitions keep calendar days.
		day = day.AddDate(0, 0, -1)
		row--
		if row < 0 {
			row = Rows - 1
			col--
			if col < 0 {
				break
			}
		}
	}

	return Grid{Weeks: weeks, Cells: cells}
}
