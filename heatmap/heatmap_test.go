package heatmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is a Wednesday; its week runs 2024-05-12 (Sun) to 2024-05-18 (Sat).
var fixedNow = time.Date(2024, 5, 15, 12, 30, 0, 0, time.UTC)

func TestProjectGridSize(t *testing.T) {
	grid := Project(nil, 20, fixedNow)
	require.Equal(t, 20, grid.Weeks)
	require.Len(t, grid.Cells, 140)
	for _, c := range grid.Cells {
		assert.Equal(t, 0, c.Intensity)
	}

	assert.Len(t, Project(nil, 1, fixedNow).Cells, 7)
}

func TestProjectZeroOrNegativeWeeks(t *testing.T) {
	assert.Empty(t, Project(nil, 0, fixedNow).Cells)
	assert.Empty(t, Project(nil, -3, fixedNow).Cells)
	assert.Equal(t, 0, Project(nil, -3, fixedNow).Weeks)
}

func TestRightmostColumnIsToday(t *testing.T) {
	grid := Project(nil, 20, fixedNow)
	cell, ok := grid.At(19, int(fixedNow.Weekday()))
	require.True(t, ok)
	y, m, d := cell.Day.Date()
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.May, m)
	assert.Equal(t, 15, d)
}

func TestWalkCoversExactWindow(t *testing.T) {
	grid := Project(nil, 20, fixedNow)

	// bottom-right is the Saturday closing the current week
	last, ok := grid.At(19, 6)
	require.True(t, ok)
	assert.Equal(t, "2024-05-18", last.Day.Format("2006-01-02"))

	// top-left is 139 calendar days earlier, a Sunday
	first, ok := grid.At(0, 0)
	require.True(t, ok)
	assert.Equal(t, "2023-12-31", first.Day.Format("2006-01-02"))
	assert.Equal(t, time.Sunday, first.Day.Weekday())

	// every (week, weekday) position appears exactly once
	seen := map[[2]int]bool{}
	for _, c := range grid.Cells {
		pos := [2]int{c.Week, c.Weekday}
		require.False(t, seen[pos], "duplicate cell at %v", pos)
		seen[pos] = true
		assert.Equal(t, int(c.Day.Weekday()), c.Weekday)
	}
}

func TestIntensitySaturatesAtFour(t *testing.T) {
	day := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC) // Monday of the current week
	events := make([]time.Time, 0, 6)
	for i := 0; i < 6; i++ {
		events = append(events, day.Add(time.Duration(i)*time.Hour))
	}

	grid := Project(events, 20, fixedNow)
	for _, c := range grid.Cells {
		if c.Day.Equal(day) {
			assert.Equal(t, MaxIntensity, c.Intensity)
			continue
		}
		assert.Equal(t, 0, c.Intensity, "unexpected intensity on %s", c.Day.Format("2006-01-02"))
	}
}

func TestIntensityCountsBelowSaturation(t *testing.T) {
	day := time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC)
	events := []time.Time{day.Add(8 * time.Hour), day.Add(20 * time.Hour)}

	grid := Project(events, 20, fixedNow)
	cell, ok := grid.At(19, int(day.Weekday()))
	require.True(t, ok)
	assert.Equal(t, 2, cell.Intensity)
}

func TestMonthAnchors(t *testing.T) {
	grid := Project(nil, 20, fixedNow)
	anchors := map[string]time.Month{}
	for _, c := range grid.Cells {
		if c.MonthAnchor {
			require.Equal(t, 1, c.Day.Day())
			anchors[c.Day.Format("2006-01-02")] = c.Month
		} else {
			assert.NotEqual(t, 1, c.Day.Day())
		}
	}
	// window 2023-12-31 .. 2024-05-18 contains five month starts
	assert.Len(t, anchors, 5)
	assert.Equal(t, time.May, anchors["2024-05-01"])
	assert.Equal(t, time.January, anchors["2024-01-01"])
}

func TestWeekdayAnchors(t *testing.T) {
	grid := Project(nil, 4, fixedNow)
	for _, c := range grid.Cells {
		want := c.Weekday == 1 || c.Weekday == 3 || c.Weekday == 5
		assert.Equal(t, want, c.WeekdayAnchor)
	}
}

func TestProjectDeterministic(t *testing.T) {
	events := []time.Time{
		time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 4, 1, 23, 59, 0, 0, time.UTC),
	}
	assert.Equal(t, Project(events, 20, fixedNow), Project(events, 20, fixedNow))
}

func TestEventsBucketInNowLocation(t *testing.T) {
	east := time.FixedZone("UTC+8", 8*3600)
	// 2024-05-14 23:00 UTC is already 2024-05-15 in UTC+8
	event := time.Date(2024, 5, 14, 23, 0, 0, 0, time.UTC)
	nowEast := time.Date(2024, 5, 15, 12, 0, 0, 0, east)

	grid := Project([]time.Time{event}, 2, nowEast)
	cell, ok := grid.At(1, int(nowEast.Weekday()))
	require.True(t, ok)
	assert.Equal(t, 1, cell.Intensity)
}
