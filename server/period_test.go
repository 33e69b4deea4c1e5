package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Thursday, March 5 2026.
var now = time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)

func TestPeriodRangeToday(t *testing.T) {
	for _, period := range []string{"", "today"} {
		from, to, err := periodRange(period, now, time.UTC)
		assert.NoError(t, err, period)
		assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), from, period)
		assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), to, period)
	}
}

func TestPeriodRangeThisWeek(t *testing.T) {
	from, to, err := periodRange("this-week", now, time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), to)
	assert.Equal(t, time.Monday, from.Weekday())
}

func TestPeriodRangeThisWeekOnSunday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)
	from, _, err := periodRange("this-week", sunday, time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), from)
}

func TestPeriodRangeThisMonth(t *testing.T) {
	from, to, err := periodRange("this-month", now, time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestPeriodRangeUnknown(t *testing.T) {
	_, _, err := periodRange("fortnight", now, time.UTC)
	assert.Error(t, err)
}

func TestPeriodRangeLocalMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	from, _, err := periodRange("today", now, loc)
	assert.NoError(t, err)
	// 14:30 UTC is 19:30 local, still March 5.
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, loc), from)
}

func TestDateRangeExplicit(t *testing.T) {
	from, to, err := dateRange("2026-03-01", "2026-03-05", time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	// The end date is inclusive as a date, so the window extends to the
	// following midnight.
	assert.Equal(t, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), to)
}

func TestDateRangeDefaultsToToday(t *testing.T) {
	from, to, err := dateRange("", "", time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}

func TestDateRangeErrors(t *testing.T) {
	_, _, err := dateRange("03/01/2026", "", time.UTC)
	assert.Error(t, err)

	_, _, err = dateRange("", "garbage", time.UTC)
	assert.Error(t, err)

	_, _, err = dateRange("2026-03-05", "2026-03-01", time.UTC)
	assert.Error(t, err)
}
