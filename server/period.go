package main

import (
	"fmt"
	"time"
)

// periodRange resolves a report period keyword to a [from, to) window
// measured from now in the given location. Weeks start on Monday.
func periodRange(period string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	now = now.In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch period {
	case "", "today":
		return dayStart, dayStart.AddDate(0, 0, 1), nil
	case "this-week":
		offset := (int(now.Weekday()) + 6) % 7
		weekStart := dayStart.AddDate(0, 0, -offset)
		return weekStart, weekStart.AddDate(0, 0, 7), nil
	case "this-month":
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return monthStart, monthStart.AddDate(0, 1, 0), nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("unknown period %q", period)
}

// dateRange parses optional YYYY-MM-DD bounds, defaulting both to today.
// The returned window is [from, to): the end date is inclusive as a date.
func dateRange(startDate, endDate string, loc *time.Location) (time.Time, time.Time, error) {
	today := time.Now().In(loc)
	from := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	to := from

	var err error
	if startDate != "" {
		from, err = time.ParseInLocation("2006-01-02", startDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start date %q", startDate)
		}
	}
	if endDate != "" {
		to, err = time.ParseInLocation("2006-01-02", endDate, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date %q", endDate)
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date before start date")
	}
	return from, to.AddDate(0, 0, 1), nil
}
