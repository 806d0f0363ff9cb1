// Package calendar works with civil dates.
//
// A civil date is stored as midnight UTC of the calendar day it names, so a
// date read back from the store compares equal regardless of the zone the
// caller lives in. Use Day to convert a wall-clock instant into one.
package calendar

import (
	"time"

	"github.com/jinzhu/now"
)

// KeyLayout formats civil dates for map keys and payloads.
const KeyLayout = "2006-01-02"

// Day returns the civil date of t as seen in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a civil date by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return Day(d).AddDate(0, 0, n)
}

// Key formats a civil date as YYYY-MM-DD.
func Key(d time.Time) string {
	return d.Format(KeyLayout)
}

// Parse reads a YYYY-MM-DD string into a civil date.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(KeyLayout, s, time.UTC)
}

// DaysBetween counts calendar days from a to b (negative if b is earlier).
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(month time.Month, year int) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// ClampDay returns the civil date for day in the given month, clamped to the
// month's last day when the month is shorter.
func ClampDay(year int, month time.Month, day int) time.Time {
	// Normalise month overflow first (month 13 -> January next year).
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := DaysInMonth(first.Month(), first.Year())
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the civil date of the Sunday starting d's week.
func WeekStart(d time.Time) time.Time {
	cfg := &now.Config{WeekStartDay: time.Sunday, TimeLocation: time.UTC}
	return Day(cfg.With(Day(d)).BeginningOfWeek())
}

// MonthStart returns the first civil date of d's month.
func MonthStart(d time.Time) time.Time {
	return Day(now.With(Day(d)).BeginningOfMonth())
}

// MonthEnd returns the last civil date of d's month.
func MonthEnd(d time.Time) time.Time {
	return Day(now.With(Day(d)).EndOfMonth())
}

// Range returns every civil date in [start, end).
func Range(start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	if !end.After(start) {
		return nil
	}
	out := make([]time.Time, 0, DaysBetween(start, end))
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
