package analytics

import (
	"fmt"
	"strings"
	"time"

	"recurring-planner/internal/calendar"
)

// Period names a reporting window relative to a reference date.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodOverall Period = "overall"
	PeriodCustom  Period = "custom"
)

func ParsePeriod(input string) (Period, error) {
	p := Period(strings.TrimSpace(strings.ToLower(input)))
	switch p {
	case "":
		return PeriodWeekly, nil
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodOverall, PeriodCustom:
		return p, nil
	default:
		return "", fmt.Errorf("invalid period: %q", input)
	}
}

// Window is the half-open civil date range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days is the number of calendar days the window covers.
func (w Window) Days() int {
	return calendar.DaysBetween(w.Start, w.End)
}

func (w Window) Contains(d time.Time) bool {
	d = calendar.Day(d)
	return !d.Before(w.Start) && d.Before(w.End)
}

// Previous is the equal-length window immediately before w.
func (w Window) Previous() Window {
	return Window{Start: calendar.AddDays(w.Start, -w.Days()), End: calendar.Day(w.Start)}
}

func (w Window) valid() bool {
	return w.End.After(w.Start)
}

// PeriodWindow resolves a named period around ref. Weeks start on Sunday.
// Overall reaches back lookbackYears from ref; older records are not counted.
func PeriodWindow(p Period, ref time.Time, lookbackYears int) (Window, error) {
	day := calendar.Day(ref)
	switch p {
	case PeriodDaily:
		return Window{Start: day, End: calendar.AddDays(day, 1)}, nil
	case PeriodWeekly:
		start := calendar.WeekStart(day)
		return Window{Start: start, End: calendar.AddDays(start, 7)}, nil
	case PeriodMonthly:
		return Window{Start: calendar.MonthStart(day), End: calendar.AddDays(calendar.MonthEnd(day), 1)}, nil
	case PeriodOverall:
		if lookbackYears <= 0 {
			return Window{}, fmt.Errorf("overall lookback must be positive")
		}
		return Window{Start: day.AddDate(-lookbackYears, 0, 0), End: calendar.AddDays(day, 1)}, nil
	default:
		return Window{}, fmt.Errorf("period %q needs explicit bounds", p)
	}
}

// CustomWindow covers first through last inclusive.
func CustomWindow(first, last time.Time) (Window, error) {
	w := Window{Start: calendar.Day(first), End: calendar.AddDays(last, 1)}
	if !w.valid() {
		return Window{}, fmt.Errorf("window end %s is before start %s", calendar.Key(last), calendar.Key(first))
	}
	return w, nil
}
