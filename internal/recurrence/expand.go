package recurrence

import (
	"time"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

// Expansion is the outcome of expanding one pattern up to a day.
type Expansion struct {
	Dates []time.Time
	// Checkpoint is the value LastGeneratedDate should take once every date
	// in Dates is stored. It is nil when the pattern has nothing to expand yet.
	Checkpoint *time.Time
}

// Expand lists the dates of p strictly after its checkpoint and up to and
// including today, never past the pattern's end date.
func Expand(p model.RecurrencePattern, today time.Time) (Expansion, error) {
	rule, err := RuleFor(p)
	if err != nil {
		return Expansion{}, err
	}

	today = calendar.Day(today)
	start := calendar.Day(p.StartDate)
	horizon := today
	if p.EndDate != nil && calendar.Day(*p.EndDate).Before(horizon) {
		horizon = calendar.Day(*p.EndDate)
	}
	if horizon.Before(start) {
		return Expansion{}, nil
	}

	var after time.Time
	hasCheckpoint := p.LastGeneratedDate != nil
	if hasCheckpoint {
		after = calendar.Day(*p.LastGeneratedDate)
		if !after.Before(horizon) {
			return Expansion{}, nil
		}
	}

	var dates []time.Time
	for _, d := range Span(rule, start, horizon) {
		if hasCheckpoint && !d.After(after) {
			continue
		}
		dates = append(dates, d)
	}

	checkpoint := horizon
	return Expansion{Dates: dates, Checkpoint: &checkpoint}, nil
}

// Span enumerates every date the rule produces from start through end inclusive.
func Span(rule Rule, start, end time.Time) []time.Time {
	start, end = calendar.Day(start), calendar.Day(end)
	var dates []time.Time
	for d := start; !d.After(end); {
		dates = append(dates, d)
		next := rule.Next(d)
		if !next.After(d) {
			break
		}
		d = next
	}
	return dates
}
