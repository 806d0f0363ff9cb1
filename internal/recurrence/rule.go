// Package recurrence expands recurrence patterns into concrete dates.
//
// Everything here is pure date arithmetic over civil dates; persisting the
// resulting occurrences is the caller's job.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

var (
	ErrUnknownPatternType = errors.New("unknown pattern type")
	ErrMissingInterval    = errors.New("custom-interval pattern requires a positive interval")
)

// Rule is a validated step function.
type Rule struct {
	Type         model.PatternType
	IntervalDays int
	// AnchorDay is the day of month monthly steps aim for. Months shorter
	// than AnchorDay clamp to their last day, and the next month recovers it.
	AnchorDay int
}

// ParseType accepts the canonical names plus a few spellings users type.
func ParseType(input string) (model.PatternType, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "daily", "day":
		return model.PatternDaily, nil
	case "weekly", "week":
		return model.PatternWeekly, nil
	case "monthly", "month":
		return model.PatternMonthly, nil
	case "custom-interval", "custom", "interval":
		return model.PatternInterval, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPatternType, input)
	}
}

// NewRule validates the type/interval combination.
func NewRule(t model.PatternType, intervalDays *int, anchorDay int) (Rule, error) {
	r := Rule{Type: t, AnchorDay: anchorDay}
	switch t {
	case model.PatternDaily, model.PatternWeekly, model.PatternMonthly:
	case model.PatternInterval:
		if intervalDays == nil || *intervalDays <= 0 {
			return Rule{}, ErrMissingInterval
		}
		r.IntervalDays = *intervalDays
	default:
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownPatternType, t)
	}
	return r, nil
}

// RuleFor builds the rule of a stored pattern, anchored on its start date.
func RuleFor(p model.RecurrencePattern) (Rule, error) {
	r, err := NewRule(p.Type, p.IntervalDays, p.StartDate.Day())
	if err != nil {
		return Rule{}, fmt.Errorf("pattern %d: %w", p.ID, err)
	}
	return r, nil
}

// Next returns the date one step after from.
func (r Rule) Next(from time.Time) time.Time {
	from = calendar.Day(from)
	switch r.Type {
	case model.PatternDaily:
		return from.AddDate(0, 0, 1)
	case model.PatternWeekly:
		return from.AddDate(0, 0, 7)
	case model.PatternMonthly:
		anchor := r.AnchorDay
		if anchor <= 0 {
			anchor = from.Day()
		}
		return calendar.ClampDay(from.Year(), from.Month()+1, anchor)
	case model.PatternInterval:
		return from.AddDate(0, 0, r.IntervalDays)
	default:
		// NewRule rejects unknown types; a zero Rule never advances.
		return from
	}
}
