package model

import "strings"

// Uncategorized is reported for occurrences without a usable category label.
const Uncategorized = "uncategorized"

// CategoryLabel normalises a free-form category label.
func CategoryLabel(raw string) string {
	label := strings.TrimSpace(raw)
	if label == "" {
		return Uncategorized
	}
	return label
}

// Priority ranks occurrences.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultPriority is used when a stored value is missing or invalid.
const DefaultPriority = PriorityMedium

// Priorities lists every level from most to least pressing.
var Priorities = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Normalize maps unknown values onto DefaultPriority.
func (p Priority) Normalize() Priority {
	q := Priority(strings.ToLower(strings.TrimSpace(string(p))))
	if !q.IsValid() {
		return DefaultPriority
	}
	return q
}
