package model

import "time"

// PatternType selects the step rule of a recurrence pattern.
type PatternType string

const (
	PatternDaily    PatternType = "daily"
	PatternWeekly   PatternType = "weekly"
	PatternMonthly  PatternType = "monthly"
	PatternInterval PatternType = "custom-interval"
)

// RecurrencePattern describes how occurrences of one title repeat.
//
// LastGeneratedDate is the checkpoint of periodic expansion: every date up to
// and including it has already been materialized. It only moves forward and
// never past EndDate.
type RecurrencePattern struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	UserID            uint        `gorm:"index" json:"userId"`
	Type              PatternType `json:"type"`
	StartDate         time.Time   `json:"startDate"`
	EndDate           *time.Time  `json:"endDate,omitempty"`
	IntervalDays      *int        `json:"intervalDays,omitempty"`
	LastGeneratedDate *time.Time  `json:"lastGeneratedDate,omitempty"`
	Active            bool        `gorm:"default:true;index" json:"active"`

	// Template copied onto every generated occurrence.
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	Priority         Priority `gorm:"default:medium" json:"priority"`
	EstimatedMinutes *int     `json:"estimatedMinutes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Occurrence builds the occurrence of this pattern on date.
func (p RecurrencePattern) Occurrence(date time.Time) Task {
	id := p.ID
	return Task{
		UserID:           p.UserID,
		Title:            p.Title,
		Description:      p.Description,
		Date:             date,
		EndDate:          p.EndDate,
		Status:           StatusPending,
		Category:         p.Category,
		Priority:         p.Priority.Normalize(),
		EstimatedMinutes: p.EstimatedMinutes,
		IsRecurring:      true,
		PatternID:        &id,
	}
}
