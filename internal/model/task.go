package model

import "time"

// TaskStatus is the lifecycle state of an occurrence.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusCompleted TaskStatus = "completed"
)

// Task is one scheduled occurrence of work.
//
// (UserID, Title, Date) is unique: the store rejects a second occurrence of the
// same title on the same day, which is what makes generation safe to repeat.
// Date, EndDate and DueDate are civil dates (see package calendar); RemindAt
// is an instant, stored in UTC.
type Task struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"index;uniqueIndex:idx_task_owner_title_date" json:"userId"`
	Title            string     `gorm:"uniqueIndex:idx_task_owner_title_date" json:"title"`
	Description      string     `json:"description,omitempty"`
	Date             time.Time  `gorm:"index;uniqueIndex:idx_task_owner_title_date" json:"date"`
	EndDate          *time.Time `json:"endDate,omitempty"`
	DueDate          *time.Time `gorm:"index" json:"dueDate,omitempty"`
	Status           TaskStatus `gorm:"index;default:pending" json:"status"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	Category         string     `json:"category,omitempty"`
	Priority         Priority   `gorm:"default:medium" json:"priority"`
	EstimatedMinutes *int       `json:"estimatedMinutes,omitempty"`
	ActualMinutes    *int       `json:"actualMinutes,omitempty"`
	IsRecurring      bool       `gorm:"default:false" json:"isRecurring"`
	PatternID        *uint      `gorm:"index" json:"patternId,omitempty"`
	RemindAt         *time.Time `gorm:"index" json:"remindAt,omitempty"`
	RemindedAt       *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// IsCompleted reports whether the occurrence is done.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// MarkCompleted sets the status and completion time together.
func (t *Task) MarkCompleted(at time.Time) {
	t.Status = StatusCompleted
	t.CompletedAt = &at
}

// MarkPending reopens the occurrence; completedAt is cleared with it.
func (t *Task) MarkPending() {
	t.Status = StatusPending
	t.CompletedAt = nil
}
