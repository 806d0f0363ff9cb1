package model

import "time"

// Habit is a recurring behaviour tracked by daily check-ins rather than occurrences.
type Habit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HabitLog records a check-in; a habit is logged at most once per civil date.
type HabitLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	HabitID   uint      `gorm:"index;uniqueIndex:idx_habit_log_day" json:"habitId"`
	Date      time.Time `gorm:"uniqueIndex:idx_habit_log_day" json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}
