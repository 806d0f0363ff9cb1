package model

import "time"

// User owns occurrences, patterns and habits.
// TelegramID is set for users who talk to the bot and receive reminders there.
type User struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TelegramID *int64    `gorm:"uniqueIndex" json:"telegramId,omitempty"`
	Name       string    `json:"name"`
	Username   string    `json:"username,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
