package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recurring-planner/internal/model"
)

// HabitRepository handles habits and their daily check-ins.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, h *model.Habit) error {
	if err := r.db.WithContext(ctx).Create(h).Error; err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (r *HabitRepository) FindByID(ctx context.Context, userID, habitID uint) (*model.Habit, error) {
	var h model.Habit
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, habitID).First(&h).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// Log records a check-in for date; logging the same date twice is a no-op.
func (r *HabitRepository) Log(ctx context.Context, habitID uint, date time.Time) (bool, error) {
	entry := model.HabitLog{HabitID: habitID, Date: date}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "habit_id"}, {Name: "date"}}, DoNothing: true}).
		Create(&entry)
	if res.Error != nil {
		return false, fmt.Errorf("log habit: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Dates returns every check-in date of the habit.
func (r *HabitRepository) Dates(ctx context.Context, habitID uint) ([]time.Time, error) {
	var dates []time.Time
	if err := r.db.WithContext(ctx).Model(&model.HabitLog{}).
		Where("habit_id = ?", habitID).
		Order("date ASC").
		Pluck("date", &dates).Error; err != nil {
		return nil, fmt.Errorf("habit dates: %w", err)
	}
	return dates, nil
}
