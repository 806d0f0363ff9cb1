package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"recurring-planner/internal/model"
)

// PatternRepository handles recurrence patterns.
type PatternRepository struct {
	db *gorm.DB
}

func NewPatternRepository(db *gorm.DB) *PatternRepository {
	return &PatternRepository{db: db}
}

func (r *PatternRepository) Create(ctx context.Context, p *model.RecurrencePattern) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create pattern: %w", err)
	}
	return nil
}

func (r *PatternRepository) FindByID(ctx context.Context, id uint) (*model.RecurrencePattern, error) {
	var p model.RecurrencePattern
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActive returns active patterns of every owner.
func (r *PatternRepository) ListActive(ctx context.Context) ([]model.RecurrencePattern, error) {
	var patterns []model.RecurrencePattern
	if err := r.db.WithContext(ctx).Where("active = ?", true).
		Order("user_id ASC, id ASC").
		Find(&patterns).Error; err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	return patterns, nil
}

// AdvanceCheckpoint moves LastGeneratedDate forward to to. An older or equal
// value never overwrites a newer one; the bool reports whether it moved.
func (r *PatternRepository) AdvanceCheckpoint(ctx context.Context, id uint, to time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.RecurrencePattern{}).
		Where("id = ? AND (last_generated_date IS NULL OR last_generated_date < ?)", id, to).
		Update("last_generated_date", to)
	if res.Error != nil {
		return false, fmt.Errorf("advance checkpoint: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Deactivate stops periodic expansion of a finished pattern.
func (r *PatternRepository) Deactivate(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&model.RecurrencePattern{}).
		Where("id = ?", id).
		Update("active", false).Error; err != nil {
		return fmt.Errorf("deactivate pattern: %w", err)
	}
	return nil
}
