package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"recurring-planner/internal/model"
)

// CategoryCount is a category label with the number of occurrences using it.
type CategoryCount struct {
	Label string
	Count int
}

// CategoryRepository reads the category labels attached to occurrences.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByUser returns the user's labels, most used first.
func (r *CategoryRepository) ListByUser(ctx context.Context, userID uint) ([]CategoryCount, error) {
	var rows []struct {
		Category string
		N        int
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("category, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("category").
		Order("n DESC, category ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	// Blank labels collapse into the uncategorized bucket.
	var out []CategoryCount
	index := make(map[string]int)
	for _, row := range rows {
		label := model.CategoryLabel(row.Category)
		if i, ok := index[label]; ok {
			out[i].Count += row.N
			continue
		}
		index[label] = len(out)
		out = append(out, CategoryCount{Label: label, Count: row.N})
	}
	return out, nil
}
