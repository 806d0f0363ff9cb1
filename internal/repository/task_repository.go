package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recurring-planner/internal/model"
)

// ErrDuplicate is returned when a write would give an owner two occurrences of
// one title on one date.
var ErrDuplicate = errors.New("occurrence already exists for this title and date")

// TaskRepository handles occurrence records.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

var ownerTitleDate = []clause.Column{{Name: "user_id"}, {Name: "title"}, {Name: "date"}}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// CreateIfAbsent inserts task unless the owner already has the same title on
// the same date. The check and the write are one statement, so concurrent
// callers cannot both insert. It reports whether a row was created.
func (r *TaskRepository) CreateIfAbsent(ctx context.Context, task *model.Task) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: ownerTitleDate, DoNothing: true}).
		Create(task)
	if res.Error != nil {
		return false, fmt.Errorf("create task if absent: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// CreateBatchIfAbsent inserts tasks in one statement, skipping rows that
// already exist. It returns how many rows were inserted.
func (r *TaskRepository) CreateBatchIfAbsent(ctx context.Context, tasks []model.Task) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: ownerTitleDate, DoNothing: true}).
		Create(&tasks)
	if res.Error != nil {
		return 0, fmt.Errorf("create task batch: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ExistingDates returns the dates in [from, to] on which the owner already has title.
func (r *TaskRepository) ExistingDates(ctx context.Context, userID uint, title string, from, to time.Time) ([]time.Time, error) {
	var dates []time.Time
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND title = ? AND date >= ? AND date <= ?", userID, title, from, to).
		Order("date ASC").
		Pluck("date", &dates).Error; err != nil {
		return nil, fmt.Errorf("existing dates: %w", err)
	}
	return dates, nil
}

// ListRange returns the owner's occurrences dated in [start, end), oldest first.
// A positive limit keeps the most recent limit rows; the bool reports whether
// older rows were left out.
func (r *TaskRepository) ListRange(ctx context.Context, userID uint, start, end time.Time, limit int) ([]model.Task, bool, error) {
	q := r.db.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, start, end)
	if limit <= 0 {
		tasks := []model.Task{}
		if err := q.Order("date ASC, id ASC").Find(&tasks).Error; err != nil {
			return nil, false, fmt.Errorf("list tasks: %w", err)
		}
		return tasks, false, nil
	}

	tasks := []model.Task{}
	if err := q.Order("date DESC, id DESC").Limit(limit + 1).Find(&tasks).Error; err != nil {
		return nil, false, fmt.Errorf("list tasks: %w", err)
	}
	truncated := len(tasks) > limit
	if truncated {
		tasks = tasks[:limit]
	}
	for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	}
	return tasks, truncated, nil
}

// ListByTitle returns every occurrence of title for the owner.
func (r *TaskRepository) ListByTitle(ctx context.Context, userID uint, title string) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND title = ?", userID, title).
		Order("date ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks by title: %w", err)
	}
	return tasks, nil
}

// ListOverdue returns pending occurrences of every owner scheduled before
// today whose due date is also before today. Occurrences without a due date
// are never overdue.
func (r *TaskRepository) ListOverdue(ctx context.Context, today time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("status = ? AND date < ? AND due_date IS NOT NULL AND due_date < ?", model.StatusPending, today, today).
		Order("user_id ASC, date ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list overdue: %w", err)
	}
	return tasks, nil
}

// Reschedule moves a pending occurrence dated before to onto to. It reports
// false when the row no longer qualifies, which makes repeated runs no-ops.
func (r *TaskRepository) Reschedule(ctx context.Context, taskID uint, to time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND status = ? AND date < ?", taskID, model.StatusPending, to).
		Update("date", to)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return false, ErrDuplicate
		}
		return false, fmt.Errorf("reschedule task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SaveStatus persists status, completion time and actual effort.
func (r *TaskRepository) SaveStatus(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Model(task).
		Select("status", "completed_at", "actual_minutes").
		Updates(task).Error; err != nil {
		return fmt.Errorf("save task status: %w", err)
	}
	return nil
}

// ListDueReminders returns pending occurrences of every owner whose reminder
// time is at or before until and which have not been reminded yet.
func (r *TaskRepository) ListDueReminders(ctx context.Context, until time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("status = ? AND remind_at IS NOT NULL AND remind_at <= ? AND reminded_at IS NULL", model.StatusPending, until.UTC()).
		Order("remind_at ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return tasks, nil
}

// MarkReminded claims the reminder of a task. Only the first caller gets true.
func (r *TaskRepository) MarkReminded(ctx context.Context, taskID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND reminded_at IS NULL", taskID).
		Update("reminded_at", at.UTC())
	if res.Error != nil {
		return false, fmt.Errorf("mark reminded: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes one of the user's tasks. It returns gorm.ErrRecordNotFound
// when the user has no such task.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
