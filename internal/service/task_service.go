package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title            string
	Description      string
	Category         string
	Priority         model.Priority
	Date             *time.Time // defaults to today
	DueDate          *time.Time
	EstimatedMinutes *int
	RemindAt         *time.Time
	Recurrence       *RecurrenceInput
}

// RecurrenceInput turns a task into a recurring series starting at its date.
type RecurrenceInput struct {
	Type         string
	IntervalDays *int
	EndDate      *time.Time
	// Upfront writes the whole series through EndDate at once instead of
	// letting periodic expansion materialize it day by day.
	Upfront bool
}

// CreateResult is what CreateTask produced.
type CreateResult struct {
	Task    *model.Task              `json:"task,omitempty"`
	Pattern *model.RecurrencePattern `json:"pattern,omitempty"`
	Batch   *BatchResult             `json:"batch,omitempty"`
}

// CompleteResult carries the completed task and, for recurring ones, the
// occurrence spawned after it.
type CompleteResult struct {
	Task *model.Task `json:"task"`
	Next *model.Task `json:"next,omitempty"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo    *repository.TaskRepository
	patternRepo *repository.PatternRepository
	recurrence  *RecurrenceService
	loc         *time.Location
	log         zerolog.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, patternRepo *repository.PatternRepository, rec *RecurrenceService, loc *time.Location, log zerolog.Logger) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		patternRepo: patternRepo,
		recurrence:  rec,
		loc:         loc,
		log:         log.With().Str("component", "tasks").Logger(),
	}
}

func (s *TaskService) today(now time.Time) time.Time {
	return calendar.Day(now.In(s.loc))
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := calendar.Day(*t)
	return &d
}

func (s *TaskService) CreateTask(ctx context.Context, userID uint, input TaskInput, now time.Time) (CreateResult, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return CreateResult{}, invalid("title is required")
	}
	if input.EstimatedMinutes != nil && *input.EstimatedMinutes < 0 {
		return CreateResult{}, invalid("estimate must not be negative")
	}

	date := s.today(now)
	if input.Date != nil {
		date = calendar.Day(*input.Date)
	}

	if input.Recurrence != nil {
		return s.createRecurring(ctx, userID, input, date, now)
	}

	task := model.Task{
		UserID:           userID,
		Title:            input.Title,
		Description:      input.Description,
		Date:             date,
		DueDate:          dayPtr(input.DueDate),
		Status:           model.StatusPending,
		Category:         strings.TrimSpace(input.Category),
		Priority:         input.Priority.Normalize(),
		EstimatedMinutes: input.EstimatedMinutes,
	}
	if input.RemindAt != nil {
		at := input.RemindAt.UTC()
		task.RemindAt = &at
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return CreateResult{}, ErrConflict
		}
		return CreateResult{}, err
	}
	return CreateResult{Task: &task}, nil
}

func (s *TaskService) createRecurring(ctx context.Context, userID uint, input TaskInput, start, now time.Time) (CreateResult, error) {
	rec := input.Recurrence
	kind, err := recurrence.ParseType(rec.Type)
	if err != nil {
		return CreateResult{}, invalid("%v", err)
	}
	if rec.EndDate != nil && calendar.Day(*rec.EndDate).Before(start) {
		return CreateResult{}, invalid("end date is before start date")
	}
	if rec.Upfront && rec.EndDate == nil {
		return CreateResult{}, invalid("up-front series need an end date")
	}

	pattern := model.RecurrencePattern{
		UserID:           userID,
		Type:             kind,
		StartDate:        start,
		EndDate:          dayPtr(rec.EndDate),
		IntervalDays:     rec.IntervalDays,
		Active:           true,
		Title:            input.Title,
		Description:      input.Description,
		Category:         strings.TrimSpace(input.Category),
		Priority:         input.Priority.Normalize(),
		EstimatedMinutes: input.EstimatedMinutes,
	}
	if _, err := recurrence.RuleFor(pattern); err != nil {
		return CreateResult{}, invalid("%v", err)
	}
	if err := s.patternRepo.Create(ctx, &pattern); err != nil {
		return CreateResult{}, err
	}

	var batch BatchResult
	if rec.Upfront {
		batch, err = s.recurrence.CreateSeries(ctx, pattern, *pattern.EndDate)
	} else {
		batch, err = s.recurrence.ExpandPattern(ctx, pattern, s.today(now))
	}
	if err != nil {
		return CreateResult{Pattern: &pattern}, err
	}
	return CreateResult{Pattern: &pattern, Batch: &batch}, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, notFound(err, "task")
	}
	return task, nil
}

// ListDay returns the user's occurrences scheduled on day.
func (s *TaskService) ListDay(ctx context.Context, userID uint, day time.Time) ([]model.Task, error) {
	day = calendar.Day(day)
	tasks, _, err := s.taskRepo.ListRange(ctx, userID, day, calendar.AddDays(day, 1), 0)
	return tasks, err
}

// ListToday is ListDay for the current day in the service's time zone.
func (s *TaskService) ListToday(ctx context.Context, userID uint, now time.Time) ([]model.Task, error) {
	return s.ListDay(ctx, userID, s.today(now))
}

// CompleteTask marks a task as done. For recurring tasks the following
// occurrence is spawned right away; failing to spawn it is logged, not
// returned, because periodic expansion will catch up.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uint, actualMinutes *int, now time.Time) (CompleteResult, error) {
	if actualMinutes != nil && *actualMinutes < 0 {
		return CompleteResult{}, invalid("actual time must not be negative")
	}
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return CompleteResult{}, err
	}
	if task.IsCompleted() {
		return CompleteResult{Task: task}, nil
	}

	task.MarkCompleted(now.UTC())
	if actualMinutes != nil {
		task.ActualMinutes = actualMinutes
	}
	if err := s.taskRepo.SaveStatus(ctx, task); err != nil {
		return CompleteResult{}, err
	}

	res := CompleteResult{Task: task}
	if task.IsRecurring {
		next, err := s.recurrence.SpawnNext(ctx, *task)
		if err != nil {
			s.log.Error().Err(err).Uint("task_id", task.ID).Msg("spawn next occurrence")
		}
		res.Next = next
	}
	return res, nil
}

// ReopenTask moves a completed task back to pending.
func (s *TaskService) ReopenTask(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	task, err := s.GetTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsCompleted() {
		return task, nil
	}
	task.MarkPending()
	if err := s.taskRepo.SaveStatus(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes one occurrence. The pattern of a recurring occurrence
// is left alone; its later dates are still generated.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	if err := s.taskRepo.Delete(ctx, userID, taskID); err != nil {
		return notFound(err, "task")
	}
	return nil
}
