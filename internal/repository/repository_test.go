package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "planner.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newUser(t *testing.T, db *gorm.DB) model.User {
	t.Helper()
	u := model.User{Name: "Lin"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), &u))
	return u
}

func TestTaskRepository_CreateIfAbsent(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	user := newUser(t, db)

	first := model.Task{UserID: user.ID, Title: "Floss", Date: calendar.Date(2024, 1, 1), Status: model.StatusPending}
	created, err := repo.CreateIfAbsent(ctx, &first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, first.ID)

	dup := model.Task{UserID: user.ID, Title: "Floss", Date: calendar.Date(2024, 1, 1), Status: model.StatusPending}
	created, err = repo.CreateIfAbsent(ctx, &dup)
	require.NoError(t, err)
	assert.False(t, created)

	err = repo.Create(ctx, &model.Task{UserID: user.ID, Title: "Floss", Date: calendar.Date(2024, 1, 1), Status: model.StatusPending})
	assert.ErrorIs(t, err, ErrDuplicate)

	n, err := repo.CreateBatchIfAbsent(ctx, []model.Task{
		{UserID: user.ID, Title: "Floss", Date: calendar.Date(2024, 1, 1), Status: model.StatusPending},
		{UserID: user.ID, Title: "Floss", Date: calendar.Date(2024, 1, 2), Status: model.StatusPending},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	dates, err := repo.ExistingDates(ctx, user.ID, "Floss", calendar.Date(2024, 1, 1), calendar.Date(2024, 1, 31))
	require.NoError(t, err)
	require.Len(t, dates, 2)
	assert.Equal(t, "2024-01-02", calendar.Key(dates[1]))
}

func TestTaskRepository_ListRangeLimit(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	user := newUser(t, db)

	for d := 1; d <= 5; d++ {
		require.NoError(t, repo.Create(ctx, &model.Task{UserID: user.ID, Title: "x", Date: calendar.Date(2024, 2, d), Status: model.StatusPending}))
	}

	tasks, truncated, err := repo.ListRange(ctx, user.ID, calendar.Date(2024, 2, 2), calendar.Date(2024, 2, 5), 0)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, tasks, 3)
	assert.Equal(t, "2024-02-02", calendar.Key(tasks[0].Date))

	tasks, truncated, err = repo.ListRange(ctx, user.ID, calendar.Date(2024, 2, 1), calendar.Date(2024, 3, 1), 2)
	require.NoError(t, err)
	assert.True(t, truncated)
	require.Len(t, tasks, 2)
	assert.Equal(t, "2024-02-04", calendar.Key(tasks[0].Date), "the cap keeps the newest rows")
	assert.Equal(t, "2024-02-05", calendar.Key(tasks[1].Date))

	tasks, truncated, err = repo.ListRange(ctx, user.ID, calendar.Date(2024, 2, 1), calendar.Date(2024, 3, 1), 5)
	require.NoError(t, err)
	assert.False(t, truncated)
	assert.Len(t, tasks, 5)

	tasks, _, err = repo.ListRange(ctx, user.ID+1, calendar.Date(2024, 2, 1), calendar.Date(2024, 3, 1), 0)
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestTaskRepository_ListOverdueNeedsPastDueDate(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	user := newUser(t, db)
	today := calendar.Date(2024, 3, 10)
	due := calendar.Date(2024, 3, 9)
	later := calendar.Date(2024, 3, 12)

	pastDue := model.Task{UserID: user.ID, Title: "Pay rent", Date: calendar.Date(2024, 3, 1), DueDate: &due, Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, &pastDue))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: user.ID, Title: "Call", Date: calendar.Date(2024, 3, 1), Status: model.StatusPending}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: user.ID, Title: "Taxes", Date: calendar.Date(2024, 3, 1), DueDate: &later, Status: model.StatusPending}))

	tasks, err := repo.ListOverdue(ctx, today)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, pastDue.ID, tasks[0].ID)
}

func TestTaskRepository_DeleteOwnTaskOnly(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	user := newUser(t, db)

	task := model.Task{UserID: user.ID, Title: "Old", Date: calendar.Date(2024, 3, 1), Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, &task))

	assert.ErrorIs(t, repo.Delete(ctx, user.ID+1, task.ID), gorm.ErrRecordNotFound)
	require.NoError(t, repo.Delete(ctx, user.ID, task.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID, task.ID), gorm.ErrRecordNotFound)

	_, err := repo.FindByID(ctx, user.ID, task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepository_RescheduleIsConditional(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	user := newUser(t, db)

	task := model.Task{UserID: user.ID, Title: "Call", Date: calendar.Date(2024, 3, 1), Status: model.StatusPending}
	require.NoError(t, repo.Create(ctx, &task))

	moved, err := repo.Reschedule(ctx, task.ID, calendar.Date(2024, 3, 4))
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.Reschedule(ctx, task.ID, calendar.Date(2024, 3, 4))
	require.NoError(t, err)
	assert.False(t, moved)

	got, err := repo.FindByID(ctx, user.ID, task.ID)
	require.NoError(t, err)
	got.MarkCompleted(time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SaveStatus(ctx, got))

	moved, err = repo.Reschedule(ctx, task.ID, calendar.Date(2024, 3, 9))
	require.NoError(t, err)
	assert.False(t, moved, "completed occurrences stay put")
}

func TestTaskRepository_Reminders(t *testing.T) {
	db := openTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()
	user := newUser(t, db)
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))

	remind := now.Add(-time.Minute).UTC()
	task := model.Task{UserID: user.ID, Title: "Pills", Date: calendar.Date(2024, 3, 1), Status: model.StatusPending, RemindAt: &remind}
	require.NoError(t, repo.Create(ctx, &task))

	due, err := repo.ListDueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)

	claimed, err := repo.MarkReminded(ctx, task.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)
	claimed, err = repo.MarkReminded(ctx, task.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed)

	due, err = repo.ListDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestPatternRepository_CheckpointOnlyMovesForward(t *testing.T) {
	db := openTestDB(t)
	repo := NewPatternRepository(db)
	ctx := context.Background()
	user := newUser(t, db)

	p := model.RecurrencePattern{UserID: user.ID, Type: model.PatternDaily, Title: "Walk", StartDate: calendar.Date(2024, 1, 1), Active: true}
	require.NoError(t, repo.Create(ctx, &p))

	moved, err := repo.AdvanceCheckpoint(ctx, p.ID, calendar.Date(2024, 1, 10))
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.AdvanceCheckpoint(ctx, p.ID, calendar.Date(2024, 1, 5))
	require.NoError(t, err)
	assert.False(t, moved)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", calendar.Key(*got.LastGeneratedDate))

	require.NoError(t, repo.Deactivate(ctx, p.ID))
	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestUserRepository_UpsertFromTelegram(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.UpsertFromTelegram(ctx, 42, "Sam", "sam")
	require.NoError(t, err)
	second, err := repo.UpsertFromTelegram(ctx, 42, "Sam K", "samk")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Sam K", got.Name)

	_, err = repo.FindByTelegramID(ctx, 7)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCategoryRepository_ListByUser(t *testing.T) {
	db := openTestDB(t)
	tasks := NewTaskRepository(db)
	ctx := context.Background()
	user := newUser(t, db)

	for i, c := range []string{"work", "work", "", "home", "work", ""} {
		require.NoError(t, tasks.Create(ctx, &model.Task{
			UserID: user.ID, Title: "t", Date: calendar.Date(2024, 1, 1+i), Status: model.StatusPending, Category: c,
		}))
	}

	got, err := NewCategoryRepository(db).ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{
		{Label: "work", Count: 3},
		{Label: model.Uncategorized, Count: 2},
		{Label: "home", Count: 1},
	}, got)
}

func TestHabitRepository_LogOncePerDay(t *testing.T) {
	db := openTestDB(t)
	repo := NewHabitRepository(db)
	ctx := context.Background()
	user := newUser(t, db)

	h := model.Habit{UserID: user.ID, Name: "Read"}
	require.NoError(t, repo.Create(ctx, &h))

	ok, err := repo.Log(ctx, h.ID, calendar.Date(2024, 1, 1))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Log(ctx, h.ID, calendar.Date(2024, 1, 1))
	require.NoError(t, err)
	assert.False(t, ok)

	dates, err := repo.Dates(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, dates, 1)

	_, err = repo.FindByID(ctx, user.ID+1, h.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
