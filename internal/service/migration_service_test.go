package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

func (e *testEnv) addTask(t *testing.T, task model.Task) model.Task {
	t.Helper()
	if task.UserID == 0 {
		task.UserID = e.user.ID
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	require.NoError(t, e.tasks.Create(context.Background(), &task))
	return task
}

func (e *testEnv) reload(t *testing.T, id uint) model.Task {
	t.Helper()
	var task model.Task
	require.NoError(t, e.db.First(&task, id).Error)
	return task
}

func TestMigrateOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	today := calendar.Date(2024, 3, 10)

	noDue := env.addTask(t, model.Task{Title: "Call bank", Date: calendar.Date(2024, 3, 7)})
	stale := env.addTask(t, model.Task{Title: "Book dentist", Date: calendar.Date(2024, 3, 7), DueDate: datePtr(2024, 3, 9)})
	pastDue := env.addTask(t, model.Task{Title: "Pay rent", Date: calendar.Date(2024, 3, 1), DueDate: datePtr(2024, 3, 5)})
	futureDue := env.addTask(t, model.Task{Title: "Tax forms", Date: calendar.Date(2024, 3, 1), DueDate: datePtr(2024, 3, 20)})
	done := env.addTask(t, model.Task{Title: "Groceries", Date: calendar.Date(2024, 3, 8)})
	done.MarkCompleted(time.Date(2024, 3, 8, 18, 0, 0, 0, time.UTC))
	require.NoError(t, env.tasks.SaveStatus(ctx, &done))
	current := env.addTask(t, model.Task{Title: "Run", Date: today})

	report, err := env.migration.MigrateOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 2, report.Migrated)
	assert.Equal(t, 0, report.Collisions)

	assert.Equal(t, "2024-03-07", calendar.Key(env.reload(t, noDue.ID).Date), "no due date means never overdue")

	got := env.reload(t, stale.ID)
	assert.Equal(t, "2024-03-10", calendar.Key(got.Date))
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Nil(t, got.CompletedAt)

	got = env.reload(t, pastDue.ID)
	assert.Equal(t, "2024-03-10", calendar.Key(got.Date))
	require.NotNil(t, got.DueDate)
	assert.Equal(t, "2024-03-05", calendar.Key(*got.DueDate), "due date is kept")

	assert.Equal(t, "2024-03-01", calendar.Key(env.reload(t, futureDue.ID).Date))
	assert.Equal(t, "2024-03-08", calendar.Key(env.reload(t, done.ID).Date))
	assert.Equal(t, "2024-03-10", calendar.Key(env.reload(t, current.ID).Date))

	again, err := env.migration.MigrateOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Migrated)
	assert.Equal(t, 0, again.Candidates)
}

func TestMigrateOverdue_CollisionLeavesOccurrenceInPlace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	today := calendar.Date(2024, 3, 10)

	old := env.addTask(t, model.Task{Title: "Stretch", Date: calendar.Date(2024, 3, 9), DueDate: datePtr(2024, 3, 9)})
	env.addTask(t, model.Task{Title: "Stretch", Date: today})
	other := env.addTask(t, model.Task{Title: "Read", Date: calendar.Date(2024, 3, 9), DueDate: datePtr(2024, 3, 9)})

	report, err := env.migration.MigrateOverdue(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Collisions)
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, 0, report.Failed)

	assert.Equal(t, "2024-03-09", calendar.Key(env.reload(t, old.ID).Date))
	assert.Equal(t, "2024-03-10", calendar.Key(env.reload(t, other.ID).Date))
}

func TestMigrateOverdue_RecurringOccurrencesStayOnTheirDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addPattern(t, model.RecurrencePattern{Type: model.PatternWeekly, StartDate: calendar.Date(2024, 3, 4)})

	_, err := env.recurrence.ExpandAll(ctx, calendar.Date(2024, 3, 4))
	require.NoError(t, err)

	report, err := env.migration.MigrateOverdue(ctx, calendar.Date(2024, 3, 6))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Candidates)
	assert.Equal(t, []string{"2024-03-04"}, taskDates(env.allTasks(t)))
}
