package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

func TestExpandAll_IdempotentForSameToday(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addPattern(t, model.RecurrencePattern{Type: model.PatternDaily, StartDate: calendar.Date(2024, 1, 1)})
	today := calendar.Date(2024, 1, 5)

	first, err := env.recurrence.ExpandAll(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Created)

	second, err := env.recurrence.ExpandAll(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Failed)

	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"}, taskDates(env.allTasks(t)))
}

func TestExpandPattern_StaleCheckpointDoesNotDuplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.addPattern(t, model.RecurrencePattern{Type: model.PatternDaily, StartDate: calendar.Date(2024, 1, 1)})
	today := calendar.Date(2024, 1, 3)

	// Two triggers both holding the pattern as read before either ran.
	first, err := env.recurrence.ExpandPattern(ctx, p, today)
	require.NoError(t, err)
	second, err := env.recurrence.ExpandPattern(ctx, p, today)
	require.NoError(t, err)

	assert.Equal(t, 3, first.Created)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Existing)
	assert.Len(t, env.allTasks(t), 3)
}

func TestExpandAll_AdvancesCheckpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.addPattern(t, model.RecurrencePattern{Type: model.PatternWeekly, StartDate: calendar.Date(2024, 1, 1)})

	_, err := env.recurrence.ExpandAll(ctx, calendar.Date(2024, 1, 10))
	require.NoError(t, err)

	stored, err := env.patterns.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastGeneratedDate)
	assert.Equal(t, "2024-01-10", calendar.Key(*stored.LastGeneratedDate))

	// An older "today" never moves the checkpoint back.
	_, err = env.recurrence.ExpandAll(ctx, calendar.Date(2024, 1, 8))
	require.NoError(t, err)
	stored, err = env.patterns.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-10", calendar.Key(*stored.LastGeneratedDate))

	_, err = env.recurrence.ExpandAll(ctx, calendar.Date(2024, 1, 15))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08", "2024-01-15"}, taskDates(env.allTasks(t)))
}

func TestExpandAll_MonthlyClamp(t *testing.T) {
	env := newTestEnv(t)
	env.addPattern(t, model.RecurrencePattern{Type: model.PatternMonthly, StartDate: calendar.Date(2024, 1, 31)})

	_, err := env.recurrence.ExpandAll(context.Background(), calendar.Date(2024, 5, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30", "2024-05-31"}, taskDates(env.allTasks(t)))
}

func TestExpandAll_SkipsMalformedAndContinues(t *testing.T) {
	env := newTestEnv(t)
	env.addPattern(t, model.RecurrencePattern{Type: model.PatternInterval, Title: "broken", StartDate: calendar.Date(2024, 1, 1)})
	env.addPattern(t, model.RecurrencePattern{Type: "yearly", Title: "unknown", StartDate: calendar.Date(2024, 1, 1)})
	env.addPattern(t, model.RecurrencePattern{Type: model.PatternDaily, Title: "fine", StartDate: calendar.Date(2024, 1, 1)})

	report, err := env.recurrence.ExpandAll(context.Background(), calendar.Date(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Patterns)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 2, report.Created)
}

func TestExpandAll_DeactivatesFinishedPattern(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.addPattern(t, model.RecurrencePattern{
		Type:      model.PatternDaily,
		StartDate: calendar.Date(2024, 1, 1),
		EndDate:   datePtr(2024, 1, 3),
	})

	report, err := env.recurrence.ExpandAll(ctx, calendar.Date(2024, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, 3, report.Created)

	stored, err := env.patterns.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	assert.Equal(t, "2024-01-03", calendar.Key(*stored.LastGeneratedDate))
}

func TestSpawnNext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.addPattern(t, model.RecurrencePattern{
		Type:             model.PatternWeekly,
		StartDate:        calendar.Date(2024, 1, 1),
		Category:         "home",
		Priority:         model.PriorityHigh,
		EstimatedMinutes: intPtr(20),
		Description:      "kitchen and balcony",
	})
	_, err := env.recurrence.ExpandPattern(ctx, p, calendar.Date(2024, 1, 1))
	require.NoError(t, err)
	done := env.allTasks(t)[0]

	next, err := env.recurrence.SpawnNext(ctx, done)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "2024-01-08", calendar.Key(next.Date))
	assert.Equal(t, "home", next.Category)
	assert.Equal(t, model.PriorityHigh, next.Priority)
	assert.Equal(t, 20, *next.EstimatedMinutes)
	assert.Equal(t, "kitchen and balcony", next.Description)
	assert.Equal(t, p.ID, *next.PatternID)
	assert.True(t, next.IsRecurring)

	again, err := env.recurrence.SpawnNext(ctx, done)
	require.NoError(t, err)
	assert.Nil(t, again, "an existing occurrence already covers the next date")
	assert.Len(t, env.allTasks(t), 2)
}

func TestSpawnNext_StopsAtEndDate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.addPattern(t, model.RecurrencePattern{
		Type:      model.PatternDaily,
		StartDate: calendar.Date(2024, 1, 1),
		EndDate:   datePtr(2024, 1, 3),
	})
	_, err := env.recurrence.ExpandPattern(ctx, p, calendar.Date(2024, 1, 3))
	require.NoError(t, err)

	tasks := env.allTasks(t)
	require.Len(t, tasks, 3)

	next, err := env.recurrence.SpawnNext(ctx, tasks[2])
	require.NoError(t, err)
	assert.Nil(t, next)
	assert.Len(t, env.allTasks(t), 3)
}

func TestSpawnNext_NonRecurringIsNoop(t *testing.T) {
	env := newTestEnv(t)
	next, err := env.recurrence.SpawnNext(context.Background(), model.Task{Title: "once", Date: calendar.Date(2024, 1, 1)})
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestCreateSeries_SkipsCoveredDatesAndKeepsCheckpoint(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.addPattern(t, model.RecurrencePattern{Type: model.PatternDaily, StartDate: calendar.Date(2024, 1, 1)})

	existing := p.Occurrence(calendar.Date(2024, 1, 15))
	require.NoError(t, env.tasks.Create(ctx, &existing))

	res, err := env.recurrence.CreateSeries(ctx, p, calendar.Date(2024, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, 90, res.Created)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, 0, res.Failed)
	assert.Len(t, env.allTasks(t), 91)

	stored, err := env.patterns.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastGeneratedDate)

	again, err := env.recurrence.CreateSeries(ctx, p, calendar.Date(2024, 3, 31))
	require.NoError(t, err)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 91, again.Existing)
}

func TestExpandAll_OwnersAreIsolated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := model.User{Name: "Grace"}
	require.NoError(t, env.users.Create(ctx, &other))

	env.addPattern(t, model.RecurrencePattern{Type: model.PatternDaily, StartDate: calendar.Date(2024, 1, 1)})
	theirs := model.RecurrencePattern{
		UserID: other.ID, Active: true, Title: "Water plants",
		Type: model.PatternDaily, StartDate: calendar.Date(2024, 1, 1),
	}
	require.NoError(t, env.patterns.Create(ctx, &theirs))

	report, err := env.recurrence.ExpandAll(ctx, calendar.Date(2024, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Created, "same title on the same date is fine for different owners")

}
