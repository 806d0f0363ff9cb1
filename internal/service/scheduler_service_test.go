package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/repository"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("00:05")
	require.NoError(t, err)
	assert.Equal(t, "0 5 0 * * *", spec)

	for _, bad := range []string{"", "24:00", "12:60", "noon", "1:2:3"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestScheduler_TriggerUsesClock(t *testing.T) {
	clock := &fixedClock{}
	clock.Set(time.Date(2024, 7, 1, 0, 5, 0, 0, time.UTC))
	s := NewSchedulerService(time.UTC, clock.Now, time.Second, zerolog.Nop())

	var seen atomic.Value
	_, err := s.ScheduleDaily("tick", "00:05", func(ctx context.Context, now time.Time) error {
		assert.NotNil(t, zerolog.Ctx(ctx))
		seen.Store(now)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Trigger(context.Background(), "tick"))
	assert.Equal(t, clock.Now(), seen.Load())

	_, err = s.ScheduleInterval("tick", time.Minute, func(context.Context, time.Time) error { return nil })
	assert.Error(t, err, "names are unique")

	err = s.Trigger(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
	assert.Equal(t, []string{"tick"}, s.Jobs())
}

func TestRegisterJobs_RunOnInjectedClock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	reminders := NewReminderService(env.tasks, env.users, notifier, time.Minute, time.UTC, zerolog.Nop())

	clock := &fixedClock{}
	clock.Set(time.Date(2024, 7, 3, 0, 5, 0, 0, time.UTC))
	s := NewSchedulerService(time.UTC, clock.Now, 0, zerolog.Nop())
	require.NoError(t, RegisterJobs(s, JobSchedule{RolloverTime: "00:05", ReportTime: "21:00", ReminderInterval: time.Minute},
		env.recurrence, env.migration, reminders))
	assert.Equal(t, []string{JobDailyReport, JobDueReminders, JobExpandPatterns, JobMigrateOverdue, JobRollover}, s.Jobs())

	env.addPattern(t, model.RecurrencePattern{Type: model.PatternDaily, StartDate: calendar.Date(2024, 7, 1)})
	stale := env.addTask(t, model.Task{Title: "Reply to mail", Date: calendar.Date(2024, 6, 30), DueDate: datePtr(2024, 7, 1)})

	require.NoError(t, s.Trigger(ctx, JobExpandPatterns))
	require.NoError(t, s.Trigger(ctx, JobExpandPatterns))
	require.NoError(t, s.Trigger(ctx, JobMigrateOverdue))

	tasks := env.allTasks(t)
	assert.Len(t, tasks, 4)
	assert.Equal(t, "2024-07-03", calendar.Key(env.reload(t, stale.ID).Date))

	require.NoError(t, s.Trigger(ctx, JobDailyReport))
	assert.Equal(t, 1, notifier.count())
}

func TestRegisterJobs_RolloverMigratesThenExpands(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reminders := NewReminderService(env.tasks, env.users, &recordingNotifier{}, time.Minute, time.UTC, zerolog.Nop())

	clock := &fixedClock{}
	clock.Set(time.Date(2024, 7, 3, 0, 5, 0, 0, time.UTC))
	s := NewSchedulerService(time.UTC, clock.Now, 0, zerolog.Nop())
	require.NoError(t, RegisterJobs(s, JobSchedule{RolloverTime: "00:05", ReportTime: "21:00", ReminderInterval: time.Minute},
		env.recurrence, env.migration, reminders))

	env.addPattern(t, model.RecurrencePattern{Type: model.PatternDaily, StartDate: calendar.Date(2024, 7, 3), Title: "Stretch"})
	late := env.addTask(t, model.Task{Title: "Stretch", Date: calendar.Date(2024, 7, 2), DueDate: datePtr(2024, 7, 2)})

	require.NoError(t, s.Trigger(ctx, JobRollover))

	assert.Equal(t, "2024-07-03", calendar.Key(env.reload(t, late.ID).Date), "migration ran before expansion")
	tasks := env.allTasks(t)
	require.Len(t, tasks, 1, "expansion found today's date already taken")
}

func TestScheduler_TriggerSkipsBusyJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, nil, 0, zerolog.Nop())
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	require.NoError(t, s.Register("slow", func(context.Context, time.Time) error {
		if runs.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	}))
	assert.Error(t, s.Register("slow", func(context.Context, time.Time) error { return nil }))

	done := make(chan error, 1)
	go func() { done <- s.Trigger(context.Background(), "slow") }()
	<-started

	assert.ErrorIs(t, s.Trigger(context.Background(), "slow"), ErrJobRunning)
	close(release)
	require.NoError(t, <-done)

	require.NoError(t, s.Trigger(context.Background(), "slow"))
	assert.Equal(t, int32(2), runs.Load())
}

func TestRegisterJobs_RejectsBadSchedule(t *testing.T) {
	env := newTestEnv(t)
	reminders := NewReminderService(env.tasks, repository.NewUserRepository(env.db), &recordingNotifier{}, 0, time.UTC, zerolog.Nop())
	s := NewSchedulerService(time.UTC, nil, 0, zerolog.Nop())

	err := RegisterJobs(s, JobSchedule{RolloverTime: "25:00", ReportTime: "21:00", ReminderInterval: time.Minute},
		env.recurrence, env.migration, reminders)
	assert.Error(t, err)
}
