package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
)

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, model.User, string) error {
	return errors.New("transport down")
}

func TestSendDueReminders_DeliversOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	svc := NewReminderService(env.tasks, env.users, notifier, 5*time.Minute, time.UTC, zerolog.Nop())
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)

	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}
	env.addTask(t, model.Task{Title: "Due now", Date: calendar.Day(now), RemindAt: at(-time.Minute)})
	env.addTask(t, model.Task{Title: "Within lookahead", Date: calendar.Day(now), RemindAt: at(4 * time.Minute)})
	env.addTask(t, model.Task{Title: "Later", Date: calendar.Day(now), RemindAt: at(time.Hour)})
	done := env.addTask(t, model.Task{Title: "Done", Date: calendar.Day(now), RemindAt: at(-time.Minute)})
	done.MarkCompleted(now)
	require.NoError(t, env.tasks.SaveStatus(ctx, &done))

	report, err := svc.SendDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, ReminderReport{Due: 2, Sent: 2}, report)
	assert.Equal(t, 2, notifier.count())
	assert.Contains(t, notifier.sent[env.user.ID][0], "Due now")

	report, err = svc.SendDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Sent)
	assert.Equal(t, 2, notifier.count())
}

func TestSendDueReminders_FailedDeliveryIsCounted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewReminderService(env.tasks, env.users, failingNotifier{}, 0, time.UTC, zerolog.Nop())
	now := time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)
	remind := now.Add(-time.Minute)
	env.addTask(t, model.Task{Title: "Ping", Date: calendar.Day(now), RemindAt: &remind})

	report, err := svc.SendDueReminders(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, ReminderReport{Due: 1, Failed: 1}, report)
}

func TestDailySummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewReminderService(env.tasks, env.users, &recordingNotifier{}, 0, time.UTC, zerolog.Nop())
	now := time.Date(2024, 8, 1, 21, 0, 0, 0, time.UTC)
	today := calendar.Day(now)

	env.addTask(t, model.Task{Title: "Low <chore>", Date: today, Priority: model.PriorityLow})
	env.addTask(t, model.Task{Title: "Urgent call", Date: today, Priority: model.PriorityUrgent, Category: "work"})
	done := env.addTask(t, model.Task{Title: "Finished", Date: today})
	done.MarkCompleted(now)
	require.NoError(t, env.tasks.SaveStatus(ctx, &done))
	env.addTask(t, model.Task{Title: "Tomorrow", Date: calendar.AddDays(today, 1)})

	text, err := svc.DailySummary(ctx, *env.user, now)
	require.NoError(t, err)
	assert.Contains(t, text, "Done: 1 of 3")
	assert.Contains(t, text, "Low &lt;chore&gt;")
	assert.Contains(t, text, "<i>(work)</i>")
	assert.NotContains(t, text, "Tomorrow")
	assert.Less(t, strings.Index(text, "Urgent call"), strings.Index(text, "Low &lt;chore&gt;"))
}

func TestFormatTask_Overdue(t *testing.T) {
	today := calendar.Date(2024, 8, 1)
	line := FormatTask(model.Task{ID: 7, Title: "Invoice", DueDate: datePtr(2024, 7, 30)}, today)
	assert.Contains(t, line, "#7")
	assert.Contains(t, line, "overdue")

	line = FormatTask(model.Task{ID: 8, Title: "Invoice", DueDate: datePtr(2024, 8, 4)}, today)
	assert.Contains(t, line, "3 day(s) left")
}

