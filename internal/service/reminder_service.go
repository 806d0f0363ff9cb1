package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/repository"
)

// Notifier delivers a message to a user.
type Notifier interface {
	Notify(ctx context.Context, user model.User, text string) error
}

// LogNotifier only logs messages; it stands in when no transport is configured.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, user model.User, text string) error {
	n.Log.Info().Uint("user_id", user.ID).Str("text", text).Msg("notification")
	return nil
}

// ReminderReport summarises one reminder or report run.
type ReminderReport struct {
	Due    int `json:"due"`
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// ReminderService emits due reminders and builds daily summaries.
type ReminderService struct {
	taskRepo  *repository.TaskRepository
	userRepo  *repository.UserRepository
	notifier  Notifier
	lookahead time.Duration
	loc       *time.Location
	log       zerolog.Logger
}

func NewReminderService(taskRepo *repository.TaskRepository, userRepo *repository.UserRepository, notifier Notifier, lookahead time.Duration, loc *time.Location, log zerolog.Logger) *ReminderService {
	return &ReminderService{
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		notifier:  notifier,
		lookahead: lookahead,
		loc:       loc,
		log:       log.With().Str("component", "reminders").Logger(),
	}
}

// SetNotifier swaps the delivery transport.
func (s *ReminderService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SendDueReminders notifies owners of pending tasks whose reminder time falls
// before now+lookahead. Each reminder is claimed in the store before it is
// sent, so overlapping runs deliver it at most once.
func (s *ReminderService) SendDueReminders(ctx context.Context, now time.Time) (ReminderReport, error) {
	var report ReminderReport
	tasks, err := s.taskRepo.ListDueReminders(ctx, now.Add(s.lookahead))
	if err != nil {
		return report, err
	}
	report.Due = len(tasks)

	users := make(map[uint]*model.User)
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		claimed, err := s.taskRepo.MarkReminded(ctx, task.ID, now)
		if err != nil {
			report.Failed++
			s.log.Error().Err(err).Uint("task_id", task.ID).Msg("claim reminder")
			continue
		}
		if !claimed {
			continue
		}

		user, ok := users[task.UserID]
		if !ok {
			user, err = s.userRepo.FindByID(ctx, task.UserID)
			if err != nil {
				report.Failed++
				s.log.Error().Err(err).Uint("user_id", task.UserID).Msg("load reminder owner")
				continue
			}
			users[task.UserID] = user
		}

		if err := s.notifier.Notify(ctx, *user, formatReminder(task, now.In(s.loc))); err != nil {
			report.Failed++
			s.log.Error().Err(err).Uint("task_id", task.ID).Msg("send reminder")
			continue
		}
		report.Sent++
	}
	return report, nil
}

// SendDailyReports sends a summary to every known user.
func (s *ReminderService) SendDailyReports(ctx context.Context, now time.Time) (ReminderReport, error) {
	var report ReminderReport
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return report, err
	}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Due++
		text, err := s.DailySummary(ctx, user, now)
		if err != nil {
			report.Failed++
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("build summary")
			continue
		}
		if err := s.notifier.Notify(ctx, user, text); err != nil {
			report.Failed++
			s.log.Error().Err(err).Uint("user_id", user.ID).Msg("send summary")
			continue
		}
		report.Sent++
	}
	return report, nil
}

// DailySummary renders today's occurrences of user as Telegram HTML.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	now = now.In(s.loc)
	today := calendar.Day(now)
	tasks, _, err := s.taskRepo.ListRange(ctx, user.ID, today, calendar.AddDays(today, 1), 0)
	if err != nil {
		return "", err
	}

	var pending, done []model.Task
	for _, task := range tasks {
		if task.IsCompleted() {
			done = append(done, task)
		} else {
			pending = append(pending, task)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool {
		pi, pj := priorityRank(pending[i].Priority), priorityRank(pending[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return pending[i].Title < pending[j].Title
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily summary</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("Mon, 02 Jan 2006")))

	builder.WriteString("🔥 <b>To do</b>\n")
	if len(pending) == 0 {
		builder.WriteString("— nothing left for today\n")
	} else {
		for _, task := range pending {
			builder.WriteString(FormatTask(task, today))
		}
	}

	builder.WriteString(fmt.Sprintf("\n✅ Done: %d of %d\n", len(done), len(tasks)))
	return strings.TrimSpace(builder.String()), nil
}

func priorityRank(p model.Priority) int {
	for i, q := range model.Priorities {
		if p.Normalize() == q {
			return i
		}
	}
	return len(model.Priorities)
}

// FormatTask renders one occurrence as a Telegram HTML line.
func FormatTask(task model.Task, today time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.IsCompleted():
		icon = "✅"
	case task.DueDate != nil && calendar.Day(*task.DueDate).Before(today):
		icon = "⚠️"
	case task.Priority.Normalize() == model.PriorityUrgent:
		icon = "🔴"
	case task.IsRecurring:
		icon = "♻️"
	}

	sb.WriteString(fmt.Sprintf("%s %s <i>#%d</i>", icon, html.EscapeString(strings.TrimSpace(task.Title)), task.ID))
	if task.Category != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(strings.TrimSpace(task.Category))))
	}
	if task.DueDate != nil && !task.IsCompleted() {
		due := calendar.Day(*task.DueDate)
		if due.Before(today) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · <b>overdue</b>", calendar.Key(due)))
		} else {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · %d day(s) left", calendar.Key(due), calendar.DaysBetween(today, due)))
		}
	}
	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatReminder(task model.Task, now time.Time) string {
	at := ""
	if task.RemindAt != nil {
		at = task.RemindAt.In(now.Location()).Format("15:04")
	}
	return fmt.Sprintf("⏰ <b>Reminder</b> %s\n%s", at, FormatTask(task, calendar.Day(now)))
}
