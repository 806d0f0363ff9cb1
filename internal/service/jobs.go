package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"recurring-planner/internal/calendar"
)

// Scheduled job names.
const (
	JobRollover       = "rollover"
	JobExpandPatterns = "expand-patterns"
	JobMigrateOverdue = "migrate-overdue"
	JobDueReminders   = "due-reminders"
	JobDailyReport    = "daily-report"
)

// JobSchedule says when each job fires.
type JobSchedule struct {
	RolloverTime     string
	ReportTime       string
	ReminderInterval time.Duration
}

// RegisterJobs wires the planner's scheduled operations into s.
//
// The daily rollover migrates overdue occurrences before expanding patterns,
// so yesterday's leftovers move first and today's generated occurrences
// never race them for the date. expand-patterns and migrate-overdue stay
// available to Trigger on their own.
func RegisterJobs(s *SchedulerService, sched JobSchedule, rec *RecurrenceService, mig *MigrationService, rem *ReminderService) error {
	migrate := func(ctx context.Context, now time.Time) error {
		report, err := mig.MigrateOverdue(ctx, calendar.Day(now))
		zerolog.Ctx(ctx).Info().Interface("report", report).Msg("overdue migrated")
		return err
	}
	expand := func(ctx context.Context, now time.Time) error {
		report, err := rec.ExpandAll(ctx, calendar.Day(now))
		zerolog.Ctx(ctx).Info().Interface("report", report).Msg("patterns expanded")
		return err
	}

	if _, err := s.ScheduleDaily(JobRollover, sched.RolloverTime, func(ctx context.Context, now time.Time) error {
		if err := migrate(ctx, now); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("rollover migration failed, expanding anyway")
		}
		return expand(ctx, now)
	}); err != nil {
		return err
	}
	if err := s.Register(JobMigrateOverdue, migrate); err != nil {
		return err
	}
	if err := s.Register(JobExpandPatterns, expand); err != nil {
		return err
	}

	if _, err := s.ScheduleInterval(JobDueReminders, sched.ReminderInterval, func(ctx context.Context, now time.Time) error {
		report, err := rem.SendDueReminders(ctx, now)
		if report.Due > 0 {
			zerolog.Ctx(ctx).Info().Interface("report", report).Msg("reminders sent")
		}
		return err
	}); err != nil {
		return err
	}

	if _, err := s.ScheduleDaily(JobDailyReport, sched.ReportTime, func(ctx context.Context, now time.Time) error {
		report, err := rem.SendDailyReports(ctx, now)
		zerolog.Ctx(ctx).Info().Interface("report", report).Msg("daily reports sent")
		return err
	}); err != nil {
		return err
	}
	return nil
}
