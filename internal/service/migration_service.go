package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/repository"
)

// MigrationReport summarises one overdue migration run.
type MigrationReport struct {
	Candidates int `json:"candidates"`
	Migrated   int `json:"migrated"`
	// Collisions are occurrences left in place because the owner already
	// has the same title on the target date.
	Collisions int `json:"collisions"`
	Failed     int `json:"failed"`
}

// MigrationService rolls stale pending occurrences forward.
type MigrationService struct {
	tasks *repository.TaskRepository
	log   zerolog.Logger
}

func NewMigrationService(tasks *repository.TaskRepository, log zerolog.Logger) *MigrationService {
	return &MigrationService{tasks: tasks, log: log.With().Str("component", "migration").Logger()}
}

// MigrateOverdue moves every pending occurrence whose date and due date are
// both before today onto today. Occurrences without a due date stay put.
// Status, due date and completion fields are left alone. Each row is updated
// on its own; a failure is counted and the run continues.
func (s *MigrationService) MigrateOverdue(ctx context.Context, today time.Time) (MigrationReport, error) {
	var report MigrationReport
	today = calendar.Day(today)

	candidates, err := s.tasks.ListOverdue(ctx, today)
	if err != nil {
		return report, err
	}
	report.Candidates = len(candidates)

	for _, task := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		moved, err := s.tasks.Reschedule(ctx, task.ID, today)
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			report.Collisions++
			s.log.Warn().Uint("task_id", task.ID).Uint("user_id", task.UserID).Str("title", task.Title).
				Msg("occurrence already scheduled today, leaving overdue one in place")
		case err != nil:
			report.Failed++
			s.log.Error().Err(err).Uint("task_id", task.ID).Msg("migrate occurrence")
		case moved:
			report.Migrated++
		}
	}
	return report, nil
}
