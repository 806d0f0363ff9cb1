package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/recurrence"
	"recurring-planner/internal/repository"
)

// BatchResult counts the outcome of writing a set of occurrences.
type BatchResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Failed   int `json:"failed"`
}

func (b *BatchResult) add(o BatchResult) {
	b.Created += o.Created
	b.Existing += o.Existing
	b.Failed += o.Failed
}

// ExpansionReport summarises one periodic expansion run.
type ExpansionReport struct {
	BatchResult
	Patterns int `json:"patterns"`
	// Skipped counts malformed patterns; Errored counts patterns whose
	// store access failed outright.
	Skipped int `json:"skipped"`
	Errored int `json:"errored"`
}

// RecurrenceService materializes occurrences from recurrence patterns.
//
// All writes go through TaskRepository.CreateIfAbsent, so a periodic run and
// a completion-triggered spawn may race on the same date and still leave a
// single occurrence behind.
type RecurrenceService struct {
	tasks    *repository.TaskRepository
	patterns *repository.PatternRepository
	log      zerolog.Logger
}

func NewRecurrenceService(tasks *repository.TaskRepository, patterns *repository.PatternRepository, log zerolog.Logger) *RecurrenceService {
	return &RecurrenceService{tasks: tasks, patterns: patterns, log: log.With().Str("component", "recurrence").Logger()}
}

func isMalformed(err error) bool {
	return errors.Is(err, recurrence.ErrUnknownPatternType) || errors.Is(err, recurrence.ErrMissingInterval)
}

// ExpandAll expands every active pattern up to today. One pattern failing
// never stops the others; only failing to list patterns is returned.
func (s *RecurrenceService) ExpandAll(ctx context.Context, today time.Time) (ExpansionReport, error) {
	var report ExpansionReport
	patterns, err := s.patterns.ListActive(ctx)
	if err != nil {
		return report, err
	}

	for _, p := range patterns {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Patterns++
		res, err := s.ExpandPattern(ctx, p, today)
		report.add(res)
		switch {
		case err == nil:
		case isMalformed(err):
			report.Skipped++
			s.log.Warn().Err(err).Uint("pattern_id", p.ID).Uint("user_id", p.UserID).Msg("skip malformed pattern")
		default:
			report.Errored++
			s.log.Error().Err(err).Uint("pattern_id", p.ID).Uint("user_id", p.UserID).Msg("expand pattern")
		}
	}
	return report, nil
}

// ExpandPattern materializes the dates of p after its checkpoint up to today
// and then moves the checkpoint. If some dates fail to store, the checkpoint
// stops just before the first failed date so the next run retries it.
func (s *RecurrenceService) ExpandPattern(ctx context.Context, p model.RecurrencePattern, today time.Time) (BatchResult, error) {
	var res BatchResult
	exp, err := recurrence.Expand(p, today)
	if err != nil {
		return res, err
	}
	if exp.Checkpoint == nil {
		return res, nil
	}

	var firstFailure *time.Time
	for _, date := range exp.Dates {
		task := p.Occurrence(date)
		created, err := s.tasks.CreateIfAbsent(ctx, &task)
		switch {
		case err != nil:
			res.Failed++
			if firstFailure == nil {
				d := date
				firstFailure = &d
			}
			s.log.Error().Err(err).Uint("pattern_id", p.ID).Str("date", calendar.Key(date)).Msg("create occurrence")
		case created:
			res.Created++
		default:
			res.Existing++
		}
	}

	checkpoint := *exp.Checkpoint
	if firstFailure != nil {
		checkpoint = calendar.AddDays(*firstFailure, -1)
	}
	if _, err := s.patterns.AdvanceCheckpoint(ctx, p.ID, checkpoint); err != nil {
		return res, err
	}
	if firstFailure == nil && p.EndDate != nil && !checkpoint.Before(calendar.Day(*p.EndDate)) {
		if err := s.patterns.Deactivate(ctx, p.ID); err != nil {
			return res, err
		}
		s.log.Info().Uint("pattern_id", p.ID).Msg("pattern reached its end date")
	}

	s.log.Debug().
		Uint("pattern_id", p.ID).
		Int("created", res.Created).
		Int("existing", res.Existing).
		Int("failed", res.Failed).
		Str("checkpoint", calendar.Key(checkpoint)).
		Msg("pattern expanded")
	return res, nil
}

// SpawnNext creates the occurrence that follows a just-completed recurring
// occurrence. The next date is one step from the occurrence's own date. It
// returns nil when nothing was created: the series has ended, or another
// writer already covers that date.
func (s *RecurrenceService) SpawnNext(ctx context.Context, done model.Task) (*model.Task, error) {
	if !done.IsRecurring || done.PatternID == nil {
		return nil, nil
	}
	pattern, err := s.patterns.FindByID(ctx, *done.PatternID)
	if err != nil {
		return nil, notFound(err, "pattern")
	}
	rule, err := recurrence.RuleFor(*pattern)
	if err != nil {
		return nil, err
	}

	next := rule.Next(done.Date)
	end := done.EndDate
	if pattern.EndDate != nil && (end == nil || pattern.EndDate.Before(*end)) {
		end = pattern.EndDate
	}
	if end != nil && next.After(calendar.Day(*end)) {
		return nil, nil
	}

	spawn := model.Task{
		UserID:           done.UserID,
		Title:            done.Title,
		Description:      done.Description,
		Date:             next,
		EndDate:          done.EndDate,
		Status:           model.StatusPending,
		Category:         done.Category,
		Priority:         done.Priority.Normalize(),
		EstimatedMinutes: done.EstimatedMinutes,
		IsRecurring:      true,
		PatternID:        done.PatternID,
	}
	created, err := s.tasks.CreateIfAbsent(ctx, &spawn)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, nil
	}
	return &spawn, nil
}

// CreateSeries writes every occurrence of p from its start date through last
// in one batch, leaving the pattern checkpoint alone. Dates that already have
// an occurrence are counted as existing.
func (s *RecurrenceService) CreateSeries(ctx context.Context, p model.RecurrencePattern, last time.Time) (BatchResult, error) {
	var res BatchResult
	rule, err := recurrence.RuleFor(p)
	if err != nil {
		return res, err
	}

	start, last := calendar.Day(p.StartDate), calendar.Day(last)
	existing, err := s.tasks.ExistingDates(ctx, p.UserID, p.Title, start, last)
	if err != nil {
		return res, err
	}
	covered := make(map[string]struct{}, len(existing))
	for _, d := range existing {
		covered[calendar.Key(calendar.Day(d))] = struct{}{}
	}

	var batch []model.Task
	for _, d := range recurrence.Span(rule, start, last) {
		if _, ok := covered[calendar.Key(d)]; ok {
			res.Existing++
			continue
		}
		batch = append(batch, p.Occurrence(d))
	}
	if len(batch) == 0 {
		return res, nil
	}

	n, err := s.tasks.CreateBatchIfAbsent(ctx, batch)
	if err == nil {
		res.Created += n
		res.Existing += len(batch) - n
		return res, nil
	}

	// The batch failed as a whole; retry row by row so one bad record only
	// costs itself.
	s.log.Warn().Err(err).Uint("pattern_id", p.ID).Int("size", len(batch)).Msg("batch insert failed, retrying per record")
	for i := range batch {
		created, err := s.tasks.CreateIfAbsent(ctx, &batch[i])
		switch {
		case err != nil:
			res.Failed++
			s.log.Error().Err(err).Uint("pattern_id", p.ID).Str("date", calendar.Key(batch[i].Date)).Msg("create occurrence")
		case created:
			res.Created++
		default:
			res.Existing++
		}
	}
	return res, nil
}
