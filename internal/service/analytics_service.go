package service

import (
	"context"
	"strings"
	"time"

	"recurring-planner/internal/analytics"
	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/repository"
)

// AnalyticsLimits bound the "overall" period. Older records and records past
// the cap are not counted; the snapshot is flagged as truncated when the cap
// is hit.
type AnalyticsLimits struct {
	LookbackYears int
	RecordCap     int
}

// AnalyticsQuery selects the window of an analytics request.
type AnalyticsQuery struct {
	Period analytics.Period
	// Ref picks the day/week/month to report on; defaults to today.
	Ref *time.Time
	// First and Last bound a custom period, inclusive.
	First, Last *time.Time
}

// AnalyticsService reads snapshots and hands them to the pure calculators.
type AnalyticsService struct {
	tasks  *repository.TaskRepository
	limits AnalyticsLimits
	loc    *time.Location
}

func NewAnalyticsService(tasks *repository.TaskRepository, limits AnalyticsLimits, loc *time.Location) *AnalyticsService {
	return &AnalyticsService{tasks: tasks, limits: limits, loc: loc}
}

func (s *AnalyticsService) window(q AnalyticsQuery, today time.Time) (analytics.Window, error) {
	if q.Period == analytics.PeriodCustom {
		if q.First == nil || q.Last == nil {
			return analytics.Window{}, invalid("custom period needs start and end")
		}
		w, err := analytics.CustomWindow(*q.First, *q.Last)
		if err != nil {
			return analytics.Window{}, invalid("%v", err)
		}
		return w, nil
	}
	ref := today
	if q.Ref != nil {
		ref = calendar.Day(*q.Ref)
	}
	w, err := analytics.PeriodWindow(q.Period, ref, s.limits.LookbackYears)
	if err != nil {
		return analytics.Window{}, invalid("%v", err)
	}
	return w, nil
}

// Analytics builds the snapshot for one owner.
func (s *AnalyticsService) Analytics(ctx context.Context, userID uint, q AnalyticsQuery, now time.Time) (analytics.Snapshot, error) {
	now = now.In(s.loc)
	if q.Period == "" {
		q.Period = analytics.PeriodWeekly
	}
	w, err := s.window(q, calendar.Day(now))
	if err != nil {
		return analytics.Snapshot{}, err
	}

	limit := 0
	if q.Period == analytics.PeriodOverall {
		limit = s.limits.RecordCap
	}
	current, truncated, err := s.tasks.ListRange(ctx, userID, w.Start, w.End, limit)
	if err != nil {
		return analytics.Snapshot{}, err
	}
	prevWindow := w.Previous()
	previous, _, err := s.tasks.ListRange(ctx, userID, prevWindow.Start, prevWindow.End, limit)
	if err != nil {
		return analytics.Snapshot{}, err
	}

	return analytics.Aggregate(analytics.Input{
		Period:         q.Period,
		Window:         w,
		Tasks:          current,
		PreviousWindow: prevWindow,
		Previous:       previous,
		Now:            now,
		Truncated:      truncated,
	})
}

// Checkbook returns the title-by-date grid of weeks starting with start's week.
func (s *AnalyticsService) Checkbook(ctx context.Context, userID uint, start time.Time, weeks int) (analytics.Checkbook, error) {
	if weeks <= 0 || weeks > 52 {
		return analytics.Checkbook{}, invalid("weeks must be between 1 and 52")
	}
	first := calendar.WeekStart(start)
	tasks, _, err := s.tasks.ListRange(ctx, userID, first, calendar.AddDays(first, weeks*7), 0)
	if err != nil {
		return analytics.Checkbook{}, err
	}
	return analytics.BuildCheckbook(first, weeks, tasks)
}

// TitleStreak computes the completion streak of a recurring title. Days count
// by when occurrences were completed, in the service's time zone.
func (s *AnalyticsService) TitleStreak(ctx context.Context, userID uint, title string, now time.Time) (analytics.Streak, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return analytics.Streak{}, invalid("title is required")
	}
	tasks, err := s.tasks.ListByTitle(ctx, userID, title)
	if err != nil {
		return analytics.Streak{}, err
	}
	return analytics.Streaks(completionDates(tasks, s.loc), now.In(s.loc)), nil
}

func completionDates(tasks []model.Task, loc *time.Location) []time.Time {
	dates := make([]time.Time, 0, len(tasks))
	for _, t := range tasks {
		if t.IsCompleted() && t.CompletedAt != nil {
			dates = append(dates, t.CompletedAt.In(loc))
		}
	}
	return dates
}
