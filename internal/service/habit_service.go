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

// HabitService tracks habits and their streaks.
type HabitService struct {
	repo *repository.HabitRepository
	loc  *time.Location
}

func NewHabitService(repo *repository.HabitRepository, loc *time.Location) *HabitService {
	return &HabitService{repo: repo, loc: loc}
}

func (s *HabitService) CreateHabit(ctx context.Context, userID uint, name string) (*model.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("habit name is required")
	}
	h := model.Habit{UserID: userID, Name: name}
	if err := s.repo.Create(ctx, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// LogHabit checks the habit in on date (today when nil). It reports whether
// this was a new check-in.
func (s *HabitService) LogHabit(ctx context.Context, userID, habitID uint, date *time.Time, now time.Time) (bool, error) {
	if _, err := s.repo.FindByID(ctx, userID, habitID); err != nil {
		return false, notFound(err, "habit")
	}
	day := calendar.Day(now.In(s.loc))
	if date != nil {
		day = calendar.Day(*date)
	}
	if day.After(calendar.Day(now.In(s.loc))) {
		return false, invalid("cannot log a habit in the future")
	}
	return s.repo.Log(ctx, habitID, day)
}

func (s *HabitService) HabitStreak(ctx context.Context, userID, habitID uint, now time.Time) (analytics.Streak, error) {
	if _, err := s.repo.FindByID(ctx, userID, habitID); err != nil {
		return analytics.Streak{}, notFound(err, "habit")
	}
	dates, err := s.repo.Dates(ctx, habitID)
	if err != nil {
		return analytics.Streak{}, err
	}
	return analytics.Streaks(dates, now.In(s.loc)), nil
}
