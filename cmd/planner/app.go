package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"recurring-planner/internal/bot"
	"recurring-planner/internal/config"
	"recurring-planner/internal/logger"
	"recurring-planner/internal/repository"
	"recurring-planner/internal/service"
)

// app holds the wired components shared by every command.
type app struct {
	cfg config.Config
	log zerolog.Logger
	db  *gorm.DB
	loc *time.Location

	users      *repository.UserRepository
	tasks      *service.TaskService
	analytics  *service.AnalyticsService
	categories *service.CategoryService
	habits     *service.HabitService
	reminders  *service.ReminderService
	scheduler  *service.SchedulerService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New("planner", cfg.LogLevel)
	loc := cfg.Location()

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	patternRepo := repository.NewPatternRepository(db)

	recurrenceSvc := service.NewRecurrenceService(taskRepo, patternRepo, log)
	migrationSvc := service.NewMigrationService(taskRepo, log)
	reminderSvc := service.NewReminderService(taskRepo, userRepo, service.LogNotifier{Log: log}, cfg.ReminderLookahead, loc, log)

	scheduler := service.NewSchedulerService(loc, time.Now, cfg.JobTimeout, log)
	if err := service.RegisterJobs(scheduler, service.JobSchedule{
		RolloverTime:     cfg.RolloverTime,
		ReportTime:       cfg.ReportTime,
		ReminderInterval: cfg.ReminderInterval,
	}, recurrenceSvc, migrationSvc, reminderSvc); err != nil {
		return nil, fmt.Errorf("schedule jobs: %w", err)
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		loc:        loc,
		users:      userRepo,
		tasks:      service.NewTaskService(taskRepo, patternRepo, recurrenceSvc, loc, log),
		analytics:  service.NewAnalyticsService(taskRepo, service.AnalyticsLimits{LookbackYears: cfg.OverallLookbackYears, RecordCap: cfg.OverallRecordCap}, loc),
		categories: service.NewCategoryService(repository.NewCategoryRepository(db)),
		habits:     service.NewHabitService(repository.NewHabitRepository(db), loc),
		reminders:  reminderSvc,
		scheduler:  scheduler,
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// telegram connects the bot and routes notifications through it. It returns
// nil when no token is configured.
func (a *app) telegram() (*bot.Bot, error) {
	if a.cfg.TelegramToken == "" {
		a.log.Warn().Msg("no telegram token, notifications are only logged")
		return nil, nil
	}
	telegramBot, err := bot.New(a.cfg.TelegramToken, bot.Services{
		Users:      a.users,
		Tasks:      a.tasks,
		Analytics:  a.analytics,
		Categories: a.categories,
		Reminders:  a.reminders,
	}, a.loc, a.log)
	if err != nil {
		return nil, err
	}
	a.reminders.SetNotifier(telegramBot)
	return telegramBot, nil
}
