package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"recurring-planner/internal/calendar"
	"recurring-planner/internal/model"
	"recurring-planner/internal/repository"
)

type testEnv struct {
	db         *gorm.DB
	users      *repository.UserRepository
	tasks      *repository.TaskRepository
	patterns   *repository.PatternRepository
	recurrence *RecurrenceService
	migration  *MigrationService
	taskSvc    *TaskService
	analytics  *AnalyticsService
	user       *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		db:       db,
		users:    repository.NewUserRepository(db),
		tasks:    repository.NewTaskRepository(db),
		patterns: repository.NewPatternRepository(db),
	}
	env.recurrence = NewRecurrenceService(env.tasks, env.patterns, zerolog.Nop())
	env.migration = NewMigrationService(env.tasks, zerolog.Nop())
	env.taskSvc = NewTaskService(env.tasks, env.patterns, env.recurrence, time.UTC, zerolog.Nop())
	env.analytics = NewAnalyticsService(env.tasks, AnalyticsLimits{LookbackYears: 5, RecordCap: 10000}, time.UTC)

	user := model.User{Name: "Ada"}
	require.NoError(t, env.users.Create(context.Background(), &user))
	env.user = &user
	return env
}

func (e *testEnv) addPattern(t *testing.T, p model.RecurrencePattern) model.RecurrencePattern {
	t.Helper()
	p.UserID = e.user.ID
	p.Active = true
	if p.Title == "" {
		p.Title = "Water plants"
	}
	require.NoError(t, e.patterns.Create(context.Background(), &p))
	return p
}

func (e *testEnv) allTasks(t *testing.T) []model.Task {
	t.Helper()
	var tasks []model.Task
	require.NoError(t, e.db.Order("date ASC, id ASC").Find(&tasks).Error)
	return tasks
}

func taskDates(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = calendar.Key(task.Date)
	}
	return out
}

func intPtr(v int) *int { return &v }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := calendar.Date(y, m, d)
	return &t
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent map[uint][]string
}

func (n *recordingNotifier) Notify(_ context.Context, user model.User, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[uint][]string)
	}
	n.sent[user.ID] = append(n.sent[user.ID], text)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	total := 0
	for _, msgs := range n.sent {
		total += len(msgs)
	}
	return total
}
