package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JobFunc is a scheduled operation. now comes from the scheduler's clock, in
// the scheduler's time zone.
type JobFunc func(ctx context.Context, now time.Time) error

type scheduledJob struct {
	fn   JobFunc
	busy atomic.Bool
}

// SchedulerService wraps cron-based jobs.
//
// Each cron entry is wrapped in SkipIfStillRunning, so a slow run of one job
// never delays another. Cron runs and Trigger calls share a per-job busy
// flag: a run that finds its job busy is skipped. Two different jobs that
// touch the same records can still overlap; their writes are idempotent.
type SchedulerService struct {
	cron    *cron.Cron
	loc     *time.Location
	clock   func() time.Time
	timeout time.Duration
	log     zerolog.Logger

	mu   sync.Mutex
	jobs map[string]*scheduledJob
}

func NewSchedulerService(loc *time.Location, clock func() time.Time, timeout time.Duration, log zerolog.Logger) *SchedulerService {
	if clock == nil {
		clock = time.Now
	}
	log = log.With().Str("component", "scheduler").Logger()
	return &SchedulerService{
		cron:    cron.New(cron.WithLocation(loc), cron.WithSeconds(), cron.WithLogger(cronLogger{log})),
		loc:     loc,
		clock:   clock,
		timeout: timeout,
		log:     log,
		jobs:    make(map[string]*scheduledJob),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(name, timeStr string, job JobFunc) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.add(name, spec, job)
}

// ScheduleInterval registers a periodic job every given duration.
func (s *SchedulerService) ScheduleInterval(name string, interval time.Duration, job JobFunc) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	// Convert to cron spec: every N seconds.
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.add(name, fmt.Sprintf("@every %ds", seconds), job)
}

// Register adds a job that only runs through Trigger.
func (s *SchedulerService) Register(name string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}
	s.jobs[name] = &scheduledJob{fn: job}
	return nil
}

func (s *SchedulerService) add(name, spec string, job JobFunc) (cron.EntryID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[name]; ok {
		return 0, fmt.Errorf("job %q already registered", name)
	}

	sj := &scheduledJob{fn: job}
	logger := cronLogger{s.log.With().Str("job", name).Logger()}
	wrapped := cron.NewChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)).
		Then(cron.FuncJob(func() {
			_ = s.run(context.Background(), name, sj)
		}))
	id, err := s.cron.AddJob(spec, wrapped)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs[name] = sj
	return id, nil
}

// Trigger runs a registered job once, synchronously, outside the cron loop.
// It returns ErrJobRunning if a run of the same job is in progress.
func (s *SchedulerService) Trigger(ctx context.Context, name string) error {
	s.mu.Lock()
	job, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, name, job)
}

// Jobs lists registered job names.
func (s *SchedulerService) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *SchedulerService) run(ctx context.Context, name string, job *scheduledJob) error {
	if !job.busy.CompareAndSwap(false, true) {
		s.log.Info().Str("job", name).Msg("job still running, skipped")
		return fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	defer job.busy.Store(false)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	log := s.log.With().Str("job", name).Str("run_id", uuid.NewString()).Logger()
	started := time.Now()
	now := s.clock().In(s.loc)

	log.Info().Time("now", now).Msg("job started")
	err := job.fn(log.WithContext(ctx), now)
	if err != nil {
		log.Error().Err(err).Dur("took", time.Since(started)).Msg("job failed")
		return err
	}
	log.Info().Dur("took", time.Since(started)).Msg("job finished")
	return nil
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
