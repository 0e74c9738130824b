// Package schedule runs integrity validation on a cron schedule.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/example/chore/internal/ports/primary"
)

// cronParser parses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow,
)

// Config holds the dependencies for the validation scheduler.
type Config struct {
	Validator primary.IntegrityService
	Spec      string // cron expression
	Repair    bool
	Logger    *slog.Logger
	Interval  time.Duration // tick interval; defaults to 1 second if zero
	Now       func() time.Time
	// OnReport, if set, receives every report produced.
	OnReport func(*primary.IntegrityReport)
}

// Scheduler fires IntegrityService.Validate whenever the cron schedule is due.
type Scheduler struct {
	validator primary.IntegrityService
	schedule  cronlib.Schedule
	repair    bool
	logger    *slog.Logger
	interval  time.Duration
	now       func() time.Time
	onReport  func(*primary.IntegrityReport)

	mu      sync.Mutex
	nextRun time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new Scheduler. It fails if the cron spec is invalid.
func NewScheduler(cfg Config) (*Scheduler, error) {
	sched, err := cronParser.Parse(cfg.Spec)
	if err != nil {
		return nil, fmt.Errorf("invalid validate_schedule %q: %w", cfg.Spec, err)
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		validator: cfg.Validator,
		schedule:  sched,
		repair:    cfg.Repair,
		logger:    logger,
		interval:  interval,
		now:       now,
		onReport:  cfg.OnReport,
	}, nil
}

// Start begins the scheduler loop in a background goroutine. The first run
// happens at the first scheduled time after Start.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.nextRun = s.schedule.Next(s.now())
	next := s.nextRun
	s.mu.Unlock()

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info("validation scheduler started", "repair", s.repair, "next_run_at", next)
}

// Stop cancels the scheduler loop and waits for it to exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("validation scheduler stopped")
}

// NextRun returns the next time validation is due.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick runs validation if the schedule is due and advances the next run.
// Runs missed while a validation was in progress are skipped, not queued.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()
	s.mu.Lock()
	due := !now.Before(s.nextRun)
	if due {
		s.nextRun = s.schedule.Next(now)
	}
	next := s.nextRun
	s.mu.Unlock()
	if !due {
		return
	}

	report, err := s.validator.Validate(ctx, s.repair)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("scheduled validation failed", "error", err)
		return
	}
	s.logger.Info("scheduled validation",
		"violations", len(report.Violations),
		"repairs", len(report.Repairs),
		"next_run_at", next)
	if s.onReport != nil {
		s.onReport(report)
	}
}

// NextRunTime parses the cron expression and returns the next run time after the given time.
func NextRunTime(spec string, after time.Time) (time.Time, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after), nil
}
