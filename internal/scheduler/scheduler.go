package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/DSBisht13/Weather-Union/internal/weather"
)

// Runner executes one batch run.
type Runner interface {
	Run(ctx context.Context) (weather.RunSummary, error)
}

// Scheduler periodically runs the weather fetch job.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger
	ctx       context.Context
}

// New creates a new Scheduler. Runs receive ctx, so cancelling it stops an
// in-flight run between localities.
func New(ctx context.Context, interval time.Duration, runner Runner, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run starts immediately; a run never overlaps the previous one.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.runOnce)
	if err != nil {
		return err
	}

	s.logger.Info("scheduler started", "interval", interval.String())
	s.scheduler.StartAsync()
	return nil
}

func (s *Scheduler) runOnce() {
	s.logger.Info("scheduler: running weather fetch job")
	summary, err := s.runner.Run(s.ctx)
	if err != nil {
		s.logger.Error("scheduler: run failed", "error", err)
		return
	}
	s.logger.Info("scheduler: completed weather fetch job", "run_id", summary.RunID, "records", summary.Records)
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
