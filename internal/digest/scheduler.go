package digest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SchedulerConfig sets when the daily digest fires.
type SchedulerConfig struct {
	Hour     int            // wall-clock hour in Location, 0-23
	Minute   int            // wall-clock minute, 0-59
	Location *time.Location // reference timezone, defaults to UTC
}

// DefaultSchedulerConfig fires at 08:00 UTC.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Hour: 8, Minute: 0, Location: time.UTC}
}

// Scheduler fires the digest runner once daily at a fixed wall-clock
// time. Single-owner: one instance per deployment; multi-instance
// coordination needs an external lock and is out of scope here. The
// runner's own guard ensures a late-finishing run is never overlapped.
type Scheduler struct {
	runner *Runner
	cfg    SchedulerConfig
	log    *zap.SugaredLogger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	now    func() time.Time
}

// NewScheduler creates a scheduler around the runner.
func NewScheduler(ctx context.Context, runner *Runner, cfg SchedulerConfig, log *zap.SugaredLogger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	sctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		runner: runner,
		cfg:    cfg,
		log:    log,
		ctx:    sctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// Start launches the scheduling loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.run()
	s.log.Infow("digest scheduler started",
		"fire_at", s.fireAtString(),
		"next_run", s.nextRun(s.now()))
}

// Stop cancels the loop and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	s.log.Infow("digest scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	for {
		next := s.nextRun(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		// The run executes synchronously so the next boundary is only
		// computed after this one completes. A failed run aborts itself
		// only; the next tick proceeds independently.
		summary, err := s.runner.Run(s.ctx, ModeScheduled)
		if err != nil {
			s.log.Errorw("scheduled digest run failed",
				"sent", summary.Sent,
				"failed", summary.Failed,
				"error", err)
		}
	}
}

// nextRun returns the next fire boundary strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	local := now.In(s.cfg.Location)
	next := time.Date(local.Year(), local.Month(), local.Day(), s.cfg.Hour, s.cfg.Minute, 0, 0, s.cfg.Location)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scheduler) fireAtString() string {
	return time.Date(0, 1, 1, s.cfg.Hour, s.cfg.Minute, 0, 0, s.cfg.Location).Format("15:04 MST")
}
