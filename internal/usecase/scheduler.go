package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"AuctionMonitor/internal/config"
)

// syncer is the slice of the engine the scheduler drives.
type syncer interface {
	Sync(ctx context.Context) error
}

// Scheduler runs the sync cycle on the configured interval. It sleeps in
// short increments so Stop and interval changes are picked up within
// seconds rather than after a full interval.
type Scheduler struct {
	cfg    *config.Manager
	engine syncer
	logger *slog.Logger

	sleepStep    time.Duration
	errorBackoff time.Duration
	now          func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewScheduler(cfg *config.Manager, engine syncer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:          cfg,
		engine:       engine,
		logger:       logger.With("component", "scheduler"),
		sleepStep:    10 * time.Second,
		errorBackoff: time.Minute,
		now:          time.Now,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start launches the scheduling loop. The first sync runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop signals the loop and waits for it to exit, bounded so a wedged
// cycle cannot hang shutdown forever. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	select {
	case <-s.done:
	case <-time.After(30 * time.Second):
		s.logger.Warn("timed out waiting for scheduler to stop")
	}
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	for {
		err := s.engine.Sync(ctx)
		if err != nil {
			s.logger.Error("sync cycle failed", "error", err)
		}
		if !s.sleepUntilNext(ctx, s.now(), err != nil) {
			return
		}
	}
}

// sleepUntilNext waits from the end of the last cycle until the next one
// is due, in sleepStep increments. The interval is re-read from the config
// snapshot each step, so shortening it at runtime takes effect mid-wait.
// A failed cycle retries after errorBackoff instead of the full interval.
// Returns false when the scheduler should exit.
func (s *Scheduler) sleepUntilNext(ctx context.Context, last time.Time, backoff bool) bool {
	for {
		wait := s.cfg.Snapshot().Monitor.CheckInterval()
		if backoff && s.errorBackoff < wait {
			wait = s.errorBackoff
		}

		remaining := last.Add(wait).Sub(s.now())
		if remaining <= 0 {
			return true
		}
		step := s.sleepStep
		if remaining < step {
			step = remaining
		}

		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return false
		case <-s.stop:
			timer.Stop()
			return false
		case <-timer.C:
		}
	}
}
