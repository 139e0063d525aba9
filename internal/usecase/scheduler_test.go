package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"AuctionMonitor/internal/config"
)

type countingSyncer struct {
	calls atomic.Int64
	errs  atomic.Int64
}

func (c *countingSyncer) Sync(ctx context.Context) error {
	c.calls.Add(1)
	if c.errs.Load() > 0 {
		c.errs.Add(-1)
		return errors.New("transient failure")
	}
	return nil
}

func fastScheduler(cfg *config.Manager, engine syncer) *Scheduler {
	s := NewScheduler(cfg, engine, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.sleepStep = time.Millisecond
	return s
}

func TestSchedulerRunsInitialSyncImmediately(t *testing.T) {
	cfg := config.NewManager(config.Config{
		Monitor: config.MonitorConfig{CheckIntervalMinutes: 60},
	})
	engine := &countingSyncer{}
	s := fastScheduler(cfg, engine)

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(time.Second)
	for engine.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial sync never ran")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerStopEndsLoop(t *testing.T) {
	cfg := config.NewManager(config.Config{
		Monitor: config.MonitorConfig{CheckIntervalMinutes: 60},
	})
	engine := &countingSyncer{}
	s := fastScheduler(cfg, engine)

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	select {
	case <-s.done:
	default:
		t.Fatal("expected loop goroutine to have exited after Stop")
	}
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	cfg := config.NewManager(config.Config{
		Monitor: config.MonitorConfig{CheckIntervalMinutes: 60},
	})
	engine := &countingSyncer{}
	s := fastScheduler(cfg, engine)

	s.Start(context.Background())
	s.Stop()
	// A second Stop must be a no-op, not a close-of-closed-channel panic.
	s.Stop()
}

func TestSchedulerContextCancelEndsLoop(t *testing.T) {
	cfg := config.NewManager(config.Config{
		Monitor: config.MonitorConfig{CheckIntervalMinutes: 60},
	})
	engine := &countingSyncer{}
	s := fastScheduler(cfg, engine)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("expected loop to exit on context cancel")
	}
}

func TestSchedulerBacksOffAfterFailure(t *testing.T) {
	cfg := config.NewManager(config.Config{
		Monitor: config.MonitorConfig{CheckIntervalMinutes: 60},
	})
	engine := &countingSyncer{}
	engine.errs.Store(1)
	s := fastScheduler(cfg, engine)
	s.errorBackoff = 5 * time.Millisecond

	s.Start(context.Background())
	defer s.Stop()

	// The failed first cycle retries after the short backoff instead of
	// waiting out the hour-long interval.
	deadline := time.Now().Add(time.Second)
	for engine.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("expected a retry after backoff, got %d calls", engine.calls.Load())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerPicksUpShorterInterval(t *testing.T) {
	cfg := config.NewManager(config.Config{
		Monitor: config.MonitorConfig{CheckIntervalMinutes: 60},
	})
	engine := &countingSyncer{}
	s := fastScheduler(cfg, engine)

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(time.Second)
	for engine.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial sync never ran")
		}
		time.Sleep(time.Millisecond)
	}

	// Drop the interval to effectively zero; the sleeping loop must notice
	// without a restart.
	cfg.Apply(func(c config.Config) config.Config {
		c.Monitor.CheckIntervalMinutes = 0
		return c
	})

	deadline = time.Now().Add(time.Second)
	for engine.calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("interval change was not picked up mid-wait")
		}
		time.Sleep(time.Millisecond)
	}
}
