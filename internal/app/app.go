// Package app assembles the monitor from its parts and owns the process
// lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"AuctionMonitor/internal/cache"
	"AuctionMonitor/internal/config"
	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/gate"
	"AuctionMonitor/internal/infrastructure/homeassistant"
	"AuctionMonitor/internal/infrastructure/images"
	"AuctionMonitor/internal/infrastructure/parser"
	"AuctionMonitor/internal/infrastructure/storage"
	"AuctionMonitor/internal/logging"
	"AuctionMonitor/internal/ports"
	"AuctionMonitor/internal/scanner"
	"AuctionMonitor/internal/usecase"
)

const cleanupInterval = time.Hour

// App wires configuration, storage, scraping, caching, and notification
// into a runnable monitor.
type App struct {
	cfg       *config.Manager
	logger    *slog.Logger
	store     *storage.Store
	cache     *cache.Layered
	engine    *usecase.Engine
	scheduler *usecase.Scheduler
	notifier  *homeassistant.Notifier
}

// New loads configuration and builds the full dependency graph.
func New() (*App, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)
	manager := config.NewManager(cfg)

	store, err := storage.Open(cfg.Database.Path, cfg.Cache.StoreTTL(), logger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	layered := cache.NewLayered(
		cache.NewMemory(cfg.Cache.MemorySizeMB, cfg.Cache.MemoryTTL()),
		store,
		logger,
	)

	registry := scanner.NewRegistry()
	scraperClient := &http.Client{Timeout: cfg.Scraper.Timeout()}
	registry.Register(parser.NewSikoScanner(
		scraperClient,
		cfg.Scraper.BaseURL,
		cfg.Scraper.UserAgent,
		logger.With("component", "scanner"),
	))
	source := parser.NewStrategySource(
		registry,
		"siko",
		cfg.Monitor.MaxAuctionsPerSearch,
		logger.With("component", "source"),
	)

	// The gate is rebuilt from the live snapshot on every delivery, so
	// window changes apply without a restart.
	gates := func() gate.Gate {
		snap := manager.Snapshot()
		return gate.Gate{
			Weekday: gate.Window{StartHour: snap.Windows.Weekday.StartHour, EndHour: snap.Windows.Weekday.EndHour},
			Weekend: gate.Window{StartHour: snap.Windows.Weekend.StartHour, EndHour: snap.Windows.Weekend.EndHour},
		}
	}
	notifier := homeassistant.New(
		cfg.Notifications.HomeAssistant.URL,
		cfg.Notifications.HomeAssistant.Token,
		cfg.Notifications.HomeAssistant.Service,
		gates,
		logger.With("component", "notifier"),
	)

	engine := usecase.NewEngine(usecase.Deps{
		Config:       manager,
		Source:       source,
		Notifier:     notifier,
		Cache:        layered,
		State:        store,
		Images:       store,
		ImageFetcher: images.NewFetcher(nil, cfg.Scraper.UserAgent),
		Logger:       logger,
	})

	return &App{
		cfg:       manager,
		logger:    logger.With("component", "app"),
		store:     store,
		cache:     layered,
		engine:    engine,
		scheduler: usecase.NewScheduler(manager, engine, logger),
		notifier:  notifier,
	}, nil
}

// Run starts the scheduler and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	snap := a.cfg.Snapshot()
	a.logger.Info("auction monitor starting",
		"interval", snap.Monitor.CheckInterval().String(),
		"urgent_threshold_minutes", snap.Monitor.UrgentThresholdMinutes,
		"database", snap.Database.Path)

	a.scheduler.Start(ctx)
	go a.janitor(ctx)

	<-ctx.Done()
	a.logger.Info("shutting down")
	a.scheduler.Stop()
	return a.Close()
}

// janitor periodically sweeps expired cache rows and orphaned images.
func (a *App) janitor(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.store.CleanupExpired(ctx)
			if err != nil {
				a.logger.Warn("cache cleanup failed", "error", err)
			} else if removed > 0 {
				a.logger.Info("cache cleanup", "removed", removed)
			}
		}
	}
}

// RunOnce executes a single sync cycle and reports its status.
func (a *App) RunOnce(ctx context.Context) (usecase.Status, error) {
	err := a.engine.Sync(ctx)
	return a.engine.Status(), err
}

// Store exposes the durable store for management commands.
func (a *App) Store() *storage.Store {
	return a.store
}

// CachedAuctions returns the last synced result set for the active search
// terms, served from the cache tiers.
func (a *App) CachedAuctions(ctx context.Context) ([]domain.CacheableAuction, error) {
	terms, err := a.store.SearchTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load search terms: %w", err)
	}
	return a.cache.Get(ctx, cache.Fingerprint(terms))
}

// TestNotify verifies the notification channel end to end: an API
// reachability check followed by a synthetic urgent notification, urgent
// so the time gate cannot defer it.
func (a *App) TestNotify(ctx context.Context) error {
	if err := a.notifier.TestConnection(ctx); err != nil {
		return err
	}
	return a.notifier.Deliver(ctx, ports.Notification{
		Title:   "Auction Monitor",
		Message: "Test notification from auctionmonitor",
		Urgent:  true,
	})
}

// Close releases held resources.
func (a *App) Close() error {
	return a.store.Close()
}
