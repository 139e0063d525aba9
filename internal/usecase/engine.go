// Package usecase contains the synchronization engine: the cycle that
// fetches auctions for the active search terms, filters and caches them,
// and drives at-most-once notification delivery.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"AuctionMonitor/internal/cache"
	"AuctionMonitor/internal/config"
	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/ports"
)

// Deps bundles the engine's collaborators. Images and ImageFetcher are
// optional; when either is nil the engine skips image capture.
type Deps struct {
	Config       *config.Manager
	Source       ports.AuctionSource
	Notifier     ports.Notifier
	Cache        ports.CacheStore
	State        ports.StateStore
	Images       ports.ImageStore
	ImageFetcher ports.ImageFetcher
	Logger       *slog.Logger
}

// Status is a snapshot of the engine's last completed cycle.
type Status struct {
	LastSyncAt   time.Time
	LastError    string
	LastFetched  int
	LastNew      int
	LastUrgent   int
	FlushedCount int
	SyncCount    int64
}

// Engine runs the synchronization cycle. Cycles are serialized: a forced
// sync requested while a scheduled one runs waits for it to finish rather
// than overlapping it.
type Engine struct {
	cfg          *config.Manager
	source       ports.AuctionSource
	notifier     ports.Notifier
	cache        ports.CacheStore
	state        ports.StateStore
	images       ports.ImageStore
	imageFetcher ports.ImageFetcher
	logger       *slog.Logger

	now func() time.Time

	runMu sync.Mutex

	statusMu sync.Mutex
	status   Status
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		cfg:          d.Config,
		source:       d.Source,
		notifier:     d.Notifier,
		cache:        d.Cache,
		state:        d.State,
		images:       d.Images,
		imageFetcher: d.ImageFetcher,
		logger:       d.Logger.With("component", "engine"),
		now:          time.Now,
	}
}

// Sync runs one full cycle. Concurrent callers block until the running
// cycle finishes, then run their own.
func (e *Engine) Sync(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	started := e.now()
	st, err := e.runCycle(ctx)
	st.LastSyncAt = started
	if err != nil {
		st.LastError = err.Error()
	}

	e.statusMu.Lock()
	st.SyncCount = e.status.SyncCount + 1
	e.status = st
	e.statusMu.Unlock()

	return err
}

// Status returns the last cycle's outcome.
func (e *Engine) Status() Status {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return e.status
}

func (e *Engine) runCycle(ctx context.Context) (Status, error) {
	var st Status
	snap := e.cfg.Snapshot()

	// Queued notifications go out before anything from this cycle, so a
	// morning flush preserves the order listings were discovered in.
	st.FlushedCount = e.flushPending(ctx)

	terms, err := e.state.SearchTerms(ctx)
	if err != nil {
		return st, fmt.Errorf("load search terms: %w", err)
	}
	if len(terms) == 0 {
		e.logger.Info("no search terms configured, skipping fetch")
		return st, nil
	}

	auctions := e.fetchAll(ctx, snap, terms)
	st.LastFetched = len(auctions)

	auctions = Deduplicate(auctions)

	blacklisted, err := e.state.BlacklistedIDs(ctx)
	if err != nil {
		return st, fmt.Errorf("load blacklist: %w", err)
	}
	filtered := auctions[:0]
	for _, a := range auctions {
		if _, hidden := blacklisted[a.Key()]; hidden {
			continue
		}
		filtered = append(filtered, a)
	}
	auctions = filtered

	watched, err := e.state.WatchedIDs(ctx)
	if err != nil {
		return st, fmt.Errorf("load watchlist: %w", err)
	}
	for i := range auctions {
		if _, ok := watched[auctions[i].Key()]; ok {
			auctions[i].Watched = true
		}
	}

	e.captureImages(ctx, auctions)

	// An empty set is never written: a site outage where every fetch
	// failed must keep the last-known-good set (and its images) instead
	// of wiping the fingerprint. A cache write fault likewise costs
	// freshness, not the cycle.
	if len(auctions) > 0 {
		cacheable := make([]domain.CacheableAuction, 0, len(auctions))
		cachedAt := e.now()
		for _, a := range auctions {
			cacheable = append(cacheable, domain.ToCacheable(a, cachedAt))
		}
		if err := e.cache.Put(ctx, cache.Fingerprint(terms), cacheable); err != nil {
			e.logger.Warn("cache write failed", "error", err)
		}
	}

	st.LastNew = e.notifyNew(ctx, auctions)
	st.LastUrgent = e.notifyUrgent(ctx, snap, auctions)

	e.logger.Info("sync cycle complete",
		"fetched", st.LastFetched,
		"new", st.LastNew,
		"urgent", st.LastUrgent,
		"flushed", st.FlushedCount)
	return st, nil
}

// flushPending attempts delivery of queued notifications, oldest first.
// The first gated delivery stops the flush: the window that gated it gates
// everything behind it too.
func (e *Engine) flushPending(ctx context.Context) int {
	pending, err := e.state.PendingNotifications(ctx)
	if err != nil {
		e.logger.Warn("load pending notifications failed", "error", err)
		return 0
	}

	flushed := 0
	for _, p := range pending {
		n := normalNotification(p.Auction)
		err := e.notifier.Deliver(ctx, n)
		switch {
		case err == nil:
			if err := e.state.DeletePending(ctx, p.Auction.Key()); err != nil {
				e.logger.Warn("delete flushed pending entry failed", "auction", p.Auction.Key(), "error", err)
			}
			flushed++
		case errors.Is(err, ports.ErrNotificationGated):
			return flushed
		default:
			e.logger.Warn("pending delivery failed, keeping entry", "auction", p.Auction.Key(), "error", err)
		}
	}
	return flushed
}

func (e *Engine) fetchAll(ctx context.Context, snap config.Config, terms []string) []domain.Auction {
	var all []domain.Auction
	for i, term := range terms {
		if i > 0 {
			if !sleepCtx(ctx, snap.Scraper.RequestDelay()) {
				return all
			}
		}
		auctions, err := e.source.FetchTerm(ctx, term)
		if err != nil {
			// One term failing must not starve the others.
			e.logger.Warn("fetch failed for term", "term", term, "error", err)
			continue
		}
		e.logger.Debug("fetched term", "term", term, "count", len(auctions))
		all = append(all, auctions...)
	}
	return all
}

// captureImages stores listing images that are not already held, setting
// ImageRef so cached records point at the stored blob. Entirely
// best-effort: a fetch or store fault only loses the thumbnail.
func (e *Engine) captureImages(ctx context.Context, auctions []domain.Auction) {
	if e.images == nil || e.imageFetcher == nil {
		return
	}
	for i := range auctions {
		a := &auctions[i]
		if a.ImageURL == "" {
			continue
		}
		key := a.Key()
		has, err := e.images.HasImage(ctx, key)
		if err != nil {
			e.logger.Warn("image lookup failed", "auction", key, "error", err)
			continue
		}
		if !has {
			contentType, data, err := e.imageFetcher.Fetch(ctx, a.ImageURL)
			if err != nil {
				e.logger.Debug("image fetch failed", "auction", key, "error", err)
				continue
			}
			if err := e.images.PutImage(ctx, key, contentType, data); err != nil {
				e.logger.Warn("image store failed", "auction", key, "error", err)
				continue
			}
		}
		a.ImageRef = key
	}
}

func (e *Engine) notifyNew(ctx context.Context, auctions []domain.Auction) int {
	sent := 0
	for _, a := range auctions {
		inserted := e.markProcessed(ctx, a)
		if !inserted {
			continue
		}

		n := normalNotification(a)
		err := e.notifier.Deliver(ctx, n)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ports.ErrNotificationGated):
			if err := e.state.UpsertPending(ctx, domain.PendingNotification{Auction: a, QueuedAt: e.now()}); err != nil {
				e.logger.Error("queue gated notification failed", "auction", a.Key(), "error", err)
			} else {
				e.logger.Info("notification deferred by time window", "auction", a.Key())
			}
		default:
			// At most once: a failed send is not retried.
			e.logger.Error("notification delivery failed", "auction", a.Key(), "error", err)
		}
	}
	return sent
}

func (e *Engine) notifyUrgent(ctx context.Context, snap config.Config, auctions []domain.Auction) int {
	threshold := snap.Monitor.UrgentThresholdMinutes
	sent := 0
	for _, a := range auctions {
		// Unknown remaining time is never urgent.
		if a.MinutesRemaining == nil || *a.MinutesRemaining > threshold {
			continue
		}
		inserted := e.markUrgent(ctx, a)
		if !inserted {
			continue
		}

		if err := e.notifier.Deliver(ctx, urgentNotification(a)); err != nil {
			e.logger.Error("urgent delivery failed", "auction", a.Key(), "error", err)
			continue
		}
		sent++
	}
	return sent
}

// markProcessed records the auction in the processed ledger, reporting
// whether it was newly seen. A write fault gets one retry; persistent
// failure suppresses the notification, since without the ledger entry a
// send could repeat next cycle.
func (e *Engine) markProcessed(ctx context.Context, a domain.Auction) bool {
	entry := domain.ProcessedEntry{
		AuctionID:   a.Key(),
		Title:       a.Title,
		URL:         a.URL,
		ProcessedAt: e.now(),
	}
	inserted, err := e.state.MarkProcessed(ctx, entry)
	if err != nil {
		inserted, err = e.state.MarkProcessed(ctx, entry)
	}
	if err != nil {
		e.logger.Error("processed ledger write failed", "auction", entry.AuctionID, "error", err)
		return false
	}
	return inserted
}

func (e *Engine) markUrgent(ctx context.Context, a domain.Auction) bool {
	entry := domain.UrgentEntry{
		AuctionID:        a.Key(),
		Title:            a.Title,
		URL:              a.URL,
		MinutesRemaining: a.MinutesRemaining,
		SentAt:           e.now(),
	}
	inserted, err := e.state.MarkUrgent(ctx, entry)
	if err != nil {
		inserted, err = e.state.MarkUrgent(ctx, entry)
	}
	if err != nil {
		e.logger.Error("urgent ledger write failed", "auction", entry.AuctionID, "error", err)
		return false
	}
	return inserted
}

func normalNotification(a domain.Auction) ports.Notification {
	title := "New Auction Match"
	if a.MatchedTerm != "" {
		title = "New Auction Match: " + a.MatchedTerm
	}
	return ports.Notification{
		Title:   title,
		Message: formatMessage(a),
		Auction: a,
		Urgent:  false,
	}
}

func urgentNotification(a domain.Auction) ports.Notification {
	title := "Auction Ending Soon"
	if a.MinutesRemaining != nil {
		title = fmt.Sprintf("Auction Ending Soon: %d min left", *a.MinutesRemaining)
	}
	return ports.Notification{
		Title:   title,
		Message: formatMessage(a),
		Auction: a,
		Urgent:  true,
	}
}

func formatMessage(a domain.Auction) string {
	lines := []string{a.Title}
	if a.Watched {
		lines[0] = "★ " + lines[0]
	}
	if a.CurrentBid != "" {
		lines = append(lines, "Current bid: "+a.CurrentBid)
	}
	if a.Location != "" {
		lines = append(lines, "Location: "+a.Location)
	}
	if a.TimeLeftText != "" {
		lines = append(lines, "Time left: "+a.TimeLeftText)
	}
	if a.URL != "" {
		lines = append(lines, a.URL)
	}
	return strings.Join(lines, "\n")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
