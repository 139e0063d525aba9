package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/ports"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "monitor.db"), ttl, logger)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCachePutGetRoundTrip(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	auctions := []domain.CacheableAuction{
		{ID: "840663", URL: "https://sikoauktioner.se/auktion/840663", Title: "Antik hyvel"},
		{ID: "840664", URL: "https://sikoauktioner.se/auktion/840664", Title: "Verktygslåda"},
	}
	if err := s.Put(ctx, "antika verktyg", auctions); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := s.Get(ctx, "antika verktyg")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 cached auctions, got %d", len(got))
	}
	seen := map[string]bool{}
	for _, a := range got {
		seen[a.ID] = true
	}
	if !seen["840663"] || !seen["840664"] {
		t.Errorf("unexpected cached ids: %v", seen)
	}
}

func TestCacheMissForUnknownFingerprint(t *testing.T) {
	s := newTestStore(t, time.Hour)

	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestCachePutReplacesSet(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if err := s.Put(ctx, "lego", []domain.CacheableAuction{{ID: "1"}, {ID: "2"}}); err != nil {
		t.Fatalf("first Put returned error: %v", err)
	}
	if err := s.Put(ctx, "lego", []domain.CacheableAuction{{ID: "3"}}); err != nil {
		t.Fatalf("second Put returned error: %v", err)
	}

	got, err := s.Get(ctx, "lego")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "3" {
		t.Fatalf("expected set to be replaced with [3], got %+v", got)
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	s := newTestStore(t, 10*time.Minute)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if err := s.Put(ctx, "lego", []domain.CacheableAuction{{ID: "1"}}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	s.now = func() time.Time { return base.Add(9 * time.Minute) }
	if _, err := s.Get(ctx, "lego"); err != nil {
		t.Fatalf("Get before TTL returned error: %v", err)
	}

	s.now = func() time.Time { return base.Add(11 * time.Minute) }
	if _, err := s.Get(ctx, "lego"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after TTL, got %v", err)
	}

	// Observing the expired set evicts it.
	s.now = func() time.Time { return base }
	if _, err := s.Get(ctx, "lego"); !errors.Is(err, ports.ErrCacheMiss) {
		t.Fatalf("expected expired set to be evicted, got %v", err)
	}
}

func TestMarkProcessedIsInsertIfAbsent(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	entry := domain.ProcessedEntry{AuctionID: "840663", Title: "Antik hyvel"}
	inserted, err := s.MarkProcessed(ctx, entry)
	if err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}
	if !inserted {
		t.Fatal("expected first mark to insert")
	}

	inserted, err = s.MarkProcessed(ctx, entry)
	if err != nil {
		t.Fatalf("second MarkProcessed returned error: %v", err)
	}
	if inserted {
		t.Fatal("expected second mark to be a no-op")
	}
}

func TestMarkUrgentIsInsertIfAbsent(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	minutes := 10
	entry := domain.UrgentEntry{AuctionID: "840663", MinutesRemaining: &minutes}
	if inserted, err := s.MarkUrgent(ctx, entry); err != nil || !inserted {
		t.Fatalf("first MarkUrgent = (%v, %v), want (true, nil)", inserted, err)
	}
	if inserted, err := s.MarkUrgent(ctx, entry); err != nil || inserted {
		t.Fatalf("second MarkUrgent = (%v, %v), want (false, nil)", inserted, err)
	}
}

func TestPendingUpsertReplacesAndOrders(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	older := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := s.UpsertPending(ctx, domain.PendingNotification{
		Auction:  domain.Auction{ID: "2", Title: "second"},
		QueuedAt: older.Add(time.Minute),
	}); err != nil {
		t.Fatalf("UpsertPending returned error: %v", err)
	}
	if err := s.UpsertPending(ctx, domain.PendingNotification{
		Auction:  domain.Auction{ID: "1", Title: "first"},
		QueuedAt: older,
	}); err != nil {
		t.Fatalf("UpsertPending returned error: %v", err)
	}

	// Re-queuing replaces the payload without duplicating the entry.
	if err := s.UpsertPending(ctx, domain.PendingNotification{
		Auction:  domain.Auction{ID: "2", Title: "second updated"},
		QueuedAt: older.Add(2 * time.Minute),
	}); err != nil {
		t.Fatalf("UpsertPending returned error: %v", err)
	}

	pending, err := s.PendingNotifications(ctx)
	if err != nil {
		t.Fatalf("PendingNotifications returned error: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
	if pending[0].Auction.ID != "1" {
		t.Errorf("expected oldest entry first, got %s", pending[0].Auction.ID)
	}
	if pending[1].Auction.Title != "second updated" {
		t.Errorf("expected replaced payload, got %q", pending[1].Auction.Title)
	}

	if err := s.DeletePending(ctx, "1"); err != nil {
		t.Fatalf("DeletePending returned error: %v", err)
	}
	pending, err = s.PendingNotifications(ctx)
	if err != nil {
		t.Fatalf("PendingNotifications returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].Auction.ID != "2" {
		t.Fatalf("expected only entry 2 to remain, got %+v", pending)
	}
}

func TestBlacklistRoundTrip(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	added, err := s.AddBlacklist(ctx, domain.ListEntry{AuctionID: "840663", Title: "Antik hyvel"})
	if err != nil || !added {
		t.Fatalf("AddBlacklist = (%v, %v), want (true, nil)", added, err)
	}
	if added, _ := s.AddBlacklist(ctx, domain.ListEntry{AuctionID: "840663"}); added {
		t.Fatal("expected duplicate add to report false")
	}

	ids, err := s.BlacklistedIDs(ctx)
	if err != nil {
		t.Fatalf("BlacklistedIDs returned error: %v", err)
	}
	if _, ok := ids["840663"]; !ok {
		t.Fatal("expected 840663 in blacklist set")
	}

	entries, err := s.Blacklist(ctx)
	if err != nil {
		t.Fatalf("Blacklist returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Antik hyvel" {
		t.Fatalf("unexpected blacklist entries: %+v", entries)
	}

	removed, err := s.RemoveBlacklist(ctx, "840663")
	if err != nil || !removed {
		t.Fatalf("RemoveBlacklist = (%v, %v), want (true, nil)", removed, err)
	}
	if removed, _ := s.RemoveBlacklist(ctx, "840663"); removed {
		t.Fatal("expected second remove to report false")
	}
}

func TestWatchlistRoundTrip(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if added, err := s.AddWatch(ctx, domain.ListEntry{AuctionID: "77"}); err != nil || !added {
		t.Fatalf("AddWatch = (%v, %v), want (true, nil)", added, err)
	}
	ids, err := s.WatchedIDs(ctx)
	if err != nil {
		t.Fatalf("WatchedIDs returned error: %v", err)
	}
	if _, ok := ids["77"]; !ok {
		t.Fatal("expected 77 in watchlist set")
	}
}

func TestSearchTermsNormalized(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if added, err := s.AddSearchTerm(ctx, "  LEGO "); err != nil || !added {
		t.Fatalf("AddSearchTerm = (%v, %v), want (true, nil)", added, err)
	}
	if added, _ := s.AddSearchTerm(ctx, "lego"); added {
		t.Fatal("expected case-insensitive duplicate to report false")
	}
	if _, err := s.AddSearchTerm(ctx, "   "); err == nil {
		t.Fatal("expected error for empty term")
	}

	terms, err := s.SearchTerms(ctx)
	if err != nil {
		t.Fatalf("SearchTerms returned error: %v", err)
	}
	if len(terms) != 1 || terms[0] != "lego" {
		t.Fatalf("expected [lego], got %v", terms)
	}

	if removed, err := s.RemoveSearchTerm(ctx, "Lego"); err != nil || !removed {
		t.Fatalf("RemoveSearchTerm = (%v, %v), want (true, nil)", removed, err)
	}
}

func TestCleanupExpiredSweepsCacheAndOrphanedImages(t *testing.T) {
	s := newTestStore(t, 10*time.Minute)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	if err := s.Put(ctx, "lego", []domain.CacheableAuction{{ID: "1", ImageRef: "1"}}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := s.PutImage(ctx, "1", "image/jpeg", []byte{0xff, 0xd8}); err != nil {
		t.Fatalf("PutImage returned error: %v", err)
	}

	s.now = func() time.Time { return base.Add(time.Minute) }
	if err := s.Put(ctx, "antika verktyg", []domain.CacheableAuction{{ID: "2", ImageRef: "2"}}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := s.PutImage(ctx, "2", "image/png", []byte{0x89, 0x50}); err != nil {
		t.Fatalf("PutImage returned error: %v", err)
	}

	// Only the first set is past the TTL.
	s.now = func() time.Time { return base.Add(10*time.Minute + time.Second) }
	removed, err := s.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired returned error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 cache row removed, got %d", removed)
	}

	if has, _ := s.HasImage(ctx, "1"); has {
		t.Error("expected orphaned image 1 to be collected")
	}
	has, err := s.HasImage(ctx, "2")
	if err != nil {
		t.Fatalf("HasImage returned error: %v", err)
	}
	if !has {
		t.Error("expected image 2 to survive the sweep")
	}
}

func TestImageRoundTrip(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	data := []byte{0xff, 0xd8, 0xff}
	if err := s.PutImage(ctx, "840663", "image/jpeg", data); err != nil {
		t.Fatalf("PutImage returned error: %v", err)
	}

	contentType, got, err := s.Image(ctx, "840663")
	if err != nil {
		t.Fatalf("Image returned error: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", contentType)
	}
	if len(got) != len(data) {
		t.Errorf("expected %d bytes, got %d", len(data), len(got))
	}
}

func TestCountsReflectLedgers(t *testing.T) {
	s := newTestStore(t, time.Hour)
	ctx := context.Background()

	if _, err := s.MarkProcessed(ctx, domain.ProcessedEntry{AuctionID: "1"}); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}
	if _, err := s.MarkProcessed(ctx, domain.ProcessedEntry{AuctionID: "2"}); err != nil {
		t.Fatalf("MarkProcessed returned error: %v", err)
	}
	if _, err := s.MarkUrgent(ctx, domain.UrgentEntry{AuctionID: "1"}); err != nil {
		t.Fatalf("MarkUrgent returned error: %v", err)
	}
	if err := s.UpsertPending(ctx, domain.PendingNotification{Auction: domain.Auction{ID: "3"}}); err != nil {
		t.Fatalf("UpsertPending returned error: %v", err)
	}

	processed, urgent, pending, err := s.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts returned error: %v", err)
	}
	if processed != 2 || urgent != 1 || pending != 1 {
		t.Fatalf("Counts = (%d, %d, %d), want (2, 1, 1)", processed, urgent, pending)
	}
}
