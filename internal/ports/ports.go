package ports

import (
	"context"
	"errors"

	"AuctionMonitor/internal/domain"
)

// ErrNotificationGated is returned by a Notifier when a non-urgent delivery
// falls outside the allowed time window. The engine reacts by queuing the
// notification instead of treating the send as failed.
var ErrNotificationGated = errors.New("notification blocked by time gate")

// ErrCacheMiss is returned by a CacheStore when no live entries exist for a
// fingerprint.
var ErrCacheMiss = errors.New("cache miss")

// AuctionSource pulls fresh auctions matching one search term.
type AuctionSource interface {
	FetchTerm(ctx context.Context, term string) ([]domain.Auction, error)
}

// Notification is the outbound payload handed to a Notifier.
type Notification struct {
	Title   string
	Message string
	Auction domain.Auction
	Urgent  bool
}

// Notifier delivers notifications to the configured channel. Urgent
// notifications must be attempted regardless of time-window restrictions.
type Notifier interface {
	Deliver(ctx context.Context, n Notification) error
}

// CacheStore holds the last-known record set per query fingerprint with
// TTL-based expiry. Put replaces the whole set for a fingerprint; readers
// never observe a partial mix of old and new entries.
type CacheStore interface {
	Put(ctx context.Context, fingerprint string, auctions []domain.CacheableAuction) error
	Get(ctx context.Context, fingerprint string) ([]domain.CacheableAuction, error)
}

// StateStore is the durable idempotency ledger surface consumed by the
// engine: processed/urgent sets, the pending-notification queue, membership
// lists, and search terms. Mark calls are insert-if-absent and report
// whether the id was newly inserted, so check and insert are a single call.
type StateStore interface {
	MarkProcessed(ctx context.Context, e domain.ProcessedEntry) (bool, error)
	MarkUrgent(ctx context.Context, e domain.UrgentEntry) (bool, error)

	UpsertPending(ctx context.Context, p domain.PendingNotification) error
	PendingNotifications(ctx context.Context) ([]domain.PendingNotification, error)
	DeletePending(ctx context.Context, auctionID string) error

	BlacklistedIDs(ctx context.Context) (map[string]struct{}, error)
	WatchedIDs(ctx context.Context) (map[string]struct{}, error)

	SearchTerms(ctx context.Context) ([]string, error)
}

// ImageStore owns the binary assets referenced by cached auctions.
type ImageStore interface {
	PutImage(ctx context.Context, auctionID, contentType string, data []byte) error
	HasImage(ctx context.Context, auctionID string) (bool, error)
}

// ImageFetcher downloads an auction image for storage.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) (contentType string, data []byte, err error)
}
