package domain

import "time"

// Auction is a core entity describing a single listing surfaced by a scanner.
// It is rebuilt fresh on every fetch; identity across cycles lives in the
// ledger and cache entries keyed by Key(), not in the struct itself.
type Auction struct {
	ID           string
	URL          string
	Title        string
	Description  string
	Location     string
	CurrentBid   string
	ReservePrice string

	// TimeLeftText and MinutesRemaining are volatile: they describe the
	// remaining auction time at fetch instant and must never be persisted.
	// MinutesRemaining is nil when the remaining time could not be
	// determined (ended auction, parse failure, "less than a minute").
	TimeLeftText     string
	MinutesRemaining *int

	ImageURL string
	ImageRef string

	MatchedTerm string
	Watched     bool
	FetchedAt   time.Time
}

// Key returns the identity used by ledgers, caches, and the pending queue.
// Listings without a stable id fall back to their canonical URL.
func (a Auction) Key() string {
	if a.ID != "" {
		return a.ID
	}
	return a.URL
}

// CacheableAuction is the persisted form of an Auction. TimeLeftText and
// MinutesRemaining are excluded on purpose: stale remaining-time data would
// mislead the urgency check, so callers must refresh them from a live fetch
// before re-deriving urgency.
type CacheableAuction struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	CurrentBid   string    `json:"current_bid,omitempty"`
	ReservePrice string    `json:"reserve_price,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	ImageRef     string    `json:"image_ref,omitempty"`
	MatchedTerm  string    `json:"matched_term,omitempty"`
	Watched      bool      `json:"watched,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	CachedAt     time.Time `json:"cached_at"`
}

// ToCacheable strips the volatile fields from an auction and stamps it for
// storage. This is the only place the exclusion list is defined.
func ToCacheable(a Auction, now time.Time) CacheableAuction {
	return CacheableAuction{
		ID:           a.ID,
		URL:          a.URL,
		Title:        a.Title,
		Description:  a.Description,
		Location:     a.Location,
		CurrentBid:   a.CurrentBid,
		ReservePrice: a.ReservePrice,
		ImageURL:     a.ImageURL,
		ImageRef:     a.ImageRef,
		MatchedTerm:  a.MatchedTerm,
		Watched:      a.Watched,
		FetchedAt:    a.FetchedAt,
		CachedAt:     now,
	}
}

// ProcessedEntry records that a normal notification has been attempted for
// an auction. The ledger is append-biased: the engine only removes entries
// on an explicit reset.
type ProcessedEntry struct {
	AuctionID   string
	Title       string
	URL         string
	ProcessedAt time.Time
}

// UrgentEntry records that an urgent notification has been sent.
type UrgentEntry struct {
	AuctionID        string
	Title            string
	URL              string
	MinutesRemaining *int
	SentAt           time.Time
}

// PendingNotification is a normal notification deferred by the time gate,
// held durably until delivery succeeds. At most one entry exists per
// auction id; re-queuing replaces the prior payload.
type PendingNotification struct {
	Auction  Auction
	QueuedAt time.Time
}

// ListEntry is a blacklist or watchlist membership record.
type ListEntry struct {
	AuctionID string
	Title     string
	URL       string
	AddedAt   time.Time
}
