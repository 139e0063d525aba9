// Package storage persists the engine's durable state in SQLite: the
// TTL cache of auction sets, the idempotency ledgers, the pending
// notification queue, blacklist/watchlist membership, search terms, and
// cache-owned image blobs.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/ports"
)

// Store is a SQLite-backed implementation of the cache, state, and image
// store contracts. It assumes a single active writer process.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	sb     sq.StatementBuilderType
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ ports.CacheStore = (*Store)(nil)
	_ ports.StateStore = (*Store)(nil)
	_ ports.ImageStore = (*Store)(nil)
)

// Open opens (creating if needed) the store at path with the given cache
// TTL and initializes the schema.
func Open(path string, cacheTTL time.Duration, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{
		db:     db,
		ttl:    cacheTTL,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger: logger,
		now:    time.Now,
	}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS auction_cache (
			fingerprint TEXT NOT NULL,
			auction_id  TEXT NOT NULL,
			doc         TEXT NOT NULL,
			inserted_at INTEGER NOT NULL,
			PRIMARY KEY (fingerprint, auction_id)
		);
		CREATE INDEX IF NOT EXISTS idx_cache_inserted ON auction_cache(inserted_at);

		CREATE TABLE IF NOT EXISTS processed_auctions (
			auction_id   TEXT PRIMARY KEY,
			title        TEXT,
			url          TEXT,
			processed_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS urgent_notifications (
			auction_id        TEXT PRIMARY KEY,
			title             TEXT,
			url               TEXT,
			minutes_remaining INTEGER,
			sent_at           INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS pending_notifications (
			auction_id TEXT PRIMARY KEY,
			doc        TEXT NOT NULL,
			queued_at  INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS blacklist (
			auction_id TEXT PRIMARY KEY,
			title      TEXT,
			url        TEXT,
			added_at   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS watchlist (
			auction_id TEXT PRIMARY KEY,
			title      TEXT,
			url        TEXT,
			added_at   INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS search_terms (
			term     TEXT PRIMARY KEY,
			added_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS auction_images (
			auction_id   TEXT PRIMARY KEY,
			content_type TEXT NOT NULL,
			data         BLOB NOT NULL,
			stored_at    INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Put replaces the whole record set for a fingerprint. Delete and insert
// run in one transaction so readers never see a partial mix of old and new
// entries.
func (s *Store) Put(ctx context.Context, fingerprint string, auctions []domain.CacheableAuction) error {
	if fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache put: %w", err)
	}
	defer tx.Rollback()

	query, args, err := s.sb.Delete("auction_cache").Where(sq.Eq{"fingerprint": fingerprint}).ToSql()
	if err != nil {
		return fmt.Errorf("build cache delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear cache set: %w", err)
	}

	insertedAt := toMillis(s.now())
	for _, auction := range auctions {
		doc, err := json.Marshal(auction)
		if err != nil {
			return fmt.Errorf("marshal auction %s: %w", auction.ID, err)
		}
		query, args, err := s.sb.Insert("auction_cache").
			Options("OR REPLACE").
			Columns("fingerprint", "auction_id", "doc", "inserted_at").
			Values(fingerprint, auction.ID, string(doc), insertedAt).
			ToSql()
		if err != nil {
			return fmt.Errorf("build cache insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert cache entry %s: %w", auction.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache put: %w", err)
	}
	return nil
}

// Get returns the live record set for a fingerprint, or ErrCacheMiss when
// none exists. Expired sets are evicted as a side effect of being observed.
func (s *Store) Get(ctx context.Context, fingerprint string) ([]domain.CacheableAuction, error) {
	query, args, err := s.sb.Select("doc", "inserted_at").
		From("auction_cache").
		Where(sq.Eq{"fingerprint": fingerprint}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build cache select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	defer rows.Close()

	var (
		auctions   []domain.CacheableAuction
		insertedAt int64
	)
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc, &insertedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		var auction domain.CacheableAuction
		if err := json.Unmarshal([]byte(doc), &auction); err != nil {
			return nil, fmt.Errorf("decode cache entry: %w", err)
		}
		auctions = append(auctions, auction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cache: %w", err)
	}

	if len(auctions) == 0 {
		return nil, ports.ErrCacheMiss
	}

	if s.ttl > 0 && s.now().Sub(fromMillis(insertedAt)) >= s.ttl {
		if err := s.evictFingerprint(ctx, fingerprint); err != nil && s.logger != nil {
			s.logger.Warn("evict expired cache set", "fingerprint", fingerprint, "error", err)
		}
		return nil, ports.ErrCacheMiss
	}

	return auctions, nil
}

func (s *Store) evictFingerprint(ctx context.Context, fingerprint string) error {
	query, args, err := s.sb.Delete("auction_cache").Where(sq.Eq{"fingerprint": fingerprint}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// CleanupExpired sweeps expired cache rows and garbage-collects image blobs
// no live cache row references. It returns the number of cache rows removed.
func (s *Store) CleanupExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := toMillis(s.now().Add(-s.ttl))

	query, args, err := s.sb.Delete("auction_cache").Where(sq.Lt{"inserted_at": cutoff}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cache sweep: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep cache: %w", err)
	}
	removed, _ := res.RowsAffected()

	// Image lifetime is owned by the cache: orphaned blobs go with the sweep.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM auction_images WHERE auction_id NOT IN (SELECT auction_id FROM auction_cache)`); err != nil {
		return removed, fmt.Errorf("sweep orphaned images: %w", err)
	}

	return removed, nil
}

// MarkProcessed inserts into the processed ledger if absent and reports
// whether the id was newly inserted.
func (s *Store) MarkProcessed(ctx context.Context, e domain.ProcessedEntry) (bool, error) {
	at := e.ProcessedAt
	if at.IsZero() {
		at = s.now()
	}
	query, args, err := s.sb.Insert("processed_auctions").
		Options("OR IGNORE").
		Columns("auction_id", "title", "url", "processed_at").
		Values(e.AuctionID, e.Title, e.URL, toMillis(at)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build processed insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert processed %s: %w", e.AuctionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("processed rows affected: %w", err)
	}
	return affected > 0, nil
}

// MarkUrgent inserts into the urgent ledger if absent and reports whether
// the id was newly inserted.
func (s *Store) MarkUrgent(ctx context.Context, e domain.UrgentEntry) (bool, error) {
	at := e.SentAt
	if at.IsZero() {
		at = s.now()
	}
	var minutes any
	if e.MinutesRemaining != nil {
		minutes = *e.MinutesRemaining
	}
	query, args, err := s.sb.Insert("urgent_notifications").
		Options("OR IGNORE").
		Columns("auction_id", "title", "url", "minutes_remaining", "sent_at").
		Values(e.AuctionID, e.Title, e.URL, minutes, toMillis(at)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build urgent insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert urgent %s: %w", e.AuctionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("urgent rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpsertPending queues or re-queues a deferred notification. Re-queuing
// replaces the prior payload so at most one entry exists per auction.
func (s *Store) UpsertPending(ctx context.Context, p domain.PendingNotification) error {
	doc, err := json.Marshal(p.Auction)
	if err != nil {
		return fmt.Errorf("marshal pending auction: %w", err)
	}
	queuedAt := p.QueuedAt
	if queuedAt.IsZero() {
		queuedAt = s.now()
	}
	query, args, err := s.sb.Insert("pending_notifications").
		Columns("auction_id", "doc", "queued_at").
		Values(p.Auction.Key(), string(doc), toMillis(queuedAt)).
		Suffix("ON CONFLICT(auction_id) DO UPDATE SET doc = excluded.doc, queued_at = excluded.queued_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build pending upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert pending %s: %w", p.Auction.Key(), err)
	}
	return nil
}

// PendingNotifications returns all queued notifications, oldest first.
func (s *Store) PendingNotifications(ctx context.Context) ([]domain.PendingNotification, error) {
	query, args, err := s.sb.Select("doc", "queued_at").
		From("pending_notifications").
		OrderBy("queued_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build pending select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pending: %w", err)
	}
	defer rows.Close()

	var pending []domain.PendingNotification
	for rows.Next() {
		var (
			doc      string
			queuedAt int64
		)
		if err := rows.Scan(&doc, &queuedAt); err != nil {
			return nil, fmt.Errorf("scan pending entry: %w", err)
		}
		var auction domain.Auction
		if err := json.Unmarshal([]byte(doc), &auction); err != nil {
			return nil, fmt.Errorf("decode pending entry: %w", err)
		}
		pending = append(pending, domain.PendingNotification{
			Auction:  auction,
			QueuedAt: fromMillis(queuedAt),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending: %w", err)
	}
	return pending, nil
}

// DeletePending removes one queued notification.
func (s *Store) DeletePending(ctx context.Context, auctionID string) error {
	query, args, err := s.sb.Delete("pending_notifications").Where(sq.Eq{"auction_id": auctionID}).ToSql()
	if err != nil {
		return fmt.Errorf("build pending delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete pending %s: %w", auctionID, err)
	}
	return nil
}

// AddBlacklist hides an auction; returns false if it was already hidden.
func (s *Store) AddBlacklist(ctx context.Context, e domain.ListEntry) (bool, error) {
	return s.addListEntry(ctx, "blacklist", e)
}

// RemoveBlacklist unhides an auction; returns false if it was not hidden.
func (s *Store) RemoveBlacklist(ctx context.Context, auctionID string) (bool, error) {
	return s.removeListEntry(ctx, "blacklist", auctionID)
}

// Blacklist returns all hidden auctions.
func (s *Store) Blacklist(ctx context.Context) ([]domain.ListEntry, error) {
	return s.listEntries(ctx, "blacklist")
}

// BlacklistedIDs returns the hidden auction ids as a membership set.
func (s *Store) BlacklistedIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.listIDs(ctx, "blacklist")
}

// AddWatch puts an auction on the watchlist.
func (s *Store) AddWatch(ctx context.Context, e domain.ListEntry) (bool, error) {
	return s.addListEntry(ctx, "watchlist", e)
}

// RemoveWatch takes an auction off the watchlist.
func (s *Store) RemoveWatch(ctx context.Context, auctionID string) (bool, error) {
	return s.removeListEntry(ctx, "watchlist", auctionID)
}

// Watchlist returns all watched auctions.
func (s *Store) Watchlist(ctx context.Context) ([]domain.ListEntry, error) {
	return s.listEntries(ctx, "watchlist")
}

// WatchedIDs returns the watched auction ids as a membership set.
func (s *Store) WatchedIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.listIDs(ctx, "watchlist")
}

func (s *Store) addListEntry(ctx context.Context, table string, e domain.ListEntry) (bool, error) {
	at := e.AddedAt
	if at.IsZero() {
		at = s.now()
	}
	query, args, err := s.sb.Insert(table).
		Options("OR IGNORE").
		Columns("auction_id", "title", "url", "added_at").
		Values(e.AuctionID, e.Title, e.URL, toMillis(at)).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s insert: %w", table, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert %s %s: %w", table, e.AuctionID, err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (s *Store) removeListEntry(ctx context.Context, table, auctionID string) (bool, error) {
	query, args, err := s.sb.Delete(table).Where(sq.Eq{"auction_id": auctionID}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build %s delete: %w", table, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", table, auctionID, err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (s *Store) listEntries(ctx context.Context, table string) ([]domain.ListEntry, error) {
	query, args, err := s.sb.Select("auction_id", "title", "url", "added_at").
		From(table).
		OrderBy("added_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s select: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var entries []domain.ListEntry
	for rows.Next() {
		var (
			entry      domain.ListEntry
			title, url sql.NullString
			addedAt    int64
		)
		if err := rows.Scan(&entry.AuctionID, &title, &url, &addedAt); err != nil {
			return nil, fmt.Errorf("scan %s entry: %w", table, err)
		}
		entry.Title = title.String
		entry.URL = url.String
		entry.AddedAt = fromMillis(addedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return entries, nil
}

func (s *Store) listIDs(ctx context.Context, table string) (map[string]struct{}, error) {
	query, args, err := s.sb.Select("auction_id").From(table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s ids select: %w", table, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s ids: %w", table, err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan %s id: %w", table, err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s ids: %w", table, err)
	}
	return ids, nil
}

// AddSearchTerm stores a normalized term; returns false if already present.
func (s *Store) AddSearchTerm(ctx context.Context, term string) (bool, error) {
	normalized := normalizeTerm(term)
	if normalized == "" {
		return false, fmt.Errorf("empty search term")
	}
	query, args, err := s.sb.Insert("search_terms").
		Options("OR IGNORE").
		Columns("term", "added_at").
		Values(normalized, toMillis(s.now())).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build term insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("insert term %q: %w", normalized, err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// RemoveSearchTerm deletes a term; returns false if it was not present.
func (s *Store) RemoveSearchTerm(ctx context.Context, term string) (bool, error) {
	query, args, err := s.sb.Delete("search_terms").Where(sq.Eq{"term": normalizeTerm(term)}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build term delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("delete term %q: %w", term, err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// SearchTerms returns all configured terms sorted alphabetically.
func (s *Store) SearchTerms(ctx context.Context) ([]string, error) {
	query, args, err := s.sb.Select("term").From("search_terms").OrderBy("term ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build terms select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query terms: %w", err)
	}
	defer rows.Close()

	var terms []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate terms: %w", err)
	}
	return terms, nil
}

// PutImage stores or replaces one image blob.
func (s *Store) PutImage(ctx context.Context, auctionID, contentType string, data []byte) error {
	query, args, err := s.sb.Insert("auction_images").
		Options("OR REPLACE").
		Columns("auction_id", "content_type", "data", "stored_at").
		Values(auctionID, contentType, data, toMillis(s.now())).
		ToSql()
	if err != nil {
		return fmt.Errorf("build image insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert image %s: %w", auctionID, err)
	}
	return nil
}

// HasImage reports whether a blob exists for the auction.
func (s *Store) HasImage(ctx context.Context, auctionID string) (bool, error) {
	query, args, err := s.sb.Select("COUNT(1)").
		From("auction_images").
		Where(sq.Eq{"auction_id": auctionID}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build image count: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count image %s: %w", auctionID, err)
	}
	return count > 0, nil
}

// Image returns one stored blob with its content type.
func (s *Store) Image(ctx context.Context, auctionID string) (string, []byte, error) {
	query, args, err := s.sb.Select("content_type", "data").
		From("auction_images").
		Where(sq.Eq{"auction_id": auctionID}).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build image select: %w", err)
	}
	var (
		contentType string
		data        []byte
	)
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&contentType, &data); err != nil {
		return "", nil, fmt.Errorf("load image %s: %w", auctionID, err)
	}
	return contentType, data, nil
}

// Counts reports ledger and queue sizes for the status surface.
func (s *Store) Counts(ctx context.Context) (processed, urgent, pending int64, err error) {
	if processed, err = s.countTable(ctx, "processed_auctions"); err != nil {
		return 0, 0, 0, err
	}
	if urgent, err = s.countTable(ctx, "urgent_notifications"); err != nil {
		return 0, 0, 0, err
	}
	if pending, err = s.countTable(ctx, "pending_notifications"); err != nil {
		return 0, 0, 0, err
	}
	return processed, urgent, pending, nil
}

func (s *Store) countTable(ctx context.Context, table string) (int64, error) {
	query, args, err := s.sb.Select("COUNT(1)").From(table).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", table, err)
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}

// DeleteProcessed removes ids from the processed ledger. The engine never
// calls this; it exists for the external closed-auction cleanup job.
func (s *Store) DeleteProcessed(ctx context.Context, auctionIDs []string) (int64, error) {
	return s.deleteLedgerIDs(ctx, "processed_auctions", auctionIDs)
}

// DeleteUrgent removes ids from the urgent ledger, for the same cleanup job.
func (s *Store) DeleteUrgent(ctx context.Context, auctionIDs []string) (int64, error) {
	return s.deleteLedgerIDs(ctx, "urgent_notifications", auctionIDs)
}

func (s *Store) deleteLedgerIDs(ctx context.Context, table string, auctionIDs []string) (int64, error) {
	if len(auctionIDs) == 0 {
		return 0, nil
	}
	query, args, err := s.sb.Delete(table).Where(sq.Eq{"auction_id": auctionIDs}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s delete: %w", table, err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", table, err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
