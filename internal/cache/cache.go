// Package cache provides the two-tier auction cache: a small in-memory
// tier in front of the durable store tier. Both tiers are keyed by a
// query fingerprint derived from the active search terms.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"

	"AuctionMonitor/internal/domain"
	"AuctionMonitor/internal/ports"
)

// Fingerprint derives the cache key for a set of search terms. Terms are
// lowercased, trimmed, deduplicated, and sorted, so the key is stable
// across reordering and casing changes.
func Fingerprint(terms []string) string {
	seen := make(map[string]struct{}, len(terms))
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		t := strings.ToLower(strings.TrimSpace(term))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		normalized = append(normalized, t)
	}
	sort.Strings(normalized)
	return strings.Join(normalized, "|")
}

// Memory is the in-process tier. A zero-size configuration yields a
// disabled tier where every read misses, so callers never branch on nil.
type Memory struct {
	cache *freecache.Cache
	ttl   time.Duration
}

// NewMemory builds a memory tier of sizeMB megabytes with per-entry TTL.
func NewMemory(sizeMB int, ttl time.Duration) *Memory {
	if sizeMB <= 0 {
		return &Memory{}
	}
	return &Memory{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   ttl,
	}
}

// Put stores the record set for a fingerprint. Oversized sets that do not
// fit in the tier are dropped silently; the store tier still holds them.
func (m *Memory) Put(ctx context.Context, fingerprint string, auctions []domain.CacheableAuction) error {
	if m.cache == nil {
		return nil
	}
	data, err := json.Marshal(auctions)
	if err != nil {
		return fmt.Errorf("encode cache set: %w", err)
	}
	if err := m.cache.Set([]byte(fingerprint), data, int(m.ttl.Seconds())); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) || errors.Is(err, freecache.ErrLargeKey) {
			return nil
		}
		return fmt.Errorf("memory cache set: %w", err)
	}
	return nil
}

// Get returns the record set for a fingerprint or ErrCacheMiss.
func (m *Memory) Get(ctx context.Context, fingerprint string) ([]domain.CacheableAuction, error) {
	if m.cache == nil {
		return nil, ports.ErrCacheMiss
	}
	data, err := m.cache.Get([]byte(fingerprint))
	if err != nil {
		return nil, ports.ErrCacheMiss
	}
	var auctions []domain.CacheableAuction
	if err := json.Unmarshal(data, &auctions); err != nil {
		// A corrupt entry is unreadable; drop it and treat as a miss.
		m.cache.Del([]byte(fingerprint))
		return nil, ports.ErrCacheMiss
	}
	return auctions, nil
}

// Layered composes the memory tier over the durable store tier. Writes go
// to both; reads try memory first and backfill it on a store hit. A store
// read fault degrades to a miss so a storage hiccup costs one redundant
// sync cycle instead of failing it.
type Layered struct {
	mem    *Memory
	store  ports.CacheStore
	logger *slog.Logger
}

var _ ports.CacheStore = (*Layered)(nil)

func NewLayered(mem *Memory, store ports.CacheStore, logger *slog.Logger) *Layered {
	return &Layered{
		mem:    mem,
		store:  store,
		logger: logger.With("component", "cache"),
	}
}

func (l *Layered) Put(ctx context.Context, fingerprint string, auctions []domain.CacheableAuction) error {
	if err := l.store.Put(ctx, fingerprint, auctions); err != nil {
		return err
	}
	if err := l.mem.Put(ctx, fingerprint, auctions); err != nil {
		l.logger.Warn("memory tier put failed", "fingerprint", fingerprint, "error", err)
	}
	return nil
}

func (l *Layered) Get(ctx context.Context, fingerprint string) ([]domain.CacheableAuction, error) {
	if auctions, err := l.mem.Get(ctx, fingerprint); err == nil {
		return auctions, nil
	}

	auctions, err := l.store.Get(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, ports.ErrCacheMiss) {
			return nil, ports.ErrCacheMiss
		}
		l.logger.Warn("store tier read failed, treating as miss", "fingerprint", fingerprint, "error", err)
		return nil, ports.ErrCacheMiss
	}

	if err := l.mem.Put(ctx, fingerprint, auctions); err != nil {
		l.logger.Warn("memory tier backfill failed", "fingerprint", fingerprint, "error", err)
	}
	return auctions, nil
}
