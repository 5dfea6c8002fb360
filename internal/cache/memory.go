// Package cache holds the history cache used between polling cycles.
package cache

import (
	"context"
	"sync"
	"time"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

// DefaultTTL is how long fetched history stays valid.
const DefaultTTL = time.Hour

// Entry is one cached history result.
type Entry struct {
	Key        ports.CacheKey
	Bars       []domain.DailyBar
	InsertedAt time.Time
	TTL        time.Duration
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.InsertedAt) >= e.TTL
}

// MemoryCache is an in-process HistoryCache with explicit expiry.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[ports.CacheKey]Entry
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a MemoryCache.
type Option func(*MemoryCache)

// WithClock overrides the cache clock.
func WithClock(now func() time.Time) Option {
	return func(c *MemoryCache) { c.now = now }
}

// NewMemoryCache creates a cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration, opts ...Option) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &MemoryCache{
		entries: make(map[ports.CacheKey]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live entry for key. Expired entries are treated as absent.
func (c *MemoryCache) Get(_ context.Context, key ports.CacheKey) ([]domain.DailyBar, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.Expired(c.now()) {
		return nil, false
	}
	return e.Bars, true
}

// Set stores bars under key, replacing any existing entry.
func (c *MemoryCache) Set(_ context.Context, key ports.CacheKey, bars []domain.DailyBar) {
	stored := make([]domain.DailyBar, len(bars))
	copy(stored, bars)

	c.mu.Lock()
	c.entries[key] = Entry{Key: key, Bars: stored, InsertedAt: c.now(), TTL: c.ttl}
	c.mu.Unlock()
}

// Purge drops expired entries and returns how many were removed.
func (c *MemoryCache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if e.Expired(now) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
