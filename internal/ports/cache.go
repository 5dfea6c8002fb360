package ports

import (
	"context"
	"fmt"

	"stockMonitor/internal/domain"
)

// CacheKey identifies a cached history request.
type CacheKey struct {
	Ticker string
	Depth  int
}

// String returns a flat representation usable as a storage key.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s-%d", k.Ticker, k.Depth)
}

// HistoryCache stores daily bars for a bounded lifetime.
type HistoryCache interface {
	// Get returns the cached bars and true if a live entry exists.
	Get(ctx context.Context, key CacheKey) ([]domain.DailyBar, bool)
	// Set stores bars under key, replacing any existing entry.
	Set(ctx context.Context, key CacheKey, bars []domain.DailyBar)
}
