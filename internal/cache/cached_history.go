package cache

import (
	"context"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

// CachedHistory wraps a HistoryProvider with a HistoryCache.
type CachedHistory struct {
	next    ports.HistoryProvider
	cache   ports.HistoryCache
	metrics ports.Metrics
	logger  ports.Logger
}

var _ ports.HistoryProvider = (*CachedHistory)(nil)

// NewCachedHistory creates the decorator. metrics may be nil.
func NewCachedHistory(next ports.HistoryProvider, cache ports.HistoryCache, metrics ports.Metrics, logger ports.Logger) *CachedHistory {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &CachedHistory{next: next, cache: cache, metrics: metrics, logger: logger}
}

// DailyBars serves from the cache when possible. Only results holding at least
// minDays bars are stored, so a partial fetch is retried on the next cycle.
func (h *CachedHistory) DailyBars(ctx context.Context, ticker string, minDays int) ([]domain.DailyBar, error) {
	key := ports.CacheKey{Ticker: ticker, Depth: minDays}
	if bars, ok := h.cache.Get(ctx, key); ok {
		h.metrics.CacheLookup(true)
		return bars, nil
	}
	h.metrics.CacheLookup(false)

	bars, err := h.next.DailyBars(ctx, ticker, minDays)
	if err != nil {
		return nil, err
	}
	if len(bars) >= minDays {
		h.cache.Set(ctx, key, bars)
	} else if h.logger != nil {
		h.logger.Warn(ctx, "History shorter than requested, not caching", map[string]interface{}{
			"ticker": ticker, "want": minDays, "got": len(bars),
		})
	}
	return bars, nil
}
