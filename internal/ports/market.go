package ports

import (
	"context"

	"stockMonitor/internal/domain"
)

// HistoryProvider supplies daily bars, oldest first.
type HistoryProvider interface {
	// DailyBars returns at least minDays bars when the provider can, fewer when it
	// only managed a partial fetch. An error is returned only when nothing usable came back.
	DailyBars(ctx context.Context, ticker string, minDays int) ([]domain.DailyBar, error)
}

// QuoteProvider supplies the latest real-time quote.
type QuoteProvider interface {
	// Quote returns the current quote, or an error wrapping ErrEmptyResponse when the
	// provider has nothing for the ticker.
	Quote(ctx context.Context, ticker string) (*domain.Quote, error)
}

// MarketData is a provider that serves both history and quotes.
type MarketData interface {
	HistoryProvider
	QuoteProvider
	// Name returns a short provider label used in logs and metrics.
	Name() string
}
