package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest real-time market snapshot for a ticker.
// It is replaced wholesale on every poll.
type Quote struct {
	Ticker           string          // Symbol the quote was requested for
	Name             string          // Display name reported by the provider
	Price            decimal.Decimal // Latest trade price (or fallback, see provider)
	PriorClose       decimal.Decimal // Previous session's closing price
	CumulativeVolume int64           // Shares traded so far in the session
	QuoteTime        string          // Provider's quote timestamp, as reported
	FetchTime        time.Time       // Local time the quote was fetched
}
