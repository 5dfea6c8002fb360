package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyBar represents one trading day of historical data.
type DailyBar struct {
	Date   time.Time       // Trading day (informational, not used by indicator math)
	Close  decimal.Decimal // Closing price
	Volume int64           // Traded volume in shares
}

// Closes returns the closing prices of the given bars in order.
func Closes(bars []DailyBar) []decimal.Decimal {
	out := make([]decimal.Decimal, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
