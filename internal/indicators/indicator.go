package indicators

import (
	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
)

// Indicator represents a technical indicator that can be calculated from daily bars
type Indicator interface {
	// Calculate computes the indicator value for the given bars (oldest first)
	Calculate(bars []domain.DailyBar) (decimal.Decimal, error)

	// RequiredDataPoints returns the minimum number of bars needed for calculation
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of bars needed for calculation
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}

func mean(values []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, values...).Div(decimal.NewFromInt(int64(len(values))))
}
