package indicators

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

// MovingAverage is a simple moving average over closing prices.
type MovingAverage struct {
	BaseIndicator
}

// NewMovingAverage creates a new simple moving average indicator instance
func NewMovingAverage(config IndicatorConfig) *MovingAverage {
	return &MovingAverage{BaseIndicator: BaseIndicator{Config: config}}
}

// Name returns the name of the indicator, e.g. "MA5"
func (m *MovingAverage) Name() string {
	return "MA" + strconv.Itoa(m.Config.Period)
}

// Calculate returns the mean close of the last Period bars, most recent inclusive.
func (m *MovingAverage) Calculate(bars []domain.DailyBar) (decimal.Decimal, error) {
	period := m.Config.Period
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("%w: MA period %d", ports.ErrInvalidWindow, period)
	}
	if len(bars) < period {
		return decimal.Zero, fmt.Errorf("%w: need %d bars for %s, got %d", ports.ErrInsufficientHistory, period, m.Name(), len(bars))
	}
	return mean(domain.Closes(bars[len(bars)-period:])), nil
}
