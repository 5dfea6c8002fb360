package indicators

import (
	"fmt"

	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

// VolumeAverageConfig configures the average daily volume baseline.
type VolumeAverageConfig struct {
	IndicatorConfig
	// Skip is the number of most recent bars left out of the window.
	Skip int
	// LotSize converts shares into lots.
	LotSize int64
}

// VolumeAverage averages daily volume in lots over Period bars ending Skip bars
// before the most recent one.
type VolumeAverage struct {
	config VolumeAverageConfig
}

// NewVolumeAverage creates a new volume baseline indicator
func NewVolumeAverage(config VolumeAverageConfig) *VolumeAverage {
	if config.LotSize <= 0 {
		config.LotSize = 1
	}
	return &VolumeAverage{config: config}
}

// Name returns the name of the indicator, e.g. "MV5"
func (v *VolumeAverage) Name() string {
	return fmt.Sprintf("MV%d", v.config.Period)
}

// RequiredDataPoints returns Period plus the skipped bars.
func (v *VolumeAverage) RequiredDataPoints() int {
	return v.config.Period + v.config.Skip
}

// Calculate returns the mean lot volume of bars[len-(Period+Skip) : len-Skip].
func (v *VolumeAverage) Calculate(bars []domain.DailyBar) (decimal.Decimal, error) {
	if v.config.Period <= 0 {
		return decimal.Zero, fmt.Errorf("%w: volume period %d", ports.ErrInvalidWindow, v.config.Period)
	}
	need := v.RequiredDataPoints()
	if len(bars) < need {
		return decimal.Zero, fmt.Errorf("%w: need %d bars for %s, got %d", ports.ErrInsufficientHistory, need, v.Name(), len(bars))
	}
	window := bars[len(bars)-need : len(bars)-v.config.Skip]
	lots := make([]decimal.Decimal, len(window))
	for i, b := range window {
		lots[i] = ToLots(b.Volume, v.config.LotSize)
	}
	return mean(lots), nil
}

// ToLots converts a share count into lots.
func ToLots(shares, lotSize int64) decimal.Decimal {
	return decimal.NewFromInt(shares).Div(decimal.NewFromInt(lotSize))
}
