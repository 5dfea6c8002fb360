package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndicatorSet holds the metrics derived from history plus one live quote.
// It is computed fresh on every poll and never mutated afterwards.
type IndicatorSet struct {
	ShortMA     decimal.Decimal
	LongMA      decimal.Decimal
	ShortWindow int
	LongWindow  int

	PriceVsShortMAPct decimal.Decimal // (price - short MA) / short MA * 100
	ChangeAbs         decimal.Decimal // price - prior close
	ChangePct         decimal.Decimal // change / prior close * 100

	LotVolume                 decimal.Decimal // cumulative volume in lots
	VolumeRatioPct            decimal.Decimal // lot volume / average daily lots * 100
	AvgDailyLotVolume         decimal.Decimal // baseline, excludes the most recent bar
	EstimatedFullDayLotVolume decimal.Decimal // linear extrapolation over the session

	ElapsedMinutes decimal.Decimal // session minutes used for the estimate
	ComputedAt     time.Time
}
