package indicators

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
	"stockMonitor/internal/session"
)

// DefaultLotSize is the number of shares in one board lot on TWSE.
const DefaultLotSize = 1000

var hundred = decimal.NewFromInt(100)

// Config configures the indicator engine.
type Config struct {
	LotSize int64
	Session *session.Session
	Now     func() time.Time // defaults to time.Now
}

// Engine derives an IndicatorSet from daily history and one live quote.
// It holds no mutable state; Compute is safe to call repeatedly.
type Engine struct {
	lotSize int64
	session *session.Session
	now     func() time.Time
}

// NewEngine creates a new indicator engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Session == nil {
		return nil, errors.New("session is required for indicator engine")
	}
	if cfg.LotSize <= 0 {
		cfg.LotSize = DefaultLotSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{lotSize: cfg.LotSize, session: cfg.Session, now: cfg.Now}, nil
}

// RequiredBars returns the minimum history depth Compute accepts.
func RequiredBars(shortWindow, longWindow int) int {
	return max(shortWindow, longWindow) + 1
}

// Compute derives the indicator set. It rejects invalid windows, short history
// and zero divisors with errors from the ports package instead of producing
// infinities.
func (e *Engine) Compute(bars []domain.DailyBar, quote *domain.Quote, shortWindow, longWindow int) (*domain.IndicatorSet, error) {
	if shortWindow <= 0 || longWindow <= 0 {
		return nil, fmt.Errorf("%w: short=%d long=%d", ports.ErrInvalidWindow, shortWindow, longWindow)
	}
	if need := RequiredBars(shortWindow, longWindow); len(bars) < need {
		return nil, fmt.Errorf("%w: need %d bars, got %d", ports.ErrInsufficientHistory, need, len(bars))
	}
	if quote == nil {
		return nil, fmt.Errorf("%w: quote is required", ports.ErrInvalidRequest)
	}
	if quote.PriorClose.IsZero() {
		return nil, ports.ErrZeroPriorClose
	}

	shortMA, err := NewMovingAverage(IndicatorConfig{Period: shortWindow}).Calculate(bars)
	if err != nil {
		return nil, err
	}
	if shortMA.IsZero() {
		return nil, ports.ErrZeroMovingAverage
	}
	longMA, err := NewMovingAverage(IndicatorConfig{Period: longWindow}).Calculate(bars)
	if err != nil {
		return nil, err
	}

	// Baseline leaves out the most recent bar.
	avgLots, err := NewVolumeAverage(VolumeAverageConfig{
		IndicatorConfig: IndicatorConfig{Period: shortWindow},
		Skip:            1,
		LotSize:         e.lotSize,
	}).Calculate(bars)
	if err != nil {
		return nil, err
	}
	if avgLots.IsZero() {
		return nil, ports.ErrZeroVolumeBaseline
	}

	now := e.now()
	changeAbs := quote.Price.Sub(quote.PriorClose)
	lots := ToLots(quote.CumulativeVolume, e.lotSize)
	elapsed := e.session.ElapsedMinutes(now)

	return &domain.IndicatorSet{
		ShortMA:                   shortMA,
		LongMA:                    longMA,
		ShortWindow:               shortWindow,
		LongWindow:                longWindow,
		PriceVsShortMAPct:         quote.Price.Sub(shortMA).Div(shortMA).Mul(hundred),
		ChangeAbs:                 changeAbs,
		ChangePct:                 changeAbs.Div(quote.PriorClose).Mul(hundred),
		LotVolume:                 lots,
		VolumeRatioPct:            lots.Div(avgLots).Mul(hundred),
		AvgDailyLotVolume:         avgLots,
		EstimatedFullDayLotVolume: session.EstimateFullDay(lots, elapsed, e.session.Minutes()),
		ElapsedMinutes:            elapsed,
		ComputedAt:                now,
	}, nil
}
