package wsfeed

import (
	"time"

	"stockMonitor/internal/domain"
)

// SnapshotMessage is the JSON document pushed to browser clients.
// Decimals travel as strings to keep their exact value.
type SnapshotMessage struct {
	Type        string         `json:"type"`
	Ticker      string         `json:"ticker"`
	Pending     bool           `json:"pending"`
	FailureKind string         `json:"failure_kind,omitempty"`
	Session     string         `json:"session,omitempty"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Quote       *QuoteDTO      `json:"quote,omitempty"`
	Indicators  *IndicatorsDTO `json:"indicators,omitempty"`
}

type QuoteDTO struct {
	Name             string `json:"name"`
	Price            string `json:"price"`
	PriorClose       string `json:"prior_close"`
	CumulativeVolume int64  `json:"cumulative_volume"`
	QuoteTime        string `json:"quote_time"`
}

type IndicatorsDTO struct {
	ShortMA                   string `json:"short_ma"`
	LongMA                    string `json:"long_ma"`
	ShortWindow               int    `json:"short_window"`
	LongWindow                int    `json:"long_window"`
	PriceVsShortMAPct         string `json:"price_vs_short_ma_pct"`
	ChangeAbs                 string `json:"change_abs"`
	ChangePct                 string `json:"change_pct"`
	LotVolume                 string `json:"lot_volume"`
	VolumeRatioPct            string `json:"volume_ratio_pct"`
	AvgDailyLotVolume         string `json:"avg_daily_lot_volume"`
	EstimatedFullDayLotVolume string `json:"estimated_full_day_lot_volume"`
	ElapsedMinutes            string `json:"elapsed_minutes"`
}

// NewSnapshotMessage converts a snapshot for the wire.
func NewSnapshotMessage(snap *domain.Snapshot) SnapshotMessage {
	msg := SnapshotMessage{
		Type:        "snapshot",
		Ticker:      snap.Ticker,
		Pending:     snap.Pending,
		FailureKind: snap.FailureKind,
		Session:     string(snap.Session),
		UpdatedAt:   snap.UpdatedAt,
	}
	if q := snap.Quote; q != nil {
		msg.Quote = &QuoteDTO{
			Name:             q.Name,
			Price:            q.Price.String(),
			PriorClose:       q.PriorClose.String(),
			CumulativeVolume: q.CumulativeVolume,
			QuoteTime:        q.QuoteTime,
		}
	}
	if ind := snap.Indicators; ind != nil {
		msg.Indicators = &IndicatorsDTO{
			ShortMA:                   ind.ShortMA.String(),
			LongMA:                    ind.LongMA.String(),
			ShortWindow:               ind.ShortWindow,
			LongWindow:                ind.LongWindow,
			PriceVsShortMAPct:         ind.PriceVsShortMAPct.StringFixed(4),
			ChangeAbs:                 ind.ChangeAbs.String(),
			ChangePct:                 ind.ChangePct.StringFixed(4),
			LotVolume:                 ind.LotVolume.String(),
			VolumeRatioPct:            ind.VolumeRatioPct.StringFixed(4),
			AvgDailyLotVolume:         ind.AvgDailyLotVolume.String(),
			EstimatedFullDayLotVolume: ind.EstimatedFullDayLotVolume.StringFixed(0),
			ElapsedMinutes:            ind.ElapsedMinutes.StringFixed(2),
		}
	}
	return msg
}
