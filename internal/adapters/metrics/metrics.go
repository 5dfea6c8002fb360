// Package metrics exposes monitor measurements to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

// Prometheus implements ports.Metrics on a dedicated registry.
type Prometheus struct {
	registry *prometheus.Registry

	CyclesTotal      *prometheus.CounterVec // labels: outcome
	CycleDuration    prometheus.Histogram
	ProviderFailures *prometheus.CounterVec // labels: provider, kind
	CacheLookups     *prometheus.CounterVec // labels: result=hit|miss
	LastPrice        *prometheus.GaugeVec   // labels: ticker
	VolumeRatio      *prometheus.GaugeVec   // labels: ticker
	EstimatedLots    *prometheus.GaugeVec   // labels: ticker
	SessionState     prometheus.Gauge       // 0=pre_open, 1=open, 2=closed, 3=holiday
}

var _ ports.Metrics = (*Prometheus)(nil)

// New registers and returns all monitor metrics.
func New() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmonitor_cycles_total",
			Help: "Polling cycles by outcome",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockmonitor_cycle_duration_seconds",
			Help:    "Wall time of one polling cycle",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmonitor_provider_failures_total",
			Help: "Market data failures by provider and failure kind",
		}, []string{"provider", "kind"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stockmonitor_history_cache_lookups_total",
			Help: "History cache lookups by result",
		}, []string{"result"}),
		LastPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockmonitor_last_price",
			Help: "Latest quoted price",
		}, []string{"ticker"}),
		VolumeRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockmonitor_volume_ratio_percent",
			Help: "Volume so far as a percentage of the average daily volume",
		}, []string{"ticker"}),
		EstimatedLots: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockmonitor_estimated_full_day_lots",
			Help: "Extrapolated full-session volume in lots",
		}, []string{"ticker"}),
		SessionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stockmonitor_session_state",
			Help: "Session state: 0=pre_open, 1=open, 2=closed, 3=holiday",
		}),
	}

	m.registry.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.ProviderFailures,
		m.CacheLookups,
		m.LastPrice,
		m.VolumeRatio,
		m.EstimatedLots,
		m.SessionState,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the /metrics handler.
func (m *Prometheus) Registry() *prometheus.Registry { return m.registry }

// CycleCompleted records one finished cycle.
func (m *Prometheus) CycleCompleted(outcome string, d time.Duration) {
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// ProviderFailure counts a failed fetch.
func (m *Prometheus) ProviderFailure(provider, kind string) {
	m.ProviderFailures.WithLabelValues(provider, kind).Inc()
}

// CacheLookup counts a history cache hit or miss.
func (m *Prometheus) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Observe updates gauges from a snapshot. Pending snapshots only move the
// session gauge.
func (m *Prometheus) Observe(snap *domain.Snapshot) {
	if snap == nil {
		return
	}
	m.SessionState.Set(sessionValue(snap.Session))
	if !snap.IsComputed() {
		return
	}
	m.LastPrice.WithLabelValues(snap.Ticker).Set(snap.Quote.Price.InexactFloat64())
	m.VolumeRatio.WithLabelValues(snap.Ticker).Set(snap.Indicators.VolumeRatioPct.InexactFloat64())
	m.EstimatedLots.WithLabelValues(snap.Ticker).Set(snap.Indicators.EstimatedFullDayLotVolume.InexactFloat64())
}

func sessionValue(s domain.SessionState) float64 {
	switch s {
	case domain.SessionOpen:
		return 1
	case domain.SessionClosed:
		return 2
	case domain.SessionHoliday:
		return 3
	default:
		return 0
	}
}
