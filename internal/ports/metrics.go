package ports

import (
	"time"

	"stockMonitor/internal/domain"
)

// Metrics receives operational measurements from the monitor.
type Metrics interface {
	CycleCompleted(outcome string, d time.Duration)
	ProviderFailure(provider, kind string)
	CacheLookup(hit bool)
	Observe(snap *domain.Snapshot)
}

// NopMetrics discards all measurements.
type NopMetrics struct{}

func (NopMetrics) CycleCompleted(string, time.Duration) {}
func (NopMetrics) ProviderFailure(string, string)       {}
func (NopMetrics) CacheLookup(bool)                     {}
func (NopMetrics) Observe(*domain.Snapshot)             {}
