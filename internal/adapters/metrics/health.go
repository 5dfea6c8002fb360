package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"stockMonitor/internal/domain"
)

// HealthStatus tracks the outcome of recent cycles for /healthz.
type HealthStatus struct {
	mu          sync.RWMutex
	StartedAt   time.Time
	Provider    string
	Ticker      string
	LastCycleAt time.Time
	LastSuccess time.Time
	LastFailure string
	Cycles      int64
	// StaleAfter marks the monitor degraded when no cycle succeeded for this long.
	StaleAfter time.Duration
	now        func() time.Time
}

// NewHealthStatus returns a default health status.
func NewHealthStatus(provider, ticker string, staleAfter time.Duration) *HealthStatus {
	return &HealthStatus{
		StartedAt:  time.Now(),
		Provider:   provider,
		Ticker:     ticker,
		StaleAfter: staleAfter,
		now:        time.Now,
	}
}

// Record updates the status from a cycle's snapshot.
func (h *HealthStatus) Record(snap *domain.Snapshot) {
	if snap == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Cycles++
	h.LastCycleAt = snap.UpdatedAt
	if snap.IsComputed() {
		h.LastSuccess = snap.UpdatedAt
		h.LastFailure = ""
	} else {
		h.LastFailure = snap.FailureKind
	}
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := h.now()
	overallStatus := "healthy"
	httpCode := http.StatusOK
	switch {
	case h.Cycles == 0:
		overallStatus = "starting"
	case h.LastSuccess.IsZero():
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	case h.StaleAfter > 0 && now.Sub(h.LastSuccess) > h.StaleAfter:
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status      string `json:"status"`
		Uptime      string `json:"uptime"`
		Provider    string `json:"provider"`
		Ticker      string `json:"ticker"`
		Cycles      int64  `json:"cycles"`
		LastCycleAt string `json:"last_cycle_at,omitempty"`
		LastSuccess string `json:"last_success,omitempty"`
		LastFailure string `json:"last_failure,omitempty"`
	}{
		Status:      overallStatus,
		Uptime:      now.Sub(h.StartedAt).Round(time.Second).String(),
		Provider:    h.Provider,
		Ticker:      h.Ticker,
		Cycles:      h.Cycles,
		LastFailure: h.LastFailure,
	}
	if !h.LastCycleAt.IsZero() {
		status.LastCycleAt = h.LastCycleAt.Format(time.RFC3339)
	}
	if !h.LastSuccess.IsZero() {
		status.LastSuccess = h.LastSuccess.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Render lets the health tracker subscribe to cycles like any other presenter.
func (h *HealthStatus) Render(_ context.Context, snap *domain.Snapshot) error {
	h.Record(snap)
	return nil
}
