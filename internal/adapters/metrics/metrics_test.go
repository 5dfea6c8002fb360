package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// metricValue returns the value of the first sample of name whose labels match.
func metricValue(t *testing.T, m *Prometheus, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if !labelsMatch(metric, labels) {
				continue
			}
			switch {
			case metric.Counter != nil:
				return metric.GetCounter().GetValue()
			case metric.Gauge != nil:
				return metric.GetGauge().GetValue()
			case metric.Histogram != nil:
				return float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	t.Fatalf("metric %s%v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range metric.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func computedSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		Ticker:     "2330",
		Quote:      &domain.Quote{Price: decimal.RequireFromString("1005.5"), PriorClose: decimal.NewFromInt(990)},
		Indicators: &domain.IndicatorSet{VolumeRatioPct: decimal.NewFromInt(150), EstimatedFullDayLotVolume: decimal.NewFromInt(9450)},
		Session:    domain.SessionOpen,
		UpdatedAt:  time.Now(),
	}
}

func TestPrometheus_Counters(t *testing.T) {
	m := New()

	m.CycleCompleted("ok", 120*time.Millisecond)
	m.CycleCompleted("ok", 80*time.Millisecond)
	m.CycleCompleted("pending", time.Second)
	m.ProviderFailure("twse", ports.KindTimeout)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 2.0, metricValue(t, m, "stockmonitor_cycles_total", map[string]string{"outcome": "ok"}))
	assert.Equal(t, 1.0, metricValue(t, m, "stockmonitor_cycles_total", map[string]string{"outcome": "pending"}))
	assert.Equal(t, 3.0, metricValue(t, m, "stockmonitor_cycle_duration_seconds", nil))
	assert.Equal(t, 1.0, metricValue(t, m, "stockmonitor_provider_failures_total", map[string]string{"provider": "twse", "kind": "timeout"}))
	assert.Equal(t, 1.0, metricValue(t, m, "stockmonitor_history_cache_lookups_total", map[string]string{"result": "hit"}))
	assert.Equal(t, 2.0, metricValue(t, m, "stockmonitor_history_cache_lookups_total", map[string]string{"result": "miss"}))
}

func TestPrometheus_Observe(t *testing.T) {
	m := New()

	m.Observe(computedSnapshot())
	assert.Equal(t, 1005.5, metricValue(t, m, "stockmonitor_last_price", map[string]string{"ticker": "2330"}))
	assert.Equal(t, 150.0, metricValue(t, m, "stockmonitor_volume_ratio_percent", map[string]string{"ticker": "2330"}))
	assert.Equal(t, 1.0, metricValue(t, m, "stockmonitor_session_state", nil))

	m.Observe(&domain.Snapshot{Ticker: "2330", Pending: true, Session: domain.SessionHoliday})
	assert.Equal(t, 3.0, metricValue(t, m, "stockmonitor_session_state", nil))
	assert.Equal(t, 1005.5, metricValue(t, m, "stockmonitor_last_price", map[string]string{"ticker": "2330"}), "pending leaves price untouched")
}

func TestHealthStatus(t *testing.T) {
	h := NewHealthStatus("twse", "2330", time.Minute)
	base := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return base }

	get := func() (int, map[string]interface{}) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return rec.Code, body
	}

	code, body := get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "starting", body["status"])

	h.Record(&domain.Snapshot{Ticker: "2330", Pending: true, FailureKind: ports.KindTransport, UpdatedAt: base})
	code, body = get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "transport", body["last_failure"])

	ok := computedSnapshot()
	ok.UpdatedAt = base
	require.NoError(t, h.Render(context.Background(), ok))
	code, body = get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])

	h.now = func() time.Time { return base.Add(2 * time.Minute) }
	code, _ = get()
	assert.Equal(t, http.StatusServiceUnavailable, code, "stale success")
}

func TestServer_Routes(t *testing.T) {
	m := New()
	m.CycleCompleted("ok", time.Millisecond)
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	s := NewServer("127.0.0.1:0", m, NewHealthStatus("twse", "2330", 0), ws, &mockLogger{})

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `stockmonitor_cycles_total{outcome="ok"} 1`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
}
