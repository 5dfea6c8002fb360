package terminal

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

var taipei = time.FixedZone("CST", 8*3600)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func exampleSnapshot() *domain.Snapshot {
	at := time.Date(2026, 10, 16, 10, 0, 0, 0, taipei)
	return &domain.Snapshot{
		Ticker: "2330",
		Quote: &domain.Quote{
			Ticker: "2330", Name: "TSMC", Price: d("16"), PriorClose: d("15"),
			CumulativeVolume: 2_100_000, QuoteTime: "09:59:55",
		},
		Indicators: &domain.IndicatorSet{
			ShortMA: d("13"), LongMA: d("14"), ShortWindow: 5, LongWindow: 3,
			PriceVsShortMAPct: d("23.07692307692308"), ChangeAbs: d("1"), ChangePct: d("6.666666666666667"),
			LotVolume: d("2100"), VolumeRatioPct: d("150"), AvgDailyLotVolume: d("1400"),
			EstimatedFullDayLotVolume: d("9450"), ElapsedMinutes: d("60"),
		},
		Session:   domain.SessionOpen,
		UpdatedAt: at,
	}
}

func TestRow(t *testing.T) {
	row := Row(exampleSnapshot())
	require.Len(t, row, 13)
	assert.Equal(t, []string{
		"2330", "TSMC", "16.00", "+1.00 (+6.67%)", "+23.08%",
		"13.00", "5", "14.00", "3", "2,100", "150.00%", "1400.00", "9450",
	}, row)
	assert.Len(t, Headers(5, 3), len(row))
}

func TestSigned(t *testing.T) {
	assert.Equal(t, "+1.50", signed(d("1.5")))
	assert.Equal(t, "-0.25", signed(d("-0.25")))
	assert.Equal(t, "0.00", signed(d("0.001")))
}

func TestGroupThousands(t *testing.T) {
	tests := map[string]string{
		"0":        "0",
		"999":      "999",
		"1000":     "1,000",
		"123456":   "123,456",
		"1234567":  "1,234,567",
		"-1234567": "-1,234,567",
	}
	for in, want := range tests {
		assert.Equal(t, want, groupThousands(in), in)
	}
}

func TestPresenter_RenderComputed(t *testing.T) {
	var buf bytes.Buffer
	p := New(Config{Out: &buf, Location: taipei})

	require.NoError(t, p.Render(context.Background(), exampleSnapshot()))

	out := buf.String()
	assert.False(t, strings.HasPrefix(out, clearSequence))
	for _, want := range []string{"2330", "TSMC", "+1.00 (+6.67%)", "MA5", "2,100", "9450", "Last updated: 10:00:00", "session: open"} {
		assert.Contains(t, out, want)
	}
}

func TestPresenter_RenderPending(t *testing.T) {
	var buf bytes.Buffer
	p := New(Config{Out: &buf, ClearScreen: true, Location: taipei})

	snap := &domain.Snapshot{
		Ticker:      "2330",
		Pending:     true,
		FailureKind: ports.KindTransport,
		UpdatedAt:   time.Date(2026, 10, 16, 10, 0, 10, 0, taipei),
	}
	require.NoError(t, p.Render(context.Background(), snap))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, clearSequence))
	assert.Contains(t, out, "Waiting for market data (transport)")
	assert.Contains(t, out, "Last updated: 10:00:10")
	assert.NotContains(t, out, "Est. Lots")
}

func TestPresenter_RenderNil(t *testing.T) {
	p := New(Config{Out: &bytes.Buffer{}})
	assert.ErrorIs(t, p.Render(context.Background(), nil), ports.ErrInvalidRequest)
}

func TestFormatJournal(t *testing.T) {
	older := exampleSnapshot()
	older.UpdatedAt = older.UpdatedAt.Add(-time.Minute)
	pending := &domain.Snapshot{Ticker: "2330", Pending: true, FailureKind: ports.KindEmpty}

	out := FormatJournal([]*domain.Snapshot{exampleSnapshot(), pending, older}, taipei)

	assert.Contains(t, out, "Updated")
	assert.Contains(t, out, "10-16 10:00:00")
	assert.Contains(t, out, "10-16 09:59:00")
	assert.Contains(t, out, "9450")
	assert.Equal(t, 2, strings.Count(out, "TSMC"))
}

func TestFormatJournal_Empty(t *testing.T) {
	out := FormatJournal(nil, taipei)
	assert.Contains(t, out, "No journaled snapshots.")
}
