package session

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMonitor/internal/domain"
)

var taipei = time.FixedZone("CST", 8*3600)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(Config{Location: taipei, Open: "09:00", Minutes: DefaultMinutes})
	require.NoError(t, err)
	return s
}

func at(hour, minute int) time.Time {
	// 2026-10-16 is a Friday.
	return time.Date(2026, time.October, 16, hour, minute, 0, 0, taipei)
}

func TestSession_ElapsedMinutes(t *testing.T) {
	s := newTestSession(t)

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{name: "before open clamps to one", now: at(8, 30), want: "1"},
		{name: "exactly at open clamps to one", now: at(9, 0), want: "1"},
		{name: "one hour in", now: at(10, 0), want: "60"},
		{name: "exactly at close", now: at(13, 30), want: "270"},
		{name: "after close clamps to session length", now: at(15, 0), want: "270"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ElapsedMinutes(tt.now)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestSession_ElapsedMinutesUsesExchangeZone(t *testing.T) {
	s := newTestSession(t)
	// 02:00 UTC is 10:00 in Taipei.
	now := time.Date(2026, time.October, 16, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "60", s.ElapsedMinutes(now).String())
}

func TestEstimateFullDay(t *testing.T) {
	lots := decimal.NewFromInt(5000)

	full := EstimateFullDay(lots, decimal.NewFromInt(270), 270)
	assert.True(t, full.Equal(lots), "factor at full session must be 1, got %s", full)

	first := EstimateFullDay(lots, decimal.NewFromInt(1), 270)
	assert.True(t, first.Equal(lots.Mul(decimal.NewFromInt(270))), "got %s", first)

	half := EstimateFullDay(lots, decimal.NewFromInt(135), 270)
	assert.Equal(t, "10000", half.String())
}

func TestSession_State(t *testing.T) {
	s := newTestSession(t)

	tests := []struct {
		name string
		now  time.Time
		want domain.SessionState
	}{
		{name: "pre open", now: at(8, 0), want: domain.SessionPreOpen},
		{name: "open", now: at(10, 0), want: domain.SessionOpen},
		{name: "closed", now: at(14, 0), want: domain.SessionClosed},
		{name: "weekend", now: time.Date(2026, time.October, 17, 10, 0, 0, 0, taipei), want: domain.SessionHoliday},
		{name: "labour day", now: time.Date(2026, time.May, 1, 10, 0, 0, 0, taipei), want: domain.SessionHoliday},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.State(tt.now))
		})
	}
}

func TestAlwaysOpenCalendar(t *testing.T) {
	s, err := New(Config{Location: time.UTC, Open: "00:00", Minutes: 1440, Calendar: NewAlwaysOpenCalendar()})
	require.NoError(t, err)
	sat := time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, domain.SessionOpen, s.State(sat))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{Location: taipei, Open: "9am", Minutes: 270})
	assert.Error(t, err)

	_, err = New(Config{Location: taipei, Open: "09:00", Minutes: 0})
	assert.Error(t, err)

	_, err = New(Config{Location: taipei, Open: "24:00", Minutes: 270})
	assert.Error(t, err)
}
