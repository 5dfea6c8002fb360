package rediscache

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

type mockLogger struct{ warnMsgs []string }

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// fakeKV stores values in memory and records the expiry passed to Set.
type fakeKV struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.failGet != nil {
		return goredis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(string(v), nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	f.data[key] = value.([]byte)
	f.ttls[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	logger := &mockLogger{}
	c := newCache(store, 30*time.Minute, logger)
	key := ports.CacheKey{Ticker: "2330", Depth: 21}

	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
	assert.Empty(t, logger.warnMsgs, "a plain miss is not logged")

	in := []domain.DailyBar{
		{Date: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("1005.5"), Volume: 25_000_000},
		{Date: time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), Close: decimal.RequireFromString("990"), Volume: 30_000_000},
	}
	c.Set(ctx, key, in)
	assert.Equal(t, 30*time.Minute, store.ttls["stockmonitor:history:2330-21"])

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	require.Len(t, got, 2)
	assert.True(t, got[0].Close.Equal(in[0].Close))
	assert.Equal(t, in[1].Volume, got[1].Volume)
	assert.True(t, got[1].Date.Equal(in[1].Date))
}

func TestCache_ErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	store := newFakeKV()
	logger := &mockLogger{}
	c := newCache(store, 0, logger)
	key := ports.CacheKey{Ticker: "2330", Depth: 6}

	store.data[redisKey(key)] = []byte("not json")
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	store.failGet = errors.New("connection reset")
	_, ok = c.Get(ctx, key)
	assert.False(t, ok)
	assert.Len(t, logger.warnMsgs, 2)
	assert.Equal(t, time.Hour, c.ttl)
}
