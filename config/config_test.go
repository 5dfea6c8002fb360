package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMonitor/internal/adapters/logger"
	"stockMonitor/internal/domain"
)

// clearEnv blanks every variable LoadConfig reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SOURCE", "TICKER", "SHORT_WINDOW", "LONG_WINDOW", "POLL_INTERVAL_SECONDS",
		"HISTORY_TTL_MINUTES", "SESSION_OPEN", "SESSION_MINUTES", "TIMEZONE", "LOT_SIZE",
		"HTTP_TIMEOUT_SECONDS", "HISTORY_MAX_MONTHS", "BINANCE_API_KEY", "BINANCE_API_SECRET",
		"IS_TESTNET", "DB_PATH", "JOURNAL_ENABLED", "HTTP_ADDR", "REDIS_ADDR", "REDIS_PASSWORD",
		"REDIS_DB", "LOG_LEVEL", "LOG_FORMAT", "CLEAR_SCREEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "2330", cfg.Ticker)
	assert.Equal(t, domain.SourceTWSE, cfg.Source)
	assert.Equal(t, 5, cfg.ShortWindow)
	assert.Equal(t, 20, cfg.LongWindow)
	assert.Equal(t, 10*time.Second, cfg.PollInterval)
	assert.Equal(t, time.Hour, cfg.HistoryTTL)
	assert.Equal(t, "09:00", cfg.SessionOpen)
	assert.Equal(t, 270, cfg.SessionMinutes)
	assert.Equal(t, int64(1000), cfg.LotSize)
	assert.Equal(t, 24, cfg.HistoryMaxMonths)
	assert.Equal(t, "./data/monitor.db", cfg.DBPath)
	assert.True(t, cfg.JournalEnabled)
	assert.True(t, cfg.ClearScreen)
	assert.Equal(t, logger.LevelInfo, cfg.LogLevel)
	assert.Equal(t, logger.FormatText, cfg.LogFormat)
	require.NotNil(t, cfg.Location)
	assert.Equal(t, "Asia/Taipei", cfg.Location.String())
}

func TestLoadConfig_BinanceDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOURCE", "binance")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", cfg.Ticker)
	assert.Equal(t, "00:00", cfg.SessionOpen)
	assert.Equal(t, 1440, cfg.SessionMinutes)
	assert.Equal(t, int64(1), cfg.LotSize)
	assert.Equal(t, "UTC", cfg.Location.String())
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TICKER", "2317")
	t.Setenv("SOURCE", "Yahoo")
	t.Setenv("SHORT_WINDOW", "10")
	t.Setenv("LONG_WINDOW", "60")
	t.Setenv("POLL_INTERVAL_SECONDS", "30")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("JOURNAL_ENABLED", "false")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "2317", cfg.Ticker)
	assert.Equal(t, domain.SourceYahoo, cfg.Source)
	assert.Equal(t, 10, cfg.ShortWindow)
	assert.Equal(t, 60, cfg.LongWindow)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, logger.LevelDebug, cfg.LogLevel)
	assert.Equal(t, logger.FormatJSON, cfg.LogFormat)
	assert.False(t, cfg.JournalEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
}

func TestLoadConfig_CollectsErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("SHORT_WINDOW", "five")
	t.Setenv("POLL_INTERVAL_SECONDS", "x")
	t.Setenv("SOURCE", "bloomberg")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid SHORT_WINDOW")
	assert.Contains(t, err.Error(), "invalid POLL_INTERVAL_SECONDS")
	assert.Contains(t, err.Error(), "SOURCE must be one of")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Ticker: "2330", Source: domain.SourceTWSE, ShortWindow: 5, LongWindow: 20,
			PollInterval: time.Second, HistoryTTL: time.Minute, SessionOpen: "09:00", SessionMinutes: 270,
			Timezone: "Asia/Taipei", LotSize: 1000, HTTPTimeout: time.Second,
			HistoryMaxMonths: 24, DBPath: "x.db", JournalEnabled: true, LogFormat: logger.FormatText,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"empty ticker", func(c *Config) { c.Ticker = " " }, "TICKER must be set"},
		{"zero short window", func(c *Config) { c.ShortWindow = 0 }, "SHORT_WINDOW must be positive"},
		{"negative long window", func(c *Config) { c.LongWindow = -1 }, "LONG_WINDOW must be positive"},
		{"session too long", func(c *Config) { c.SessionMinutes = 1441 }, "SESSION_MINUTES"},
		{"bad session open", func(c *Config) { c.SessionOpen = "9am" }, "invalid SESSION_OPEN"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "invalid TIMEZONE"},
		{"journal without path", func(c *Config) { c.DBPath = "" }, "DB_PATH must be set"},
		{"journal disabled without path", func(c *Config) { c.DBPath = ""; c.JournalEnabled = false }, ""},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "LOG_FORMAT"},
		{"unknown source", func(c *Config) { c.Source = "bloomberg" }, "SOURCE must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, c.Location)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
