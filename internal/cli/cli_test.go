package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockMonitor/config"
	"stockMonitor/internal/adapters/logger"
	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"
)

// setEnv pins every variable the commands read.
func setEnv(t *testing.T, dbPath string) {
	t.Helper()
	for key, value := range map[string]string{
		"SOURCE": "", "TICKER": "", "SHORT_WINDOW": "", "LONG_WINDOW": "",
		"POLL_INTERVAL_SECONDS": "", "HISTORY_TTL_MINUTES": "", "SESSION_OPEN": "",
		"SESSION_MINUTES": "", "TIMEZONE": "", "LOT_SIZE": "", "HTTP_TIMEOUT_SECONDS": "",
		"HISTORY_MAX_MONTHS": "", "HTTP_ADDR": "", "REDIS_ADDR": "", "REDIS_DB": "",
		"JOURNAL_ENABLED": "", "LOG_LEVEL": "ERROR", "LOG_FORMAT": "", "DB_PATH": dbPath,
	} {
		t.Setenv(key, value)
	}
}

func testConfig(source domain.Source) *config.Config {
	cfg := &config.Config{
		Ticker: "2330", Source: source, ShortWindow: 5, LongWindow: 20,
		PollInterval: time.Second, HistoryTTL: time.Minute, SessionOpen: "09:00",
		SessionMinutes: 270, Timezone: "Asia/Taipei", LotSize: 1000,
		HTTPTimeout: time.Second, HistoryMaxMonths: 24, LogFormat: logger.FormatText,
	}
	if source == domain.SourceBinance {
		cfg.Ticker, cfg.SessionOpen, cfg.SessionMinutes, cfg.Timezone, cfg.LotSize = "BTCUSDT", "00:00", 1440, "UTC", 1
	}
	return cfg
}

func TestFlagsApply(t *testing.T) {
	cfg := testConfig(domain.SourceTWSE)
	f := &flags{ticker: "2317", shortWindow: 10, longWindow: 60, interval: 30 * time.Second}
	changed := map[string]bool{"ticker": true, "long": true, "interval": true}

	f.apply(func(name string) bool { return changed[name] }, cfg)

	assert.Equal(t, "2317", cfg.Ticker)
	assert.Equal(t, 5, cfg.ShortWindow, "unchanged flags keep the configured value")
	assert.Equal(t, 60, cfg.LongWindow)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestNewMarketData(t *testing.T) {
	log := logger.New(logger.Options{Level: logger.LevelError, Writer: &bytes.Buffer{}})

	for _, src := range []domain.Source{domain.SourceTWSE, domain.SourceYahoo, domain.SourceBinance} {
		t.Run(string(src), func(t *testing.T) {
			cfg := testConfig(src)
			require.NoError(t, cfg.Validate())
			md, err := NewMarketData(cfg, log)
			require.NoError(t, err)
			assert.Equal(t, string(src), md.Name())
		})
	}

	_, err := NewMarketData(&config.Config{Source: "bloomberg"}, log)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestNewSession_BinanceIsAlwaysOpen(t *testing.T) {
	cfg := testConfig(domain.SourceBinance)
	require.NoError(t, cfg.Validate())
	sess, err := NewSession(cfg)
	require.NoError(t, err)

	sunday := time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, domain.SessionOpen, sess.State(sunday))

	twCfg := testConfig(domain.SourceTWSE)
	require.NoError(t, twCfg.Validate())
	twSess, err := NewSession(twCfg)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionHoliday, twSess.State(sunday))
}

func TestBuild_WithoutOptionalParts(t *testing.T) {
	cfg := testConfig(domain.SourceTWSE)
	require.NoError(t, cfg.Validate())
	log := logger.New(logger.Options{Level: logger.LevelError, Writer: &bytes.Buffer{}})

	rt, err := build(context.Background(), cfg, log, buildOptions{})
	require.NoError(t, err)
	defer rt.Close(context.Background())

	assert.NotNil(t, rt.service)
	assert.Nil(t, rt.server, "no listener without HTTP_ADDR")
}

func TestBuild_WithListenerAndJournal(t *testing.T) {
	cfg := testConfig(domain.SourceTWSE)
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.JournalEnabled = true
	cfg.DBPath = filepath.Join(t.TempDir(), "monitor.db")
	require.NoError(t, cfg.Validate())
	log := logger.New(logger.Options{Level: logger.LevelError, Writer: &bytes.Buffer{}})

	rt, err := build(context.Background(), cfg, log, buildOptions{out: &bytes.Buffer{}, listener: true, journal: true})
	require.NoError(t, err)
	defer rt.Close(context.Background())

	assert.NotNil(t, rt.server)
	assert.Len(t, rt.closers, 2) // hub and journal
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCommand("1.2.3")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "stockmonitor 1.2.3\n", out.String())
}

func TestJournalCommand_EmptyJournal(t *testing.T) {
	setEnv(t, filepath.Join(t.TempDir(), "monitor.db"))

	root := NewRootCommand("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"journal", "--ticker", "2317", "--limit", "5"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "No journaled snapshots.")
	assert.Contains(t, out.String(), "2317: 0 snapshot(s) journaled today")
}

func TestRootCommand_InvalidFlagOverride(t *testing.T) {
	setEnv(t, filepath.Join(t.TempDir(), "monitor.db"))

	root := NewRootCommand("test")
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"journal", "--short", "0"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHORT_WINDOW must be positive")
}
