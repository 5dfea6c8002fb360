package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockMonitor/internal/adapters/logger" // LogLevel and Format
	"stockMonitor/internal/domain"
	"stockMonitor/internal/session"
)

// Config holds all application configuration.
type Config struct {
	// Instrument
	Ticker      string
	ShortWindow int
	LongWindow  int
	Source      domain.Source

	// Polling and caching
	PollInterval time.Duration
	HistoryTTL   time.Duration

	// Session model
	SessionOpen    string // "HH:MM"
	SessionMinutes int
	Timezone       string
	Location       *time.Location
	LotSize        int64

	// Providers
	HTTPTimeout      time.Duration
	HistoryMaxMonths int

	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Database
	DBPath         string
	JournalEnabled bool

	// Optional infrastructure
	HTTPAddr      string // metrics, health and websocket listener
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Logging and display
	LogLevel    logger.LogLevel
	LogFormat   logger.Format
	ClearScreen bool
}

// sourceDefaults are the per-source fallbacks used when the matching variable is unset.
type sourceDefaults struct {
	ticker         string
	sessionOpen    string
	sessionMinutes int
	timezone       string
	lotSize        int
}

var defaultsBySource = map[domain.Source]sourceDefaults{
	domain.SourceTWSE:    {ticker: "2330", sessionOpen: "09:00", sessionMinutes: 270, timezone: "Asia/Taipei", lotSize: 1000},
	domain.SourceYahoo:   {ticker: "2330", sessionOpen: "09:00", sessionMinutes: 270, timezone: "Asia/Taipei", lotSize: 1000},
	domain.SourceBinance: {ticker: "BTCUSDT", sessionOpen: "00:00", sessionMinutes: 1440, timezone: "UTC", lotSize: 1},
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	cfg.Source = domain.Source(strings.ToLower(getEnv("SOURCE", string(domain.SourceTWSE))))
	defaults, ok := defaultsBySource[cfg.Source]
	if !ok {
		errs = append(errs, fmt.Sprintf("SOURCE must be one of twse, yahoo, binance (got %q)", cfg.Source))
		defaults = defaultsBySource[domain.SourceTWSE]
	}

	cfg.Ticker = getEnv("TICKER", defaults.ticker)

	cfg.ShortWindow, err = getEnvAsIntRequired("SHORT_WINDOW", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SHORT_WINDOW: %v", err))
	}
	cfg.LongWindow, err = getEnvAsIntRequired("LONG_WINDOW", 20)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LONG_WINDOW: %v", err))
	}

	pollSeconds, err := getEnvAsIntRequired("POLL_INTERVAL_SECONDS", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid POLL_INTERVAL_SECONDS: %v", err))
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	ttlMinutes, err := getEnvAsIntRequired("HISTORY_TTL_MINUTES", 60)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HISTORY_TTL_MINUTES: %v", err))
	}
	cfg.HistoryTTL = time.Duration(ttlMinutes) * time.Minute

	// Session
	cfg.SessionOpen = getEnv("SESSION_OPEN", defaults.sessionOpen)
	cfg.SessionMinutes, err = getEnvAsIntRequired("SESSION_MINUTES", defaults.sessionMinutes)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SESSION_MINUTES: %v", err))
	}
	cfg.Timezone = getEnv("TIMEZONE", defaults.timezone)

	lotSize, err := getEnvAsIntRequired("LOT_SIZE", defaults.lotSize)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LOT_SIZE: %v", err))
	}
	cfg.LotSize = int64(lotSize)

	// Providers
	timeoutSeconds, err := getEnvAsIntRequired("HTTP_TIMEOUT_SECONDS", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_TIMEOUT_SECONDS: %v", err))
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.HistoryMaxMonths, err = getEnvAsIntRequired("HISTORY_MAX_MONTHS", 24)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HISTORY_MAX_MONTHS: %v", err))
	}

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/monitor.db")
	cfg.JournalEnabled = getEnvAsBool("JOURNAL_ENABLED", true)

	// Optional infrastructure
	cfg.HTTPAddr = getEnv("HTTP_ADDR", "")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB, err = getEnvAsIntRequired("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REDIS_DB: %v", err))
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = logger.Format(strings.ToLower(getEnv("LOG_FORMAT", string(logger.FormatText))))
	cfg.ClearScreen = getEnvAsBool("CLEAR_SCREEN", true)

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and resolves Location. It is called again after
// command-line overrides are applied.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Ticker) == "" {
		errs = append(errs, "TICKER must be set")
	}
	if !c.Source.Valid() {
		errs = append(errs, fmt.Sprintf("SOURCE must be one of twse, yahoo, binance (got %q)", c.Source))
	}
	if c.ShortWindow <= 0 {
		errs = append(errs, "SHORT_WINDOW must be positive")
	}
	if c.LongWindow <= 0 {
		errs = append(errs, "LONG_WINDOW must be positive")
	}
	if c.PollInterval <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	if c.HistoryTTL <= 0 {
		errs = append(errs, "HISTORY_TTL_MINUTES must be positive")
	}
	if _, _, err := session.ParseClock(c.SessionOpen); err != nil {
		errs = append(errs, fmt.Sprintf("invalid SESSION_OPEN: %v", err))
	}
	if c.SessionMinutes <= 0 || c.SessionMinutes > 1440 {
		errs = append(errs, "SESSION_MINUTES must be between 1 and 1440")
	}
	if c.LotSize <= 0 {
		errs = append(errs, "LOT_SIZE must be positive")
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.HistoryMaxMonths <= 0 {
		errs = append(errs, "HISTORY_MAX_MONTHS must be positive")
	}
	if c.JournalEnabled && c.DBPath == "" {
		errs = append(errs, "DB_PATH must be set when the journal is enabled")
	}
	if c.RedisDB < 0 {
		errs = append(errs, "REDIS_DB cannot be negative")
	}
	if c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be text or json (got %q)", c.LogFormat))
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TIMEZONE %q: %v", c.Timezone, err))
	} else {
		c.Location = loc
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
