package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"stockMonitor/config"
	"stockMonitor/internal/adapters/binanceclient"
	"stockMonitor/internal/adapters/logger"
	"stockMonitor/internal/adapters/metrics"
	"stockMonitor/internal/adapters/rediscache"
	"stockMonitor/internal/adapters/sqlite"
	"stockMonitor/internal/adapters/terminal"
	"stockMonitor/internal/adapters/twse"
	"stockMonitor/internal/adapters/wsfeed"
	"stockMonitor/internal/adapters/yahoo"
	"stockMonitor/internal/app"
	"stockMonitor/internal/cache"
	"stockMonitor/internal/domain"
	"stockMonitor/internal/indicators"
	"stockMonitor/internal/ports"
	"stockMonitor/internal/session"
)

const shutdownTimeout = 5 * time.Second

// NewLogger builds the application logger from cfg.
func NewLogger(cfg *config.Config) *logger.SlogLogger {
	return logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// NewMarketData builds the provider selected by cfg.Source.
func NewMarketData(cfg *config.Config, log ports.Logger) (ports.MarketData, error) {
	switch cfg.Source {
	case domain.SourceTWSE:
		c, err := twse.New(twse.Config{
			Timeout:   cfg.HTTPTimeout,
			MaxMonths: cfg.HistoryMaxMonths,
			Location:  cfg.Location,
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case domain.SourceYahoo:
		c, err := yahoo.New(yahoo.Config{Logger: log})
		if err != nil {
			return nil, err
		}
		return c, nil
	case domain.SourceBinance:
		c, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.IsTestnet,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown source %q: %w", cfg.Source, ports.ErrConfigurationError)
}

// NewSession builds the session model. Crypto venues never close, so the
// binance source gets an always-open calendar.
func NewSession(cfg *config.Config) (*session.Session, error) {
	calendar := session.NewTaiwanCalendar()
	if cfg.Source == domain.SourceBinance {
		calendar = session.NewAlwaysOpenCalendar()
	}
	return session.New(session.Config{
		Location: cfg.Location,
		Open:     cfg.SessionOpen,
		Minutes:  cfg.SessionMinutes,
		Calendar: calendar,
	})
}

// buildOptions selects which optional parts a command needs.
type buildOptions struct {
	out         io.Writer // terminal presenter output; nil disables it
	clearScreen bool
	listener    bool // serve /metrics, /healthz and /ws when HTTP_ADDR is set
	journal     bool // journal computed snapshots when JOURNAL_ENABLED
}

// runtime is a fully wired monitor.
type runtime struct {
	cfg     *config.Config
	logger  *logger.SlogLogger
	service *app.MonitorService
	server  *metrics.Server
	closers []func() error
}

// build wires every component the monitor needs.
func build(ctx context.Context, cfg *config.Config, appLogger *logger.SlogLogger, opts buildOptions) (_ *runtime, err error) {
	rt := &runtime{cfg: cfg, logger: appLogger}
	defer func() {
		if err != nil {
			rt.Close(ctx)
		}
	}()

	// 1. Initialize Market Data Provider
	market, err := NewMarketData(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s provider: %w", cfg.Source, err)
	}
	if bc, ok := market.(*binanceclient.Client); ok {
		if err := bc.Ping(ctx); err != nil {
			// Not fatal: cycles retry and report the failure kind.
			appLogger.Warn(ctx, "Binance ping failed", map[string]interface{}{"error": err.Error()})
		}
	}
	appLogger.Info(ctx, "Market data provider initialized", map[string]interface{}{"source": market.Name()})

	// 2. Initialize Metrics
	var (
		prom   *metrics.Prometheus
		health *metrics.HealthStatus
		hub    *wsfeed.Hub
		sink   ports.Metrics = ports.NopMetrics{}
	)
	if opts.listener && cfg.HTTPAddr != "" {
		prom = metrics.New()
		sink = prom
		health = metrics.NewHealthStatus(market.Name(), cfg.Ticker, 5*cfg.PollInterval)
		hub = wsfeed.NewHub(appLogger)
		rt.closers = append(rt.closers, func() error { hub.Close(); return nil })
	}

	// 3. Initialize History Cache
	var store ports.HistoryCache
	if cfg.RedisAddr != "" {
		rc, err := rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.HistoryTTL,
			Logger:   appLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		rt.closers = append(rt.closers, rc.Close)
		store = rc
	} else {
		store = cache.NewMemoryCache(cfg.HistoryTTL)
	}
	history := cache.NewCachedHistory(market, store, sink, appLogger)

	// 4. Initialize Session and Indicator Engine
	sess, err := NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize session: %w", err)
	}
	engine, err := indicators.NewEngine(indicators.Config{LotSize: cfg.LotSize, Session: sess})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize indicator engine: %w", err)
	}

	// 5. Initialize Journal (Database Adapter)
	var journal ports.SnapshotRepository
	if opts.journal && cfg.JournalEnabled {
		repo, err := sqlite.NewRepository(sqlite.Config{
			DBPath:   cfg.DBPath,
			Logger:   appLogger,
			Location: cfg.Location,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize journal: %w", err)
		}
		rt.closers = append(rt.closers, repo.Close)
		journal = repo
		appLogger.Info(ctx, "Snapshot journal initialized", map[string]interface{}{"path": cfg.DBPath})
	}

	// 6. Initialize Presenters
	var presenters []ports.Presenter
	if opts.out != nil {
		presenters = append(presenters, terminal.New(terminal.Config{
			Out:         opts.out,
			ClearScreen: opts.clearScreen,
			Location:    cfg.Location,
		}))
	}
	if hub != nil {
		presenters = append(presenters, hub, health)
	}

	// 7. Initialize Application Service
	rt.service, err = app.NewMonitorService(cfg, app.Dependencies{
		Logger:     appLogger,
		Market:     market,
		History:    history,
		Engine:     engine,
		Session:    sess,
		Presenters: presenters,
		Journal:    journal,
		Metrics:    sink,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize monitor service: %w", err)
	}

	// 8. HTTP Listener
	if prom != nil {
		rt.server = metrics.NewServer(cfg.HTTPAddr, prom, health, hub, appLogger)
	}
	return rt, nil
}

// Close stops the listener and releases resources in reverse order.
func (rt *runtime) Close(ctx context.Context) {
	if rt.server != nil {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := rt.server.Stop(stopCtx); err != nil {
			rt.logger.Error(ctx, err, "Error stopping HTTP listener")
		}
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Error(ctx, err, "Error releasing resource")
		}
	}
	rt.closers = nil
}
