package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stockMonitor/config"
	"stockMonitor/internal/domain"
	"stockMonitor/internal/indicators"
	"stockMonitor/internal/ports"
	"stockMonitor/internal/session"
)

var errInvalidInterval = errors.New("poll interval must be positive")

// Cycle outcomes reported to metrics.
const (
	outcomeOK      = "ok"
	outcomePending = "pending"
)

// Dependencies bundles the collaborators of MonitorService.
type Dependencies struct {
	Logger ports.Logger
	// Market serves quotes and names the provider in metrics.
	Market ports.MarketData
	// History defaults to Market; wiring usually puts a cache in front of it.
	History    ports.HistoryProvider
	Engine     *indicators.Engine
	Session    *session.Session
	Presenters []ports.Presenter
	Journal    ports.SnapshotRepository // optional
	Metrics    ports.Metrics            // optional
	Now        func() time.Time
}

// MonitorService orchestrates the polling cycles of the monitor.
type MonitorService struct {
	cfg        *config.Config
	logger     ports.Logger
	market     ports.MarketData
	history    ports.HistoryProvider
	engine     *indicators.Engine
	session    *session.Session
	presenters []ports.Presenter
	journal    ports.SnapshotRepository
	metrics    ports.Metrics
	now        func() time.Time

	// State fields
	mu             sync.Mutex // Protects access to state fields below
	last           *domain.Snapshot
	journaledToday int
}

// NewMonitorService creates a new application service instance.
func NewMonitorService(cfg *config.Config, deps Dependencies) (*MonitorService, error) {
	// Validate dependencies
	if cfg == nil || deps.Logger == nil || deps.Market == nil || deps.Engine == nil || deps.Session == nil {
		return nil, fmt.Errorf("missing required dependencies for MonitorService")
	}

	// Validate config values needed by service
	if cfg.Ticker == "" {
		return nil, fmt.Errorf("configuration Ticker must be set")
	}
	if cfg.ShortWindow <= 0 || cfg.LongWindow <= 0 {
		return nil, fmt.Errorf("configuration windows must be positive")
	}
	if cfg.PollInterval <= 0 {
		return nil, errInvalidInterval
	}

	if deps.History == nil {
		deps.History = deps.Market
	}
	if deps.Metrics == nil {
		deps.Metrics = ports.NopMetrics{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &MonitorService{
		cfg:        cfg,
		logger:     deps.Logger,
		market:     deps.Market,
		history:    deps.History,
		engine:     deps.Engine,
		session:    deps.Session,
		presenters: deps.Presenters,
		journal:    deps.Journal,
		metrics:    deps.Metrics,
		now:        deps.Now,
	}, nil
}

// Start runs polling cycles until ctx is cancelled or SIGINT/SIGTERM arrives.
func (s *MonitorService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting Monitor Service...", map[string]interface{}{
		"ticker":       s.cfg.Ticker,
		"source":       s.market.Name(),
		"shortWindow":  s.cfg.ShortWindow,
		"longWindow":   s.cfg.LongWindow,
		"pollInterval": s.cfg.PollInterval.String(),
	})

	// Create a context that can be canceled by signals
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel() // Cancel the main context
		case <-ctx.Done():
		}
	}()

	// --- Initialization Steps ---
	// 1. Report session state
	now := s.now()
	s.logger.Info(ctx, "Session state", map[string]interface{}{
		"state":   s.session.State(now),
		"opensAt": s.session.OpenAt(now).Format(time.RFC3339),
	})

	// 2. Sync journal counter (not fatal, the journal is an add-on)
	if s.journal != nil {
		count, err := s.journal.CountToday(ctx, s.cfg.Ticker)
		if err != nil {
			s.logger.Warn(ctx, "Failed to count today's journaled snapshots", map[string]interface{}{"error": err.Error()})
		} else {
			s.mu.Lock()
			s.journaledToday = count
			s.mu.Unlock()
			s.logger.Info(ctx, "Journal state synchronized", map[string]interface{}{"journaledToday": count})
		}
	}

	// --- Main Loop ---
	err := Scheduler{Interval: s.cfg.PollInterval}.Run(ctx, func(ctx context.Context) {
		s.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("polling loop failed: %w", err)
	}

	s.logger.Info(context.Background(), "Monitor Service stopped", map[string]interface{}{
		"journaledToday": s.JournaledToday(),
	})
	return nil
}

// RunCycle performs one history -> quote -> compute -> present cycle. Failures
// never escape: they produce a pending snapshot labelled with the failure kind.
func (s *MonitorService) RunCycle(ctx context.Context) *domain.Snapshot {
	start := s.now()
	ctx = ports.WithCycleID(ctx, ports.NewCycleID(s.cfg.Ticker, start))

	snap := s.buildSnapshot(ctx, start)

	// Nothing is presented once shutdown has begun.
	if ctx.Err() == nil {
		s.publish(ctx, snap)
	}

	outcome := outcomeOK
	if !snap.IsComputed() {
		outcome = outcomePending
	}
	s.metrics.Observe(snap)
	s.metrics.CycleCompleted(outcome, s.now().Sub(start))

	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()
	return snap
}

func (s *MonitorService) buildSnapshot(ctx context.Context, start time.Time) *domain.Snapshot {
	snap := &domain.Snapshot{
		Ticker:    s.cfg.Ticker,
		Session:   s.session.State(start),
		UpdatedAt: start,
	}

	need := indicators.RequiredBars(s.cfg.ShortWindow, s.cfg.LongWindow)
	bars, err := s.history.DailyBars(ctx, s.cfg.Ticker, need)
	if err != nil {
		return s.pending(ctx, snap, err, "history")
	}

	quote, err := s.market.Quote(ctx, s.cfg.Ticker)
	if err != nil {
		return s.pending(ctx, snap, err, "quote")
	}
	snap.Quote = quote

	set, err := s.engine.Compute(bars, quote, s.cfg.ShortWindow, s.cfg.LongWindow)
	if err != nil {
		return s.pending(ctx, snap, err, "compute")
	}
	snap.Indicators = set

	s.logger.Debug(ctx, "Indicators computed", map[string]interface{}{
		"price":       quote.Price,
		"shortMA":     set.ShortMA,
		"volumeRatio": set.VolumeRatioPct.StringFixed(2),
		"bars":        len(bars),
	})
	return snap
}

// pending marks snap as pending and records the failure.
func (s *MonitorService) pending(ctx context.Context, snap *domain.Snapshot, err error, stage string) *domain.Snapshot {
	kind := ports.FailureKind(err)
	snap.Pending = true
	snap.FailureKind = kind
	snap.Err = err

	fields := map[string]interface{}{"stage": stage, "kind": kind, "error": err.Error()}
	if kind == ports.KindCanceled {
		s.logger.Debug(ctx, "Cycle interrupted", fields)
		return snap
	}
	if stage != "compute" {
		s.metrics.ProviderFailure(s.market.Name(), kind)
	}
	s.logger.Warn(ctx, "Market data unavailable, snapshot pending", fields)
	return snap
}

func (s *MonitorService) publish(ctx context.Context, snap *domain.Snapshot) {
	for _, p := range s.presenters {
		if err := p.Render(ctx, snap); err != nil {
			s.logger.Error(ctx, err, "Failed to render snapshot", map[string]interface{}{"presenter": fmt.Sprintf("%T", p)})
		}
	}

	if s.journal == nil || !snap.IsComputed() {
		return
	}
	id, err := s.journal.Save(ctx, snap)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to journal snapshot")
		return
	}
	s.mu.Lock()
	s.journaledToday++
	s.mu.Unlock()
	s.logger.Debug(ctx, "Snapshot journaled", map[string]interface{}{"id": id})
}

// Last returns the snapshot of the most recent cycle, or nil before the first one.
func (s *MonitorService) Last() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// JournaledToday returns the number of snapshots journaled today, including
// those found in the journal at start-up.
func (s *MonitorService) JournaledToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.journaledToday
}
