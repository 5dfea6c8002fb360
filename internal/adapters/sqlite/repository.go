package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"stockMonitor/internal/domain"
	"stockMonitor/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// timeLayout is fixed-width UTC so stored timestamps sort lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repository implements ports.SnapshotRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
	loc    *time.Location
	now    func() time.Time
}

var _ ports.SnapshotRepository = (*Repository)(nil)

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
	// Location decides where "today" starts for CountToday. Defaults to time.Local.
	Location *time.Location
	Now      func() time.Time
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/monitor.db" // Default path
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w: %w", filepath.Dir(dbPath), ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger, loc: cfg.Location, now: cfg.Now}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Debug(context.Background(), "Snapshot journal schema initialized/verified")

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
// Decimal columns are TEXT to keep exact values.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ticker TEXT NOT NULL,
		name TEXT NOT NULL,
		price TEXT NOT NULL,
		prior_close TEXT NOT NULL,
		cumulative_volume INTEGER NOT NULL,
		quote_time TEXT NOT NULL,
		short_ma TEXT NOT NULL,
		long_ma TEXT NOT NULL,
		short_window INTEGER NOT NULL,
		long_window INTEGER NOT NULL,
		price_vs_short_ma_pct TEXT NOT NULL,
		change_abs TEXT NOT NULL,
		change_pct TEXT NOT NULL,
		lot_volume TEXT NOT NULL,
		volume_ratio_pct TEXT NOT NULL,
		avg_daily_lot_volume TEXT NOT NULL,
		estimated_full_day_lot_volume TEXT NOT NULL,
		elapsed_minutes TEXT NOT NULL,
		session TEXT NOT NULL,
		computed_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_ticker_updated_at ON snapshots (ticker, updated_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// Save journals a computed snapshot and returns its assigned ID.
func (r *Repository) Save(ctx context.Context, snap *domain.Snapshot) (int64, error) {
	if snap == nil || !snap.IsComputed() {
		return 0, fmt.Errorf("only computed snapshots are journaled: %w", ports.ErrInvalidRequest)
	}
	const query = `
	INSERT INTO snapshots (ticker, name, price, prior_close, cumulative_volume, quote_time,
	                       short_ma, long_ma, short_window, long_window, price_vs_short_ma_pct,
	                       change_abs, change_pct, lot_volume, volume_ratio_pct, avg_daily_lot_volume,
	                       estimated_full_day_lot_volume, elapsed_minutes, session, computed_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	q, ind := snap.Quote, snap.Indicators
	result, err := r.db.ExecContext(ctx, query,
		snap.Ticker, q.Name, q.Price.String(), q.PriorClose.String(), q.CumulativeVolume, q.QuoteTime,
		ind.ShortMA.String(), ind.LongMA.String(), ind.ShortWindow, ind.LongWindow, ind.PriceVsShortMAPct.String(),
		ind.ChangeAbs.String(), ind.ChangePct.String(), ind.LotVolume.String(), ind.VolumeRatioPct.String(),
		ind.AvgDailyLotVolume.String(), ind.EstimatedFullDayLotVolume.String(), ind.ElapsedMinutes.String(),
		string(snap.Session), formatTime(ind.ComputedAt), formatTime(snap.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot for ticker %s: %w: %w", snap.Ticker, ports.ErrQueryFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for snapshot %s: %w: %w", snap.Ticker, ports.ErrQueryFailed, err)
	}
	snap.ID = id
	r.logger.Debug(ctx, "Snapshot journaled", map[string]interface{}{"snapshotID": id, "ticker": snap.Ticker})
	return id, nil
}

// FindRecent returns up to limit snapshots for ticker, newest first.
func (r *Repository) FindRecent(ctx context.Context, ticker string, limit int) ([]*domain.Snapshot, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d: %w", limit, ports.ErrInvalidRequest)
	}
	const query = `
	SELECT id, ticker, name, price, prior_close, cumulative_volume, quote_time,
	       short_ma, long_ma, short_window, long_window, price_vs_short_ma_pct,
	       change_abs, change_pct, lot_volume, volume_ratio_pct, avg_daily_lot_volume,
	       estimated_full_day_lot_volume, elapsed_minutes, session, computed_at, updated_at
	FROM snapshots
	WHERE ticker = ? ORDER BY updated_at DESC, id DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for ticker %s: %w: %w", ticker, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	snaps := make([]*domain.Snapshot, 0)
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot during FindRecent: %w: %w", ports.ErrQueryFailed, err)
		}
		snaps = append(snaps, snap)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w: %w", ports.ErrQueryFailed, err)
	}
	return snaps, nil
}

// CountToday counts snapshots journaled since local midnight for ticker.
func (r *Repository) CountToday(ctx context.Context, ticker string) (int, error) {
	now := r.now().In(r.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.loc)
	end := start.AddDate(0, 0, 1)

	const query = `SELECT COUNT(*) FROM snapshots WHERE ticker = ? AND updated_at >= ? AND updated_at < ?`
	var count int
	err := r.db.QueryRowContext(ctx, query, ticker, formatTime(start), formatTime(end)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots today for ticker %s: %w: %w", ticker, ports.ErrQueryFailed, err)
	}
	return count, nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSnapshot scans a row into a computed domain.Snapshot.
func scanSnapshot(s scanner) (*domain.Snapshot, error) {
	snap := &domain.Snapshot{Quote: &domain.Quote{}, Indicators: &domain.IndicatorSet{}}
	q, ind := snap.Quote, snap.Indicators

	var (
		price, priorClose, shortMA, longMA, vsMA, chAbs, chPct string
		lots, ratio, avgLots, estimate, elapsed                string
		session, computedAt, updatedAt                          string
	)
	err := s.Scan(
		&snap.ID, &snap.Ticker, &q.Name, &price, &priorClose, &q.CumulativeVolume, &q.QuoteTime,
		&shortMA, &longMA, &ind.ShortWindow, &ind.LongWindow, &vsMA,
		&chAbs, &chPct, &lots, &ratio, &avgLots,
		&estimate, &elapsed, &session, &computedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	decimals := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{price, &q.Price}, {priorClose, &q.PriorClose},
		{shortMA, &ind.ShortMA}, {longMA, &ind.LongMA}, {vsMA, &ind.PriceVsShortMAPct},
		{chAbs, &ind.ChangeAbs}, {chPct, &ind.ChangePct}, {lots, &ind.LotVolume},
		{ratio, &ind.VolumeRatioPct}, {avgLots, &ind.AvgDailyLotVolume},
		{estimate, &ind.EstimatedFullDayLotVolume}, {elapsed, &ind.ElapsedMinutes},
	}
	for _, d := range decimals {
		v, err := decimal.NewFromString(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q: %w", d.raw, err)
		}
		*d.dst = v
	}

	if ind.ComputedAt, err = time.Parse(timeLayout, computedAt); err != nil {
		return nil, err
	}
	if snap.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, err
	}
	q.Ticker = snap.Ticker
	q.FetchTime = snap.UpdatedAt
	snap.Session = domain.SessionState(session)
	return snap, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
