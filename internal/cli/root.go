// Package cli holds the stockmonitor command tree and its wiring.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stockMonitor/config"
	"stockMonitor/internal/adapters/sqlite"
	"stockMonitor/internal/adapters/terminal"
	"stockMonitor/internal/adapters/wsfeed"
)

// flags are the command-line overrides shared by every command.
type flags struct {
	ticker      string
	source      string
	shortWindow int
	longWindow  int
	interval    time.Duration
}

// apply copies the flags the user actually set onto cfg.
func (f *flags) apply(changed func(name string) bool, cfg *config.Config) {
	if changed("ticker") {
		cfg.Ticker = f.ticker
	}
	if changed("short") {
		cfg.ShortWindow = f.shortWindow
	}
	if changed("long") {
		cfg.LongWindow = f.longWindow
	}
	if changed("interval") {
		cfg.PollInterval = f.interval
	}
}

// NewRootCommand builds the stockmonitor command tree. Running the root
// command without a subcommand starts the monitor.
func NewRootCommand(version string) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "stockmonitor",
		Short:         "Intraday single-stock indicator monitor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.ticker, "ticker", "t", "", "stock symbol (overrides TICKER)")
	pf.StringVarP(&f.source, "source", "s", "", "market data source: twse, yahoo or binance (overrides SOURCE)")
	pf.IntVar(&f.shortWindow, "short", 0, "short lookback window in days (overrides SHORT_WINDOW)")
	pf.IntVar(&f.longWindow, "long", 0, "long lookback window in days (overrides LONG_WINDOW)")
	pf.DurationVarP(&f.interval, "interval", "i", 0, "poll interval, e.g. 10s (overrides POLL_INTERVAL_SECONDS)")

	root.AddCommand(
		newMonitorCommand(f),
		newSnapshotCommand(f),
		newJournalCommand(f),
		newVersionCommand(version),
	)
	return root
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	if cmd.Flags().Changed("source") {
		// Source-specific defaults (session, lot size) must follow the flag.
		if err := os.Setenv("SOURCE", f.source); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	f.apply(cmd.Flags().Changed, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newMonitorCommand(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Poll the market and redraw the indicator table until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, f)
		},
	}
}

func runMonitor(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	appLogger := NewLogger(cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	rt, err := build(ctx, cfg, appLogger, buildOptions{
		out:         cmd.OutOrStdout(),
		clearScreen: cfg.ClearScreen,
		listener:    true,
		journal:     true,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to wire monitor")
		return err
	}
	defer rt.Close(ctx)

	if rt.server != nil {
		rt.server.Start(ctx)
	}
	if err := rt.service.Start(ctx); err != nil {
		appLogger.Error(ctx, err, "Monitor service exited with error")
		return err
	}
	appLogger.Info(ctx, "Application finished gracefully.")
	return nil
}

func newSnapshotCommand(f *flags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Run one polling cycle, print it and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			appLogger := NewLogger(cfg)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rt, err := build(ctx, cfg, appLogger, buildOptions{})
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			snap := rt.service.RunCycle(ctx)
			out := cmd.OutOrStdout()
			if asJSON {
				if err := writeJSON(out, wsfeed.NewSnapshotMessage(snap)); err != nil {
					return err
				}
			} else {
				fmt.Fprint(out, terminal.Format(snap, cfg.Location))
			}
			if !snap.IsComputed() {
				return fmt.Errorf("snapshot pending (%s): %w", snap.FailureKind, snap.Err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the snapshot as JSON")
	return cmd
}

func newJournalCommand(f *flags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "List recently journaled snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			appLogger := NewLogger(cfg)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			repo, err := sqlite.NewRepository(sqlite.Config{
				DBPath:   cfg.DBPath,
				Logger:   appLogger,
				Location: cfg.Location,
			})
			if err != nil {
				return err
			}
			defer repo.Close()

			snaps, err := repo.FindRecent(ctx, cfg.Ticker, limit)
			if err != nil {
				return err
			}
			today, err := repo.CountToday(ctx, cfg.Ticker)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, terminal.FormatJournal(snaps, cfg.Location))
			fmt.Fprintf(out, "%s: %d snapshot(s) journaled today\n", cfg.Ticker, today)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of snapshots to list")
	return cmd
}

func newVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "stockmonitor %s\n", version)
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
