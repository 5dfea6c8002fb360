package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"stockMonitor/config"
	"stockMonitor/internal/cli"
	"stockMonitor/internal/utils"
)

func main() {
	days := flag.Int("days", 60, "minimum number of daily bars to fetch")
	out := flag.String("out", "", "output file (default data/{ticker}_{source}_{date}.csv)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := cli.NewLogger(cfg)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Market Data Provider
	market, err := cli.NewMarketData(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize market data provider")
		log.Fatalf("FATAL: Failed to initialize market data provider: %v", err)
	}
	appLogger.Info(context.Background(), "Market data provider initialized", map[string]interface{}{"source": market.Name()})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Printf("Fetching at least %d daily bars for %s from %s...\n", *days, cfg.Ticker, market.Name())
	bars, err := market.DailyBars(ctx, cfg.Ticker, *days)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching daily bars")
		log.Fatalf("Error fetching daily bars: %v", err)
	}
	appLogger.Info(ctx, "Fetched daily bars", map[string]interface{}{"count": len(bars)})

	filename := *out
	if filename == "" {
		filename = fmt.Sprintf("data/%s_%s_%s.csv", cfg.Ticker, market.Name(), time.Now().In(cfg.Location).Format("20060102"))
	}
	if err := utils.WriteBarsToCSV(cfg.Ticker, bars, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved to", map[string]interface{}{"filename": filename})
}
