package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"quantsim/config"
	"quantsim/internal/adapters/feeds"
	"quantsim/internal/adapters/logger"
	"quantsim/internal/domain"
)

func main() {
	days := flag.Int("days", 90, "number of days of history to fetch")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	asset := domain.NewCrypto(cfg.Symbol, cfg.BaseCurrency)
	feed, err := feeds.NewBinanceFeed(feeds.BinanceFeedConfig{
		Asset:      asset,
		Interval:   cfg.Interval,
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance feed")
		log.Fatalf("FATAL: Failed to initialize Binance feed: %v", err)
	}

	end := time.Now()
	start := end.AddDate(0, 0, -*days)
	appLogger.Info(ctx, "Fetching klines", map[string]interface{}{
		"symbol": cfg.Symbol, "interval": cfg.Interval,
		"start": start.Format(time.RFC3339), "end": end.Format(time.RFC3339),
	})

	events, err := feed.FetchKlines(ctx, start, end)
	if err != nil {
		appLogger.Error(ctx, err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(ctx, "Fetched klines", map[string]interface{}{"count": len(events)})

	filename := fmt.Sprintf("data/%s_%s_%s_to_%s.csv",
		cfg.Symbol, cfg.Interval, start.Format("20060102"), end.Format("20060102"))
	if err := feeds.WriteCSV(filename, asset, events); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(ctx, "Saved bar file", map[string]interface{}{"filename": filename, "events": len(events)})
}
