package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"quantsim/config"
	"quantsim/internal/adapters/feeds"
	"quantsim/internal/adapters/logger"
	"quantsim/internal/broker"
	"quantsim/internal/domain"
	"quantsim/internal/engine"
	"quantsim/internal/metrics"
	"quantsim/internal/policy"
	"quantsim/internal/ports"
	"quantsim/internal/rates"
	"quantsim/internal/strategy"
)

// Paper-trades a live Binance kline stream: the same run loop the backtester
// uses, fed by the WebSocket feed instead of a bar file. Ctrl-C stops the
// stream and prints the session summary.
func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize the live feed
	asset := domain.NewCrypto(cfg.Symbol, cfg.BaseCurrency)
	feed, err := feeds.NewBinanceFeed(feeds.BinanceFeedConfig{
		Asset:          asset,
		Interval:       cfg.Interval,
		APIKey:         cfg.APIKey,
		SecretKey:      cfg.SecretKey,
		UseTestnet:     cfg.IsTestnet,
		Logger:         appLogger,
		ReconnectDelay: cfg.ReconnectDelay,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize Binance feed")
		log.Fatalf("FATAL: Failed to initialize Binance feed: %v", err)
	}

	// 4. Assemble the paper-trading run
	exchangeRates := rates.NewFixedRates(cfg.BaseCurrency)

	crossover, err := strategy.NewEMACrossover(cfg.FastPeriod, cfg.SlowPeriod)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize strategy")
		log.Fatalf("FATAL: Failed to initialize strategy: %v", err)
	}
	var strat ports.Strategy = crossover
	if cfg.TakeProfitPct > 0 || cfg.StopLossPct > 0 {
		strat = strategy.WithExitLevels(crossover, cfg.TakeProfitPct, cfg.StopLossPct)
	}

	var accountModel broker.AccountModel = broker.CashModel{}
	if cfg.Leverage > 1 {
		accountModel = broker.MarginModel{Leverage: cfg.Leverage}
	}
	simBroker, err := broker.New(broker.Config{
		BaseCurrency:  cfg.BaseCurrency,
		Deposit:       []domain.Amount{domain.NewAmount(cfg.BaseCurrency, cfg.Deposit)},
		FeeModel:      broker.PercentageFee{Percent: cfg.FeePercent},
		SlippageModel: broker.SpreadSlippage{BPS: cfg.SlippageBPS},
		AccountModel:  accountModel,
		AllowShorting: cfg.AllowShorting,
		Rates:         exchangeRates,
		Logger:        appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize broker")
		log.Fatalf("FATAL: Failed to initialize broker: %v", err)
	}

	flexPolicy, err := policy.New(policy.Config{
		OrderPercent: cfg.OrderPercent,
		MaxPositions: cfg.MaxPositions,
		Shorting:     cfg.AllowShorting,
		Rates:        exchangeRates,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize policy")
		log.Fatalf("FATAL: Failed to initialize policy: %v", err)
	}

	run, err := engine.NewRun(engine.Config{
		Name:            "paper-" + cfg.Symbol,
		Strategy:        strat,
		Policy:          flexPolicy,
		Broker:          simBroker,
		Metrics:         []ports.Metric{metrics.AccountMetric{}},
		MetricsLogger:   metrics.NewMemoryLogger(),
		Logger:          appLogger,
		ChannelCapacity: cfg.ChannelCapacity,
		WarmupEvents:    cfg.WarmupEvents,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to assemble run")
		log.Fatalf("FATAL: Failed to assemble run: %v", err)
	}

	// 5. Stop cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLogger.Info(ctx, "Shutdown signal received, stopping", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	appLogger.Info(ctx, "Paper trading started", map[string]interface{}{
		"symbol": cfg.Symbol, "interval": cfg.Interval, "runID": run.ID(),
	})
	result := run.Execute(ctx, feed)

	perf := metrics.Analyze(result.Account.Trades, cfg.Deposit)
	appLogger.Info(context.Background(), "Paper trading session finished", map[string]interface{}{
		"runID":       result.RunID,
		"steps":       result.Steps,
		"trades":      perf.TotalTrades,
		"realizedPnl": perf.TotalPNL,
		"finalEquity": result.Account.EquityValue,
	})
}
