package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"quantsim/config"
	"quantsim/internal/adapters/feeds"
	"quantsim/internal/adapters/logger"
	"quantsim/internal/adapters/sqlite"
	"quantsim/internal/broker"
	"quantsim/internal/domain"
	"quantsim/internal/engine"
	"quantsim/internal/metrics"
	"quantsim/internal/policy"
	"quantsim/internal/ports"
	"quantsim/internal/rates"
	"quantsim/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 2. Load the bar file into a shared historic feed. The feed is
	// read-only, so all runs replay it concurrently.
	asset := domain.NewCrypto(cfg.Symbol, cfg.BaseCurrency)
	feed, err := feeds.ReadCSVFeed(cfg.CSVPath, asset)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to load bar file", map[string]interface{}{"path": cfg.CSVPath})
		log.Fatalf("FATAL: Failed to load bar file: %v", err)
	}
	appLogger.Info(ctx, "Loaded bar file", map[string]interface{}{"path": cfg.CSVPath, "events": feed.Events()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	exchangeRates := rates.NewFixedRates(cfg.BaseCurrency)
	metricsLogger := metrics.NewMemoryLogger()

	// 4. Assemble one fully isolated run per configured slot, sweeping the
	// fast EMA period upward from the configured value. Every run owns its
	// strategy, policy and broker; only the metrics logger is shared.
	runs := make([]*engine.Run, 0, cfg.Runs)
	for i := 0; i < cfg.Runs; i++ {
		fastPeriod := cfg.FastPeriod + i
		if fastPeriod >= cfg.SlowPeriod {
			fastPeriod = cfg.SlowPeriod - 1
		}
		name := fmt.Sprintf("backtest-fast%d-slow%d", fastPeriod, cfg.SlowPeriod)
		run, err := buildRun(cfg, name, fastPeriod, exchangeRates, metricsLogger, appLogger)
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to assemble run")
			log.Fatalf("FATAL: Failed to assemble run: %v", err)
		}
		runs = append(runs, run)
	}

	// 5. Execute all runs in parallel and persist the outcomes.
	started := time.Now()
	results := engine.RunAll(ctx, feed, runs...)
	appLogger.Info(ctx, "All runs finished", map[string]interface{}{
		"runs": len(results), "elapsed": time.Since(started).String(),
	})

	for _, result := range results {
		persistResult(ctx, repo, cfg, result, appLogger)
		printResult(cfg, result)
	}
}

func buildRun(cfg *config.Config, name string, fastPeriod int, exchangeRates ports.ExchangeRates, metricsLogger ports.MetricsLogger, appLogger ports.Logger) (*engine.Run, error) {
	crossover, err := strategy.NewEMACrossover(fastPeriod, cfg.SlowPeriod)
	if err != nil {
		return nil, err
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
		return nil, err
	}

	flexPolicy, err := policy.New(policy.Config{
		OrderPercent: cfg.OrderPercent,
		MaxPositions: cfg.MaxPositions,
		Shorting:     cfg.AllowShorting,
		Rates:        exchangeRates,
		Logger:       appLogger,
	})
	if err != nil {
		return nil, err
	}

	return engine.NewRun(engine.Config{
		Name:            name,
		Strategy:        strat,
		Policy:          flexPolicy,
		Broker:          simBroker,
		Metrics:         []ports.Metric{metrics.AccountMetric{}},
		MetricsLogger:   metricsLogger,
		Logger:          appLogger,
		ChannelCapacity: cfg.ChannelCapacity,
		WarmupEvents:    cfg.WarmupEvents,
	})
}

func persistResult(ctx context.Context, repo *sqlite.Repository, cfg *config.Config, result engine.Result, appLogger ports.Logger) {
	errText := ""
	if result.Err != nil {
		errText = result.Err.Error()
	}
	if result.Account == nil {
		// A panicked run has no account; record the failure itself.
		rec := &ports.RunRecord{
			RunID: result.RunID, Name: result.Name, BaseCurrency: cfg.BaseCurrency,
			StartedAt: result.StartedAt, FinishedAt: result.FinishedAt,
			StartingEquity: cfg.Deposit, Err: errText,
		}
		if _, err := repo.SaveRun(ctx, rec); err != nil {
			appLogger.Error(ctx, err, "Failed to save run", map[string]interface{}{"runID": result.RunID})
		}
		return
	}
	rec := &ports.RunRecord{
		RunID:          result.RunID,
		Name:           result.Name,
		BaseCurrency:   cfg.BaseCurrency,
		StartedAt:      result.StartedAt,
		FinishedAt:     result.FinishedAt,
		StartingEquity: cfg.Deposit,
		FinalEquity:    result.Account.EquityValue,
		Trades:         len(result.Account.Trades),
		Rejected:       len(result.Account.RejectedOrders()),
		Err:            errText,
	}
	if _, err := repo.SaveRun(ctx, rec); err != nil {
		appLogger.Error(ctx, err, "Failed to save run", map[string]interface{}{"runID": result.RunID})
		return
	}
	if err := repo.SaveTrades(ctx, result.RunID, result.Account.Trades); err != nil {
		appLogger.Error(ctx, err, "Failed to save trades", map[string]interface{}{"runID": result.RunID})
	}
}

func printResult(cfg *config.Config, result engine.Result) {
	fmt.Printf("\n=== %s (%s) ===\n", result.Name, result.RunID)
	if result.Err != nil {
		fmt.Printf("run failed: %v\n", result.Err)
		return
	}
	perf := metrics.Analyze(result.Account.Trades, cfg.Deposit)
	fmt.Printf("Steps:          %d (dropped %d)\n", result.Steps, result.Dropped)
	fmt.Printf("Final equity:   %.2f %s\n", result.Account.EquityValue, cfg.BaseCurrency)
	fmt.Printf("Trades:         %d (%d closed, %d wins, %d losses)\n",
		perf.TotalTrades, perf.ClosedTrades, perf.WinningTrades, perf.LosingTrades)
	fmt.Printf("Win rate:       %.1f%%\n", perf.WinRate*100)
	fmt.Printf("Realized PnL:   %.2f (fees %.2f)\n", perf.TotalPNL, perf.TotalFees)
	fmt.Printf("Profit factor:  %.2f\n", perf.ProfitFactor)
	fmt.Printf("Max drawdown:   %.1f%%\n", perf.MaxDrawdown*100)
	fmt.Printf("Return:         %.2f%%\n", perf.ReturnOnFunds*100)
}
