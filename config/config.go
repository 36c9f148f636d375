// Package config loads application configuration from environment variables,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"quantsim/internal/adapters/logger"
	"quantsim/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Binance API (live feed and kline downloads)
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market data
	Symbol   string
	Interval string // Binance kline interval, e.g. "1m"
	CSVPath  string // bar file used by the backtest runner

	// Account
	BaseCurrency domain.Currency
	Deposit      float64
	Leverage     float64 // 1 disables margin

	// Execution costs
	FeePercent  float64 // commission as a fraction of notional
	SlippageBPS float64 // half-spread in basis points

	// Policy parameters
	OrderPercent  float64 // fraction of equity committed per entry
	MaxPositions  int     // 0 means unlimited
	AllowShorting bool
	TakeProfitPct float64 // 0 disables the take-profit exit
	StopLossPct   float64 // 0 disables the stop-loss exit

	// Strategy parameters
	FastPeriod int
	SlowPeriod int

	// Simulation
	WarmupEvents    int
	ChannelCapacity int
	Runs            int // parallel run count for the backtest runner

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	// Connection settings for the live feed
	ReconnectDelay time.Duration
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string

	// Binance API keys may stay empty: public market data endpoints do not
	// need them, only signed endpoints do.
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true)

	cfg.Symbol = getEnv("SYMBOL", "ETHUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.Interval = getEnv("INTERVAL", "1m")
	cfg.CSVPath = getEnv("CSV_PATH", "./data/bars.csv")

	cfg.BaseCurrency = domain.Currency(getEnv("BASE_CURRENCY", "USDT"))

	cfg.Deposit, err = getEnvAsFloatRequired("DEPOSIT", 10000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid DEPOSIT: %v", err))
	} else if cfg.Deposit <= 0 {
		errs = append(errs, "DEPOSIT must be positive")
	}

	cfg.Leverage, err = getEnvAsFloatRequired("LEVERAGE", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LEVERAGE: %v", err))
	} else if cfg.Leverage < 1 {
		errs = append(errs, "LEVERAGE must be at least 1")
	}

	cfg.FeePercent, err = getEnvAsFloatRequired("FEE_PERCENT", 0.001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FEE_PERCENT: %v", err))
	} else if cfg.FeePercent < 0 || cfg.FeePercent >= 1 {
		errs = append(errs, "FEE_PERCENT must be in [0.0, 1.0)")
	}

	cfg.SlippageBPS, err = getEnvAsFloatRequired("SLIPPAGE_BPS", 2.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SLIPPAGE_BPS: %v", err))
	} else if cfg.SlippageBPS < 0 {
		errs = append(errs, "SLIPPAGE_BPS cannot be negative")
	}

	cfg.OrderPercent, err = getEnvAsFloatRequired("ORDER_PERCENT", 0.1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ORDER_PERCENT: %v", err))
	} else if cfg.OrderPercent <= 0 || cfg.OrderPercent > 1 {
		errs = append(errs, "ORDER_PERCENT must be in (0.0, 1.0]")
	}

	cfg.MaxPositions = getEnvAsInt("MAX_POSITIONS", 0)
	if cfg.MaxPositions < 0 {
		errs = append(errs, "MAX_POSITIONS cannot be negative")
	}
	cfg.AllowShorting = getEnvAsBool("ALLOW_SHORTING", false)

	cfg.TakeProfitPct = getEnvAsFloat("TAKE_PROFIT_PCT", 0.0)
	cfg.StopLossPct = getEnvAsFloat("STOP_LOSS_PCT", 0.0)
	if cfg.TakeProfitPct < 0 || cfg.TakeProfitPct >= 1 {
		errs = append(errs, "TAKE_PROFIT_PCT must be in [0.0, 1.0)")
	}
	if cfg.StopLossPct < 0 || cfg.StopLossPct >= 1 {
		errs = append(errs, "STOP_LOSS_PCT must be in [0.0, 1.0)")
	}

	cfg.FastPeriod = getEnvAsInt("FAST_PERIOD", 12)
	cfg.SlowPeriod = getEnvAsInt("SLOW_PERIOD", 26)
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 {
		errs = append(errs, "strategy periods must be positive")
	} else if cfg.FastPeriod >= cfg.SlowPeriod {
		errs = append(errs, "FAST_PERIOD must be less than SLOW_PERIOD")
	}

	cfg.WarmupEvents = getEnvAsInt("WARMUP_EVENTS", 0)
	if cfg.WarmupEvents < 0 {
		errs = append(errs, "WARMUP_EVENTS cannot be negative")
	}
	cfg.ChannelCapacity = getEnvAsInt("CHANNEL_CAPACITY", 64)
	if cfg.ChannelCapacity <= 0 {
		errs = append(errs, "CHANNEL_CAPACITY must be positive")
	}
	cfg.Runs = getEnvAsInt("RUNS", 1)
	if cfg.Runs <= 0 {
		errs = append(errs, "RUNS must be positive")
	}

	cfg.DBPath = getEnv("DB_PATH", "./data/quantsim.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
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
