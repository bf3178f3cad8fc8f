package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tradeLedgerBot/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market
	Symbol        string
	Currency      string  // settlement currency, e.g. "USDT"
	KlineInterval string  // update cadence of the engine, e.g. "1m"
	TickSize      float64 // price increment
	StepSize      float64 // quantity increment
	Leverage      int

	// Fees. Rates are fractions of notional; commissions are fixed per order.
	MakerFee        float64
	TakerFee        float64
	MakerCommission float64
	TakerCommission float64

	// Trade Lifecycle
	MaxTrades     int           // ceiling on concurrently active trades
	EntryTimeout  float64       // seconds before an unfilled entry is withdrawn, 0 disables
	TradeValidity float64       // seconds before an entire trade expires, 0 disables
	CheckDelay    time.Duration // courtesy delay between per-trade reconciliation polls
	CheckOnStart  bool          // reconcile restored trades against the broker at startup

	// Database
	DBPath string

	// Logging
	LogLevel logger.LogLevel

	// Metrics
	MetricsListenAddr string // e.g. ":9090", empty disables the endpoint

	// Connection Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Market
	cfg.Symbol = getEnv("SYMBOL", "BTCUSDT")
	if cfg.Symbol == "" {
		errs = append(errs, "SYMBOL must be set")
	}
	cfg.Currency = getEnv("CURRENCY", "USDT")
	cfg.KlineInterval = getEnv("KLINE_INTERVAL", "1m")

	cfg.TickSize, err = getEnvAsFloatRequired("TICK_SIZE", 0.1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TICK_SIZE: %v", err))
	} else if cfg.TickSize <= 0 {
		errs = append(errs, "TICK_SIZE must be positive")
	}

	cfg.StepSize, err = getEnvAsFloatRequired("STEP_SIZE", 0.001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STEP_SIZE: %v", err))
	} else if cfg.StepSize <= 0 {
		errs = append(errs, "STEP_SIZE must be positive")
	}

	cfg.Leverage, err = getEnvAsIntRequired("LEVERAGE", 1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LEVERAGE: %v", err))
	} else if cfg.Leverage <= 0 {
		errs = append(errs, "LEVERAGE must be positive")
	}

	// Fees
	cfg.MakerFee, err = getEnvAsFloatRequired("MAKER_FEE", 0.0002)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAKER_FEE: %v", err))
	} else if cfg.MakerFee < 0 {
		errs = append(errs, "MAKER_FEE cannot be negative")
	}

	cfg.TakerFee, err = getEnvAsFloatRequired("TAKER_FEE", 0.0005)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TAKER_FEE: %v", err))
	} else if cfg.TakerFee < 0 {
		errs = append(errs, "TAKER_FEE cannot be negative")
	}

	cfg.MakerCommission = getEnvAsFloat("MAKER_COMMISSION", 0)
	cfg.TakerCommission = getEnvAsFloat("TAKER_COMMISSION", 0)
	if cfg.MakerCommission < 0 || cfg.TakerCommission < 0 {
		errs = append(errs, "fixed commissions cannot be negative")
	}

	// Trade Lifecycle
	cfg.MaxTrades, err = getEnvAsIntRequired("MAX_TRADES", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_TRADES: %v", err))
	} else if cfg.MaxTrades <= 0 {
		errs = append(errs, "MAX_TRADES must be positive")
	}

	cfg.EntryTimeout, err = getEnvAsFloatRequired("ENTRY_TIMEOUT_SECONDS", 300)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ENTRY_TIMEOUT_SECONDS: %v", err))
	} else if cfg.EntryTimeout < 0 {
		errs = append(errs, "ENTRY_TIMEOUT_SECONDS cannot be negative")
	}

	cfg.TradeValidity, err = getEnvAsFloatRequired("TRADE_VALIDITY_SECONDS", 0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TRADE_VALIDITY_SECONDS: %v", err))
	} else if cfg.TradeValidity < 0 {
		errs = append(errs, "TRADE_VALIDITY_SECONDS cannot be negative")
	}

	checkDelayMs := getEnvAsInt("CHECK_DELAY_MS", 250)
	if checkDelayMs < 0 {
		errs = append(errs, "CHECK_DELAY_MS cannot be negative")
	}
	cfg.CheckDelay = time.Duration(checkDelayMs) * time.Millisecond
	cfg.CheckOnStart = getEnvAsBool("CHECK_ON_START", true)

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/trade_ledger.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// Metrics
	cfg.MetricsListenAddr = getEnv("METRICS_LISTEN_ADDR", "")

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// Combine validation errors
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

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
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
