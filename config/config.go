// Package config loads application configuration from the environment
// (optionally seeded from a .env file) and validates it in one pass.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoScalpBot/internal/adapters/logger"
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market data
	Symbols       []string
	Interval      string
	KlineLimit    int
	SMAFastPeriod int
	SMASlowPeriod int
	RSIPeriod     int
	ATRPeriod     int

	// Trade filter
	MinATRRatio float64
	MinRSIBuy   float64
	MaxRSIBuy   float64
	MinRSISell  float64
	MaxRSISell  float64

	// Risk governance
	Leverage               int
	RiskFraction           float64
	MaxDailyLossFraction   float64
	MaxDailyProfitFraction float64
	MaxTradesPerDay        int
	Cooldown               time.Duration
	MinNotional            float64

	// Bracket and trailing geometry
	SLATRMultiplier float64
	TPATRMultiplier float64
	TrailStartATRs  float64
	TrailStepATRs   float64

	// Loop cadence
	ScanInterval      time.Duration
	TrailInterval     time.Duration
	ReconcileInterval time.Duration

	// Surfaces
	HTTPAddr            string
	TelegramToken       string
	TelegramAdminChatID int64

	// Database
	DBPath string

	// Logging
	LogLevel logger.Level
}

// Mode returns the reporting label for the configured environment.
func (c *Config) Mode() string {
	if c.IsTestnet {
		return "testnet"
	}
	return "production"
}

// TelegramEnabled reports whether the operator channel is configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramAdminChatID != 0
}

// LoadConfig loads configuration from environment variables. Defaults match
// a cautious intraday setup on the testnet; validation errors are collected
// and reported together.
func LoadConfig() (*Config, error) {
	// Missing .env is fine, plain env vars work too.
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string

	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // default to testnet for safety
	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	symbolsRaw := getEnv("SYMBOLS", "BTCUSDT,ETHUSDT,SOLUSDT,BNBUSDT,XRPUSDT")
	for _, s := range strings.Split(symbolsRaw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.Symbols = append(cfg.Symbols, s)
		}
	}
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one symbol")
	}

	cfg.Interval = getEnv("KLINE_INTERVAL", "5m")
	cfg.KlineLimit = getEnvAsInt("KLINE_LIMIT", 100)
	cfg.SMAFastPeriod = getEnvAsInt("SMA_FAST_PERIOD", 9)
	cfg.SMASlowPeriod = getEnvAsInt("SMA_SLOW_PERIOD", 21)
	cfg.RSIPeriod = getEnvAsInt("RSI_PERIOD", 14)
	cfg.ATRPeriod = getEnvAsInt("ATR_PERIOD", 14)
	if cfg.SMAFastPeriod <= 0 || cfg.SMASlowPeriod <= 0 || cfg.RSIPeriod <= 0 || cfg.ATRPeriod <= 0 {
		errs = append(errs, "indicator periods must be positive")
	}
	if cfg.SMAFastPeriod >= cfg.SMASlowPeriod {
		errs = append(errs, "SMA_FAST_PERIOD must be less than SMA_SLOW_PERIOD")
	}

	cfg.MinATRRatio = getEnvAsFloat("MIN_ATR_RATIO", 0.001)
	cfg.MinRSIBuy = getEnvAsFloat("MIN_RSI_BUY", 35)
	cfg.MaxRSIBuy = getEnvAsFloat("MAX_RSI_BUY", 70)
	cfg.MinRSISell = getEnvAsFloat("MIN_RSI_SELL", 30)
	cfg.MaxRSISell = getEnvAsFloat("MAX_RSI_SELL", 65)
	if cfg.MinRSIBuy >= cfg.MaxRSIBuy || cfg.MinRSISell >= cfg.MaxRSISell {
		errs = append(errs, "RSI bands must have min < max")
	}

	cfg.Leverage = getEnvAsInt("LEVERAGE", 20)
	if cfg.Leverage <= 0 {
		errs = append(errs, "LEVERAGE must be positive")
	}
	cfg.RiskFraction = getEnvAsFloat("RISK_FRACTION", 0.20)
	if cfg.RiskFraction <= 0 || cfg.RiskFraction > 1 {
		errs = append(errs, "RISK_FRACTION must be in (0, 1]")
	}
	cfg.MaxDailyLossFraction = getEnvAsFloat("MAX_DAILY_LOSS", 0.10)
	if cfg.MaxDailyLossFraction <= 0 || cfg.MaxDailyLossFraction >= 1 {
		errs = append(errs, "MAX_DAILY_LOSS must be between 0 and 1")
	}
	cfg.MaxDailyProfitFraction = getEnvAsFloat("MAX_DAILY_PROFIT", 0.25)
	if cfg.MaxDailyProfitFraction <= 0 {
		errs = append(errs, "MAX_DAILY_PROFIT must be positive")
	}
	cfg.MaxTradesPerDay = getEnvAsInt("MAX_TRADES_PER_DAY", 5)
	if cfg.MaxTradesPerDay <= 0 {
		errs = append(errs, "MAX_TRADES_PER_DAY must be positive")
	}
	cfg.Cooldown = time.Duration(getEnvAsInt("TRADE_COOLDOWN_SECONDS", 300)) * time.Second
	if cfg.Cooldown < 0 {
		errs = append(errs, "TRADE_COOLDOWN_SECONDS cannot be negative")
	}
	cfg.MinNotional = getEnvAsFloat("MIN_NOTIONAL", 5.0)
	if cfg.MinNotional < 0 {
		errs = append(errs, "MIN_NOTIONAL cannot be negative")
	}

	cfg.SLATRMultiplier = getEnvAsFloat("SL_ATR_MULTIPLIER", 1.5)
	cfg.TPATRMultiplier = getEnvAsFloat("TP_ATR_MULTIPLIER", 3.0)
	cfg.TrailStartATRs = getEnvAsFloat("TRAIL_START_ATRS", 1.2)
	cfg.TrailStepATRs = getEnvAsFloat("TRAIL_STEP_ATRS", 0.6)
	if cfg.SLATRMultiplier <= 0 || cfg.TPATRMultiplier <= 0 || cfg.TrailStartATRs <= 0 || cfg.TrailStepATRs <= 0 {
		errs = append(errs, "ATR multipliers must be positive")
	}

	cfg.ScanInterval = time.Duration(getEnvAsInt("SCAN_INTERVAL_SECONDS", 15)) * time.Second
	cfg.TrailInterval = time.Duration(getEnvAsInt("TRAIL_INTERVAL_SECONDS", 5)) * time.Second
	cfg.ReconcileInterval = time.Duration(getEnvAsInt("RECONCILE_INTERVAL_SECONDS", 30)) * time.Second
	if cfg.ScanInterval <= 0 || cfg.TrailInterval <= 0 || cfg.ReconcileInterval <= 0 {
		errs = append(errs, "loop intervals must be positive")
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramAdminChatID = getEnvAsInt64("TELEGRAM_ADMIN_CHAT_ID", 0)

	cfg.DBPath = getEnv("DB_PATH", "./data/scalp_bot.db")
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
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
