package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("BINANCE_API_KEY", "key")
	t.Setenv("BINANCE_API_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsTestnet, "defaults to testnet for safety")
	assert.Equal(t, "testnet", cfg.Mode())
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT"}, cfg.Symbols)
	assert.Equal(t, "5m", cfg.Interval)
	assert.Equal(t, 20, cfg.Leverage)
	assert.Equal(t, 0.20, cfg.RiskFraction)
	assert.Equal(t, 0.10, cfg.MaxDailyLossFraction)
	assert.Equal(t, 0.25, cfg.MaxDailyProfitFraction)
	assert.Equal(t, 5, cfg.MaxTradesPerDay)
	assert.Equal(t, 300*time.Second, cfg.Cooldown)
	assert.Equal(t, 5.0, cfg.MinNotional)
	assert.Equal(t, 1.5, cfg.SLATRMultiplier)
	assert.Equal(t, 3.0, cfg.TPATRMultiplier)
	assert.Equal(t, 15*time.Second, cfg.ScanInterval)
	assert.Equal(t, 5*time.Second, cfg.TrailInterval)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoadConfig_MissingKeysFails(t *testing.T) {
	t.Setenv("BINANCE_API_KEY", "")
	t.Setenv("BINANCE_API_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BINANCE_API_KEY")
	assert.Contains(t, err.Error(), "BINANCE_API_SECRET")
}

func TestLoadConfig_SymbolListTrimsAndDropsEmpty(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SYMBOLS", " BTCUSDT , ETHUSDT,,SOLUSDT ")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, cfg.Symbols)
}

func TestLoadConfig_CollectsValidationErrors(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SMA_FAST_PERIOD", "21")
	t.Setenv("SMA_SLOW_PERIOD", "9")
	t.Setenv("MAX_DAILY_LOSS", "1.5")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMA_FAST_PERIOD")
	assert.Contains(t, err.Error(), "MAX_DAILY_LOSS")
}

func TestLoadConfig_MalformedNumberFallsBackToDefault(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LEVERAGE", "not-a-number")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Leverage)
}

func TestLoadConfig_TelegramEnabled(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "4242")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, int64(4242), cfg.TelegramAdminChatID)
}
