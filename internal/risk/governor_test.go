package risk

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestGovernor(t *testing.T) *Governor {
	t.Helper()
	g, err := NewGovernor(GovernorConfig{
		MaxDailyLossFraction:   0.10,
		MaxDailyProfitFraction: 0.25,
		MaxTradesPerDay:        5,
		Cooldown:               5 * time.Minute,
	}, mockLogger{})
	require.NoError(t, err)
	return g
}

func TestNewGovernor_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GovernorConfig)
	}{
		{"loss fraction zero", func(c *GovernorConfig) { c.MaxDailyLossFraction = 0 }},
		{"loss fraction too large", func(c *GovernorConfig) { c.MaxDailyLossFraction = 1 }},
		{"profit fraction zero", func(c *GovernorConfig) { c.MaxDailyProfitFraction = 0 }},
		{"zero trade cap", func(c *GovernorConfig) { c.MaxTradesPerDay = 0 }},
		{"negative cooldown", func(c *GovernorConfig) { c.Cooldown = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GovernorConfig{
				MaxDailyLossFraction:   0.10,
				MaxDailyProfitFraction: 0.25,
				MaxTradesPerDay:        5,
				Cooldown:               time.Minute,
			}
			tt.mutate(&cfg)
			_, err := NewGovernor(cfg, mockLogger{})
			assert.Error(t, err)
		})
	}
}

func TestGovernor_InitDayResetsState(t *testing.T) {
	g := newTestGovernor(t)
	ctx := context.Background()

	g.InitDay(ctx, 1000)
	g.RecordTrade("BTCUSDT")
	g.RecordTrade("ETHUSDT")
	g.EngageKillSwitch(ctx)

	require.True(t, g.KillSwitchEngaged())
	require.Equal(t, 2, g.TradesToday())

	g.InitDay(ctx, 1200)

	assert.False(t, g.KillSwitchEngaged())
	assert.Equal(t, 0, g.TradesToday())
	assert.Equal(t, 1200.0, g.StartOfDayBalance())
}

func TestGovernor_CheckDailyRisk(t *testing.T) {
	ctx := context.Background()

	t.Run("no-op before day init", func(t *testing.T) {
		g := newTestGovernor(t)
		tripped, ratio := g.CheckDailyRisk(ctx, 500)
		assert.False(t, tripped)
		assert.Zero(t, ratio)
		assert.False(t, g.KillSwitchEngaged())
	})

	t.Run("trips exactly at the loss boundary", func(t *testing.T) {
		g := newTestGovernor(t)
		g.InitDay(ctx, 1000)
		tripped, ratio := g.CheckDailyRisk(ctx, 900) // 1000 * (1 - 0.10)
		assert.True(t, tripped)
		assert.InDelta(t, -0.10, ratio, 1e-9)
		assert.True(t, g.KillSwitchEngaged())
	})

	t.Run("trips at the profit target", func(t *testing.T) {
		g := newTestGovernor(t)
		g.InitDay(ctx, 1000)
		tripped, _ := g.CheckDailyRisk(ctx, 1250)
		assert.True(t, tripped)
		assert.True(t, g.KillSwitchEngaged())
	})

	t.Run("never auto-clears on recovery", func(t *testing.T) {
		g := newTestGovernor(t)
		g.InitDay(ctx, 1000)
		tripped, _ := g.CheckDailyRisk(ctx, 850)
		require.True(t, tripped)

		tripped, _ = g.CheckDailyRisk(ctx, 1000)
		assert.False(t, tripped, "already engaged, must not report a fresh trip")
		assert.True(t, g.KillSwitchEngaged())
	})

	t.Run("inside the limits nothing trips", func(t *testing.T) {
		g := newTestGovernor(t)
		g.InitDay(ctx, 1000)
		tripped, ratio := g.CheckDailyRisk(ctx, 1050)
		assert.False(t, tripped)
		assert.InDelta(t, 0.05, ratio, 1e-9)
		assert.False(t, g.KillSwitchEngaged())
	})
}

func TestGovernor_CanOpenNewTrade(t *testing.T) {
	ctx := context.Background()
	g := newTestGovernor(t)
	g.InitDay(ctx, 1000)

	assert.True(t, g.CanOpenNewTrade())

	for i := 0; i < 5; i++ {
		g.RecordTrade("BTCUSDT")
	}
	assert.False(t, g.CanOpenNewTrade(), "daily cap reached")

	g.InitDay(ctx, 1000)
	assert.True(t, g.CanOpenNewTrade())

	g.EngageKillSwitch(ctx)
	assert.False(t, g.CanOpenNewTrade(), "kill switch blocks entries")
}

func TestGovernor_SeedTradeCount(t *testing.T) {
	ctx := context.Background()
	g := newTestGovernor(t)
	g.InitDay(ctx, 1000)

	g.SeedTradeCount(ctx, 3)
	assert.Equal(t, 3, g.TradesToday())

	g.SeedTradeCount(ctx, 1)
	assert.Equal(t, 3, g.TradesToday(), "seeding only ever raises the count")

	g.SeedTradeCount(ctx, 5)
	assert.False(t, g.CanOpenNewTrade(), "seeded count counts against the daily cap")
}

func TestGovernor_Cooldown(t *testing.T) {
	g := newTestGovernor(t)
	g.InitDay(context.Background(), 1000)

	current := time.Now()
	g.now = func() time.Time { return current }

	assert.True(t, g.CanTradeSymbol("BTCUSDT"), "untracked symbol is eligible")

	g.RecordTrade("BTCUSDT")
	assert.False(t, g.CanTradeSymbol("BTCUSDT"))
	assert.True(t, g.CanTradeSymbol("ETHUSDT"), "cooldown is per symbol")

	current = current.Add(4 * time.Minute)
	assert.False(t, g.CanTradeSymbol("BTCUSDT"))

	current = current.Add(time.Minute)
	assert.True(t, g.CanTradeSymbol("BTCUSDT"), "eligible once the full cooldown elapsed")
}
