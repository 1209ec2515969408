// Package risk holds the account-wide governance layer: the daily P&L kill
// switch, the trade-count cap, the per-symbol cooldown and position sizing.
package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoScalpBot/internal/ports"
)

// GovernorConfig holds the daily risk limits.
type GovernorConfig struct {
	MaxDailyLossFraction   float64       // e.g. 0.10 for 10%
	MaxDailyProfitFraction float64       // e.g. 0.25 for 25%
	MaxTradesPerDay        int           // e.g. 5
	Cooldown               time.Duration // Minimum gap between trades on one symbol
}

// Governor owns the day-scoped risk state and the cooldown registry. It is
// shared by the scan worker and the control surfaces; every method takes the
// internal lock, so callers never coordinate externally.
type Governor struct {
	cfg    GovernorConfig
	logger ports.Logger

	mu                sync.Mutex
	dayInitialized    bool
	startOfDayBalance float64
	tradesToday       int
	killSwitch        bool
	lastTrade         map[string]time.Time

	now func() time.Time
}

// NewGovernor creates a risk governor.
func NewGovernor(cfg GovernorConfig, logger ports.Logger) (*Governor, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for risk governor")
	}
	if cfg.MaxDailyLossFraction <= 0 || cfg.MaxDailyLossFraction >= 1 {
		return nil, fmt.Errorf("MaxDailyLossFraction must be between 0 and 1")
	}
	if cfg.MaxDailyProfitFraction <= 0 {
		return nil, fmt.Errorf("MaxDailyProfitFraction must be positive")
	}
	if cfg.MaxTradesPerDay <= 0 {
		return nil, fmt.Errorf("MaxTradesPerDay must be positive")
	}
	if cfg.Cooldown < 0 {
		return nil, fmt.Errorf("Cooldown cannot be negative")
	}
	return &Governor{
		cfg:       cfg,
		logger:    logger,
		lastTrade: make(map[string]time.Time),
		now:       time.Now,
	}, nil
}

// InitDay snapshots the balance as the day's baseline, resets the trade
// counter and clears the kill switch. Idempotent: re-invocation fully
// overwrites prior state. This is the only operation that clears the kill
// switch.
func (g *Governor) InitDay(ctx context.Context, balance float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.startOfDayBalance = balance
	g.tradesToday = 0
	g.killSwitch = false
	g.dayInitialized = true

	g.logger.Info(ctx, "Trading day initialized", map[string]interface{}{"startOfDayBalance": balance})
}

// CheckDailyRisk compares the current balance against the day's baseline and
// engages the kill switch when either the loss or the profit limit is hit.
// One-directional: it never clears the switch. Returns whether the switch
// tripped on this call and the computed P&L ratio.
func (g *Governor) CheckDailyRisk(ctx context.Context, currentBalance float64) (tripped bool, pnlRatio float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.dayInitialized || g.startOfDayBalance == 0 {
		return false, 0
	}

	pnlRatio = (currentBalance - g.startOfDayBalance) / g.startOfDayBalance

	if g.killSwitch {
		return false, pnlRatio
	}

	if pnlRatio <= -g.cfg.MaxDailyLossFraction {
		g.killSwitch = true
		g.logger.Warn(ctx, "Daily loss limit hit, kill switch engaged", map[string]interface{}{"pnlRatio": pnlRatio})
		return true, pnlRatio
	}
	if pnlRatio >= g.cfg.MaxDailyProfitFraction {
		g.killSwitch = true
		g.logger.Info(ctx, "Daily profit target hit, kill switch engaged", map[string]interface{}{"pnlRatio": pnlRatio})
		return true, pnlRatio
	}

	return false, pnlRatio
}

// CanOpenNewTrade reports whether account-wide gates allow a new entry.
func (g *Governor) CanOpenNewTrade() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.killSwitch && g.tradesToday < g.cfg.MaxTradesPerDay
}

// CanTradeSymbol reports whether the symbol's cooldown has elapsed.
// Symbols with no recorded trade are always eligible.
func (g *Governor) CanTradeSymbol(symbol string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	last, ok := g.lastTrade[symbol]
	if !ok {
		return true
	}
	return g.now().Sub(last) >= g.cfg.Cooldown
}

// RecordTrade counts a successfully placed order against the daily cap and
// restarts the symbol's cooldown. Called exactly once per acknowledged order.
func (g *Governor) RecordTrade(symbol string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tradesToday++
	g.lastTrade[symbol] = g.now()
}

// SeedTradeCount restores today's trade count from the journal after a
// process restart, so a restart cannot bypass the daily cap. It only ever
// raises the count.
func (g *Governor) SeedTradeCount(ctx context.Context, count int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if count <= g.tradesToday {
		return
	}
	g.tradesToday = count
	g.logger.Info(ctx, "Restored today's trade count from journal", map[string]interface{}{"tradesToday": count})
}

// EngageKillSwitch trips the switch on operator demand.
func (g *Governor) EngageKillSwitch(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.killSwitch {
		g.killSwitch = true
		g.logger.Warn(ctx, "Kill switch engaged by operator")
	}
}

// KillSwitchEngaged reports the switch state.
func (g *Governor) KillSwitchEngaged() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.killSwitch
}

// TradesToday returns the number of trades counted against today's cap.
func (g *Governor) TradesToday() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tradesToday
}

// StartOfDayBalance returns the day's baseline balance (0 before InitDay).
func (g *Governor) StartOfDayBalance() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.startOfDayBalance
}
