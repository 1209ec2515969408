// Package strategy classifies market snapshots into trade signals.
package strategy

import (
	"context"
	"fmt"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/ports"
)

// Config holds the trade filter thresholds.
type Config struct {
	// MinATRRatio is the volatility floor: snapshots whose atr/price falls
	// below it are rejected to avoid trading dead markets.
	MinATRRatio float64

	// RSI band for long entries.
	MinRSIBuy float64
	MaxRSIBuy float64

	// RSI band for short entries. Must not overlap the buy band together
	// with an SMA crossover, which the validation below cannot fully
	// express; long conditions are evaluated first as the deterministic
	// tie-break.
	MinRSISell float64
	MaxRSISell float64
}

// Filter is a stateless snapshot classifier. Identical snapshots always
// produce identical signals; it holds no memory across scan cycles.
type Filter struct {
	cfg    Config
	logger ports.Logger
}

// New creates a trade filter.
func New(cfg Config, logger ports.Logger) (*Filter, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for trade filter")
	}
	if cfg.MinATRRatio < 0 {
		return nil, fmt.Errorf("MinATRRatio cannot be negative")
	}
	if cfg.MinRSIBuy >= cfg.MaxRSIBuy {
		return nil, fmt.Errorf("invalid RSI buy band [%.1f, %.1f]", cfg.MinRSIBuy, cfg.MaxRSIBuy)
	}
	if cfg.MinRSISell >= cfg.MaxRSISell {
		return nil, fmt.Errorf("invalid RSI sell band [%.1f, %.1f]", cfg.MinRSISell, cfg.MaxRSISell)
	}
	if cfg.MaxRSIBuy > 100 || cfg.MinRSIBuy < 0 || cfg.MaxRSISell > 100 || cfg.MinRSISell < 0 {
		return nil, fmt.Errorf("RSI bands must lie within [0, 100]")
	}
	return &Filter{cfg: cfg, logger: logger}, nil
}

// Evaluate classifies a snapshot. Incomplete snapshots and snapshots below
// the volatility floor yield SignalNone. Equality of the two moving averages
// yields SignalNone; long conditions are checked before short.
func (f *Filter) Evaluate(ctx context.Context, snap *domain.Snapshot) domain.Signal {
	if !snap.IsComplete() {
		return domain.SignalNone
	}

	if snap.ATR/snap.Price < f.cfg.MinATRRatio {
		f.logger.Debug(ctx, "Volatility below floor", map[string]interface{}{
			"symbol":   snap.Symbol,
			"atrRatio": snap.ATR / snap.Price,
			"floor":    f.cfg.MinATRRatio,
		})
		return domain.SignalNone
	}

	if snap.SMAFast > snap.SMASlow &&
		snap.RSI >= f.cfg.MinRSIBuy && snap.RSI <= f.cfg.MaxRSIBuy {
		return domain.SignalLong
	}

	if snap.SMAFast < snap.SMASlow &&
		snap.RSI >= f.cfg.MinRSISell && snap.RSI <= f.cfg.MaxRSISell {
		return domain.SignalShort
	}

	return domain.SignalNone
}
