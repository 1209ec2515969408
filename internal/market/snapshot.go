// Package market builds per-symbol market snapshots from raw candle data.
package market

import (
	"context"
	"errors"
	"fmt"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/indicators"
	"cryptoScalpBot/internal/ports"
)

// minBars is the minimum candle history a snapshot may be built from.
const minBars = 50

// Config holds the snapshot builder parameters.
type Config struct {
	Interval      string // Candle interval, e.g. "5m"
	Limit         int    // Candles fetched per snapshot (>= minBars)
	SMAFastPeriod int
	SMASlowPeriod int
	RSIPeriod     int
	ATRPeriod     int
}

// Builder assembles snapshots from the market-data collaborator. It holds no
// cross-cycle state; every Build call fetches fresh candles.
type Builder struct {
	cfg      Config
	exchange ports.ExchangeClient
	logger   ports.Logger
}

// NewBuilder creates a snapshot builder.
func NewBuilder(cfg Config, exchange ports.ExchangeClient, logger ports.Logger) (*Builder, error) {
	if exchange == nil || logger == nil {
		return nil, fmt.Errorf("exchange client and logger are required for snapshot builder")
	}
	if cfg.Interval == "" {
		return nil, fmt.Errorf("candle interval must be set")
	}
	if cfg.Limit < minBars {
		return nil, fmt.Errorf("candle limit %d is below the minimum history of %d bars", cfg.Limit, minBars)
	}
	if cfg.SMAFastPeriod <= 0 || cfg.SMASlowPeriod <= 0 || cfg.RSIPeriod <= 0 || cfg.ATRPeriod <= 0 {
		return nil, fmt.Errorf("indicator periods must be positive")
	}
	if cfg.SMAFastPeriod >= cfg.SMASlowPeriod {
		return nil, fmt.Errorf("fast SMA period must be less than slow SMA period")
	}
	return &Builder{cfg: cfg, exchange: exchange, logger: logger}, nil
}

// Build fetches a recent candle window for the symbol and computes the four
// indicators plus last price. It fails closed: if the fetch fails, the window
// is too short, or any indicator is unavailable, it returns ports.ErrNoSnapshot
// so partial data never produces a partial decision.
func (b *Builder) Build(ctx context.Context, symbol string) (*domain.Snapshot, error) {
	klines, err := b.exchange.GetKlines(ctx, symbol, b.cfg.Interval, b.cfg.Limit)
	if err != nil {
		b.logger.Debug(ctx, "Candle fetch failed", map[string]interface{}{"symbol": symbol, "error": err.Error()})
		return nil, fmt.Errorf("%w: %w", ports.ErrNoSnapshot, err)
	}
	if len(klines) < minBars {
		return nil, fmt.Errorf("%w: only %d of %d required bars for %s", ports.ErrNoSnapshot, len(klines), minBars, symbol)
	}

	closes := make([]float64, len(klines))
	highs := make([]float64, len(klines))
	lows := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
		highs[i] = k.High
		lows[i] = k.Low
	}

	snap := &domain.Snapshot{
		Symbol: symbol,
		Price:  closes[len(closes)-1],
	}

	if snap.SMAFast, err = indicators.SMA(closes, b.cfg.SMAFastPeriod); err != nil {
		return nil, b.indicatorErr(symbol, "smaFast", err)
	}
	if snap.SMASlow, err = indicators.SMA(closes, b.cfg.SMASlowPeriod); err != nil {
		return nil, b.indicatorErr(symbol, "smaSlow", err)
	}
	if snap.RSI, err = indicators.RSI(closes, b.cfg.RSIPeriod); err != nil {
		return nil, b.indicatorErr(symbol, "rsi", err)
	}
	if snap.ATR, err = indicators.ATR(highs, lows, closes, b.cfg.ATRPeriod); err != nil {
		return nil, b.indicatorErr(symbol, "atr", err)
	}

	return snap, nil
}

func (b *Builder) indicatorErr(symbol, name string, err error) error {
	if errors.Is(err, indicators.ErrNotEnoughData) {
		return fmt.Errorf("%w: %s unavailable for %s", ports.ErrNoSnapshot, name, symbol)
	}
	return fmt.Errorf("%w: %s for %s: %w", ports.ErrNoSnapshot, name, symbol, err)
}
