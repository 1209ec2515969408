// Package trailing moves protective stops in the trade's favour as price
// advances. It only ever tightens: a stop never moves away from the current
// price, and a failed exchange update leaves the tracked stop untouched.
package trailing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/metrics"
	"cryptoScalpBot/internal/ports"
	"cryptoScalpBot/internal/trades"
)

// Config holds the trailing-stop parameters.
type Config struct {
	CheckInterval time.Duration // How often open trades are inspected, e.g. 5s
	StartATRs     float64       // Profit in ATRs before trailing activates, e.g. 1.2
	StepATRs      float64       // Stop distance behind price in ATRs, e.g. 0.6
	TPATRs        float64       // ATRs between entry and take-profit, used to recover the entry ATR
}

// Engine is the trailing-stop worker.
type Engine struct {
	cfg      Config
	logger   ports.Logger
	exchange ports.ExchangeClient
	registry *trades.Registry
	notifier ports.Notifier
	metrics  *metrics.Metrics
}

// New creates a trailing-stop engine.
func New(cfg Config, logger ports.Logger, exchange ports.ExchangeClient, registry *trades.Registry, notifier ports.Notifier, m *metrics.Metrics) (*Engine, error) {
	if logger == nil || exchange == nil || registry == nil || notifier == nil || m == nil {
		return nil, fmt.Errorf("all dependencies are required for trailing engine")
	}
	if cfg.CheckInterval <= 0 {
		return nil, fmt.Errorf("CheckInterval must be positive")
	}
	if cfg.StartATRs <= 0 || cfg.StepATRs <= 0 || cfg.TPATRs <= 0 {
		return nil, fmt.Errorf("ATR multiples must be positive")
	}
	return &Engine{
		cfg:      cfg,
		logger:   logger,
		exchange: exchange,
		registry: registry,
		notifier: notifier,
		metrics:  m,
	}, nil
}

// Run inspects open trades on the configured interval until the context is
// cancelled. Intended to run as its own goroutine alongside the scan loop.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.CheckInterval)
	defer ticker.Stop()

	e.logger.Info(ctx, "Trailing stop engine started", map[string]interface{}{"interval": e.cfg.CheckInterval.String()})

	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "Trailing stop engine stopped")
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick runs one trailing pass over all open trades. A price fetch failure for
// one symbol skips only that symbol; the pass continues.
func (e *Engine) Tick(ctx context.Context) {
	for _, symbol := range e.registry.Symbols() {
		trade, ok := e.registry.Get(symbol)
		if !ok {
			continue
		}

		price, err := e.exchange.GetLastPrice(ctx, symbol)
		if err != nil {
			e.logger.Warn(ctx, "Price fetch failed, skipping trail check", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
			continue
		}

		e.trail(ctx, trade, price)
	}
}

// trail applies the trailing rule to a single trade at the given price.
func (e *Engine) trail(ctx context.Context, trade domain.OpenTrade, price float64) {
	atrDist := trade.ATRDistance(e.cfg.TPATRs)
	if atrDist <= 0 {
		return
	}

	var profit, newStop float64
	var tighter bool
	if trade.Side == domain.Long {
		profit = price - trade.EntryPrice
		newStop = price - atrDist*e.cfg.StepATRs
		tighter = newStop > trade.StopLoss
	} else {
		profit = trade.EntryPrice - price
		newStop = price + atrDist*e.cfg.StepATRs
		tighter = newStop < trade.StopLoss
	}

	if profit < atrDist*e.cfg.StartATRs || !tighter {
		return
	}

	resp, err := e.exchange.ReplaceStopLoss(ctx, trade.Symbol, domain.ExitOrderSide(trade.Side),
		formatQuantity(trade.Quantity), formatPrice(newStop), trade.StopOrderID)
	if err != nil {
		e.metrics.TrailFailures.Inc()
		e.logger.Error(ctx, err, "Stop replacement failed, keeping current stop", map[string]interface{}{
			"symbol":      trade.Symbol,
			"currentStop": trade.StopLoss,
			"wantedStop":  newStop,
		})
		return
	}

	if !e.registry.UpdateStopLoss(trade.Symbol, newStop, resp.OrderID) {
		// Trade was closed between the read and the update; nothing to track.
		return
	}

	e.metrics.TrailUpdates.Inc()
	e.logger.Info(ctx, "Trailing stop tightened", map[string]interface{}{
		"symbol":  trade.Symbol,
		"side":    trade.Side,
		"price":   price,
		"oldStop": trade.StopLoss,
		"newStop": newStop,
	})
	e.notifier.Notify(ctx, fmt.Sprintf("🔒 %s trail: SL %s → %s (price %s)",
		trade.Symbol, formatPrice(trade.StopLoss), formatPrice(newStop), formatPrice(price)))
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', 3, 64)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}
