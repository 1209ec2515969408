// Package executor turns an actionable signal into a live bracket order:
// entry plus protective stop-loss and take-profit. It is the only component
// that mutates trading state, and it does so strictly after the exchange
// acknowledgement.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/metrics"
	"cryptoScalpBot/internal/ports"
	"cryptoScalpBot/internal/risk"
	"cryptoScalpBot/internal/trades"
)

// Config holds the bracket geometry.
type Config struct {
	SLATRMultiplier float64 // Stop distance in ATRs, e.g. 1.5
	TPATRMultiplier float64 // Take-profit distance in ATRs, e.g. 3.0
}

// Executor places bracket orders and records the resulting open trades.
type Executor struct {
	cfg      Config
	logger   ports.Logger
	exchange ports.ExchangeClient
	registry *trades.Registry
	governor *risk.Governor
	sizer    *risk.Sizer
	journal  ports.TradeRepository
	notifier ports.Notifier
	metrics  *metrics.Metrics
}

// New creates an order executor.
func New(cfg Config, logger ports.Logger, exchange ports.ExchangeClient, registry *trades.Registry, governor *risk.Governor, sizer *risk.Sizer, journal ports.TradeRepository, notifier ports.Notifier, m *metrics.Metrics) (*Executor, error) {
	if logger == nil || exchange == nil || registry == nil || governor == nil || sizer == nil || journal == nil || notifier == nil || m == nil {
		return nil, fmt.Errorf("all dependencies are required for executor")
	}
	if cfg.SLATRMultiplier <= 0 || cfg.TPATRMultiplier <= 0 {
		return nil, fmt.Errorf("ATR multipliers must be positive")
	}
	return &Executor{
		cfg:      cfg,
		logger:   logger,
		exchange: exchange,
		registry: registry,
		governor: governor,
		sizer:    sizer,
		journal:  journal,
		notifier: notifier,
		metrics:  m,
	}, nil
}

// Open evaluates the governance gates for a candidate trade and, if they all
// pass, places the bracket order. Gate rejections are silent skips: the cycle
// moves on and nothing is mutated. Only exchange-level failures return an
// error, and those too leave all local state untouched.
func (e *Executor) Open(ctx context.Context, symbol string, sig domain.Signal, snap *domain.Snapshot, balance float64) error {
	if sig != domain.SignalLong && sig != domain.SignalShort {
		return nil
	}

	if e.governor.KillSwitchEngaged() {
		e.metrics.GovernanceBlocks.WithLabelValues("kill_switch").Inc()
		return nil
	}
	if !e.governor.CanOpenNewTrade() {
		e.metrics.GovernanceBlocks.WithLabelValues("daily_cap").Inc()
		e.logger.Debug(ctx, "Daily trade cap reached, skipping signal", map[string]interface{}{"symbol": symbol})
		return nil
	}
	if e.registry.Has(symbol) {
		e.metrics.GovernanceBlocks.WithLabelValues("already_open").Inc()
		return nil
	}
	if !e.governor.CanTradeSymbol(symbol) {
		e.metrics.GovernanceBlocks.WithLabelValues("cooldown").Inc()
		e.logger.Debug(ctx, "Symbol in cooldown, skipping signal", map[string]interface{}{"symbol": symbol})
		return nil
	}

	qty, err := e.sizer.Size(balance, snap.Price)
	if err != nil {
		if errors.Is(err, risk.ErrBelowMinNotional) {
			e.metrics.SizingRejections.Inc()
			e.logger.Debug(ctx, "Order notional below minimum, skipping signal", map[string]interface{}{
				"symbol":  symbol,
				"balance": balance,
				"price":   snap.Price,
			})
			return nil
		}
		return fmt.Errorf("sizing %s failed: %w", symbol, err)
	}

	side := sig.Side()
	var stopPrice, takeProfit float64
	if side == domain.Long {
		stopPrice = snap.Price - snap.ATR*e.cfg.SLATRMultiplier
		takeProfit = snap.Price + snap.ATR*e.cfg.TPATRMultiplier
	} else {
		stopPrice = snap.Price + snap.ATR*e.cfg.SLATRMultiplier
		takeProfit = snap.Price - snap.ATR*e.cfg.TPATRMultiplier
	}
	if stopPrice <= 0 {
		e.logger.Warn(ctx, "Computed stop price not positive, skipping signal", map[string]interface{}{
			"symbol": symbol,
			"stop":   stopPrice,
		})
		return nil
	}

	resp, err := e.exchange.PlaceBracketOrder(ctx, symbol, domain.EntryOrderSide(side),
		formatQuantity(qty), formatPrice(stopPrice), formatPrice(takeProfit))
	if err != nil {
		e.metrics.OrdersRejected.Inc()
		e.logger.Error(ctx, err, "Bracket order placement failed", map[string]interface{}{
			"symbol": symbol,
			"side":   side,
		})
		e.notifier.Notify(ctx, fmt.Sprintf("⚠️ Order FAILED %s %s: %v", symbol, side, err))
		return fmt.Errorf("placing bracket order for %s failed: %w", symbol, err)
	}

	entryPrice := resp.AvgEntryPrice
	if entryPrice == 0 {
		entryPrice = snap.Price
	}

	trade := domain.OpenTrade{
		Symbol:            symbol,
		Side:              side,
		EntryPrice:        entryPrice,
		Quantity:          qty,
		StopLoss:          stopPrice,
		TakeProfit:        takeProfit,
		OpenedAt:          time.Now().UTC(),
		StopOrderID:       resp.StopOrderID,
		TakeProfitOrderID: resp.TakeProfitOrderID,
	}

	if err := e.registry.Insert(&trade); err != nil {
		// Lost a race with another opener for the same symbol. The bracket
		// is live on the exchange; reconciliation will pick the position up.
		e.logger.Error(ctx, err, "Registry insert failed after placement", map[string]interface{}{"symbol": symbol})
		return fmt.Errorf("registering trade for %s failed: %w", symbol, err)
	}
	e.governor.RecordTrade(symbol)

	e.metrics.OrdersPlaced.Inc()
	e.metrics.OpenTrades.Set(float64(e.registry.Len()))
	e.metrics.TradesToday.Set(float64(e.governor.TradesToday()))

	if _, err := e.journal.RecordOpen(ctx, &trade); err != nil {
		// The journal is an audit log; a failed write never blocks trading.
		e.logger.Error(ctx, err, "Journaling opened trade failed", map[string]interface{}{"symbol": symbol})
	}

	e.logger.Info(ctx, "Trade opened", map[string]interface{}{
		"symbol":     symbol,
		"side":       side,
		"entryPrice": entryPrice,
		"quantity":   qty,
		"stopLoss":   stopPrice,
		"takeProfit": takeProfit,
	})
	e.notifier.Notify(ctx, fmt.Sprintf("✅ %s %s qty=%s entry=%s SL=%s TP=%s",
		side, symbol, formatQuantity(qty), formatPrice(entryPrice), formatPrice(stopPrice), formatPrice(takeProfit)))

	return nil
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', 3, 64)
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}
