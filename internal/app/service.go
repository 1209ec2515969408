// Package app wires the market, strategy, risk and execution components into
// the running bot: the periodic scan loop, the reconciliation loop and the
// operator control surface.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/executor"
	"cryptoScalpBot/internal/market"
	"cryptoScalpBot/internal/metrics"
	"cryptoScalpBot/internal/ports"
	"cryptoScalpBot/internal/risk"
	"cryptoScalpBot/internal/strategy"
	"cryptoScalpBot/internal/trades"
	"cryptoScalpBot/internal/trailing"
)

// Config holds the orchestration parameters.
type Config struct {
	Mode              string        // "testnet" or "production", reporting only
	Symbols           []string      // Symbols scanned each cycle
	Asset             string        // Quote asset for balance queries, e.g. "USDT"
	Leverage          int           // Applied to every symbol at startup
	ScanInterval      time.Duration // e.g. 15s
	ReconcileInterval time.Duration // e.g. 30s
}

// Service runs the trading loops and implements ports.BotController.
type Service struct {
	cfg      Config
	logger   ports.Logger
	exchange ports.ExchangeClient
	builder  *market.Builder
	filter   *strategy.Filter
	executor *executor.Executor
	governor *risk.Governor
	registry *trades.Registry
	trailer  *trailing.Engine
	journal  ports.TradeRepository
	notifier ports.Notifier
	metrics  *metrics.Metrics

	mu     sync.Mutex
	active bool
}

// NewService creates the application service.
func NewService(
	cfg Config,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	builder *market.Builder,
	filter *strategy.Filter,
	exec *executor.Executor,
	governor *risk.Governor,
	registry *trades.Registry,
	trailer *trailing.Engine,
	journal ports.TradeRepository,
	notifier ports.Notifier,
	m *metrics.Metrics,
) (*Service, error) {
	if logger == nil || exchange == nil || builder == nil || filter == nil || exec == nil ||
		governor == nil || registry == nil || trailer == nil || journal == nil || notifier == nil || m == nil {
		return nil, fmt.Errorf("missing required dependencies for Service")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}
	if cfg.ScanInterval <= 0 || cfg.ReconcileInterval <= 0 {
		return nil, fmt.Errorf("scan and reconcile intervals must be positive")
	}
	if cfg.Leverage <= 0 {
		return nil, fmt.Errorf("Leverage must be positive")
	}
	if cfg.Asset == "" {
		return nil, fmt.Errorf("Asset is required")
	}
	return &Service{
		cfg:      cfg,
		logger:   logger,
		exchange: exchange,
		builder:  builder,
		filter:   filter,
		executor: exec,
		governor: governor,
		registry: registry,
		trailer:  trailer,
		journal:  journal,
		notifier: notifier,
		metrics:  m,
		active:   true,
	}, nil
}

// Start runs the bot until the context is cancelled or a shutdown signal
// arrives. It performs startup initialization, then launches the scan,
// trailing and reconciliation loops and blocks until they drain.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting trading service", map[string]interface{}{
		"mode":    s.cfg.Mode,
		"symbols": strings.Join(s.cfg.Symbols, ","),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := s.exchange.Ping(ctx); err != nil {
		s.logger.Error(ctx, err, "Exchange connectivity check failed")
		return fmt.Errorf("exchange ping failed: %w", err)
	}

	for _, symbol := range s.cfg.Symbols {
		if err := s.exchange.SetLeverage(ctx, symbol, s.cfg.Leverage); err != nil {
			// The venue keeps the previous setting; trading continues with it.
			s.logger.Warn(ctx, "Failed to set leverage, continuing with current setting", map[string]interface{}{
				"symbol":   symbol,
				"leverage": s.cfg.Leverage,
				"error":    err.Error(),
			})
		}
	}

	if err := s.initDay(ctx); err != nil {
		return fmt.Errorf("day initialization failed: %w", err)
	}
	s.seedDayCount(ctx)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		s.trailer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		s.reconcileLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.scanLoop(ctx)
	}()

	wg.Wait()
	s.logger.Info(ctx, "Trading service stopped")
	return nil
}

// initDay snapshots the balance as the day's risk baseline and announces the
// session. The balance fetch is the one startup call that must succeed: an
// unknown baseline would make every later risk check meaningless.
func (s *Service) initDay(ctx context.Context) error {
	balance, err := s.exchange.GetAccountBalance(ctx, s.cfg.Asset)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to fetch balance for day baseline")
		return fmt.Errorf("fetching %s balance failed: %w", s.cfg.Asset, err)
	}

	s.governor.InitDay(ctx, balance)
	s.metrics.AccountBalance.Set(balance)
	s.metrics.KillSwitchEngaged.Set(0)
	s.metrics.TradesToday.Set(0)

	s.notifier.Notify(ctx, fmt.Sprintf("🤖 Session started (%s)\nSymbols: %s\nBalance: %.2f %s\nLeverage: %dx",
		s.cfg.Mode, strings.Join(s.cfg.Symbols, ", "), balance, s.cfg.Asset, s.cfg.Leverage))
	return nil
}

// seedDayCount restores today's trade count from the journal so a mid-day
// restart cannot bypass the daily cap. Best effort: a failed count leaves the
// governor at zero. Runs at startup only; an operator /reset deliberately
// starts a fresh count.
func (s *Service) seedDayCount(ctx context.Context) {
	total := 0
	for _, symbol := range s.cfg.Symbols {
		n, err := s.journal.CountTodayBySymbol(ctx, symbol)
		if err != nil {
			s.logger.Warn(ctx, "Counting today's journaled trades failed, continuing without seed", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
			return
		}
		total += n
	}
	if total == 0 {
		return
	}
	s.governor.SeedTradeCount(ctx, total)
	s.metrics.TradesToday.Set(float64(s.governor.TradesToday()))
}

func (s *Service) scanLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	s.scanOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanOnce(ctx)
		}
	}
}

// scanOnce runs one full pass: refresh the daily risk check, then build and
// evaluate a snapshot per symbol. Every per-symbol failure is contained to
// that symbol and cycle.
func (s *Service) scanOnce(ctx context.Context) {
	if !s.isActive() {
		return
	}

	balance, err := s.exchange.GetAccountBalance(ctx, s.cfg.Asset)
	if err != nil {
		// Without a trustworthy balance neither the daily risk check nor
		// sizing can run; skip the whole pass rather than act on a guess.
		s.logger.Warn(ctx, "Balance fetch failed, skipping scan pass", map[string]interface{}{"error": err.Error()})
		return
	}
	s.metrics.AccountBalance.Set(balance)

	if tripped, pnlRatio := s.governor.CheckDailyRisk(ctx, balance); tripped {
		s.metrics.KillSwitchEngaged.Set(1)
		s.notifier.Notify(ctx, fmt.Sprintf("🛑 Kill switch engaged: daily P&L %.2f%%. No new entries until reset.", pnlRatio*100))
	}
	if s.governor.KillSwitchEngaged() {
		s.metrics.ScansTotal.Inc()
		return
	}

	for _, symbol := range s.cfg.Symbols {
		if s.registry.Has(symbol) {
			continue
		}

		snap, err := s.builder.Build(ctx, symbol)
		if err != nil {
			s.metrics.SnapshotFailures.Inc()
			s.logger.Debug(ctx, "No usable snapshot this cycle", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
			continue
		}

		sig := s.filter.Evaluate(ctx, snap)
		if sig == domain.SignalNone {
			continue
		}
		s.metrics.SignalsTotal.WithLabelValues(string(sig)).Inc()
		s.logger.Info(ctx, "Signal detected", map[string]interface{}{
			"symbol": symbol,
			"signal": sig,
			"price":  snap.Price,
			"rsi":    snap.RSI,
		})

		if err := s.executor.Open(ctx, symbol, sig, snap, balance); err != nil {
			s.logger.Error(ctx, err, "Trade entry failed", map[string]interface{}{"symbol": symbol})
		}
	}

	s.metrics.ScansTotal.Inc()
}

func (s *Service) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcileOnce(ctx)
		}
	}
}

// reconcileOnce drops registry entries whose exchange position is gone: a
// filled stop or take-profit, or a manual close on the venue. The exchange is
// the source of truth; the registry only follows.
func (s *Service) reconcileOnce(ctx context.Context) {
	for _, symbol := range s.registry.Symbols() {
		pos, err := s.exchange.GetPositionRisk(ctx, symbol)
		if err != nil {
			s.logger.Warn(ctx, "Position check failed, keeping trade tracked", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
			continue
		}
		if pos != nil && pos.PositionAmt != 0 {
			continue
		}

		trade, ok := s.registry.Remove(symbol)
		if !ok {
			continue
		}

		exitPrice, err := s.exchange.GetLastPrice(ctx, symbol)
		if err != nil {
			exitPrice = 0 // journal a close with unknown exit rather than keep a ghost trade
		}
		if err := s.journal.RecordClose(ctx, symbol, exitPrice, domain.CloseReasonExchange); err != nil {
			s.logger.Error(ctx, err, "Journaling reconciled close failed", map[string]interface{}{"symbol": symbol})
		}

		s.metrics.ReconcilePrunes.Inc()
		s.metrics.OpenTrades.Set(float64(s.registry.Len()))
		s.logger.Info(ctx, "Position closed on exchange, pruned from registry", map[string]interface{}{
			"symbol":     symbol,
			"side":       trade.Side,
			"entryPrice": trade.EntryPrice,
		})
		s.notifier.Notify(ctx, fmt.Sprintf("ℹ️ %s %s closed on exchange (entry %.4f)", trade.Symbol, trade.Side, trade.EntryPrice))
	}
}

func (s *Service) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Resume enables the scan loop. The kill switch, if engaged, stays engaged.
func (s *Service) Resume(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		s.active = true
		s.logger.Info(ctx, "Scanning resumed")
	}
}

// Pause disables the scan loop at the next pass boundary. Open trades keep
// trailing and reconciling; only new entries stop.
func (s *Service) Pause(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.active = false
		s.logger.Info(ctx, "Scanning paused")
	}
}

// Kill engages the kill switch on operator demand.
func (s *Service) Kill(ctx context.Context) {
	s.governor.EngageKillSwitch(ctx)
	s.metrics.KillSwitchEngaged.Set(1)
	s.notifier.Notify(ctx, "🛑 Kill switch engaged by operator. No new entries until reset.")
}

// ResetDay re-runs day initialization against the current balance. This is
// the only path that clears the kill switch.
func (s *Service) ResetDay(ctx context.Context) error {
	return s.initDay(ctx)
}

// Status assembles the state projection for the control surfaces. A failed
// balance fetch reports 0 rather than failing the whole status call.
func (s *Service) Status(ctx context.Context) ports.BotStatus {
	balance, err := s.exchange.GetAccountBalance(ctx, s.cfg.Asset)
	if err != nil {
		s.logger.Warn(ctx, "Balance fetch failed for status", map[string]interface{}{"error": err.Error()})
		balance = 0
	}
	return ports.BotStatus{
		Mode:        s.cfg.Mode,
		Active:      s.isActive(),
		KillSwitch:  s.governor.KillSwitchEngaged(),
		Balance:     balance,
		TradesToday: s.governor.TradesToday(),
		OpenTrades:  s.registry.Snapshot(),
	}
}
