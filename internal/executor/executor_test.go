package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/metrics"
	"cryptoScalpBot/internal/ports"
	"cryptoScalpBot/internal/risk"
	"cryptoScalpBot/internal/trades"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type bracketCall struct {
	symbol     string
	side       domain.OrderSide
	quantity   string
	stopPrice  string
	takeProfit string
}

type mockExchange struct {
	ports.ExchangeClient

	calls    []bracketCall
	resp     *ports.BracketOrderResponse
	placeErr error
}

func (m *mockExchange) PlaceBracketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity, stopPrice, takeProfitPrice string) (*ports.BracketOrderResponse, error) {
	m.calls = append(m.calls, bracketCall{symbol, side, quantity, stopPrice, takeProfitPrice})
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	return m.resp, nil
}

type mockJournal struct {
	opened []*domain.OpenTrade
	err    error
}

func (m *mockJournal) RecordOpen(ctx context.Context, trade *domain.OpenTrade) (int64, error) {
	m.opened = append(m.opened, trade)
	return int64(len(m.opened)), m.err
}
func (m *mockJournal) RecordClose(ctx context.Context, symbol string, exitPrice float64, reason domain.CloseReason) error {
	return nil
}
func (m *mockJournal) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	return 0, nil
}
func (m *mockJournal) FindRecent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	return nil, nil
}

type mockNotifier struct {
	messages []string
}

func (m *mockNotifier) Notify(ctx context.Context, msg string) {
	m.messages = append(m.messages, msg)
}

type fixture struct {
	executor *Executor
	exchange *mockExchange
	registry *trades.Registry
	governor *risk.Governor
	journal  *mockJournal
	notifier *mockNotifier
}

func newFixture(t *testing.T, exchange *mockExchange) *fixture {
	t.Helper()

	governor, err := risk.NewGovernor(risk.GovernorConfig{
		MaxDailyLossFraction:   0.10,
		MaxDailyProfitFraction: 0.25,
		MaxTradesPerDay:        5,
		Cooldown:               300 * time.Second,
	}, mockLogger{})
	require.NoError(t, err)
	governor.InitDay(context.Background(), 1000)

	sizer, err := risk.NewSizer(risk.SizerConfig{RiskFraction: 0.20, Leverage: 20, MinNotional: 5})
	require.NoError(t, err)

	registry := trades.NewRegistry()
	journal := &mockJournal{}
	notifier := &mockNotifier{}

	exec, err := New(Config{SLATRMultiplier: 1.5, TPATRMultiplier: 3.0},
		mockLogger{}, exchange, registry, governor, sizer, journal, notifier,
		metrics.New(prometheus.NewRegistry()))
	require.NoError(t, err)

	return &fixture{
		executor: exec,
		exchange: exchange,
		registry: registry,
		governor: governor,
		journal:  journal,
		notifier: notifier,
	}
}

func snapshot(price, atr float64) *domain.Snapshot {
	return &domain.Snapshot{
		Symbol:  "BTCUSDT",
		Price:   price,
		SMAFast: price + 1,
		SMASlow: price - 1,
		RSI:     50,
		ATR:     atr,
	}
}

func TestExecutor_Open_Long(t *testing.T) {
	exchange := &mockExchange{resp: &ports.BracketOrderResponse{
		EntryOrderID:      1,
		AvgEntryPrice:     100.5,
		StopOrderID:       2,
		TakeProfitOrderID: 3,
	}}
	f := newFixture(t, exchange)

	err := f.executor.Open(context.Background(), "BTCUSDT", domain.SignalLong, snapshot(100, 2), 1000)
	require.NoError(t, err)

	require.Len(t, exchange.calls, 1)
	call := exchange.calls[0]
	assert.Equal(t, domain.Buy, call.side)
	// 1000 * 0.20 * 20 / 100 = 40
	assert.Equal(t, "40.000", call.quantity)
	// SL = 100 - 2*1.5, TP = 100 + 2*3.0
	assert.Equal(t, "97.0000", call.stopPrice)
	assert.Equal(t, "106.0000", call.takeProfit)

	trade, ok := f.registry.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, domain.Long, trade.Side)
	assert.Equal(t, 100.5, trade.EntryPrice)
	assert.Equal(t, int64(2), trade.StopOrderID)

	assert.Equal(t, 1, f.governor.TradesToday())
	assert.False(t, f.governor.CanTradeSymbol("BTCUSDT"), "cooldown should have started")
	require.Len(t, f.journal.opened, 1)
	require.Len(t, f.notifier.messages, 1)
}

func TestExecutor_Open_ShortMirrorsBracket(t *testing.T) {
	exchange := &mockExchange{resp: &ports.BracketOrderResponse{AvgEntryPrice: 100}}
	f := newFixture(t, exchange)

	err := f.executor.Open(context.Background(), "BTCUSDT", domain.SignalShort, snapshot(100, 2), 1000)
	require.NoError(t, err)

	require.Len(t, exchange.calls, 1)
	call := exchange.calls[0]
	assert.Equal(t, domain.Sell, call.side)
	assert.Equal(t, "103.0000", call.stopPrice)
	assert.Equal(t, "94.0000", call.takeProfit)
}

func TestExecutor_Open_GateRejections(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(*fixture)
		sig     domain.Signal
		balance float64
	}{
		{
			name:    "non-actionable signal",
			prepare: func(f *fixture) {},
			sig:     domain.SignalNone,
			balance: 1000,
		},
		{
			name:    "kill switch engaged",
			prepare: func(f *fixture) { f.governor.EngageKillSwitch(context.Background()) },
			sig:     domain.SignalLong,
			balance: 1000,
		},
		{
			name: "trade already open for symbol",
			prepare: func(f *fixture) {
				require.NoError(t, f.registry.Insert(&domain.OpenTrade{Symbol: "BTCUSDT", Side: domain.Long}))
			},
			sig:     domain.SignalLong,
			balance: 1000,
		},
		{
			name:    "symbol in cooldown",
			prepare: func(f *fixture) { f.governor.RecordTrade("BTCUSDT") },
			sig:     domain.SignalLong,
			balance: 1000,
		},
		{
			name:    "notional below minimum",
			prepare: func(f *fixture) {},
			sig:     domain.SignalLong,
			balance: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exchange := &mockExchange{resp: &ports.BracketOrderResponse{}}
			f := newFixture(t, exchange)
			tt.prepare(f)
			before := f.governor.TradesToday()

			err := f.executor.Open(context.Background(), "BTCUSDT", tt.sig, snapshot(100, 2), tt.balance)
			require.NoError(t, err, "gate rejections are silent skips")
			assert.Empty(t, exchange.calls, "no order may reach the exchange")
			assert.Empty(t, f.journal.opened)
			assert.Equal(t, before, f.governor.TradesToday(), "trade count unchanged by the skip")
		})
	}
}

func TestExecutor_Open_DailyCapBlocks(t *testing.T) {
	exchange := &mockExchange{resp: &ports.BracketOrderResponse{}}
	f := newFixture(t, exchange)
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		f.governor.RecordTrade(s)
	}

	err := f.executor.Open(context.Background(), "BTCUSDT", domain.SignalLong, snapshot(100, 2), 1000)
	require.NoError(t, err)
	assert.Empty(t, exchange.calls)
}

func TestExecutor_Open_PlacementFailureMutatesNothing(t *testing.T) {
	exchange := &mockExchange{placeErr: errors.New("insufficient margin")}
	f := newFixture(t, exchange)

	err := f.executor.Open(context.Background(), "BTCUSDT", domain.SignalLong, snapshot(100, 2), 1000)
	require.Error(t, err)

	assert.False(t, f.registry.Has("BTCUSDT"))
	assert.Equal(t, 0, f.governor.TradesToday())
	assert.True(t, f.governor.CanTradeSymbol("BTCUSDT"), "cooldown must not start on failure")
	assert.Empty(t, f.journal.opened)
	require.Len(t, f.notifier.messages, 1, "operator is told about the failure")
	assert.Contains(t, f.notifier.messages[0], "FAILED")
}

func TestExecutor_Open_FallsBackToSnapshotPrice(t *testing.T) {
	// Some venues report no fill price on the immediate ack.
	exchange := &mockExchange{resp: &ports.BracketOrderResponse{AvgEntryPrice: 0}}
	f := newFixture(t, exchange)

	err := f.executor.Open(context.Background(), "BTCUSDT", domain.SignalLong, snapshot(100, 2), 1000)
	require.NoError(t, err)

	trade, ok := f.registry.Get("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 100.0, trade.EntryPrice)
}
