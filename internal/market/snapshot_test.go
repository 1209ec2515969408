package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/ports"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type mockExchange struct {
	ports.ExchangeClient

	klines    []*domain.Kline
	klinesErr error
}

func (m *mockExchange) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error) {
	return m.klines, m.klinesErr
}

func testKlines(count int) []*domain.Kline {
	klines := make([]*domain.Kline, count)
	base := time.Now().Add(-time.Duration(count) * 5 * time.Minute)
	for i := 0; i < count; i++ {
		price := 100.0 + float64(i%7)
		klines[i] = &domain.Kline{
			Symbol:    "BTCUSDT",
			Interval:  "5m",
			OpenTime:  base.Add(time.Duration(i) * 5 * time.Minute),
			CloseTime: base.Add(time.Duration(i+1) * 5 * time.Minute),
			Open:      price,
			High:      price + 2,
			Low:       price - 2,
			Close:     price + 1,
			Volume:    10,
		}
	}
	return klines
}

func defaultConfig() Config {
	return Config{
		Interval:      "5m",
		Limit:         100,
		SMAFastPeriod: 9,
		SMASlowPeriod: 21,
		RSIPeriod:     14,
		ATRPeriod:     14,
	}
}

func TestNewBuilder_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"limit below minimum history", func(c *Config) { c.Limit = 30 }},
		{"missing interval", func(c *Config) { c.Interval = "" }},
		{"non-positive period", func(c *Config) { c.RSIPeriod = 0 }},
		{"fast period not below slow", func(c *Config) { c.SMAFastPeriod = 21 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			_, err := NewBuilder(cfg, &mockExchange{}, mockLogger{})
			assert.Error(t, err)
		})
	}
}

func TestBuilder_Build(t *testing.T) {
	tests := []struct {
		name      string
		exchange  *mockExchange
		expectErr bool
	}{
		{
			name:     "full history builds a complete snapshot",
			exchange: &mockExchange{klines: testKlines(100)},
		},
		{
			name:      "fetch failure degrades to no snapshot",
			exchange:  &mockExchange{klinesErr: errors.New("boom")},
			expectErr: true,
		},
		{
			name:      "short window degrades to no snapshot",
			exchange:  &mockExchange{klines: testKlines(20)},
			expectErr: true,
		},
		{
			name:      "empty window degrades to no snapshot",
			exchange:  &mockExchange{},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder, err := NewBuilder(defaultConfig(), tt.exchange, mockLogger{})
			require.NoError(t, err)

			snap, err := builder.Build(context.Background(), "BTCUSDT")
			if tt.expectErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ports.ErrNoSnapshot)
				assert.Nil(t, snap)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, snap)
			assert.True(t, snap.IsComplete())
			assert.Equal(t, "BTCUSDT", snap.Symbol)
			assert.Equal(t, tt.exchange.klines[len(tt.exchange.klines)-1].Close, snap.Price)
			assert.GreaterOrEqual(t, snap.RSI, 0.0)
			assert.LessOrEqual(t, snap.RSI, 100.0)
			assert.GreaterOrEqual(t, snap.ATR, 0.0)
		})
	}
}
