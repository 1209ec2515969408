package ports

import (
	"context"

	"cryptoScalpBot/internal/domain"
)

// OrderResponse represents the essential details returned after placing a
// single order.
type OrderResponse struct {
	OrderID      int64   // Exchange's order ID
	Symbol       string  // Symbol for the order
	AvgPrice     float64 // Average filled price (0 for unfilled conditional orders)
	OrigQuantity float64 // Original quantity requested
	Status       string  // Order status (e.g., NEW, FILLED)
}

// BracketOrderResponse is returned after a bracket placement: a market entry
// plus its two protective exits.
type BracketOrderResponse struct {
	EntryOrderID      int64
	AvgEntryPrice     float64 // 0 if the exchange did not report a fill price
	StopOrderID       int64
	TakeProfitOrderID int64
}

// PositionRisk represents the risk details for an open exchange position.
type PositionRisk struct {
	Symbol           string
	PositionAmt      float64 // Positive for long, negative for short
	EntryPrice       float64
	MarkPrice        float64
	UnRealizedProfit float64
	Leverage         int
}

// ExchangeClient defines the interface for interacting with a cryptocurrency
// exchange. All calls are expected to respect the context deadline; a failed
// or timed-out call degrades to "no data"/"no effect" for that cycle.
type ExchangeClient interface {
	// GetKlines retrieves historical candlestick data, oldest first.
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]*domain.Kline, error)

	// GetLastPrice retrieves the last traded price for a symbol.
	GetLastPrice(ctx context.Context, symbol string) (float64, error)

	// GetAccountBalance retrieves the wallet balance for an asset (e.g., "USDT").
	GetAccountBalance(ctx context.Context, asset string) (float64, error)

	// SetLeverage sets the leverage for a symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// PlaceBracketOrder submits a market order with attached stop-loss and
	// take-profit exits. Either all three orders are live on return, or the
	// adapter has unwound the entry and returns an error.
	PlaceBracketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity, stopPrice, takeProfitPrice string) (*BracketOrderResponse, error)

	// ReplaceStopLoss moves an existing protective stop to a new price.
	// The new stop order is placed before the previous one is cancelled so
	// the position is never left unprotected.
	ReplaceStopLoss(ctx context.Context, symbol string, side domain.OrderSide, quantity, stopPrice string, prevOrderID int64) (*OrderResponse, error)

	// GetPositionRisk retrieves the open position for a symbol.
	// Returns nil, nil when the exchange reports no position.
	GetPositionRisk(ctx context.Context, symbol string) (*PositionRisk, error)

	// Ping checks connectivity to the exchange API.
	Ping(ctx context.Context) error
}
