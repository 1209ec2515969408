package domain

import (
	"math"
	"time"
)

// OpenTrade is a live position tracked by the bot, keyed by symbol with at
// most one per symbol. It is created by the order executor after a successful
// bracket placement and mutated only by the trailing stop engine (stop-loss
// field), via the registry.
type OpenTrade struct {
	Symbol     string
	Side       Side
	EntryPrice float64
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
	OpenedAt   time.Time

	// Exchange order IDs of the protective orders, needed when the
	// trailing engine replaces the stop.
	StopOrderID       int64
	TakeProfitOrderID int64
}

// ATRDistance reconstructs the ATR value the trade was opened with from the
// take-profit distance, so it does not have to be stored redundantly.
func (t *OpenTrade) ATRDistance(tpATRMultiplier float64) float64 {
	if tpATRMultiplier == 0 {
		return 0
	}
	return math.Abs(t.TakeProfit-t.EntryPrice) / tpATRMultiplier
}

// TradeRecord is a journaled trade row, persisted for the status surface and
// post-hoc review. The journal is an audit log, not restorable state.
type TradeRecord struct {
	ID          int64       `json:"id"`
	Symbol      string      `json:"symbol"`
	Side        Side        `json:"side"`
	EntryPrice  float64     `json:"entry_price"`
	ExitPrice   float64     `json:"exit_price"` // 0 while open
	Quantity    float64     `json:"quantity"`
	StopLoss    float64     `json:"stop_loss"`
	TakeProfit  float64     `json:"take_profit"`
	OpenedAt    time.Time   `json:"opened_at"`
	ClosedAt    time.Time   `json:"closed_at"` // zero value while open
	Status      TradeStatus `json:"status"`
	CloseReason CloseReason `json:"close_reason"`
}
