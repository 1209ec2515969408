package domain

// Side is the direction of an open trade.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// Signal is the outcome of evaluating one symbol's market snapshot.
type Signal string

const (
	SignalLong  Signal = "LONG"
	SignalShort Signal = "SHORT"
	SignalNone  Signal = "NONE"
)

// Side converts an actionable signal into a trade side.
// Only meaningful for SignalLong and SignalShort.
func (s Signal) Side() Side {
	if s == SignalShort {
		return Short
	}
	return Long
}

// OrderSide represents the side of an exchange order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// EntryOrderSide returns the exchange order side used to open a trade
// in the given direction.
func EntryOrderSide(side Side) OrderSide {
	if side == Short {
		return Sell
	}
	return Buy
}

// ExitOrderSide returns the exchange order side used to close or protect
// a trade in the given direction.
func ExitOrderSide(side Side) OrderSide {
	if side == Short {
		return Buy
	}
	return Sell
}

// TradeStatus represents the lifecycle state of a journaled trade.
type TradeStatus string

const (
	StatusOpen   TradeStatus = "open"
	StatusClosed TradeStatus = "closed"
)

// CloseReason indicates why a trade left the open-trade registry.
type CloseReason string

const (
	CloseReasonStopLoss   CloseReason = "SL"
	CloseReasonTakeProfit CloseReason = "TP"
	// CloseReasonExchange marks trades whose position disappeared on the
	// exchange side (a filled SL/TP or a manual close) and was pruned by
	// reconciliation.
	CloseReasonExchange CloseReason = "EXCHANGE_CLOSED"
	CloseReasonUnknown  CloseReason = "Unknown"
)
