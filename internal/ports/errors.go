package ports

import "errors"

// Standard application-level errors.
// Adapters wrap underlying infrastructure errors with these so the core can
// decide containment without knowing exchange or database details.
var (
	// General errors
	ErrUnknown         = errors.New("unknown error occurred")
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")

	// Market data errors. ErrNoData covers every "no decision this cycle"
	// condition: failed candle fetch, short history, unavailable indicator.
	ErrNoData      = errors.New("market data unavailable")
	ErrNoSnapshot  = errors.New("snapshot could not be built")
	ErrPriceUnread = errors.New("last price unavailable")

	// Exchange errors
	ErrExchangeUnavailable  = errors.New("exchange API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the exchange")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrOrderNotFound        = errors.New("order not found on the exchange")
	ErrPositionNotFound     = errors.New("position not found on the exchange")
	ErrOrderPlacementFailed = errors.New("failed to place order")
	ErrOrderCancelFailed    = errors.New("failed to cancel order")
	ErrStopModifyFailed     = errors.New("failed to modify stop loss")

	// Database errors
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
