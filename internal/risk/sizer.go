package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrBelowMinNotional is returned when the computed order value falls under
// the exchange minimum. The candidate trade is abandoned silently; no state
// is mutated.
var ErrBelowMinNotional = errors.New("order notional below exchange minimum")

// quantityPrecision is the number of decimal places order quantities are
// rounded to. Instrument-dependent in principle; 3 covers the tracked
// USDT perpetuals.
const quantityPrecision = 3

// SizerConfig holds the risk-based sizing parameters.
type SizerConfig struct {
	RiskFraction float64 // Fraction of balance risked per trade, e.g. 0.20
	Leverage     int     // e.g. 20
	MinNotional  float64 // Exchange minimum order value in quote units, e.g. 5 USDT
}

// Sizer converts balance and price into an order quantity.
type Sizer struct {
	cfg SizerConfig
}

// NewSizer creates a position sizer.
func NewSizer(cfg SizerConfig) (*Sizer, error) {
	if cfg.RiskFraction <= 0 || cfg.RiskFraction > 1 {
		return nil, fmt.Errorf("RiskFraction must be in (0, 1]")
	}
	if cfg.Leverage <= 0 {
		return nil, fmt.Errorf("Leverage must be positive")
	}
	if cfg.MinNotional < 0 {
		return nil, fmt.Errorf("MinNotional cannot be negative")
	}
	return &Sizer{cfg: cfg}, nil
}

// Size computes the order quantity for the given balance and price:
// quantity = balance × riskFraction × leverage / price, rounded to the
// instrument precision. Returns ErrBelowMinNotional when the resulting
// order value would be dust the exchange rejects anyway.
func (s *Sizer) Size(balance, price float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("price must be positive, got %f", price)
	}
	if balance <= 0 {
		return 0, ErrBelowMinNotional
	}

	riskAmount := balance * s.cfg.RiskFraction
	qty := (riskAmount * float64(s.cfg.Leverage)) / price

	factor := math.Pow(10, quantityPrecision)
	qty = math.Round(qty*factor) / factor

	if qty*price < s.cfg.MinNotional {
		return 0, ErrBelowMinNotional
	}
	return qty, nil
}
