// Package trades holds the in-memory open-trade registry shared by the scan
// and trailing workers.
package trades

import (
	"errors"
	"sort"
	"sync"

	"cryptoScalpBot/internal/domain"
)

// ErrTradeExists is returned when inserting a trade for a symbol that already
// has one; at most one open trade per symbol.
var ErrTradeExists = errors.New("open trade already registered for symbol")

// Registry maps symbol to its open trade. All access goes through the
// internal lock, and reads hand out copies, so a concurrent reader observes
// either no trade or a fully formed one — never a partially constructed
// record.
type Registry struct {
	mu     sync.RWMutex
	trades map[string]*domain.OpenTrade
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{trades: make(map[string]*domain.OpenTrade)}
}

// Insert registers a freshly opened trade. Fails with ErrTradeExists if the
// symbol already has one.
func (r *Registry) Insert(trade *domain.OpenTrade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.trades[trade.Symbol]; ok {
		return ErrTradeExists
	}
	cp := *trade
	r.trades[trade.Symbol] = &cp
	return nil
}

// Get returns a copy of the symbol's open trade, if any.
func (r *Registry) Get(symbol string) (domain.OpenTrade, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.trades[symbol]
	if !ok {
		return domain.OpenTrade{}, false
	}
	return *t, true
}

// Has reports whether the symbol has an open trade.
func (r *Registry) Has(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.trades[symbol]
	return ok
}

// Remove deletes the symbol's trade and returns it.
func (r *Registry) Remove(symbol string) (domain.OpenTrade, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trades[symbol]
	if !ok {
		return domain.OpenTrade{}, false
	}
	delete(r.trades, symbol)
	return *t, true
}

// UpdateStopLoss replaces the trade's stop level and protective order ID.
// Returns false if the trade no longer exists (closed between the trailing
// engine's read and its write).
func (r *Registry) UpdateStopLoss(symbol string, newStop float64, stopOrderID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.trades[symbol]
	if !ok {
		return false
	}
	t.StopLoss = newStop
	t.StopOrderID = stopOrderID
	return true
}

// Snapshot returns a copy of every open trade, keyed by symbol.
func (r *Registry) Snapshot() map[string]domain.OpenTrade {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.OpenTrade, len(r.trades))
	for sym, t := range r.trades {
		out[sym] = *t
	}
	return out
}

// Symbols returns the registered symbols in stable order.
func (r *Registry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.trades))
	for sym := range r.trades {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of open trades.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trades)
}
