package ports

import (
	"context"

	"cryptoScalpBot/internal/domain"
)

// BotStatus is a read-only projection of the bot's state for the control
// surfaces (HTTP dashboard, Telegram /status).
type BotStatus struct {
	Mode        string                      `json:"mode"`
	Active      bool                        `json:"active"`
	KillSwitch  bool                        `json:"kill_switch"`
	Balance     float64                     `json:"balance"`
	TradesToday int                         `json:"trades_today"`
	OpenTrades  map[string]domain.OpenTrade `json:"open_trades"`
}

// BotController exposes the operator toggles. Both the HTTP surface and the
// Telegram command channel route through this interface; neither carries any
// decision logic of its own.
type BotController interface {
	// Resume enables the scan loop. It does not clear the kill switch.
	Resume(ctx context.Context)
	// Pause disables the scan loop. Observed at the top of each scan pass;
	// an in-flight order placement completes before the pause takes effect.
	Pause(ctx context.Context)
	// Kill engages the kill switch. Cleared only by ResetDay.
	Kill(ctx context.Context)
	// ResetDay re-runs day initialization: snapshots the balance, resets
	// the trade counter and clears the kill switch.
	ResetDay(ctx context.Context) error
	// Status returns the current state projection.
	Status(ctx context.Context) BotStatus
}
