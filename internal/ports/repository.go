package ports

import (
	"context"

	"cryptoScalpBot/internal/domain"
)

// TradeRepository defines the interface for the trade journal.
type TradeRepository interface {
	// RecordOpen journals a newly opened trade and returns its assigned ID.
	RecordOpen(ctx context.Context, trade *domain.OpenTrade) (int64, error)
	// RecordClose marks the open journal row for a symbol as closed.
	RecordClose(ctx context.Context, symbol string, exitPrice float64, reason domain.CloseReason) error
	// CountTodayBySymbol counts trades opened today (UTC) for a symbol.
	CountTodayBySymbol(ctx context.Context, symbol string) (int, error)
	// FindRecent retrieves the most recently opened trades, newest first.
	FindRecent(ctx context.Context, limit int) ([]*domain.TradeRecord, error)
}
