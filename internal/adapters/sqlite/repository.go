// Package sqlite implements the trade journal on SQLite. The journal is an
// audit log for the status surface and post-hoc review; the running bot never
// restores trading state from it.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"cryptoScalpBot/internal/domain"
	"cryptoScalpBot/internal/ports"
)

// Config holds the SQLite journal settings.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// Repository implements ports.TradeRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// NewRepository opens (and if needed creates) the journal database.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/scalp_bot.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %q: %w", filepath.Dir(dbPath), err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at %q: %w", dbPath, err)
	}

	// The Go driver works best with a single connection; SQLite serializes
	// writers anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	cfg.Logger.Info(context.Background(), "Trade journal opened", map[string]interface{}{"path": dbPath})
	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL DEFAULT NULL,
		quantity REAL NOT NULL,
		stop_loss REAL NOT NULL,
		take_profit REAL NOT NULL,
		opened_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP DEFAULT NULL,
		status TEXT NOT NULL,
		close_reason TEXT DEFAULT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol_status ON trades (symbol, status);
	CREATE INDEX IF NOT EXISTS idx_trades_opened_at ON trades (opened_at);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// RecordOpen journals a newly opened trade and returns its assigned ID.
func (r *Repository) RecordOpen(ctx context.Context, trade *domain.OpenTrade) (int64, error) {
	const query = `
	INSERT INTO trades (symbol, side, entry_price, quantity, stop_loss, take_profit, opened_at, status)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		trade.Symbol, trade.Side, trade.EntryPrice, trade.Quantity,
		trade.StopLoss, trade.TakeProfit, trade.OpenedAt.UTC(), domain.StatusOpen)
	if err != nil {
		return 0, fmt.Errorf("inserting trade for %s failed: %w: %w", trade.Symbol, ports.ErrUpdateFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading insert ID for %s failed: %w: %w", trade.Symbol, ports.ErrUpdateFailed, err)
	}
	r.logger.Debug(ctx, "Trade journaled", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol})
	return id, nil
}

// RecordClose marks the open journal rows for a symbol as closed. A missing
// open row is not an error: reconciliation may prune a trade whose open write
// failed earlier.
func (r *Repository) RecordClose(ctx context.Context, symbol string, exitPrice float64, reason domain.CloseReason) error {
	const query = `
	UPDATE trades
	SET exit_price = ?, closed_at = ?, status = ?, close_reason = ?
	WHERE symbol = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query,
		exitPrice, time.Now().UTC(), domain.StatusClosed, reason, symbol, domain.StatusOpen)
	if err != nil {
		return fmt.Errorf("closing trade for %s failed: %w: %w", symbol, ports.ErrUpdateFailed, err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		r.logger.Warn(ctx, "No open journal row to close", map[string]interface{}{"symbol": symbol})
	}
	return nil
}

// CountTodayBySymbol counts trades opened since UTC midnight for a symbol.
func (r *Repository) CountTodayBySymbol(ctx context.Context, symbol string) (int, error) {
	const query = `SELECT COUNT(*) FROM trades WHERE symbol = ? AND opened_at >= ?`

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var count int
	if err := r.db.QueryRowContext(ctx, query, symbol, midnight).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting today's trades for %s failed: %w: %w", symbol, ports.ErrQueryFailed, err)
	}
	return count, nil
}

// FindRecent retrieves the most recently opened trades, newest first.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	const query = `
	SELECT id, symbol, side, entry_price, COALESCE(exit_price, 0), quantity,
	       stop_loss, take_profit, opened_at, closed_at, status, close_reason
	FROM trades
	ORDER BY opened_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent trades failed: %w: %w", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	records := make([]*domain.TradeRecord, 0)
	for rows.Next() {
		rec, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trade row failed: %w: %w", ports.ErrQueryFailed, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trade rows failed: %w: %w", ports.ErrQueryFailed, err)
	}
	return records, nil
}

func scanTradeRecord(rows *sql.Rows) (*domain.TradeRecord, error) {
	rec := &domain.TradeRecord{}
	var side, status string
	var closedAt sql.NullTime
	var closeReason sql.NullString

	err := rows.Scan(
		&rec.ID, &rec.Symbol, &side, &rec.EntryPrice, &rec.ExitPrice, &rec.Quantity,
		&rec.StopLoss, &rec.TakeProfit, &rec.OpenedAt, &closedAt, &status, &closeReason)
	if err != nil {
		return nil, err
	}

	rec.Side = domain.Side(side)
	rec.Status = domain.TradeStatus(status)
	if closedAt.Valid {
		rec.ClosedAt = closedAt.Time
	}
	if closeReason.Valid {
		rec.CloseReason = domain.CloseReason(closeReason.String)
	} else {
		rec.CloseReason = domain.CloseReasonUnknown
	}
	return rec, nil
}
