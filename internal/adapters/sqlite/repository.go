package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements ports.TradeRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (or creates) the database file and ensures the schema.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_ledger.db" // Default path
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency between the update loop and the reporter.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS active_trades (
		symbol TEXT NOT NULL,
		trade_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (symbol, trade_id)
	);

	CREATE TABLE IF NOT EXISTS closed_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		trade_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		direction INTEGER NOT NULL,
		timeframe REAL NOT NULL,
		quantity REAL NOT NULL,
		entry_price REAL NOT NULL,
		exit_price REAL NOT NULL,
		profit_loss_rate REAL NOT NULL,
		fees REAL NOT NULL,
		best_price REAL NOT NULL,
		worst_price REAL NOT NULL,
		entry_time REAL NOT NULL,
		exit_time REAL NOT NULL,
		close_reason TEXT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_closed_trades_symbol_exit_time ON closed_trades (symbol, exit_time);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot inserts or replaces the snapshot for (symbol, trade id).
func (r *Repository) SaveSnapshot(ctx context.Context, snap *ports.TradeSnapshot) error {
	const query = `
	INSERT INTO active_trades (symbol, trade_id, kind, data, updated_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT (symbol, trade_id) DO UPDATE SET
		kind = excluded.kind, data = excluded.data, updated_at = CURRENT_TIMESTAMP`

	_, err := r.db.ExecContext(ctx, query, snap.Symbol, snap.TradeID, snap.Kind, string(snap.Data))
	if err != nil {
		return fmt.Errorf("failed to save snapshot for trade %d (%s): %w", snap.TradeID, snap.Symbol, err)
	}
	return nil
}

// DeleteSnapshot removes the snapshot for (symbol, trade id). Deleting a
// snapshot that was never saved is not an error.
func (r *Repository) DeleteSnapshot(ctx context.Context, symbol string, tradeID int) error {
	const query = `DELETE FROM active_trades WHERE symbol = ? AND trade_id = ?`
	_, err := r.db.ExecContext(ctx, query, symbol, tradeID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot for trade %d (%s): %w", tradeID, symbol, err)
	}
	return nil
}

// LoadSnapshots returns every stored snapshot for a symbol, oldest trade first.
func (r *Repository) LoadSnapshots(ctx context.Context, symbol string) ([]*ports.TradeSnapshot, error) {
	const query = `
	SELECT symbol, trade_id, kind, data
	FROM active_trades
	WHERE symbol = ? ORDER BY trade_id ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	snaps := make([]*ports.TradeSnapshot, 0)
	for rows.Next() {
		snap := &ports.TradeSnapshot{}
		var data string
		if err := rows.Scan(&snap.Symbol, &snap.TradeID, &snap.Kind, &data); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot during LoadSnapshots: %w", err)
		}
		snap.Data = []byte(data)
		snaps = append(snaps, snap)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return snaps, nil
}

// CreateClosedTrade appends a historical record and returns its assigned ID.
func (r *Repository) CreateClosedTrade(ctx context.Context, rec *domain.ClosedTrade) (int64, error) {
	const query = `
	INSERT INTO closed_trades (trade_id, symbol, direction, timeframe, quantity,
	                           entry_price, exit_price, profit_loss_rate, fees,
	                           best_price, worst_price, entry_time, exit_time, close_reason)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rec.TradeID, rec.Symbol, int(rec.Direction), rec.Timeframe, rec.Quantity,
		rec.EntryPrice, rec.ExitPrice, rec.ProfitLossRate, rec.Fees,
		rec.BestPrice, rec.WorstPrice, rec.FirstRealizedEntryTime, rec.LastRealizedExitTime,
		string(rec.CloseReason))
	if err != nil {
		return 0, fmt.Errorf("failed to insert closed trade for symbol %s: %w", rec.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for closed trade %s: %w", rec.Symbol, err)
	}
	rec.ID = id
	r.logger.Debug(ctx, "Closed trade recorded", map[string]interface{}{
		"id": id, "tradeID": rec.TradeID, "symbol": rec.Symbol, "plRate": rec.ProfitLossRate,
	})
	return id, nil
}

// FindClosedBySymbol retrieves the most recent closed trades for a symbol,
// newest first, up to a limit. A limit <= 0 returns the full history.
func (r *Repository) FindClosedBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ClosedTrade, error) {
	const query = `
	SELECT id, trade_id, symbol, direction, timeframe, quantity,
	       entry_price, exit_price, profit_loss_rate, fees,
	       best_price, worst_price, entry_time, exit_time, close_reason
	FROM closed_trades
	WHERE symbol = ? ORDER BY exit_time DESC, id DESC LIMIT ?`

	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}
	rows, err := r.db.QueryContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query closed trades for symbol %s: %w", symbol, err)
	}
	defer rows.Close()

	records := make([]*domain.ClosedTrade, 0)
	for rows.Next() {
		rec, err := scanClosedTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan closed trade during FindClosedBySymbol: %w", err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating closed trade rows: %w", err)
	}
	return records, nil
}

// TotalProfitRate sums the net profit/loss rate over the history of a symbol.
func (r *Repository) TotalProfitRate(ctx context.Context, symbol string) (float64, error) {
	const query = `SELECT COALESCE(SUM(profit_loss_rate), 0) FROM closed_trades WHERE symbol = ?`
	var total float64
	err := r.db.QueryRowContext(ctx, query, symbol).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum profit rate for symbol %s: %w", symbol, err)
	}
	return total, nil
}

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanClosedTrade(s scanner) (*domain.ClosedTrade, error) {
	rec := &domain.ClosedTrade{}
	var direction int
	var closeReason sql.NullString
	err := s.Scan(
		&rec.ID, &rec.TradeID, &rec.Symbol, &direction, &rec.Timeframe, &rec.Quantity,
		&rec.EntryPrice, &rec.ExitPrice, &rec.ProfitLossRate, &rec.Fees,
		&rec.BestPrice, &rec.WorstPrice, &rec.FirstRealizedEntryTime, &rec.LastRealizedExitTime,
		&closeReason)
	if err != nil {
		return nil, err
	}
	rec.Direction = domain.Direction(direction)
	if closeReason.Valid {
		rec.CloseReason = domain.CloseReason(closeReason.String)
	} else {
		rec.CloseReason = domain.CloseReasonUnknown
	}
	return rec, nil
}
