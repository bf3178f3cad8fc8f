package ports

import (
	"context"

	"tradeLedgerBot/internal/domain"
)

// TradeSnapshot is the serialized form of one active trade, opaque to the
// repository. Kind selects the concrete trade variant on load.
type TradeSnapshot struct {
	TradeID int
	Symbol  string
	Kind    string
	Data    []byte // JSON document produced by the trade's Snapshot
}

// TradeRepository persists active trade snapshots across restarts and the
// closed-trade history.
type TradeRepository interface {
	// SaveSnapshot inserts or replaces the snapshot for (symbol, trade id).
	SaveSnapshot(ctx context.Context, snap *TradeSnapshot) error
	// DeleteSnapshot removes the snapshot for (symbol, trade id).
	DeleteSnapshot(ctx context.Context, symbol string, tradeID int) error
	// LoadSnapshots returns every stored snapshot for a symbol.
	LoadSnapshots(ctx context.Context, symbol string) ([]*TradeSnapshot, error)

	// CreateClosedTrade appends an immutable historical record and returns
	// its assigned id.
	CreateClosedTrade(ctx context.Context, rec *domain.ClosedTrade) (int64, error)
	// FindClosedBySymbol returns the most recent closed trades, newest first.
	FindClosedBySymbol(ctx context.Context, symbol string, limit int) ([]*domain.ClosedTrade, error)
	// TotalProfitRate sums the net profit/loss rate over the history of a symbol.
	TotalProfitRate(ctx context.Context, symbol string) (float64, error)
}
