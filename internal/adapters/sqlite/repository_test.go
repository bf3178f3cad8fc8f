package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}
func (m *mockLogger) Fatal(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "trade-ledger-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, cleanup
}

func TestRepository_SnapshotLifecycle(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	snap := &ports.TradeSnapshot{
		TradeID: 1,
		Symbol:  "BTCUSDT",
		Kind:    "asset",
		Data:    []byte(`{"version":1,"entry_state":3}`),
	}
	require.NoError(t, repo.SaveSnapshot(ctx, snap))

	// Replacing the same key overwrites rather than duplicating.
	snap.Data = []byte(`{"version":1,"entry_state":5}`)
	require.NoError(t, repo.SaveSnapshot(ctx, snap))

	other := &ports.TradeSnapshot{TradeID: 2, Symbol: "BTCUSDT", Kind: "margin", Data: []byte(`{}`)}
	require.NoError(t, repo.SaveSnapshot(ctx, other))

	loaded, err := repo.LoadSnapshots(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, 1, loaded[0].TradeID)
	assert.Equal(t, "asset", loaded[0].Kind)
	assert.Equal(t, []byte(`{"version":1,"entry_state":5}`), loaded[0].Data)
	assert.Equal(t, 2, loaded[1].TradeID)

	// Other symbols stay invisible.
	none, err := repo.LoadSnapshots(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.DeleteSnapshot(ctx, "BTCUSDT", 1))
	loaded, err = repo.LoadSnapshots(ctx, "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 2, loaded[0].TradeID)

	// Deleting an absent snapshot is a no-op.
	require.NoError(t, repo.DeleteSnapshot(ctx, "BTCUSDT", 99))
}

func TestRepository_ClosedTradeHistory(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	records := []*domain.ClosedTrade{
		{
			TradeID:   1,
			Symbol:    "BTCUSDT",
			Direction: domain.Long,
			Timeframe: 3600,
			Quantity:  1.0,

			EntryPrice: 1000.0,
			ExitPrice:  1050.0,

			ProfitLossRate: 0.049,
			Fees:           1.0,

			BestPrice:  1060.0,
			WorstPrice: 990.0,

			FirstRealizedEntryTime: 10,
			LastRealizedExitTime:   100,

			CloseReason: domain.CloseReasonTakeProfit,
		},
		{
			TradeID:                2,
			Symbol:                 "BTCUSDT",
			Direction:              domain.Short,
			Quantity:               0.5,
			EntryPrice:             1100.0,
			ExitPrice:              1150.0,
			ProfitLossRate:         -0.046,
			Fees:                   0.5,
			FirstRealizedEntryTime: 200,
			LastRealizedExitTime:   300,
			CloseReason:            domain.CloseReasonStopLoss,
		},
	}
	for _, rec := range records {
		id, err := repo.CreateClosedTrade(ctx, rec)
		require.NoError(t, err)
		assert.Greater(t, id, int64(0))
		assert.Equal(t, id, rec.ID)
	}

	found, err := repo.FindClosedBySymbol(ctx, "BTCUSDT", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	// Newest exit first.
	assert.Equal(t, 2, found[0].TradeID)
	assert.Equal(t, domain.Short, found[0].Direction)
	assert.Equal(t, domain.CloseReasonStopLoss, found[0].CloseReason)
	assert.Equal(t, 1, found[1].TradeID)
	assert.InDelta(t, 0.049, found[1].ProfitLossRate, 1e-12)
	assert.Equal(t, 1060.0, found[1].BestPrice)
	assert.True(t, found[1].IsWin())
	assert.False(t, found[0].IsWin())

	limited, err := repo.FindClosedBySymbol(ctx, "BTCUSDT", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 2, limited[0].TradeID)

	all, err := repo.FindClosedBySymbol(ctx, "BTCUSDT", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	total, err := repo.TotalProfitRate(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.InDelta(t, 0.003, total, 1e-9)

	empty, err := repo.TotalProfitRate(ctx, "ETHUSDT")
	require.NoError(t, err)
	assert.Zero(t, empty)
}
