package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeLedgerBot/internal/domain"
)

func openAssetTrade(t *testing.T, broker *mockBroker, inst *domain.Instrument) *AssetTrade {
	t.Helper()
	tr := NewAssetTrade()
	ok := tr.Open(context.Background(), broker, inst, Entry{
		Direction: domain.Long,
		OrderType: domain.OrderLimit,
		Price:     1000,
		Quantity:  1.0,
		Timestamp: 10,
	})
	require.True(t, ok)
	return tr
}

func TestAssetTradeLifecycle(t *testing.T) {
	ctx := context.Background()
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	require.True(t, tr.IsOpened())
	assert.False(t, tr.IsActive())
	assert.Equal(t, 10.0, tr.EntryOpenTime())

	tr.OrderSignal(domain.OrderEvent{Type: domain.OrderOpened, OrderID: "oid-1", Timestamp: 11})
	assert.True(t, tr.IsOpened())

	// Partial fill reported as a cumulative total.
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 12,
		CumulativeFilled: fptr(0.4), AvgPrice: fptr(1000),
	})
	assert.InDelta(t, 0.4, tr.ExecEntryQty(), 1e-9)
	assert.InDelta(t, 1000, tr.EntryPrice(), 1e-9)
	assert.True(t, tr.IsOpening())
	assert.True(t, tr.IsActive())
	assert.False(t, tr.CanDelete())

	// Completing fill; the limit entry accrues maker fees.
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 13,
		CumulativeFilled: fptr(1.0), AvgPrice: fptr(1000.2), FullyFilled: true,
	})
	assert.InDelta(t, 1.0, tr.ExecEntryQty(), 1e-9)
	assert.InDelta(t, 1000.2, tr.EntryPrice(), 1e-9)
	assert.False(t, tr.IsOpening())
	assert.InDelta(t, 0.0005*(0.4*1000+0.6*1000.2), tr.Stats().EntryFees, 1e-9)

	// Replaying the terminal fill changes nothing.
	fees := tr.Stats().EntryFees
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 13,
		CumulativeFilled: fptr(1.0), AvgPrice: fptr(1000.2), FullyFilled: true,
	})
	assert.InDelta(t, 1.0, tr.ExecEntryQty(), 1e-9)
	assert.Equal(t, fees, tr.Stats().EntryFees)

	// Protective stop placed for the whole realized quantity.
	res := tr.ModifyStopLoss(ctx, broker, inst, 950, true)
	require.Equal(t, domain.OrderResultAccepted, res)
	require.True(t, tr.HasStopOrder())
	stop := broker.lastOrder()
	assert.Equal(t, domain.OrderStop, stop.Type)
	assert.Equal(t, domain.Short, stop.Direction)
	assert.InDelta(t, 1.0, stop.Quantity, 1e-9)
	assert.InDelta(t, 950, stop.StopPrice, 1e-9)

	// Stop triggers broker-side and fills fully.
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-2", Timestamp: 20,
		CumulativeFilled: fptr(1.0), AvgPrice: fptr(949.5), FullyFilled: true,
	})
	assert.True(t, tr.IsClosed())
	assert.False(t, tr.IsActive())
	assert.False(t, tr.HasStopOrder())
	assert.True(t, tr.CanDelete())
	assert.InDelta(t, (949.5-1000.2)/1000.2, tr.ProfitLossRate(), 1e-9)
	assert.Equal(t, 20.0, tr.ExitTime())
}

func TestAssetTradeRejectsShortEntry(t *testing.T) {
	broker := newMockBroker()
	tr := NewAssetTrade()
	ok := tr.Open(context.Background(), broker, testInstrument(), Entry{
		Direction: domain.Short,
		OrderType: domain.OrderMarket,
		Quantity:  1.0,
	})
	assert.False(t, ok)
	assert.True(t, tr.IsCanceled())
	assert.Empty(t, broker.created)
}

func TestAssetTradeEntryRejectedByBroker(t *testing.T) {
	broker := newMockBroker()
	broker.createErr = assert.AnError
	tr := NewAssetTrade()
	ok := tr.Open(context.Background(), broker, testInstrument(), Entry{
		Direction: domain.Long,
		OrderType: domain.OrderMarket,
		Quantity:  1.0,
	})
	assert.False(t, ok)
	assert.True(t, tr.IsCanceled())
	assert.True(t, tr.CanDelete())
}

func TestAssetTradeOutOfOrderSignals(t *testing.T) {
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	// Fill addressed by ref id only, before the creation acknowledgement.
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, RefOrderID: "ref-1", Timestamp: 12,
		Filled: fptr(0.4), ExecPrice: fptr(1000),
	})
	assert.InDelta(t, 0.4, tr.ExecEntryQty(), 1e-9)
	require.True(t, tr.IsOpening())

	// The late ORDER_OPENED must not demote the realized state.
	tr.OrderSignal(domain.OrderEvent{Type: domain.OrderOpened, OrderID: "oid-1", Timestamp: 11})
	assert.False(t, tr.IsOpened())
	assert.True(t, tr.IsOpening())
	assert.InDelta(t, 0.4, tr.ExecEntryQty(), 1e-9)
}

func TestAssetTradeCancelFillRace(t *testing.T) {
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 12,
		CumulativeFilled: fptr(0.4), AvgPrice: fptr(1000),
	})
	tr.OrderSignal(domain.OrderEvent{Type: domain.OrderCanceled, OrderID: "oid-1", Timestamp: 13})

	// Realized quantity survives the cancellation of the remainder: the
	// entry is promoted, never marked canceled.
	assert.False(t, tr.IsCanceled())
	assert.False(t, tr.IsOpening())
	assert.True(t, tr.IsActive())
	assert.InDelta(t, 0.4, tr.ExecEntryQty(), 1e-9)
	assert.False(t, tr.CanDelete())
}

func TestAssetTradeCancelRecoversUnreportedFill(t *testing.T) {
	ctx := context.Background()
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	// Part of the entry executed at the broker but the fill report has not
	// arrived yet when the cancel goes out.
	broker.infos["oid-1"] = &domain.OrderInfo{
		ID: "oid-1", CumulativeQty: 0.4, AvgPrice: 1000, Timestamp: 12,
	}

	res := tr.CancelOpen(ctx, broker, inst)
	require.Equal(t, domain.OrderResultAccepted, res)
	assert.Contains(t, broker.canceled, "oid-1")

	// The executed quantity is recovered from the cancel confirmation: the
	// entry is promoted to FILLED, never CANCELED, and the trade must not
	// be swept while its quantity is live at the broker.
	assert.InDelta(t, 0.4, tr.ExecEntryQty(), 1e-9)
	assert.InDelta(t, 1000, tr.EntryPrice(), 1e-9)
	assert.False(t, tr.IsCanceled())
	assert.False(t, tr.IsOpening())
	assert.True(t, tr.IsActive())
	assert.False(t, tr.CanDelete())

	// The fill report straggling in after the order id was dropped changes
	// nothing; the ledger already carries the quantity.
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 13,
		CumulativeFilled: fptr(0.4), AvgPrice: fptr(1000),
	})
	assert.InDelta(t, 0.4, tr.ExecEntryQty(), 1e-9)
	assert.False(t, tr.CanDelete())
}

func TestAssetTradeStopReplaceKeepsExecutedQty(t *testing.T) {
	ctx := context.Background()
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 12,
		CumulativeFilled: fptr(1.0), AvgPrice: fptr(1000), FullyFilled: true,
	})
	require.Equal(t, domain.OrderResultAccepted, tr.ModifyStopLoss(ctx, broker, inst, 950, true))

	// The stop partially executed before the replacement cancels it.
	broker.infos["oid-2"] = &domain.OrderInfo{
		ID: "oid-2", CumulativeQty: 0.3, AvgPrice: 949.8, Timestamp: 20,
	}
	require.Equal(t, domain.OrderResultAccepted, tr.ModifyStopLoss(ctx, broker, inst, 948, true))

	assert.InDelta(t, 0.3, tr.ExecExitQty(), 1e-9)
	assert.InDelta(t, 949.8, tr.ExitPrice(), 1e-9)

	// The replacement stop covers the remainder only.
	stop := broker.lastOrder()
	assert.Equal(t, domain.OrderStop, stop.Type)
	assert.InDelta(t, 0.7, stop.Quantity, 1e-9)
	assert.InDelta(t, 948, stop.StopPrice, 1e-9)
}

func TestAssetTradeHardExitsAreExclusive(t *testing.T) {
	ctx := context.Background()
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 12,
		CumulativeFilled: fptr(1.0), AvgPrice: fptr(1000), FullyFilled: true,
	})

	require.Equal(t, domain.OrderResultAccepted, tr.ModifyStopLoss(ctx, broker, inst, 950, true))
	require.True(t, tr.HasStopOrder())

	// A hard take-profit withdraws the working stop: the unsold quantity
	// cannot back two sells.
	require.Equal(t, domain.OrderResultAccepted, tr.ModifyTakeProfit(ctx, broker, inst, 1100, true))
	assert.Contains(t, broker.canceled, "oid-2")
	assert.False(t, tr.HasStopOrder())
	assert.True(t, tr.HasLimitOrder())
	// The stop target survives as a soft price for the trigger simulation.
	assert.InDelta(t, 950, tr.StopLoss(), 1e-9)

	// And the other way around.
	require.Equal(t, domain.OrderResultAccepted, tr.ModifyStopLoss(ctx, broker, inst, 951, true))
	assert.Contains(t, broker.canceled, "oid-3")
	assert.True(t, tr.HasStopOrder())
	assert.False(t, tr.HasLimitOrder())
	assert.InDelta(t, 1100, tr.TakeProfit(), 1e-9)
}

func TestAssetTradeEntryExpiry(t *testing.T) {
	broker := newMockBroker()
	inst := testInstrument()
	tr := NewAssetTrade()
	ok := tr.Open(context.Background(), broker, inst, Entry{
		Direction: domain.Long,
		OrderType: domain.OrderLimit,
		Price:     1000,
		Quantity:  1.0,
		Timestamp: 10,
		Expiry:    100,
	})
	require.True(t, ok)

	assert.True(t, tr.IsValid(99, 0))
	assert.False(t, tr.IsValid(100, 0))
	// The per-trade expiry overrides the trader-wide validity window.
	assert.True(t, tr.IsValid(99, 30))

	// Expiry survives persistence.
	snap, err := tr.Snapshot()
	require.NoError(t, err)
	restored, err := Restore(snap, inst)
	require.NoError(t, err)
	assert.True(t, restored.IsValid(99, 0))
	assert.False(t, restored.IsValid(100, 0))
}

func TestAssetTradePartialFillThenClose(t *testing.T) {
	ctx := context.Background()
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 12,
		CumulativeFilled: fptr(0.4), AvgPrice: fptr(1000),
	})

	res := tr.CancelOpen(ctx, broker, inst)
	require.Equal(t, domain.OrderResultAccepted, res)
	assert.Contains(t, broker.canceled, "oid-1")
	assert.False(t, tr.IsCanceled())
	assert.True(t, tr.IsActive())

	// Close exits the realized remainder at market.
	res = tr.Close(ctx, broker, inst)
	require.Equal(t, domain.OrderResultAccepted, res)
	assert.True(t, tr.IsClosing())
	exit := broker.lastOrder()
	assert.Equal(t, domain.OrderMarket, exit.Type)
	assert.InDelta(t, 0.4, exit.Quantity, 1e-9)

	// Close is re-entrant while the exit order works.
	assert.Equal(t, domain.OrderResultNothingToDo, tr.Close(ctx, broker, inst))

	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-2", Timestamp: 20,
		CumulativeFilled: fptr(0.4), ExecPrice: fptr(999.9), FullyFilled: true,
	})
	assert.True(t, tr.IsClosed())
	assert.True(t, tr.CanDelete())
	assert.Equal(t, domain.OrderResultNothingToDo, tr.Close(ctx, broker, inst))
}

func TestAssetTradeCancelOpenUnfilled(t *testing.T) {
	ctx := context.Background()
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	res := tr.CancelOpen(ctx, broker, inst)
	require.Equal(t, domain.OrderResultAccepted, res)
	assert.True(t, tr.IsCanceled())
	assert.True(t, tr.CanDelete())

	assert.Equal(t, domain.OrderResultNothingToDo, tr.CancelOpen(ctx, broker, inst))
}

func TestAssetTradeSoftStopKeepsNoOrder(t *testing.T) {
	ctx := context.Background()
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	res := tr.ModifyStopLoss(ctx, broker, inst, 950.04, false)
	require.Equal(t, domain.OrderResultAccepted, res)
	assert.False(t, tr.HasStopOrder())
	assert.InDelta(t, 950.0, tr.StopLoss(), 1e-9) // snapped to tick
	assert.Len(t, broker.created, 1)              // entry only
}

func TestAssetTradeEntryTimeout(t *testing.T) {
	broker := newMockBroker()
	inst := testInstrument()
	tr := openAssetTrade(t, broker, inst)

	assert.False(t, tr.IsEntryTimeout(40, 60))
	assert.True(t, tr.IsEntryTimeout(80, 60))

	// A fill disarms the timeout.
	tr.OrderSignal(domain.OrderEvent{
		Type: domain.OrderTraded, OrderID: "oid-1", Timestamp: 12,
		Filled: fptr(0.1), ExecPrice: fptr(1000),
	})
	assert.False(t, tr.IsEntryTimeout(80, 60))
}

func TestAssetTradeCheck(t *testing.T) {
	ctx := context.Background()
	inst := testInstrument()

	t.Run("api failure means retry", func(t *testing.T) {
		broker := newMockBroker()
		tr := openAssetTrade(t, broker, inst)
		broker.infoErr = assert.AnError
		assert.Equal(t, CheckRetry, tr.Check(ctx, broker, inst))
		assert.True(t, tr.IsOpened())
	})

	t.Run("missed entry fill is synthesized", func(t *testing.T) {
		broker := newMockBroker()
		tr := openAssetTrade(t, broker, inst)
		broker.infos["oid-1"] = &domain.OrderInfo{
			ID: "oid-1", CumulativeQty: 1.0, AvgPrice: 1000.2,
			FullyFilled: true, Timestamp: 15,
		}
		assert.Equal(t, CheckConsistent, tr.Check(ctx, broker, inst))
		assert.InDelta(t, 1.0, tr.ExecEntryQty(), 1e-9)
		assert.InDelta(t, 1000.2, tr.EntryPrice(), 1e-9)
		assert.False(t, tr.IsOpening())
	})

	t.Run("stale stop id is cleared", func(t *testing.T) {
		broker := newMockBroker()
		tr := openAssetTrade(t, broker, inst)
		broker.infos["oid-1"] = &domain.OrderInfo{
			ID: "oid-1", CumulativeQty: 1.0, AvgPrice: 1000,
			FullyFilled: true, Timestamp: 15,
		}
		require.Equal(t, CheckConsistent, tr.Check(ctx, broker, inst))
		require.Equal(t, domain.OrderResultAccepted, tr.ModifyStopLoss(ctx, broker, inst, 950, true))
		require.True(t, tr.HasStopOrder())

		// The broker has no record of the stop order.
		assert.Equal(t, CheckFixed, tr.Check(ctx, broker, inst))
		assert.False(t, tr.HasStopOrder())
		assert.False(t, tr.IsClosing())
	})

	t.Run("entry canceled out of band", func(t *testing.T) {
		broker := newMockBroker()
		tr := openAssetTrade(t, broker, inst)
		broker.infos["oid-1"] = &domain.OrderInfo{ID: "oid-1", Canceled: true, Timestamp: 15}
		assert.Equal(t, CheckConsistent, tr.Check(ctx, broker, inst))
		assert.True(t, tr.IsCanceled())
	})
}
