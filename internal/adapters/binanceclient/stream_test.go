package binanceclient

import (
	"testing"

	"tradeLedgerBot/internal/domain"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateOrderUpdate(t *testing.T) {
	t.Run("new order", func(t *testing.T) {
		sig := translateOrderUpdate(&futures.WsOrderTradeUpdate{
			Symbol:        "BTCUSDT",
			ID:            12345,
			ClientOrderID: "x-abc",
			ExecutionType: futures.OrderExecutionTypeNew,
			OriginalPrice: "1000.5",
			OriginalQty:   "0.5",
			StopPrice:     "0",
		}, 17.0)
		require.NotNil(t, sig)
		assert.Equal(t, domain.OrderOpened, sig.Type)
		assert.Equal(t, "12345", sig.OrderID)
		assert.Equal(t, "x-abc", sig.RefOrderID)
		require.NotNil(t, sig.Price)
		assert.Equal(t, 1000.5, *sig.Price)
		require.NotNil(t, sig.Quantity)
		assert.Equal(t, 0.5, *sig.Quantity)
		assert.Equal(t, 17.0, sig.Timestamp)
	})

	t.Run("partial fill carries incremental and cumulative", func(t *testing.T) {
		sig := translateOrderUpdate(&futures.WsOrderTradeUpdate{
			Symbol:               "BTCUSDT",
			ID:                   12345,
			ExecutionType:        futures.OrderExecutionTypeTrade,
			Status:               futures.OrderStatusTypePartiallyFilled,
			LastFilledQty:        "0.2",
			AccumulatedFilledQty: "0.7",
			LastFilledPrice:      "1001.0",
			AveragePrice:         "1000.4",
			Commission:           "0.05",
			CommissionAsset:      "USDT",
			IsMaker:              true,
		}, 18.0)
		require.NotNil(t, sig)
		assert.Equal(t, domain.OrderTraded, sig.Type)
		assert.Equal(t, 0.2, *sig.Filled)
		assert.Equal(t, 0.7, *sig.CumulativeFilled)
		assert.Equal(t, 1001.0, *sig.ExecPrice)
		assert.Equal(t, 1000.4, *sig.AvgPrice)
		assert.False(t, sig.FullyFilled)
		assert.Equal(t, 0.05, *sig.Commission)
		require.NotNil(t, sig.Maker)
		assert.True(t, *sig.Maker)
	})

	t.Run("final fill sets fully filled", func(t *testing.T) {
		sig := translateOrderUpdate(&futures.WsOrderTradeUpdate{
			ID:                   1,
			ExecutionType:        futures.OrderExecutionTypeTrade,
			Status:               futures.OrderStatusTypeFilled,
			LastFilledQty:        "0.3",
			AccumulatedFilledQty: "1.0",
		}, 19.0)
		require.NotNil(t, sig)
		assert.True(t, sig.FullyFilled)
	})

	t.Run("cancel and expiry", func(t *testing.T) {
		sig := translateOrderUpdate(&futures.WsOrderTradeUpdate{
			ID: 1, ExecutionType: futures.OrderExecutionTypeCanceled,
		}, 20.0)
		require.NotNil(t, sig)
		assert.Equal(t, domain.OrderCanceled, sig.Type)

		sig = translateOrderUpdate(&futures.WsOrderTradeUpdate{
			ID: 1, ExecutionType: futures.OrderExecutionTypeExpired,
		}, 20.0)
		require.NotNil(t, sig)
		assert.Equal(t, domain.OrderDeleted, sig.Type)
	})

	t.Run("unhandled execution type dropped", func(t *testing.T) {
		sig := translateOrderUpdate(&futures.WsOrderTradeUpdate{
			ID: 1, ExecutionType: futures.OrderExecutionTypeCalculated,
		}, 21.0)
		assert.Nil(t, sig)
	})
}

func TestTranslateAccountUpdate(t *testing.T) {
	sigs := translateAccountUpdate(&futures.WsAccountUpdate{
		Positions: []futures.WsPosition{
			{Symbol: "BTCUSDT", Amount: "0.5", EntryPrice: "1000.0", UnrealizedPnL: "12.5"},
			{Symbol: "ETHUSDT", Amount: "-2.0", EntryPrice: "2000.0"},
			{Symbol: "XRPUSDT", Amount: "0"},
			{Symbol: "BROKEN", Amount: "not-a-number"},
		},
	}, 30.0)

	require.Len(t, sigs, 3)

	assert.Equal(t, domain.PositionUpdated, sigs[0].Type)
	assert.Equal(t, "BTCUSDT", sigs[0].PositionID)
	assert.Equal(t, domain.Long, sigs[0].Direction)
	assert.Equal(t, 0.5, *sigs[0].Quantity)
	assert.Equal(t, 1000.0, *sigs[0].AvgPrice)
	assert.Equal(t, 12.5, *sigs[0].ProfitLoss)

	assert.Equal(t, domain.Short, sigs[1].Direction)
	assert.Equal(t, 2.0, *sigs[1].Quantity)

	assert.Equal(t, domain.PositionDeleted, sigs[2].Type)
	assert.Equal(t, 0.0, *sigs[2].Quantity)
}
