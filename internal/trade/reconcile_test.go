package trade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tradeLedgerBot/internal/domain"
)

func TestReconcileFill(t *testing.T) {
	tests := []struct {
		name     string
		prevQty  float64
		prevAvg  float64
		ev       domain.OrderEvent
		fallback float64
		wantQty  float64
		wantAvg  float64
		wantDel  float64
	}{
		{
			name:    "incremental with exec price",
			prevQty: 0, prevAvg: 0,
			ev:      domain.OrderEvent{Filled: fptr(0.4), ExecPrice: fptr(100)},
			wantQty: 0.4, wantAvg: 100, wantDel: 0.4,
		},
		{
			name:    "second incremental weights the average",
			prevQty: 0.4, prevAvg: 100,
			ev:      domain.OrderEvent{Filled: fptr(0.6), ExecPrice: fptr(110)},
			wantQty: 1.0, wantAvg: 106, wantDel: 0.6,
		},
		{
			name:    "cumulative total derives the delta",
			prevQty: 0.4, prevAvg: 100,
			ev:      domain.OrderEvent{CumulativeFilled: fptr(1.0), AvgPrice: fptr(104)},
			wantQty: 1.0, wantAvg: 104, wantDel: 0.6,
		},
		{
			name:    "replayed cumulative is a no-op",
			prevQty: 1.0, prevAvg: 104,
			ev:      domain.OrderEvent{CumulativeFilled: fptr(1.0), AvgPrice: fptr(104)},
			wantQty: 1.0, wantAvg: 104, wantDel: 0,
		},
		{
			name:    "stale cumulative below local quantity is a no-op",
			prevQty: 1.0, prevAvg: 104,
			ev:      domain.OrderEvent{CumulativeFilled: fptr(0.4), AvgPrice: fptr(100)},
			wantQty: 1.0, wantAvg: 104, wantDel: 0,
		},
		{
			name:    "authoritative average wins over local weighting",
			prevQty: 0.5, prevAvg: 100,
			ev:      domain.OrderEvent{Filled: fptr(0.5), ExecPrice: fptr(120), AvgPrice: fptr(109)},
			wantQty: 1.0, wantAvg: 109, wantDel: 0.5,
		},
		{
			name:    "no price at all seeds the fallback",
			prevQty: 0, prevAvg: 0,
			ev:       domain.OrderEvent{Filled: fptr(1.0)},
			fallback: 99.5,
			wantQty:  1.0, wantAvg: 99.5, wantDel: 1.0,
		},
		{
			name:    "later priceless fill keeps the established average",
			prevQty: 0.5, prevAvg: 100,
			ev:       domain.OrderEvent{Filled: fptr(0.5)},
			fallback: 50,
			wantQty:  1.0, wantAvg: 100, wantDel: 0.5,
		},
		{
			name:    "empty payload",
			prevQty: 0.5, prevAvg: 100,
			ev:      domain.OrderEvent{},
			wantQty: 0.5, wantAvg: 100, wantDel: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reconcileFill(tt.prevQty, tt.prevAvg, &tt.ev, tt.fallback)
			assert.InDelta(t, tt.wantQty, res.Qty, 1e-9)
			assert.InDelta(t, tt.wantAvg, res.AvgPrice, 1e-9)
			assert.InDelta(t, tt.wantDel, res.Delta, 1e-9)
		})
	}
}

func TestFillFee(t *testing.T) {
	inst := testInstrument()
	inst.TakerCommission = 0.5

	t.Run("reported commission is taken verbatim", func(t *testing.T) {
		ev := domain.OrderEvent{Commission: fptr(0.42)}
		fee := fillFee(inst, &ev, fillResult{Delta: 1, AvgPrice: 1000}, domain.OrderMarket, 0, true)
		assert.Equal(t, 0.42, fee)
	})

	t.Run("cumulative commission yields the increment", func(t *testing.T) {
		ev := domain.OrderEvent{CumulativeCommission: fptr(1.5)}
		fee := fillFee(inst, &ev, fillResult{Delta: 0.5, AvgPrice: 1000}, domain.OrderMarket, 1.0, false)
		assert.InDelta(t, 0.5, fee, 1e-9)
	})

	t.Run("replayed cumulative commission accrues nothing", func(t *testing.T) {
		ev := domain.OrderEvent{CumulativeCommission: fptr(1.5)}
		fee := fillFee(inst, &ev, fillResult{Delta: 0, AvgPrice: 1000}, domain.OrderMarket, 1.5, false)
		assert.Equal(t, 0.0, fee)
	})

	t.Run("fallback applies taker rate on notional", func(t *testing.T) {
		// 1.0 at 1000 with a 0.001 taker rate: 1.0, plus the fixed
		// commission on the first fill of the order.
		ev := domain.OrderEvent{}
		fee := fillFee(inst, &ev, fillResult{Delta: 1.0, AvgPrice: 1000}, domain.OrderMarket, 0, true)
		assert.InDelta(t, 1.5, fee, 1e-9)

		fee = fillFee(inst, &ev, fillResult{Delta: 1.0, AvgPrice: 1000}, domain.OrderMarket, 0, false)
		assert.InDelta(t, 1.0, fee, 1e-9)
	})

	t.Run("limit order assumed maker", func(t *testing.T) {
		ev := domain.OrderEvent{}
		fee := fillFee(inst, &ev, fillResult{Delta: 1.0, AvgPrice: 1000}, domain.OrderLimit, 0, false)
		assert.InDelta(t, 0.5, fee, 1e-9)
	})

	t.Run("explicit maker flag overrides the order type", func(t *testing.T) {
		ev := domain.OrderEvent{Maker: bptr(false)}
		fee := fillFee(inst, &ev, fillResult{Delta: 1.0, AvgPrice: 1000}, domain.OrderLimit, 0, false)
		assert.InDelta(t, 1.0, fee, 1e-9)
	})

	t.Run("zero delta without commission fields accrues nothing", func(t *testing.T) {
		ev := domain.OrderEvent{}
		fee := fillFee(inst, &ev, fillResult{Delta: 0, AvgPrice: 1000}, domain.OrderMarket, 0, false)
		assert.Equal(t, 0.0, fee)
	})
}
