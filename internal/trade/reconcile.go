package trade

import (
	"tradeLedgerBot/internal/domain"
)

// qtyEpsilon absorbs float rounding introduced by instrument step-size
// adjustment when comparing executed quantities.
const qtyEpsilon = 1e-9

func qtyGTE(a, b float64) bool {
	return a >= b-qtyEpsilon
}

func qtyGT(a, b float64) bool {
	return a > b+qtyEpsilon
}

func qtyZero(q float64) bool {
	return q <= qtyEpsilon
}

// fillResult is the outcome of reconciling one ORDER_TRADED payload against
// the locally tracked side of a trade.
type fillResult struct {
	Qty      float64 // new cumulative executed quantity for the side
	AvgPrice float64 // new volume-weighted average price
	Delta    float64 // incremental quantity realized by this signal
}

// reconcileFill resolves the dual-mode fill reporting of ORDER_TRADED.
//
// Brokers report either an incremental Filled or a CumulativeFilled total,
// and either an authoritative cumulative AvgPrice or a single-fill ExecPrice;
// the same session can mix modes between the entry and exit orders of one
// trade. The incremental delta is always derived against the locally tracked
// quantity so that replaying a signal with an unchanged cumulative total is a
// no-op.
//
// fallbackPrice seeds the average when the very first fill carries no price
// detail at all (typically the requested order price).
func reconcileFill(prevQty, prevAvg float64, ev *domain.OrderEvent, fallbackPrice float64) fillResult {
	res := fillResult{Qty: prevQty, AvgPrice: prevAvg}

	switch {
	case ev.CumulativeFilled != nil && qtyGT(*ev.CumulativeFilled, prevQty):
		res.Delta = *ev.CumulativeFilled - prevQty
	case ev.Filled != nil && *ev.Filled > 0:
		res.Delta = *ev.Filled
	default:
		// Replay or empty payload: nothing realized.
		return res
	}

	switch {
	case ev.AvgPrice != nil && *ev.AvgPrice > 0:
		// Broker-authoritative cumulative average replaces the local estimate.
		res.AvgPrice = *ev.AvgPrice
	case ev.ExecPrice != nil && *ev.ExecPrice > 0:
		res.AvgPrice = (prevAvg*prevQty + *ev.ExecPrice*res.Delta) / (prevQty + res.Delta)
	case prevAvg <= 0:
		res.AvgPrice = fallbackPrice
	}

	if ev.CumulativeFilled != nil && qtyGT(*ev.CumulativeFilled, prevQty) {
		// Cumulative mode is the field of record for this order's side.
		res.Qty = *ev.CumulativeFilled
	} else {
		res.Qty = prevQty + res.Delta
	}
	return res
}

// fillFee returns the commission accrued by one fill.
//
// When the broker reports no commission fields, the fee falls back to
// notional * maker/taker rate, plus the fixed per-order commission on the
// first fill of the order. Maker/taker is inferred from the order type when
// the broker does not say (limit assumed maker); the heuristic is not always
// correct but keeps historical fee reporting comparable.
//
// prevFee is the fee already accrued on this order, needed to resolve the
// cumulative commission mode.
func fillFee(inst *domain.Instrument, ev *domain.OrderEvent, res fillResult,
	orderType domain.OrderType, prevFee float64, firstFill bool) float64 {

	switch {
	case ev.Commission != nil:
		return *ev.Commission
	case ev.CumulativeCommission != nil:
		if d := *ev.CumulativeCommission - prevFee; d > 0 {
			return d
		}
		return 0
	}

	if qtyZero(res.Delta) || inst == nil {
		return 0
	}

	maker := orderType.IsMakerType()
	if ev.Maker != nil {
		maker = *ev.Maker
	}

	price := res.AvgPrice
	if ev.ExecPrice != nil && *ev.ExecPrice > 0 {
		price = *ev.ExecPrice
	}
	notional := price * res.Delta

	fee := notional * inst.TakerFee
	if maker {
		fee = notional * inst.MakerFee
	}
	if firstFill {
		if maker {
			fee += inst.MakerCommission
		} else {
			fee += inst.TakerCommission
		}
	}
	return fee
}
