package trade

import (
	"tradeLedgerBot/internal/domain"
)

// Slot matching. An event can address an order either by the broker id or by
// the client ref id assigned before the broker confirmed the order.

func matchOrder(ev *domain.OrderEvent, oid, refOID string) bool {
	if ev.OrderID != "" && ev.OrderID == oid {
		return true
	}
	return ev.RefOrderID != "" && ev.RefOrderID == refOID
}

func (t *baseTrade) isEntryOrder(ev *domain.OrderEvent) bool {
	return matchOrder(ev, t.entryOID, t.entryRefOID)
}

func (t *baseTrade) isStopOrder(ev *domain.OrderEvent) bool {
	return matchOrder(ev, t.stopOID, t.stopRefOID)
}

func (t *baseTrade) isLimitOrder(ev *domain.OrderEvent) bool {
	return matchOrder(ev, t.limitOID, t.limitRefOID)
}

// applyEntryOpened acknowledges entry order creation.
func (t *baseTrade) applyEntryOpened(ev *domain.OrderEvent) {
	if ev.OrderID != "" {
		t.entryOID = ev.OrderID
	}
	if t.openTimestamp == 0 {
		t.openTimestamp = ev.Timestamp
	}
	// Never demote a side that already realized fills: OPENED may arrive
	// after the first TRADED.
	if t.entryState == domain.TradeStateNew {
		t.entryState = domain.TradeStateOpened
	}
	if ev.StopLoss != nil && t.stopLoss == 0 {
		t.stopLoss = *ev.StopLoss
	}
	if ev.TakeProfit != nil && t.takeProfit == 0 {
		t.takeProfit = *ev.TakeProfit
	}
}

// applyEntryTraded reconciles one entry-side fill.
func (t *baseTrade) applyEntryTraded(ev *domain.OrderEvent) {
	first := qtyZero(t.execEntryQty)
	res := reconcileFill(t.execEntryQty, t.entryPrice, ev, t.orderPrice)

	if !qtyZero(res.Delta) {
		fee := fillFee(t.inst, ev, res, t.orderType, t.stats.EntryFees, first)
		t.stats.EntryFees += fee
		if ev.Maker != nil {
			t.stats.EntryMaker = *ev.Maker
		} else {
			t.stats.EntryMaker = t.orderType.IsMakerType()
		}
		if first {
			t.stats.FirstRealizedEntryTimestamp = ev.Timestamp
		}
		t.stats.LastRealizedEntryTimestamp = ev.Timestamp
	}

	t.execEntryQty = res.Qty
	if res.AvgPrice > 0 {
		t.entryPrice = res.AvgPrice
	}

	switch {
	case ev.FullyFilled || qtyGTE(t.execEntryQty, t.orderQty):
		t.entryState = domain.TradeStateFilled
		t.entryOID = ""
		t.entryRefOID = ""
	case !qtyZero(res.Delta):
		// A fill that raced a cancellation still promotes the entry: the
		// realized quantity is ground truth, the cancel only killed the
		// remainder.
		if t.entryState == domain.TradeStateCanceled || t.entryState == domain.TradeStateDeleted {
			t.entryState = domain.TradeStateFilled
		} else {
			t.entryState = domain.TradeStatePartiallyFilled
		}
	}
}

// applyExitTraded reconciles one exit-side fill. It returns true when the
// exit now covers the whole realized entry, so the caller can clear the
// originating order slot.
func (t *baseTrade) applyExitTraded(ev *domain.OrderEvent, exitOrderType domain.OrderType) bool {
	first := qtyZero(t.execExitQty)
	fallback := t.entryPrice
	if t.inst != nil {
		if p := t.inst.CloseExecPrice(t.dir); p > 0 {
			fallback = p
		}
	}
	res := reconcileFill(t.execExitQty, t.exitPrice, ev, fallback)

	// The exit ledger never exceeds the realized entry.
	if qtyGT(res.Qty, t.execEntryQty) {
		over := res.Qty - t.execEntryQty
		res.Qty = t.execEntryQty
		if res.Delta > over {
			res.Delta -= over
		} else {
			res.Delta = 0
		}
	}

	if !qtyZero(res.Delta) {
		fee := fillFee(t.inst, ev, res, exitOrderType, t.stats.ExitFees, first)
		t.stats.ExitFees += fee
		if ev.Maker != nil {
			t.stats.ExitMaker = *ev.Maker
		} else {
			t.stats.ExitMaker = exitOrderType.IsMakerType()
		}
		if first {
			t.stats.FirstRealizedExitTimestamp = ev.Timestamp
		}
		t.stats.LastRealizedExitTimestamp = ev.Timestamp
	}

	t.execExitQty = res.Qty
	if res.AvgPrice > 0 {
		t.exitPrice = res.AvgPrice
	}
	if t.entryPrice > 0 && t.exitPrice > 0 {
		t.profitLoss = float64(t.dir) * (t.exitPrice - t.entryPrice) / t.entryPrice
	}

	done := ev.FullyFilled ||
		(qtyGTE(t.execExitQty, t.execEntryQty) && !t.IsOpening())
	if done {
		t.exitState = domain.TradeStateFilled
		t.exitTimestamp = ev.Timestamp
		t.closing = false
	} else if !qtyZero(res.Delta) {
		t.exitState = domain.TradeStatePartiallyFilled
	}
	return done
}

// applyEntryRemoved handles terminal removal of the entry order (deleted,
// canceled or rejected). A nonzero realized quantity is sufficient evidence
// of a fill: the entry is promoted to FILLED even if the TRADED signal was
// never observed.
func (t *baseTrade) applyEntryRemoved(evType domain.OrderEventType) {
	t.entryOID = ""
	t.entryRefOID = ""

	if qtyGT(t.execEntryQty, 0) {
		t.entryState = domain.TradeStateFilled
		return
	}
	switch evType {
	case domain.OrderCanceled:
		t.entryState = domain.TradeStateCanceled
	case domain.OrderRejected:
		t.entryState = domain.TradeStateRejected
	default:
		t.entryState = domain.TradeStateDeleted
	}
}

// applyExitRemoved handles terminal removal of an exit order; the caller has
// already cleared the slot. State falls back so a replacement exit order can
// be issued for the remainder.
func (t *baseTrade) applyExitRemoved() {
	t.closing = false
	switch {
	case qtyGT(t.execExitQty, 0) && qtyGTE(t.execExitQty, t.execEntryQty) && !t.IsOpening():
		t.exitState = domain.TradeStateFilled
	case qtyGT(t.execExitQty, 0):
		t.exitState = domain.TradeStatePartiallyFilled
	default:
		t.exitState = domain.TradeStateCanceled
	}
}
