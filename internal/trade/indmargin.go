package trade

import (
	"tradeLedgerBot/internal/domain"
)

// IndMarginTrade runs the indivisible margin model: a single position per
// direction per market, mandatory position id, reduce-only exit orders. The
// position can be reduced externally (liquidation, cross-margin), in which
// case the quantity shrink is itself an exit fill.
type IndMarginTrade struct {
	orderedTrade
}

// NewIndMarginTrade returns an empty indivisible-margin trade in state NEW.
func NewIndMarginTrade() *IndMarginTrade {
	t := &IndMarginTrade{}
	t.baseTrade = newBaseTrade(KindIndMargin)
	t.exitReduceOnly = true
	return t
}

// PositionSignal tracks the mandatory position and converts external
// quantity reductions into exit fills.
func (t *IndMarginTrade) PositionSignal(ev domain.PositionEvent) {
	switch ev.Type {
	case domain.PositionOpened:
		if ev.PositionID != "" {
			t.positionID = ev.PositionID
		}
		if ev.Quantity != nil {
			t.positionQty = *ev.Quantity
		}

	case domain.PositionAmended:
		if ev.StopLoss != nil && *ev.StopLoss > 0 {
			t.stopLoss = *ev.StopLoss
		}
		if ev.TakeProfit != nil && *ev.TakeProfit > 0 {
			t.takeProfit = *ev.TakeProfit
		}

	case domain.PositionUpdated:
		if ev.PositionID != "" && t.positionID == "" {
			t.positionID = ev.PositionID
		}
		if ev.Quantity == nil {
			return
		}
		q := *ev.Quantity
		if qtyGT(t.positionQty, q) {
			// Externally reduced (own reduce-only fills are reported on the
			// order side first; the exit ledger cap makes a duplicate
			// delivery a no-op).
			shrink := t.positionQty - q
			if qtyGT(shrink, t.remainingQty()) {
				shrink = t.remainingQty()
			}
			t.applyExternalExit(shrink, eventPrice(&ev), ev.Timestamp)
		}
		t.positionQty = q
		if qtyZero(q) && qtyGTE(t.execExitQty, t.execEntryQty) {
			t.positionID = ""
		}

	case domain.PositionDeleted:
		// The position vanished after the entry ran: whatever was still
		// unrealized has been closed broker-side (liquidation). Before the
		// entry ever opened, deletion is informational.
		if t.openTimestamp > 0 && ev.Timestamp >= t.openTimestamp && qtyGT(t.execEntryQty, 0) {
			t.forceExit(eventPrice(&ev), ev.Timestamp)
		}
		t.positionID = ""
		t.positionQty = 0
	}
}

// eventPrice extracts the best available price detail of a position event.
func eventPrice(ev *domain.PositionEvent) float64 {
	if ev.ExecPrice != nil && *ev.ExecPrice > 0 {
		return *ev.ExecPrice
	}
	if ev.AvgPrice != nil && *ev.AvgPrice > 0 {
		return *ev.AvgPrice
	}
	return 0
}
