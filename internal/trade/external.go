package trade

import "tradeLedgerBot/internal/domain"

// External fills: for position-centric markets a position quantity change is
// itself the fill signal. These handlers maintain the same ledger the
// ORDER_TRADED path does, with the taker-rate fee fallback since position
// events never carry commission detail.

func (t *baseTrade) externalFillFee(price, qty float64, maker, first bool) float64 {
	if t.inst == nil || price <= 0 {
		return 0
	}
	notional := price * qty
	fee := notional * t.inst.TakerFee
	if maker {
		fee = notional * t.inst.MakerFee
	}
	if first {
		if maker {
			fee += t.inst.MakerCommission
		} else {
			fee += t.inst.TakerCommission
		}
	}
	return fee
}

// applyExternalEntry realizes an entry fill reported through a position
// quantity increase.
func (t *baseTrade) applyExternalEntry(qty, price, ts float64) {
	if qtyZero(qty) {
		return
	}
	if price <= 0 {
		price = t.orderPrice
	}
	first := qtyZero(t.execEntryQty)
	newQty := t.execEntryQty + qty
	if price > 0 {
		t.entryPrice = (t.entryPrice*t.execEntryQty + price*qty) / newQty
	}
	t.execEntryQty = newQty

	maker := t.orderType.IsMakerType()
	t.stats.EntryFees += t.externalFillFee(price, qty, maker, first)
	t.stats.EntryMaker = maker
	if first {
		t.stats.FirstRealizedEntryTimestamp = ts
	}
	t.stats.LastRealizedEntryTimestamp = ts

	if qtyGTE(t.execEntryQty, t.orderQty) {
		t.entryState = domain.TradeStateFilled
		t.entryOID = ""
		t.entryRefOID = ""
	} else {
		t.entryState = domain.TradeStatePartiallyFilled
	}
}

// applyExternalExit realizes an exit fill reported through a position
// quantity decrease (own exit, external reduction or liquidation).
func (t *baseTrade) applyExternalExit(qty, price, ts float64) {
	if qtyZero(qty) {
		return
	}
	if r := t.remainingQty(); qtyGT(qty, r) {
		qty = r
	}
	if qtyZero(qty) {
		return
	}
	if price <= 0 {
		if t.inst != nil {
			price = t.inst.CloseExecPrice(t.dir)
		}
		if price <= 0 {
			price = t.entryPrice
		}
	}

	first := qtyZero(t.execExitQty)
	newQty := t.execExitQty + qty
	if price > 0 {
		t.exitPrice = (t.exitPrice*t.execExitQty + price*qty) / newQty
	}
	t.execExitQty = newQty

	t.stats.ExitFees += t.externalFillFee(price, qty, false, first)
	t.stats.ExitMaker = false
	if first {
		t.stats.FirstRealizedExitTimestamp = ts
	}
	t.stats.LastRealizedExitTimestamp = ts

	if t.entryPrice > 0 && t.exitPrice > 0 {
		t.profitLoss = float64(t.dir) * (t.exitPrice - t.entryPrice) / t.entryPrice
	}

	if qtyGTE(t.execExitQty, t.execEntryQty) && !t.IsOpening() {
		t.exitState = domain.TradeStateFilled
		t.exitTimestamp = ts
		t.closing = false
	} else {
		t.exitState = domain.TradeStatePartiallyFilled
	}
}

// forceExit settles the whole unrealized remainder, used when the broker
// reports the position gone (deletion, liquidation).
func (t *baseTrade) forceExit(price, ts float64) {
	t.applyExternalExit(t.remainingQty(), price, ts)
	if qtyGT(t.execExitQty, 0) || qtyGT(t.execEntryQty, 0) {
		t.exitState = domain.TradeStateFilled
	}
	t.exitTimestamp = ts
	t.closing = false
}
