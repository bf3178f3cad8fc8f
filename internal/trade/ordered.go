package trade

import (
	"context"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

// orderedTrade is the shared machinery of the order-centric market models
// (asset, margin, indivisible margin): the entry and the exits are the
// trade's own orders and every fill arrives as an ORDER_TRADED signal. The
// variants differ in position signal semantics and in whether exit orders
// must be reduce-only.
type orderedTrade struct {
	baseTrade

	exitReduceOnly bool
}

// Open submits the entry order.
func (t *orderedTrade) Open(ctx context.Context, broker ports.Broker, inst *domain.Instrument, entry Entry) bool {
	if t.entryState != domain.TradeStateNew && t.entryState != domain.TradeStateRejected {
		return false
	}
	t.inst = inst
	t.dir = entry.Direction
	t.orderType = entry.OrderType
	t.timeframe = entry.Timeframe
	t.expiry = entry.Expiry
	t.orderPrice = inst.AdjustPrice(entry.Price)
	t.orderQty = inst.AdjustQuantity(entry.Quantity)
	t.takeProfit = inst.AdjustPrice(entry.TakeProfit)
	t.stopLoss = inst.AdjustPrice(entry.StopLoss)
	t.leverage = entry.Leverage
	t.hedging = entry.Hedging
	t.stats.ProfitLossCurrency = inst.Currency

	return t.submitEntry(ctx, broker, inst, entry)
}

// Close tears down outstanding orders then exits the unrealized remainder at
// market through the stop slot.
func (t *orderedTrade) Close(ctx context.Context, broker ports.Broker, inst *domain.Instrument) domain.OrderResult {
	if t.closing || t.IsClosed() {
		return domain.OrderResultNothingToDo
	}

	if !t.cancelLimitOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}
	if !t.cancelStopOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}
	if !t.cancelEntryOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}

	remaining := inst.AdjustQuantity(t.remainingQty())
	if qtyZero(remaining) {
		if qtyGT(t.execExitQty, 0) {
			t.exitState = domain.TradeStateFilled
		}
		return domain.OrderResultNothingToDo
	}

	oid, ref, res := t.submitExit(ctx, broker, inst, domain.OrderMarket, 0, remaining, t.exitReduceOnly)
	if res != domain.OrderResultAccepted {
		// A funds/margin rejection will not resolve by retrying; the trade
		// needs manual intervention.
		if res == domain.OrderResultInsufficientFunds || res == domain.OrderResultInsufficientMargin {
			t.exitState = domain.TradeStateError
		}
		return res
	}
	t.stopOID = oid
	t.stopRefOID = ref
	t.closing = true
	t.stats.StopLossType = domain.OrderMarket
	return domain.OrderResultAccepted
}

// ModifyStopLoss replaces the protective stop order. Soft updates only move
// the tracked price; the trigger simulation enforces them.
func (t *orderedTrade) ModifyStopLoss(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult {
	if t.IsClosed() || t.IsCanceled() {
		return domain.OrderResultNothingToDo
	}
	price = inst.AdjustPrice(price)

	if !hard {
		t.stopLoss = price
		return domain.OrderResultAccepted
	}
	if t.closing {
		return domain.OrderResultNothingToDo
	}
	if !t.cancelStopOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}

	remaining := inst.AdjustQuantity(t.remainingQty())
	if qtyZero(remaining) {
		// Nothing realized yet: keep the target soft until fills arrive.
		t.stopLoss = price
		return domain.OrderResultAccepted
	}
	oid, ref, res := t.submitExit(ctx, broker, inst, domain.OrderStop, price, remaining, t.exitReduceOnly)
	if res != domain.OrderResultAccepted {
		return res
	}
	t.stopOID = oid
	t.stopRefOID = ref
	t.stopLoss = price
	t.stats.StopLossType = domain.OrderStop
	return domain.OrderResultAccepted
}

// ModifyTakeProfit replaces the profit-taking limit order.
func (t *orderedTrade) ModifyTakeProfit(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult {
	if t.IsClosed() || t.IsCanceled() {
		return domain.OrderResultNothingToDo
	}
	price = inst.AdjustPrice(price)

	if !hard {
		t.takeProfit = price
		return domain.OrderResultAccepted
	}
	if t.closing {
		return domain.OrderResultNothingToDo
	}
	if !t.cancelLimitOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}

	remaining := inst.AdjustQuantity(t.remainingQty())
	if qtyZero(remaining) {
		t.takeProfit = price
		return domain.OrderResultAccepted
	}
	oid, ref, res := t.submitExit(ctx, broker, inst, domain.OrderLimit, price, remaining, t.exitReduceOnly)
	if res != domain.OrderResultAccepted {
		return res
	}
	t.limitOID = oid
	t.limitRefOID = ref
	t.takeProfit = price
	t.stats.TakeProfitType = domain.OrderLimit
	return domain.OrderResultAccepted
}

// CancelOpen cancels the entry order only.
func (t *orderedTrade) CancelOpen(ctx context.Context, broker ports.Broker, inst *domain.Instrument) domain.OrderResult {
	if t.entryOID == "" && t.entryRefOID == "" {
		return domain.OrderResultNothingToDo
	}
	if !t.cancelEntryOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}
	return domain.OrderResultAccepted
}

// Remove tears down every lingering order before deletion.
func (t *orderedTrade) Remove(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool {
	ok := t.cancelEntryOrder(ctx, broker, inst)
	ok = t.cancelLimitOrder(ctx, broker, inst) && ok
	ok = t.cancelStopOrder(ctx, broker, inst) && ok
	return ok
}

// OrderSignal dispatches one order event to the slot it addresses.
func (t *orderedTrade) OrderSignal(ev domain.OrderEvent) {
	switch ev.Type {
	case domain.OrderOpened:
		switch {
		case t.isEntryOrder(&ev):
			t.applyEntryOpened(&ev)
		case t.isStopOrder(&ev):
			if ev.OrderID != "" {
				t.stopOID = ev.OrderID
			}
			if t.exitState == domain.TradeStateNew || t.exitState == domain.TradeStateCanceled {
				t.exitState = domain.TradeStateOpened
			}
		case t.isLimitOrder(&ev):
			if ev.OrderID != "" {
				t.limitOID = ev.OrderID
			}
			if t.exitState == domain.TradeStateNew || t.exitState == domain.TradeStateCanceled {
				t.exitState = domain.TradeStateOpened
			}
		}

	case domain.OrderTraded:
		switch {
		case t.isEntryOrder(&ev):
			t.applyEntryTraded(&ev)
		case t.isStopOrder(&ev):
			typ := t.stats.StopLossType
			if typ == "" {
				typ = domain.OrderMarket
			}
			if t.applyExitTraded(&ev, typ) {
				t.stopOID = ""
				t.stopRefOID = ""
			}
		case t.isLimitOrder(&ev):
			typ := t.stats.TakeProfitType
			if typ == "" {
				typ = domain.OrderLimit
			}
			if t.applyExitTraded(&ev, typ) {
				t.limitOID = ""
				t.limitRefOID = ""
			}
		}

	case domain.OrderUpdated:
		if t.isEntryOrder(&ev) {
			if ev.Price != nil && *ev.Price > 0 {
				t.orderPrice = *ev.Price
			}
			if ev.Quantity != nil && *ev.Quantity > 0 {
				t.orderQty = *ev.Quantity
			}
		}

	case domain.OrderDeleted, domain.OrderCanceled, domain.OrderRejected:
		switch {
		case t.isEntryOrder(&ev):
			t.applyEntryRemoved(ev.Type)
		case t.isStopOrder(&ev):
			t.stopOID = ""
			t.stopRefOID = ""
			t.applyExitRemoved()
		case t.isLimitOrder(&ev):
			t.limitOID = ""
			t.limitRefOID = ""
			t.applyExitRemoved()
		}
	}
}

// PositionSignal is a no-op for order-centric markets without a broker-side
// position concept; margin variants override it.
func (t *orderedTrade) PositionSignal(ev domain.PositionEvent) {}

// Check reconciles every tracked order id against the broker.
func (t *orderedTrade) Check(ctx context.Context, broker ports.Broker, inst *domain.Instrument) int {
	stopType := t.stats.StopLossType
	if stopType == "" {
		stopType = domain.OrderStop
	}
	limitType := t.stats.TakeProfitType
	if limitType == "" {
		limitType = domain.OrderLimit
	}
	return worstCheck(
		t.checkEntryOrder(ctx, broker, inst),
		t.checkExitOrder(ctx, broker, inst, t.stopOID, stopType, func() {
			t.stopOID = ""
			t.stopRefOID = ""
		}),
		t.checkExitOrder(ctx, broker, inst, t.limitOID, limitType, func() {
			t.limitOID = ""
			t.limitRefOID = ""
		}),
	)
}

// Repair is a documented extension point: recovery from ERROR state depends
// on market-specific semantics and is left to manual intervention.
func (t *orderedTrade) Repair(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool {
	return false
}
