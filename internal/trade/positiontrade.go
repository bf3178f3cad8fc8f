package trade

import (
	"context"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

// PositionTrade runs the CFD-style model: the broker manages the position
// directly. Stop and take-profit are encoded on the position itself through
// ModifyPosition, never as separate orders, and position quantity changes
// are the primary fill signal; order fill events are deliberately ignored
// to avoid double counting.
type PositionTrade struct {
	baseTrade
}

// NewPositionTrade returns an empty individual-position trade in state NEW.
func NewPositionTrade() *PositionTrade {
	t := &PositionTrade{}
	t.baseTrade = newBaseTrade(KindPosition)
	return t
}

// Open submits the entry order with the protective prices embedded; the
// broker opens the position on execution.
func (t *PositionTrade) Open(ctx context.Context, broker ports.Broker, inst *domain.Instrument, entry Entry) bool {
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

// Close cancels a still-working entry then closes the remainder of the
// broker-side position at market.
func (t *PositionTrade) Close(ctx context.Context, broker ports.Broker, inst *domain.Instrument) domain.OrderResult {
	if t.closing || t.IsClosed() {
		return domain.OrderResultNothingToDo
	}
	if !t.cancelEntryOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}

	remaining := inst.AdjustQuantity(t.remainingQty())
	if t.positionID == "" || qtyZero(remaining) {
		return domain.OrderResultNothingToDo
	}

	if err := broker.ClosePosition(ctx, t.positionID, inst, t.dir, remaining, true, 0); err != nil {
		res := mapOrderErr(err)
		if res == domain.OrderResultInsufficientFunds || res == domain.OrderResultInsufficientMargin {
			t.exitState = domain.TradeStateError
		}
		return res
	}
	t.closing = true
	if t.exitState == domain.TradeStateNew || t.exitState == domain.TradeStateCanceled {
		t.exitState = domain.TradeStateOpened
	}
	t.stats.StopLossType = domain.OrderMarket
	return domain.OrderResultAccepted
}

// ModifyStopLoss rewrites the stop price carried by the position. Soft
// updates only retarget the tracked price.
func (t *PositionTrade) ModifyStopLoss(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult {
	if t.IsClosed() || t.IsCanceled() {
		return domain.OrderResultNothingToDo
	}
	price = inst.AdjustPrice(price)
	if !hard || t.positionID == "" {
		t.stopLoss = price
		return domain.OrderResultAccepted
	}
	if err := broker.ModifyPosition(ctx, t.positionID, inst, price, t.takeProfit); err != nil {
		return mapOrderErr(err)
	}
	t.stopLoss = price
	return domain.OrderResultAccepted
}

// ModifyTakeProfit rewrites the take-profit price carried by the position.
func (t *PositionTrade) ModifyTakeProfit(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult {
	if t.IsClosed() || t.IsCanceled() {
		return domain.OrderResultNothingToDo
	}
	price = inst.AdjustPrice(price)
	if !hard || t.positionID == "" {
		t.takeProfit = price
		return domain.OrderResultAccepted
	}
	if err := broker.ModifyPosition(ctx, t.positionID, inst, t.stopLoss, price); err != nil {
		return mapOrderErr(err)
	}
	t.takeProfit = price
	return domain.OrderResultAccepted
}

// CancelOpen cancels the entry order; meaningful only before the broker
// opened the position.
func (t *PositionTrade) CancelOpen(ctx context.Context, broker ports.Broker, inst *domain.Instrument) domain.OrderResult {
	if t.entryOID == "" && t.entryRefOID == "" {
		return domain.OrderResultNothingToDo
	}
	if !t.cancelEntryOrder(ctx, broker, inst) {
		return domain.OrderResultError
	}
	return domain.OrderResultAccepted
}

// Remove tears down the remaining entry order.
func (t *PositionTrade) Remove(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool {
	return t.cancelEntryOrder(ctx, broker, inst)
}

// OrderSignal consumes entry order acknowledgements only; fills are carried
// by the position stream for this market model.
func (t *PositionTrade) OrderSignal(ev domain.OrderEvent) {
	if !t.isEntryOrder(&ev) {
		return
	}
	switch ev.Type {
	case domain.OrderOpened:
		t.applyEntryOpened(&ev)
	case domain.OrderDeleted, domain.OrderCanceled, domain.OrderRejected:
		t.applyEntryRemoved(ev.Type)
	case domain.OrderUpdated:
		if ev.Price != nil && *ev.Price > 0 {
			t.orderPrice = *ev.Price
		}
		if ev.Quantity != nil && *ev.Quantity > 0 {
			t.orderQty = *ev.Quantity
		}
	}
}

// PositionSignal is the primary fill channel: quantity increases are entry
// fills, decreases are exit fills.
func (t *PositionTrade) PositionSignal(ev domain.PositionEvent) {
	switch ev.Type {
	case domain.PositionOpened:
		if ev.PositionID != "" {
			t.positionID = ev.PositionID
		}
		if ev.Quantity != nil && qtyGT(*ev.Quantity, t.positionQty) {
			t.applyExternalEntry(*ev.Quantity-t.positionQty, eventPrice(&ev), ev.Timestamp)
			t.positionQty = *ev.Quantity
		}
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
		switch {
		case qtyGT(q, t.positionQty):
			t.applyExternalEntry(q-t.positionQty, eventPrice(&ev), ev.Timestamp)
		case qtyGT(t.positionQty, q):
			t.applyExternalExit(t.positionQty-q, eventPrice(&ev), ev.Timestamp)
		}
		t.positionQty = q

	case domain.PositionAmended:
		if ev.StopLoss != nil && *ev.StopLoss > 0 {
			t.stopLoss = *ev.StopLoss
		}
		if ev.TakeProfit != nil && *ev.TakeProfit > 0 {
			t.takeProfit = *ev.TakeProfit
		}
		if ev.AvgPrice != nil && *ev.AvgPrice > 0 && qtyGT(t.execEntryQty, 0) {
			t.entryPrice = *ev.AvgPrice
		}

	case domain.PositionDeleted:
		if qtyGT(t.execEntryQty, 0) {
			t.forceExit(eventPrice(&ev), ev.Timestamp)
		}
		t.positionID = ""
		t.positionQty = 0
	}
}

// Check polls the entry order; the position itself has no out-of-band query
// on the gateway, its stream is authoritative.
func (t *PositionTrade) Check(ctx context.Context, broker ports.Broker, inst *domain.Instrument) int {
	return t.checkEntryOrder(ctx, broker, inst)
}

// Repair is a documented extension point, see orderedTrade.Repair.
func (t *PositionTrade) Repair(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool {
	return false
}
