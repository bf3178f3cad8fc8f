package trade

import (
	"context"
	"errors"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

// mapOrderErr converts a broker gateway error into the operation result
// taxonomy. The caller decides whether the result escalates the trade state.
func mapOrderErr(err error) domain.OrderResult {
	switch {
	case err == nil:
		return domain.OrderResultAccepted
	case errors.Is(err, ports.ErrInsufficientFunds):
		return domain.OrderResultInsufficientFunds
	case errors.Is(err, ports.ErrInsufficientMargin):
		return domain.OrderResultInsufficientMargin
	case errors.Is(err, ports.ErrOrderPlacementFailed), errors.Is(err, ports.ErrInvalidRequest):
		return domain.OrderResultRejected
	default:
		return domain.OrderResultError
	}
}

// cancelTracked cancels an order and returns its final broker-side snapshot
// so the caller can fold in any quantity that executed before the cancel
// took effect. ok=false means a transient API failure: nothing was mutated
// and the caller should retry.
func cancelTracked(ctx context.Context, broker ports.Broker, inst *domain.Instrument, oid string) (*domain.OrderInfo, bool) {
	if oid == "" {
		return nil, true
	}
	err := broker.CancelOrder(ctx, oid, inst)
	canceled := err == nil || errors.Is(err, ports.ErrOrderNotFound)

	// The lookup serves both outcomes: after a successful cancel it captures
	// fills that raced the cancellation, after a failed one it distinguishes
	// "already terminal" from a transient API error.
	info, infoErr := broker.OrderInfo(ctx, oid, inst)
	if infoErr != nil || info == nil {
		return nil, false
	}
	if info.ID == "" {
		// Unknown to the broker: nothing realized to recover.
		return nil, true
	}
	if canceled || info.Canceled || info.FullyFilled {
		return info, true
	}
	return info, false
}

// submitEntry creates the entry order and installs the id/ref pair.
func (t *baseTrade) submitEntry(ctx context.Context, broker ports.Broker, inst *domain.Instrument, entry Entry) bool {
	order := &domain.Order{
		Symbol:     inst.Symbol,
		Direction:  entry.Direction,
		Type:       entry.OrderType,
		Quantity:   t.orderQty,
		Price:      t.orderPrice,
		StopLoss:   entry.StopLoss,
		TakeProfit: entry.TakeProfit,
		Leverage:   entry.Leverage,
		Hedging:    entry.Hedging,
	}
	t.entryRefOID = broker.SetRefOrderID(order)

	oid, err := broker.CreateOrder(ctx, order, inst)
	if err != nil {
		t.entryRefOID = ""
		t.entryState = domain.TradeStateRejected
		return false
	}
	t.entryOID = oid
	t.entryState = domain.TradeStateOpened
	if t.openTimestamp == 0 {
		t.openTimestamp = entry.Timestamp
	}
	t.stats.EntryOrderType = entry.OrderType
	return true
}

// submitExit creates one protective/closing exit order sized to qty.
func (t *baseTrade) submitExit(ctx context.Context, broker ports.Broker, inst *domain.Instrument,
	orderType domain.OrderType, price, qty float64, reduceOnly bool) (string, string, domain.OrderResult) {

	order := &domain.Order{
		Symbol:     inst.Symbol,
		Direction:  t.dir.Opposite(),
		Type:       orderType,
		Quantity:   qty,
		Leverage:   t.leverage,
		ReduceOnly: reduceOnly,
		CloseOnly:  true,
	}
	switch orderType {
	case domain.OrderLimit, domain.OrderTakeProfitLimit:
		order.Price = price
	case domain.OrderStop, domain.OrderTakeProfit:
		order.StopPrice = price
	case domain.OrderStopLimit:
		order.Price = price
		order.StopPrice = price
	}
	ref := broker.SetRefOrderID(order)

	oid, err := broker.CreateOrder(ctx, order, inst)
	if err != nil {
		return "", "", mapOrderErr(err)
	}
	if t.exitState == domain.TradeStateNew || t.exitState == domain.TradeStateCanceled {
		t.exitState = domain.TradeStateOpened
	}
	return oid, ref, domain.OrderResultAccepted
}

// cancelEntryOrder tears down the entry order. Quantity the broker reports
// as already executed is folded into the ledger first, so a fill that raced
// the cancel promotes the entry to FILLED instead of being lost with the
// order id. Returns false on a transient API failure.
func (t *baseTrade) cancelEntryOrder(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool {
	if t.entryOID == "" {
		return true
	}
	info, ok := cancelTracked(ctx, broker, inst, t.entryOID)
	if !ok {
		return false
	}
	t.syncEntryFill(info)
	t.applyEntryRemoved(domain.OrderCanceled)
	return true
}

// cancelStopOrder / cancelLimitOrder tear down one exit slot, keeping any
// quantity the order executed before the cancel landed.
func (t *baseTrade) cancelStopOrder(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool {
	if t.stopOID == "" {
		return true
	}
	info, ok := cancelTracked(ctx, broker, inst, t.stopOID)
	if !ok {
		return false
	}
	typ := t.stats.StopLossType
	if typ == "" {
		typ = domain.OrderStop
	}
	t.syncExitFill(info, typ)
	t.stopOID = ""
	t.stopRefOID = ""
	t.closing = false
	return true
}

func (t *baseTrade) cancelLimitOrder(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool {
	if t.limitOID == "" {
		return true
	}
	info, ok := cancelTracked(ctx, broker, inst, t.limitOID)
	if !ok {
		return false
	}
	typ := t.stats.TakeProfitType
	if typ == "" {
		typ = domain.OrderLimit
	}
	t.syncExitFill(info, typ)
	t.limitOID = ""
	t.limitRefOID = ""
	return true
}
