package trade

import (
	"context"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

// Check return values.
const (
	CheckRetry      = -1 // API failure, nothing mutated, retry later
	CheckFixed      = 0  // a stale order id was cleared locally
	CheckConsistent = 1  // everything matched the broker
)

// orderInfoEvent converts a polled order snapshot into the fill event a
// missed async delivery would have carried.
func orderInfoEvent(info *domain.OrderInfo) *domain.OrderEvent {
	cum := info.CumulativeQty
	ev := &domain.OrderEvent{
		Type:             domain.OrderTraded,
		OrderID:          info.ID,
		Timestamp:        info.Timestamp,
		CumulativeFilled: &cum,
		FullyFilled:      info.FullyFilled,
	}
	if info.AvgPrice > 0 {
		avg := info.AvgPrice
		ev.AvgPrice = &avg
	}
	return ev
}

// syncEntryFill folds a polled snapshot's executed quantity into the entry
// ledger. Idempotent: a snapshot at or below the known quantity is a no-op.
func (t *baseTrade) syncEntryFill(info *domain.OrderInfo) {
	if t.kind == KindPosition {
		// Fills for this market model ledger through the position stream;
		// folding order quantities here would count them twice.
		return
	}
	if info == nil || info.ID == "" {
		return
	}
	if !qtyGT(info.CumulativeQty, t.execEntryQty) && !info.FullyFilled {
		return
	}
	t.applyEntryTraded(orderInfoEvent(info))
}

// syncExitFill is the exit-side counterpart; it returns true when the exit
// now covers the whole realized entry.
func (t *baseTrade) syncExitFill(info *domain.OrderInfo, exitOrderType domain.OrderType) bool {
	if info == nil || info.ID == "" {
		return false
	}
	if !qtyGT(info.CumulativeQty, t.execExitQty) && !info.FullyFilled {
		return false
	}
	return t.applyExitTraded(orderInfoEvent(info), exitOrderType)
}

// checkEntryOrder polls the tracked entry order and synthesizes the signals
// a missed async delivery would have produced. Safe to call at any time.
func (t *baseTrade) checkEntryOrder(ctx context.Context, broker ports.Broker, inst *domain.Instrument) int {
	if t.entryOID == "" {
		return CheckConsistent
	}
	info, err := broker.OrderInfo(ctx, t.entryOID, inst)
	if err != nil || info == nil {
		return CheckRetry
	}
	if info.ID == "" {
		// Unknown to the broker: infer terminal state from the realized
		// quantity, never assume the worst.
		t.applyEntryRemoved(domain.OrderDeleted)
		return CheckFixed
	}

	t.syncEntryFill(info)
	if info.Canceled {
		t.applyEntryRemoved(domain.OrderCanceled)
	}
	return CheckConsistent
}

// checkExitOrder polls one tracked exit order slot. clearSlot removes the
// order id/ref pair when the broker no longer knows the order.
func (t *baseTrade) checkExitOrder(ctx context.Context, broker ports.Broker, inst *domain.Instrument,
	oid string, exitOrderType domain.OrderType, clearSlot func()) int {

	if oid == "" {
		return CheckConsistent
	}
	info, err := broker.OrderInfo(ctx, oid, inst)
	if err != nil || info == nil {
		return CheckRetry
	}
	if info.ID == "" {
		clearSlot()
		t.applyExitRemoved()
		return CheckFixed
	}

	if t.syncExitFill(info, exitOrderType) {
		clearSlot()
	}
	if info.Canceled {
		clearSlot()
		t.applyExitRemoved()
	}
	return CheckConsistent
}

// worstCheck folds per-order check results: any retry wins, then any fix.
func worstCheck(results ...int) int {
	out := CheckConsistent
	for _, r := range results {
		if r == CheckRetry {
			return CheckRetry
		}
		if r == CheckFixed {
			out = CheckFixed
		}
	}
	return out
}
