package trade

import (
	"context"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

// AssetTrade runs the spot market model: buy once, sell once. The spot
// balance covers a single working sell, so at most one hard exit order is
// live at a time: placing a hard stop withdraws a working limit exit and
// vice versa. The crossed-out target stays tracked as a soft price for the
// trigger simulation. There is no broker-side position, the ledger lives
// entirely in order quantities.
type AssetTrade struct {
	orderedTrade
}

// NewAssetTrade returns an empty spot trade in state NEW.
func NewAssetTrade() *AssetTrade {
	t := &AssetTrade{}
	t.baseTrade = newBaseTrade(KindAsset)
	return t
}

// Open submits the entry buy order. Spot has no borrow: a short entry is
// rejected outright.
func (t *AssetTrade) Open(ctx context.Context, broker ports.Broker, inst *domain.Instrument, entry Entry) bool {
	if entry.Direction != domain.Long {
		t.entryState = domain.TradeStateRejected
		return false
	}
	return t.orderedTrade.Open(ctx, broker, inst, entry)
}

// ModifyStopLoss places the protective stop. A hard stop first withdraws a
// working limit exit: the unsold quantity cannot back both orders.
func (t *AssetTrade) ModifyStopLoss(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult {
	if hard && !t.closing && t.limitOID != "" && !t.IsClosed() && !t.IsCanceled() {
		if !t.cancelLimitOrder(ctx, broker, inst) {
			return domain.OrderResultError
		}
	}
	return t.orderedTrade.ModifyStopLoss(ctx, broker, inst, price, hard)
}

// ModifyTakeProfit places the profit-taking limit, withdrawing a working
// stop exit first.
func (t *AssetTrade) ModifyTakeProfit(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult {
	if hard && !t.closing && t.stopOID != "" && !t.IsClosed() && !t.IsCanceled() {
		if !t.cancelStopOrder(ctx, broker, inst) {
			return domain.OrderResultError
		}
	}
	return t.orderedTrade.ModifyTakeProfit(ctx, broker, inst, price, hard)
}
