package trader

import (
	"context"

	"tradeLedgerBot/internal/domain"
)

// OnOrderSignal routes one asynchronous order event to every trade tracking
// the order id or client ref id. Unroutable signals are logged and dropped:
// they usually concern manual orders outside this trader's scope.
func (st *StrategyTrader) OnOrderSignal(ev domain.OrderEvent) {
	if ev.Symbol != "" && ev.Symbol != st.inst.Symbol {
		return
	}
	ctx := context.Background()

	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	st.mtx.SignalRouted("order")
	routed := false
	for _, tr := range st.trades {
		if !tr.IsTargetOrder(ev.OrderID, ev.RefOrderID) {
			continue
		}
		tr.OrderSignal(ev)
		st.persistLocked(ctx, tr)
		routed = true
	}
	if !routed {
		st.logger.Debug(ctx, "order signal without matching trade", map[string]interface{}{
			"type":   ev.Type.String(),
			"order":  ev.OrderID,
			"ref":    ev.RefOrderID,
			"symbol": ev.Symbol,
		})
	}
}

// OnPositionSignal routes one asynchronous position event. A trade is
// matched by position id once it knows one, or by the entry order's ref id
// before the broker reported the position (the first POSITION_OPENED).
func (st *StrategyTrader) OnPositionSignal(ev domain.PositionEvent) {
	if ev.Symbol != "" && ev.Symbol != st.inst.Symbol {
		return
	}
	ctx := context.Background()

	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	st.mtx.SignalRouted("position")
	routed := false
	for _, tr := range st.trades {
		if !tr.IsTargetPosition(ev.PositionID) &&
			!(ev.RefOrderID != "" && tr.IsTargetOrder("", ev.RefOrderID)) {
			continue
		}
		tr.PositionSignal(ev)
		st.persistLocked(ctx, tr)
		routed = true
	}
	if !routed {
		st.logger.Debug(ctx, "position signal without matching trade", map[string]interface{}{
			"type":     ev.Type.String(),
			"position": ev.PositionID,
			"ref":      ev.RefOrderID,
			"symbol":   ev.Symbol,
		})
	}
}
