package trader

import (
	"context"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/trade"
)

// UpdateTrades runs one management cycle at the given timestamp (unix
// seconds), in order: pending trade operations and stats refresh, client-side
// SL/TP trigger simulation plus entry timeout enforcement, the sweep of
// terminated trades, then the installed handlers. The sweep runs after the
// trigger phase so a trade closed this cycle still gets its final stats
// evaluation before removal.
//
// A single trade's broker failure never aborts the cycle for its siblings.
func (st *StrategyTrader) UpdateTrades(ctx context.Context, ts float64) {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	for _, tr := range st.trades {
		if tr.IsError() {
			continue
		}
		tr.ExecuteOperations(st.inst, ts)
		tr.UpdateStats(st.inst, ts)
	}

	for _, tr := range st.trades {
		if tr.IsError() {
			continue
		}
		st.applyTriggersLocked(ctx, tr, ts)
	}

	kept := st.trades[:0]
	for _, tr := range st.trades {
		if tr.CanDelete() {
			st.finalizeLocked(ctx, tr)
			continue
		}
		kept = append(kept, tr)
	}
	for i := len(kept); i < len(st.trades); i++ {
		st.trades[i] = nil
	}
	st.trades = kept
	st.mtx.SetActiveTrades(len(st.trades))

	st.processHandlers(ctx, ts)
}

// applyTriggersLocked enforces the entry validity window and simulates
// stop-loss / take-profit triggers client-side against the close-side
// execution price. A live broker order covering the same side suppresses the
// simulation so the exit is never doubled. User-managed trades keep their
// SL/TP untouched.
func (st *StrategyTrader) applyTriggersLocked(ctx context.Context, tr trade.Trade, ts float64) {
	if tr.IsEntryTimeout(ts, st.entryTimeout) ||
		(tr.IsOpening() && !tr.IsValid(ts, st.tradeValidity)) {
		if res := tr.CancelOpen(ctx, st.broker, st.inst); res == domain.OrderResultAccepted {
			st.setCloseReasonLocked(tr, domain.CloseReasonTimeout)
			st.persistLocked(ctx, tr)
			st.logger.Info(ctx, "entry order withdrawn after timeout", map[string]interface{}{
				"trade":  tr.ID(),
				"symbol": st.inst.Symbol,
			})
		}
	}

	if !tr.IsActive() || tr.IsClosing() || tr.ManagedBy() == trade.ManagerUser {
		return
	}
	price := st.inst.CloseExecPrice(tr.Direction())
	if price <= 0 {
		return
	}
	dir := float64(tr.Direction())

	if sl := tr.StopLoss(); sl > 0 && !tr.HasStopOrder() && dir*(price-sl) <= 0 {
		st.triggerCloseLocked(ctx, tr, domain.CloseReasonStopLoss, price)
		return
	}
	if tp := tr.TakeProfit(); tp > 0 && !tr.HasLimitOrder() && dir*(price-tp) >= 0 {
		st.triggerCloseLocked(ctx, tr, domain.CloseReasonTakeProfit, price)
	}
}

func (st *StrategyTrader) triggerCloseLocked(ctx context.Context, tr trade.Trade, reason domain.CloseReason, price float64) {
	res := tr.Close(ctx, st.broker, st.inst)
	switch res {
	case domain.OrderResultAccepted:
		st.setCloseReasonLocked(tr, reason)
		st.persistLocked(ctx, tr)
		st.logger.Info(ctx, "trigger close issued", map[string]interface{}{
			"trade":  tr.ID(),
			"symbol": st.inst.Symbol,
			"reason": string(reason),
			"price":  price,
		})
	case domain.OrderResultNothingToDo:
	default:
		st.logger.Warn(ctx, "trigger close failed", map[string]interface{}{
			"trade":  tr.ID(),
			"symbol": st.inst.Symbol,
			"reason": string(reason),
			"result": res.String(),
		})
	}
}

// finalizeLocked retires one terminated trade: lingering orders are removed,
// the net result is classified into the aggregate ledger and the immutable
// closed-trade record is persisted. Canceled trades that never realized any
// quantity leave no record.
func (st *StrategyTrader) finalizeLocked(ctx context.Context, tr trade.Trade) {
	if !tr.Remove(ctx, st.broker, st.inst) {
		st.logger.Warn(ctx, "lingering order cleanup failed", map[string]interface{}{
			"trade":  tr.ID(),
			"symbol": st.inst.Symbol,
		})
	}
	if st.repo != nil {
		if err := st.repo.DeleteSnapshot(ctx, st.inst.Symbol, tr.ID()); err != nil {
			st.logger.Error(ctx, err, "deleting trade snapshot", map[string]interface{}{"trade": tr.ID()})
		}
	}

	reason, hadReason := st.closeReasons[tr.ID()]
	delete(st.closeReasons, tr.ID())

	if tr.ExecEntryQty() <= 0 {
		st.logger.Debug(ctx, "canceled trade removed", map[string]interface{}{
			"trade":  tr.ID(),
			"symbol": st.inst.Symbol,
		})
		return
	}

	stats := tr.Stats()
	net := tr.ProfitLossRate()
	if notional := tr.EntryPrice() * tr.ExecEntryQty(); notional > 0 {
		net -= stats.Fees() / notional
	}

	result := "breakeven"
	switch {
	case net > 0:
		result = "win"
		st.stats.Wins++
		st.stats.WinStreak++
		st.stats.LossStreak = 0
		if st.stats.WinStreak > st.stats.MaxWinStreak {
			st.stats.MaxWinStreak = st.stats.WinStreak
		}
	case net < 0:
		result = "loss"
		st.stats.Losses++
		st.stats.LossStreak++
		st.stats.WinStreak = 0
		if st.stats.LossStreak > st.stats.MaxLossStreak {
			st.stats.MaxLossStreak = st.stats.LossStreak
		}
	default:
		st.stats.Breakeven++
	}
	st.stats.TotalProfitRate += net
	st.stats.TotalFees += stats.Fees()
	st.mtx.TradeClosed(result)
	st.mtx.SetRealizedProfitRate(st.stats.TotalProfitRate)

	if !hadReason {
		reason = st.inferCloseReason(tr)
	}
	rec := &domain.ClosedTrade{
		TradeID:                tr.ID(),
		Symbol:                 st.inst.Symbol,
		Direction:              tr.Direction(),
		Timeframe:              tr.Timeframe(),
		Quantity:               tr.ExecEntryQty(),
		EntryPrice:             tr.EntryPrice(),
		ExitPrice:              tr.ExitPrice(),
		ProfitLossRate:         net,
		Fees:                   stats.Fees(),
		BestPrice:              stats.BestPrice,
		WorstPrice:             stats.WorstPrice,
		FirstRealizedEntryTime: stats.FirstRealizedEntryTimestamp,
		LastRealizedExitTime:   stats.LastRealizedExitTimestamp,
		CloseReason:            reason,
	}
	if st.repo != nil {
		if _, err := st.repo.CreateClosedTrade(ctx, rec); err != nil {
			st.logger.Error(ctx, err, "persisting closed trade", map[string]interface{}{"trade": tr.ID()})
		}
	}

	st.logger.Info(ctx, "trade closed", map[string]interface{}{
		"trade":     tr.ID(),
		"symbol":    st.inst.Symbol,
		"direction": tr.Direction().String(),
		"quantity":  tr.ExecEntryQty(),
		"entry":     tr.EntryPrice(),
		"exit":      tr.ExitPrice(),
		"net-rate":  net,
		"fees":      stats.Fees(),
		"reason":    string(reason),
		"result":    result,
	})
}

// inferCloseReason classifies an exit the trader did not initiate itself,
// from the realized exit price relative to the protective targets.
func (st *StrategyTrader) inferCloseReason(tr trade.Trade) domain.CloseReason {
	dir := float64(tr.Direction())
	axp := tr.ExitPrice()
	if axp <= 0 {
		return domain.CloseReasonUnknown
	}
	if sl := tr.StopLoss(); sl > 0 && dir*(axp-sl) <= 0 {
		return domain.CloseReasonStopLoss
	}
	if tp := tr.TakeProfit(); tp > 0 && dir*(axp-tp) >= 0 {
		return domain.CloseReasonTakeProfit
	}
	return domain.CloseReasonMarket
}
