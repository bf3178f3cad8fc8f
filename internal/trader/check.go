package trader

import (
	"context"
	"time"

	"tradeLedgerBot/internal/trade"
)

// CheckTrades reconciles every tracked trade against the broker out of band,
// synthesizing any signals that were missed asynchronously. The configured
// delay between successive polls is an API-rate courtesy. The whole pass
// holds the trade mutex, serializing against signal delivery and the update
// cycle.
func (st *StrategyTrader) CheckTrades(ctx context.Context) {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	for i, tr := range st.trades {
		if tr.IsError() {
			continue
		}
		if i > 0 && st.checkDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(st.checkDelay):
			}
		}

		switch tr.Check(ctx, st.broker, st.inst) {
		case trade.CheckRetry:
			st.mtx.CheckResult("retry")
			st.logger.Warn(ctx, "trade reconciliation failed, will retry", map[string]interface{}{
				"trade":  tr.ID(),
				"symbol": st.inst.Symbol,
			})
		case trade.CheckFixed:
			st.mtx.CheckResult("fixed")
			st.persistLocked(ctx, tr)
			st.logger.Info(ctx, "stale order reference cleared", map[string]interface{}{
				"trade":  tr.ID(),
				"symbol": st.inst.Symbol,
			})
		default:
			st.mtx.CheckResult("consistent")
		}
	}
}
