package trader

import (
	"context"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
	"tradeLedgerBot/internal/trade"
)

// HandlerEnv is the slice of the trader a handler may work with during the
// update pass.
type HandlerEnv struct {
	Logger     ports.Logger
	Broker     ports.Broker
	Instrument *domain.Instrument
	Trades     []trade.Trade
	Timestamp  float64
}

// Handler is a pluggable post-entry behavior run at the end of every update
// cycle. Process executes with the trade mutex held: it may mutate the
// trades it is given but must not call back into the StrategyTrader.
type Handler interface {
	ID() string
	Process(ctx context.Context, env HandlerEnv)
}

// InstallHandler registers a handler, replacing any previous one with the
// same id.
func (st *StrategyTrader) InstallHandler(h Handler) {
	st.handlerMu.Lock()
	defer st.handlerMu.Unlock()
	for i, existing := range st.handlers {
		if existing.ID() == h.ID() {
			st.handlers[i] = h
			return
		}
	}
	st.handlers = append(st.handlers, h)
}

// RemoveHandler removes the handler with the given id.
func (st *StrategyTrader) RemoveHandler(id string) {
	st.handlerMu.Lock()
	defer st.handlerMu.Unlock()
	for i, h := range st.handlers {
		if h.ID() == id {
			st.handlers = append(st.handlers[:i], st.handlers[i+1:]...)
			return
		}
	}
}

// processHandlers runs the registered handlers. Caller holds tradeMu.
func (st *StrategyTrader) processHandlers(ctx context.Context, ts float64) {
	st.handlerMu.Lock()
	handlers := make([]Handler, len(st.handlers))
	copy(handlers, st.handlers)
	st.handlerMu.Unlock()

	if len(handlers) == 0 {
		return
	}
	env := HandlerEnv{
		Logger:     st.logger,
		Broker:     st.broker,
		Instrument: st.inst,
		Trades:     st.trades,
		Timestamp:  ts,
	}
	for _, h := range handlers {
		h.Process(ctx, env)
	}
}

// DCAMergeHandler collapses laddered same-direction entries into a single
// position: once two or more trades have their entries fully filled with no
// exit activity yet, the later ones are folded into the earliest. The
// emptied shells are swept as canceled on the next cycle.
type DCAMergeHandler struct{}

func NewDCAMergeHandler() *DCAMergeHandler { return &DCAMergeHandler{} }

func (h *DCAMergeHandler) ID() string { return "dca-merge" }

func (h *DCAMergeHandler) Process(ctx context.Context, env HandlerEnv) {
	for i := 0; i < len(env.Trades); i++ {
		dst := env.Trades[i]
		for j := i + 1; j < len(env.Trades); j++ {
			src := env.Trades[j]
			if !trade.Merge(dst, src) {
				continue
			}
			env.Logger.Info(ctx, "laddered entries merged", map[string]interface{}{
				"symbol":   env.Instrument.Symbol,
				"into":     dst.ID(),
				"merged":   src.ID(),
				"quantity": dst.ExecEntryQty(),
				"price":    dst.EntryPrice(),
			})
		}
	}
}
