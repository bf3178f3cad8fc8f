// Package trader owns the active trade collection for one instrument: it
// routes inbound broker signals to the matching trades, runs the periodic
// update pass (trade operations, client-side SL/TP trigger simulation,
// terminated-trade sweep) and accumulates the aggregate result statistics.
//
// All trade mutation happens inside methods of StrategyTrader under its
// trade mutex; trades carry no lock of their own and must never be mutated
// outside the owning trader.
package trader

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/metrics"
	"tradeLedgerBot/internal/ports"
	"tradeLedgerBot/internal/trade"
)

// Config carries the trader dependencies and policy knobs.
type Config struct {
	Logger     ports.Logger
	Broker     ports.Broker
	Repository ports.TradeRepository // optional, nil disables persistence
	Metrics    *metrics.Metrics      // optional, nil disables instrumentation
	Instrument *domain.Instrument

	EntryTimeout  float64       // seconds an unfilled entry may stay open, 0 disables
	TradeValidity float64       // seconds before a not-fully-filled entry is withdrawn, 0 disables
	CheckDelay    time.Duration // courtesy delay between reconciliation polls
	MaxTrades     int           // cap on concurrently tracked trades, 0 is unlimited
}

func (c *Config) validate() error {
	var errs []string
	if c.Logger == nil {
		errs = append(errs, "logger is required")
	}
	if c.Broker == nil {
		errs = append(errs, "broker is required")
	}
	if c.Instrument == nil {
		errs = append(errs, "instrument is required")
	}
	if c.EntryTimeout < 0 {
		errs = append(errs, "entry timeout must not be negative")
	}
	if c.TradeValidity < 0 {
		errs = append(errs, "trade validity must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("trader configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Stats is the aggregate result ledger across closed trades.
type Stats struct {
	Wins      int
	Losses    int
	Breakeven int

	WinStreak     int // current contiguous wins
	LossStreak    int // current contiguous losses
	MaxWinStreak  int
	MaxLossStreak int

	TotalProfitRate float64 // sum of per-trade net rates
	TotalFees       float64 // settlement currency
}

// StrategyTrader manages the active trades of one (strategy, instrument)
// pair.
type StrategyTrader struct {
	logger ports.Logger
	broker ports.Broker
	repo   ports.TradeRepository
	mtx    *metrics.Metrics
	inst   *domain.Instrument

	entryTimeout  float64
	tradeValidity float64
	checkDelay    time.Duration
	maxTrades     int

	// tradeMu guards the trade list, every trade's mutable state, the
	// close-reason map and the aggregate stats. Broker calls made while
	// holding it are synchronous by design: signal delivery and the update
	// pass must never interleave on the same trade.
	tradeMu      sync.Mutex
	trades       []trade.Trade
	nextTradeID  int
	closeReasons map[int]domain.CloseReason
	stats        Stats

	// handlerMu guards the handler registry only. Never held together with
	// tradeMu.
	handlerMu sync.Mutex
	handlers  []Handler
}

// New builds a StrategyTrader from the config.
func New(cfg Config) (*StrategyTrader, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &StrategyTrader{
		logger:        cfg.Logger,
		broker:        cfg.Broker,
		repo:          cfg.Repository,
		mtx:           cfg.Metrics,
		inst:          cfg.Instrument,
		entryTimeout:  cfg.EntryTimeout,
		tradeValidity: cfg.TradeValidity,
		checkDelay:    cfg.CheckDelay,
		maxTrades:     cfg.MaxTrades,
		nextTradeID:   1,
		closeReasons:  make(map[int]domain.CloseReason),
	}, nil
}

// Instrument returns the instrument this trader is scoped to.
func (st *StrategyTrader) Instrument() *domain.Instrument { return st.inst }

// UpdatePrices refreshes the instrument's book prices under the trade lock.
// Signal handlers read Bid/Ask while reconciling fills, so price feeds must
// route through here instead of mutating the instrument directly.
func (st *StrategyTrader) UpdatePrices(bid, ask float64) {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()
	if bid > 0 {
		st.inst.Bid = bid
	}
	if ask > 0 {
		st.inst.Ask = ask
	}
}

// OpenTrade submits the entry order and starts tracking the trade. The trade
// id is assigned on insertion and never reused.
func (st *StrategyTrader) OpenTrade(ctx context.Context, tr trade.Trade, entry trade.Entry) bool {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	if st.maxTrades > 0 && len(st.trades) >= st.maxTrades {
		st.logger.Debug(ctx, "trade rejected, max concurrent trades reached", map[string]interface{}{
			"symbol": st.inst.Symbol,
			"max":    st.maxTrades,
		})
		return false
	}
	if !tr.Open(ctx, st.broker, st.inst, entry) {
		st.logger.Warn(ctx, "entry order rejected", map[string]interface{}{
			"symbol":    st.inst.Symbol,
			"direction": entry.Direction.String(),
			"quantity":  entry.Quantity,
		})
		return false
	}

	tr.SetID(st.nextTradeID)
	st.nextTradeID++
	st.trades = append(st.trades, tr)
	st.mtx.TradeOpened()
	st.mtx.SetActiveTrades(len(st.trades))
	st.persistLocked(ctx, tr)

	st.logger.Info(ctx, "trade opened", map[string]interface{}{
		"trade":     tr.ID(),
		"symbol":    st.inst.Symbol,
		"kind":      string(tr.Kind()),
		"direction": tr.Direction().String(),
		"quantity":  tr.OrderQuantity(),
		"price":     tr.OrderPrice(),
	})
	return true
}

// InsertTrade adds an externally constructed trade (e.g. adopted from a
// manual order) without submitting anything.
func (st *StrategyTrader) InsertTrade(ctx context.Context, tr trade.Trade) {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	tr.SetID(st.nextTradeID)
	st.nextTradeID++
	st.trades = append(st.trades, tr)
	st.mtx.SetActiveTrades(len(st.trades))
	st.persistLocked(ctx, tr)
}

// CloseTrade closes one trade by id at market.
func (st *StrategyTrader) CloseTrade(ctx context.Context, tradeID int) domain.OrderResult {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	tr := st.findLocked(tradeID)
	if tr == nil {
		return domain.OrderResultNothingToDo
	}
	res := tr.Close(ctx, st.broker, st.inst)
	if res == domain.OrderResultAccepted {
		st.setCloseReasonLocked(tr, domain.CloseReasonMarket)
		st.persistLocked(ctx, tr)
	}
	return res
}

// ModifyTradeStopLoss updates the stop-loss of one trade by id.
func (st *StrategyTrader) ModifyTradeStopLoss(ctx context.Context, tradeID int, price float64, hard bool) domain.OrderResult {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	tr := st.findLocked(tradeID)
	if tr == nil {
		return domain.OrderResultNothingToDo
	}
	res := tr.ModifyStopLoss(ctx, st.broker, st.inst, price, hard)
	if res == domain.OrderResultAccepted {
		st.persistLocked(ctx, tr)
	}
	return res
}

// ModifyTradeTakeProfit updates the take-profit of one trade by id.
func (st *StrategyTrader) ModifyTradeTakeProfit(ctx context.Context, tradeID int, price float64, hard bool) domain.OrderResult {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	tr := st.findLocked(tradeID)
	if tr == nil {
		return domain.OrderResultNothingToDo
	}
	res := tr.ModifyTakeProfit(ctx, st.broker, st.inst, price, hard)
	if res == domain.OrderResultAccepted {
		st.persistLocked(ctx, tr)
	}
	return res
}

// ActiveCount returns the number of tracked trades.
func (st *StrategyTrader) ActiveCount() int {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()
	return len(st.trades)
}

// Stats returns a copy of the aggregate result ledger.
func (st *StrategyTrader) Stats() Stats {
	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()
	return st.stats
}

// ClosedRecords returns the most recent closed-trade records, newest first.
func (st *StrategyTrader) ClosedRecords(ctx context.Context, limit int) ([]*domain.ClosedTrade, error) {
	if st.repo == nil {
		return nil, nil
	}
	return st.repo.FindClosedBySymbol(ctx, st.inst.Symbol, limit)
}

// RestoreTrades rebuilds the active trade list from persisted snapshots
// after a restart. The caller should run CheckTrades right after to
// resynchronize every restored trade against the broker.
func (st *StrategyTrader) RestoreTrades(ctx context.Context) (int, error) {
	if st.repo == nil {
		return 0, nil
	}
	snaps, err := st.repo.LoadSnapshots(ctx, st.inst.Symbol)
	if err != nil {
		return 0, fmt.Errorf("loading trade snapshots: %w", err)
	}

	st.tradeMu.Lock()
	defer st.tradeMu.Unlock()

	restored := 0
	for _, snap := range snaps {
		tr, err := trade.Restore(snap, st.inst)
		if err != nil {
			st.logger.Error(ctx, err, "dropping unreadable trade snapshot", map[string]interface{}{
				"trade":  snap.TradeID,
				"symbol": snap.Symbol,
			})
			continue
		}
		st.trades = append(st.trades, tr)
		if tr.ID() >= st.nextTradeID {
			st.nextTradeID = tr.ID() + 1
		}
		restored++
	}
	st.mtx.SetActiveTrades(len(st.trades))
	return restored, nil
}

func (st *StrategyTrader) findLocked(tradeID int) trade.Trade {
	for _, tr := range st.trades {
		if tr.ID() == tradeID {
			return tr
		}
	}
	return nil
}

func (st *StrategyTrader) setCloseReasonLocked(tr trade.Trade, reason domain.CloseReason) {
	if _, ok := st.closeReasons[tr.ID()]; !ok {
		st.closeReasons[tr.ID()] = reason
	}
}

func (st *StrategyTrader) persistLocked(ctx context.Context, tr trade.Trade) {
	if st.repo == nil {
		return
	}
	snap, err := tr.Snapshot()
	if err != nil {
		st.logger.Error(ctx, err, "serializing trade", map[string]interface{}{"trade": tr.ID()})
		return
	}
	if err := st.repo.SaveSnapshot(ctx, snap); err != nil {
		st.logger.Error(ctx, err, "persisting trade snapshot", map[string]interface{}{"trade": tr.ID()})
	}
}
