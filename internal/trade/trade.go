package trade

import (
	"context"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

// Kind discriminates the four market models a strategic trade can run on.
type Kind string

const (
	KindAsset     Kind = "asset"      // spot: buy once, sell once
	KindMargin    Kind = "margin"     // divisible margin, informal position id
	KindIndMargin Kind = "ind-margin" // single indivisible position per direction
	KindPosition  Kind = "position"   // CFD-style, broker-managed position
)

// Manager says who owns stop-loss / take-profit mutation authority.
type Manager int

const (
	ManagerStrategy Manager = iota
	ManagerUser
)

// Entry carries the parameters of an Open call.
type Entry struct {
	Direction  domain.Direction
	OrderType  domain.OrderType
	Price      float64 // limit price, 0 for market entry
	Quantity   float64
	TakeProfit float64
	StopLoss   float64
	Leverage   int
	Hedging    bool
	Timeframe  float64 // originating signal timeframe, seconds
	Timestamp  float64 // unix seconds
	Expiry     float64 // unix seconds; 0 falls back to the trader's validity window
}

// Trade is the common capability set of the four strategic trade variants.
// Implementations are not safe for concurrent use on their own: every
// mutation must run under the owning StrategyTrader's trade lock.
type Trade interface {
	Kind() Kind
	ID() int
	SetID(id int)
	Direction() domain.Direction
	Timeframe() float64

	// Open submits the entry order. It returns false (state REJECTED) when
	// the trade is not NEW or the broker rejects creation. Repeated calls
	// after a rejection keep the first open timestamp.
	Open(ctx context.Context, broker ports.Broker, inst *domain.Instrument, entry Entry) bool

	// Close cancels outstanding entry/exit orders then exits the unrealized
	// remainder at market. Re-entrant: closing an already-closing trade is
	// NOTHING_TO_DO.
	Close(ctx context.Context, broker ports.Broker, inst *domain.Instrument) domain.OrderResult

	// ModifyStopLoss replaces (hard) or retargets (soft) the protective
	// stop. A soft update only moves the tracked price; the client-side
	// trigger simulation covers it on the next update pass.
	ModifyStopLoss(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult

	// ModifyTakeProfit is the limit-side counterpart of ModifyStopLoss.
	ModifyTakeProfit(ctx context.Context, broker ports.Broker, inst *domain.Instrument, price float64, hard bool) domain.OrderResult

	// CancelOpen cancels the entry order only. A partially filled entry is
	// promoted to FILLED, never CANCELED: realized quantity survives
	// cancellation of the remainder.
	CancelOpen(ctx context.Context, broker ports.Broker, inst *domain.Instrument) domain.OrderResult

	// Remove cancels any lingering orders before the trade is dropped from
	// the active list. Returns false when a cancellation failed.
	Remove(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool

	// OrderSignal consumes one asynchronous order event addressed to this
	// trade. Handlers are idempotent against replay and tolerant of
	// out-of-order arrival.
	OrderSignal(ev domain.OrderEvent)

	// PositionSignal consumes one asynchronous position event.
	PositionSignal(ev domain.PositionEvent)

	// IsTargetOrder reports whether an order id or ref order id belongs to
	// this trade.
	IsTargetOrder(orderID, refOrderID string) bool

	// IsTargetPosition reports whether a position id belongs to this trade.
	IsTargetPosition(positionID string) bool

	// Check reconciles tracked order ids against the broker out of band.
	// -1: API error, retry later. 0: a stale id was cleared. 1: consistent.
	Check(ctx context.Context, broker ports.Broker, inst *domain.Instrument) int

	// Repair is the extension point for recovering ERROR-state trades.
	// There is no universal repair strategy; the base implementations
	// return false.
	Repair(ctx context.Context, broker ports.Broker, inst *domain.Instrument) bool

	// State predicates.
	IsActive() bool
	IsOpened() bool
	IsOpening() bool
	IsClosing() bool
	IsClosed() bool
	IsCanceled() bool
	IsError() bool
	CanDelete() bool
	IsEntryTimeout(ts, timeout float64) bool
	IsValid(ts, validity float64) bool

	// Exit order presence, used by the trigger simulation to avoid doubling
	// a live broker-side order.
	HasStopOrder() bool
	HasLimitOrder() bool

	// Ledger accessors.
	OrderPrice() float64
	OrderQuantity() float64
	ExecEntryQty() float64
	ExecExitQty() float64
	EntryPrice() float64
	ExitPrice() float64
	TakeProfit() float64
	StopLoss() float64
	SetTakeProfit(price float64)
	SetStopLoss(price float64)
	ProfitLossRate() float64
	UnrealizedProfitLossRate(inst *domain.Instrument) float64
	EntryOpenTime() float64
	ExitTime() float64

	ManagedBy() Manager
	SetManagedBy(m Manager)

	Stats() *Stats
	UpdateStats(inst *domain.Instrument, ts float64)

	// Trade operations (step stop-loss etc.), executed by the trader's
	// update pass.
	InstallOperation(op Operation)
	ExecuteOperations(inst *domain.Instrument, ts float64)

	// Condition returns the side-channel analytics value recorded under key.
	Condition(key string) (float64, bool)
	SetCondition(key string, value float64)

	// Snapshot serializes every mutable field for persistence; the
	// round-trip through Restore is lossless.
	Snapshot() (*ports.TradeSnapshot, error)
}

// baseTrade carries the ledger shared by all four variants. The concrete
// types embed it and provide market-specific order placement and signal
// dispatch.
type baseTrade struct {
	id   int
	kind Kind

	// Back-reference to the instrument the trade is scoped to, set by Open
	// or Restore. Needed at signal time for the fee fallback and trigger
	// price estimates; never mutated by the trade.
	inst *domain.Instrument

	dir       domain.Direction
	timeframe float64
	expiry    float64

	entryState domain.TradeState
	exitState  domain.TradeState

	orderType  domain.OrderType
	orderPrice float64 // op: requested entry price
	orderQty   float64 // oq: requested entry quantity

	execEntryQty float64 // e
	execExitQty  float64 // x
	entryPrice   float64 // aep, volume-weighted
	exitPrice    float64 // axp, volume-weighted

	takeProfit float64
	stopLoss   float64
	profitLoss float64 // realized fraction, direction-adjusted

	openTimestamp float64 // set on first successful entry creation only
	exitTimestamp float64

	entryOID    string
	entryRefOID string
	stopOID     string
	stopRefOID  string
	limitOID    string
	limitRefOID string
	positionID  string
	positionQty float64 // last known broker position quantity

	leverage int
	hedging  bool

	// Market close in flight through the stop slot; makes Close re-entrant.
	closing bool

	managedBy  Manager
	stats      Stats
	operations []Operation
	conditions map[string]float64
}

func newBaseTrade(kind Kind) baseTrade {
	return baseTrade{
		kind:       kind,
		dir:        domain.Long,
		entryState: domain.TradeStateNew,
		exitState:  domain.TradeStateNew,
		orderType:  domain.OrderMarket,
	}
}

func (t *baseTrade) Kind() Kind                  { return t.kind }
func (t *baseTrade) ID() int                     { return t.id }
func (t *baseTrade) SetID(id int)                { t.id = id }
func (t *baseTrade) Direction() domain.Direction { return t.dir }
func (t *baseTrade) Timeframe() float64          { return t.timeframe }

func (t *baseTrade) OrderPrice() float64    { return t.orderPrice }
func (t *baseTrade) OrderQuantity() float64 { return t.orderQty }
func (t *baseTrade) ExecEntryQty() float64  { return t.execEntryQty }
func (t *baseTrade) ExecExitQty() float64   { return t.execExitQty }
func (t *baseTrade) EntryPrice() float64    { return t.entryPrice }
func (t *baseTrade) ExitPrice() float64     { return t.exitPrice }
func (t *baseTrade) TakeProfit() float64    { return t.takeProfit }
func (t *baseTrade) StopLoss() float64      { return t.stopLoss }
func (t *baseTrade) EntryOpenTime() float64 { return t.openTimestamp }
func (t *baseTrade) ExitTime() float64      { return t.exitTimestamp }

func (t *baseTrade) SetTakeProfit(price float64) { t.takeProfit = price }
func (t *baseTrade) SetStopLoss(price float64)   { t.stopLoss = price }

func (t *baseTrade) ManagedBy() Manager     { return t.managedBy }
func (t *baseTrade) SetManagedBy(m Manager) { t.managedBy = m }

func (t *baseTrade) Stats() *Stats { return &t.stats }

// ProfitLossRate is the realized fraction, direction-adjusted:
// dir * (axp - aep) / aep. Zero until both sides have fills.
func (t *baseTrade) ProfitLossRate() float64 { return t.profitLoss }

// UnrealizedProfitLossRate estimates the current result of the unrealized
// remainder against the close-side execution price.
func (t *baseTrade) UnrealizedProfitLossRate(inst *domain.Instrument) float64 {
	if t.entryPrice <= 0 || !t.IsActive() {
		return 0
	}
	price := inst.CloseExecPrice(t.dir)
	if price <= 0 {
		return 0
	}
	return float64(t.dir) * (price - t.entryPrice) / t.entryPrice
}

// IsActive reports a trade holding unrealized quantity.
func (t *baseTrade) IsActive() bool {
	return qtyGT(t.execEntryQty, 0) && !qtyGTE(t.execExitQty, t.execEntryQty)
}

// IsOpened reports an accepted entry order with zero fill yet.
func (t *baseTrade) IsOpened() bool {
	return t.entryState == domain.TradeStateOpened
}

// IsOpening reports an entry order still working (accepted or partial).
func (t *baseTrade) IsOpening() bool {
	return t.entryState == domain.TradeStateOpened || t.entryState == domain.TradeStatePartiallyFilled
}

// IsClosing reports an exit order still working.
func (t *baseTrade) IsClosing() bool {
	return t.exitState == domain.TradeStateOpened || t.exitState == domain.TradeStatePartiallyFilled
}

// IsClosed reports a fully exited trade.
func (t *baseTrade) IsClosed() bool {
	return t.exitState == domain.TradeStateFilled && qtyGTE(t.execExitQty, t.execEntryQty)
}

// IsCanceled reports an entry canceled or rejected with nothing realized.
func (t *baseTrade) IsCanceled() bool {
	if qtyGT(t.execEntryQty, 0) {
		return false
	}
	return t.entryState == domain.TradeStateCanceled ||
		t.entryState == domain.TradeStateRejected ||
		t.entryState == domain.TradeStateDeleted
}

// IsError reports a trade excluded from automatic management pending repair.
func (t *baseTrade) IsError() bool {
	return t.entryState == domain.TradeStateError || t.exitState == domain.TradeStateError
}

// CanDelete reports a trade whose both sides are settled: entry fully done
// and exit fully matching it, or canceled with zero realized quantity. A
// partially filled entry whose remainder was canceled (entry promoted to
// FILLED) is deletable once the exit matches the realized quantity.
func (t *baseTrade) CanDelete() bool {
	if t.IsCanceled() {
		return true
	}
	if !qtyGTE(t.execExitQty, t.execEntryQty) {
		return false
	}
	if qtyGTE(t.execEntryQty, t.orderQty) && t.exitState == domain.TradeStateFilled {
		return true
	}
	return t.entryState == domain.TradeStateFilled && t.exitState == domain.TradeStateFilled
}

// IsEntryTimeout reports an accepted entry with zero fill past the timeout.
func (t *baseTrade) IsEntryTimeout(ts, timeout float64) bool {
	return t.entryState == domain.TradeStateOpened &&
		qtyZero(t.execEntryQty) &&
		timeout > 0 && t.openTimestamp > 0 &&
		ts-t.openTimestamp >= timeout
}

// IsValid reports a trade still within its validity window with an entry not
// fully filled yet. A per-trade expiry set at Open overrides the trader-wide
// validity duration.
func (t *baseTrade) IsValid(ts, validity float64) bool {
	if t.entryState == domain.TradeStateFilled {
		return false
	}
	if t.expiry > 0 {
		return ts < t.expiry
	}
	if validity <= 0 || t.openTimestamp <= 0 {
		return true
	}
	return ts-t.openTimestamp < validity
}

func (t *baseTrade) HasStopOrder() bool  { return t.stopOID != "" }
func (t *baseTrade) HasLimitOrder() bool { return t.limitOID != "" }

// UpdateStats refreshes price extremes and the unrealized P&L estimate.
func (t *baseTrade) UpdateStats(inst *domain.Instrument, ts float64) {
	if !t.IsActive() {
		return
	}
	price := inst.CloseExecPrice(t.dir)
	t.stats.updateExtremes(t.dir, price, ts)
	t.stats.UnrealizedProfitLoss = t.UnrealizedProfitLossRate(inst)
	if t.stats.ProfitLossCurrency == "" {
		t.stats.ProfitLossCurrency = inst.Currency
	}
}

func (t *baseTrade) InstallOperation(op Operation) {
	t.operations = append(t.operations, op)
}

// ExecuteOperations runs pending trade operations, dropping the completed
// ones in place.
func (t *baseTrade) ExecuteOperations(inst *domain.Instrument, ts float64) {
	if len(t.operations) == 0 {
		return
	}
	kept := t.operations[:0]
	for _, op := range t.operations {
		if !op.Apply(t, inst, ts) {
			kept = append(kept, op)
		}
	}
	t.operations = kept
}

func (t *baseTrade) Condition(key string) (float64, bool) {
	v, ok := t.conditions[key]
	return v, ok
}

func (t *baseTrade) SetCondition(key string, value float64) {
	if t.conditions == nil {
		t.conditions = make(map[string]float64)
	}
	t.conditions[key] = value
}

// IsTargetOrder matches any of the tracked order id / ref id slots.
func (t *baseTrade) IsTargetOrder(orderID, refOrderID string) bool {
	if orderID != "" {
		if orderID == t.entryOID || orderID == t.stopOID || orderID == t.limitOID {
			return true
		}
	}
	if refOrderID != "" {
		if refOrderID == t.entryRefOID || refOrderID == t.stopRefOID || refOrderID == t.limitRefOID {
			return true
		}
	}
	return false
}

func (t *baseTrade) IsTargetPosition(positionID string) bool {
	return positionID != "" && positionID == t.positionID
}

// remainingQty is the unrealized remainder the exit side still has to cover.
func (t *baseTrade) remainingQty() float64 {
	r := t.execEntryQty - t.execExitQty
	if r < 0 {
		return 0
	}
	return r
}
