package trade

import (
	"encoding/json"
	"fmt"

	"tradeLedgerBot/internal/domain"
	"tradeLedgerBot/internal/ports"
)

// snapshotData is the JSON document of one trade. Every mutable field of the
// ledger serializes losslessly; floats are stored untransformed so the
// round-trip is exact.
type snapshotData struct {
	Version int    `json:"version"`
	Kind    Kind   `json:"kind"`
	ID      int    `json:"id"`
	Symbol  string `json:"symbol"`

	Direction int     `json:"direction"`
	Timeframe float64 `json:"timeframe"`
	Expiry    float64 `json:"expiry"`

	EntryState int `json:"entry-state"`
	ExitState  int `json:"exit-state"`

	OrderType  domain.OrderType `json:"order-type"`
	OrderPrice float64          `json:"order-price"`
	OrderQty   float64          `json:"order-qty"`

	ExecEntryQty float64 `json:"exec-entry-qty"`
	ExecExitQty  float64 `json:"exec-exit-qty"`
	EntryPrice   float64 `json:"entry-price"`
	ExitPrice    float64 `json:"exit-price"`

	TakeProfit float64 `json:"take-profit"`
	StopLoss   float64 `json:"stop-loss"`
	ProfitLoss float64 `json:"profit-loss"`

	OpenTimestamp float64 `json:"open-timestamp"`
	ExitTimestamp float64 `json:"exit-timestamp"`

	EntryOID    string  `json:"entry-oid"`
	EntryRefOID string  `json:"entry-ref-oid"`
	StopOID     string  `json:"stop-oid"`
	StopRefOID  string  `json:"stop-ref-oid"`
	LimitOID    string  `json:"limit-oid"`
	LimitRefOID string  `json:"limit-ref-oid"`
	PositionID  string  `json:"position-id"`
	PositionQty float64 `json:"position-qty"`

	Leverage int  `json:"leverage"`
	Hedging  bool `json:"hedging"`
	Closing  bool `json:"closing"`

	ManagedBy int `json:"managed-by"`

	Stats      Stats               `json:"stats"`
	Operations []operationSnapshot `json:"operations,omitempty"`
	Conditions map[string]float64  `json:"conditions,omitempty"`
}

const snapshotVersion = 1

// Snapshot serializes the trade for persistence.
func (t *baseTrade) Snapshot() (*ports.TradeSnapshot, error) {
	ops, err := snapshotOperations(t.operations)
	if err != nil {
		return nil, err
	}
	symbol := ""
	if t.inst != nil {
		symbol = t.inst.Symbol
	}
	d := snapshotData{
		Version:       snapshotVersion,
		Kind:          t.kind,
		ID:            t.id,
		Symbol:        symbol,
		Direction:     int(t.dir),
		Timeframe:     t.timeframe,
		Expiry:        t.expiry,
		EntryState:    int(t.entryState),
		ExitState:     int(t.exitState),
		OrderType:     t.orderType,
		OrderPrice:    t.orderPrice,
		OrderQty:      t.orderQty,
		ExecEntryQty:  t.execEntryQty,
		ExecExitQty:   t.execExitQty,
		EntryPrice:    t.entryPrice,
		ExitPrice:     t.exitPrice,
		TakeProfit:    t.takeProfit,
		StopLoss:      t.stopLoss,
		ProfitLoss:    t.profitLoss,
		OpenTimestamp: t.openTimestamp,
		ExitTimestamp: t.exitTimestamp,
		EntryOID:      t.entryOID,
		EntryRefOID:   t.entryRefOID,
		StopOID:       t.stopOID,
		StopRefOID:    t.stopRefOID,
		LimitOID:      t.limitOID,
		LimitRefOID:   t.limitRefOID,
		PositionID:    t.positionID,
		PositionQty:   t.positionQty,
		Leverage:      t.leverage,
		Hedging:       t.hedging,
		Closing:       t.closing,
		ManagedBy:     int(t.managedBy),
		Stats:         t.stats,
		Operations:    ops,
		Conditions:    t.conditions,
	}
	data, err := json.Marshal(&d)
	if err != nil {
		return nil, fmt.Errorf("serializing trade %d: %w", t.id, err)
	}
	return &ports.TradeSnapshot{
		TradeID: t.id,
		Symbol:  symbol,
		Kind:    string(t.kind),
		Data:    data,
	}, nil
}

func (t *baseTrade) restore(d *snapshotData, inst *domain.Instrument) error {
	ops, err := restoreOperations(d.Operations)
	if err != nil {
		return err
	}
	t.inst = inst
	t.id = d.ID
	t.dir = domain.Direction(d.Direction)
	t.timeframe = d.Timeframe
	t.expiry = d.Expiry
	t.entryState = domain.TradeState(d.EntryState)
	t.exitState = domain.TradeState(d.ExitState)
	t.orderType = d.OrderType
	t.orderPrice = d.OrderPrice
	t.orderQty = d.OrderQty
	t.execEntryQty = d.ExecEntryQty
	t.execExitQty = d.ExecExitQty
	t.entryPrice = d.EntryPrice
	t.exitPrice = d.ExitPrice
	t.takeProfit = d.TakeProfit
	t.stopLoss = d.StopLoss
	t.profitLoss = d.ProfitLoss
	t.openTimestamp = d.OpenTimestamp
	t.exitTimestamp = d.ExitTimestamp
	t.entryOID = d.EntryOID
	t.entryRefOID = d.EntryRefOID
	t.stopOID = d.StopOID
	t.stopRefOID = d.StopRefOID
	t.limitOID = d.LimitOID
	t.limitRefOID = d.LimitRefOID
	t.positionID = d.PositionID
	t.positionQty = d.PositionQty
	t.leverage = d.Leverage
	t.hedging = d.Hedging
	t.closing = d.Closing
	t.managedBy = Manager(d.ManagedBy)
	t.stats = d.Stats
	t.operations = ops
	t.conditions = d.Conditions
	return nil
}

// Restore rebuilds a trade from its persisted snapshot. The caller runs a
// Check pass right after to resynchronize against the broker.
func Restore(snap *ports.TradeSnapshot, inst *domain.Instrument) (Trade, error) {
	var d snapshotData
	if err := json.Unmarshal(snap.Data, &d); err != nil {
		return nil, fmt.Errorf("deserializing trade %d: %w", snap.TradeID, err)
	}
	if d.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported trade snapshot version %d", d.Version)
	}

	var tr Trade
	switch Kind(snap.Kind) {
	case KindAsset:
		tr = NewAssetTrade()
	case KindMargin:
		tr = NewMarginTrade()
	case KindIndMargin:
		tr = NewIndMarginTrade()
	case KindPosition:
		tr = NewPositionTrade()
	default:
		return nil, fmt.Errorf("unknown trade kind %q", snap.Kind)
	}
	if err := tr.(interface {
		restore(*snapshotData, *domain.Instrument) error
	}).restore(&d, inst); err != nil {
		return nil, err
	}
	return tr, nil
}
