package trade

import (
	"encoding/json"
	"fmt"

	"tradeLedgerBot/internal/domain"
)

// OperationTarget is the slice of the trade surface an operation may read
// and mutate.
type OperationTarget interface {
	IsActive() bool
	Direction() domain.Direction
	StopLoss() float64
	SetStopLoss(price float64)
	TakeProfit() float64
	SetTakeProfit(price float64)
}

// Operation is a semi-automated behavior attached to a live trade and driven
// by the trader's update pass. Apply returns true once the operation has
// completed and can be dropped.
type Operation interface {
	Kind() string
	Apply(t OperationTarget, inst *domain.Instrument, ts float64) bool
}

// StepStopLoss moves the tracked stop-loss to StopLossPrice once the market
// reaches TriggerPrice in the trade's favor. The update is soft: the
// client-side trigger simulation enforces the new stop on the next pass.
type StepStopLoss struct {
	TriggerPrice  float64 `json:"trigger-price"`
	StopLossPrice float64 `json:"stop-loss-price"`
}

// Kind identifies the operation for serialization.
func (o *StepStopLoss) Kind() string { return "step-stop-loss" }

// Apply moves the stop once the trigger price is reached.
func (o *StepStopLoss) Apply(t OperationTarget, inst *domain.Instrument, ts float64) bool {
	if !t.IsActive() {
		return false
	}
	price := inst.CloseExecPrice(t.Direction())
	if price <= 0 {
		return false
	}
	if float64(t.Direction())*(price-o.TriggerPrice) >= 0 {
		t.SetStopLoss(o.StopLossPrice)
		return true
	}
	return false
}

type operationSnapshot struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func snapshotOperations(ops []Operation) ([]operationSnapshot, error) {
	out := make([]operationSnapshot, 0, len(ops))
	for _, op := range ops {
		data, err := json.Marshal(op)
		if err != nil {
			return nil, fmt.Errorf("serializing %s operation: %w", op.Kind(), err)
		}
		out = append(out, operationSnapshot{Kind: op.Kind(), Data: data})
	}
	return out, nil
}

func restoreOperations(snaps []operationSnapshot) ([]Operation, error) {
	if len(snaps) == 0 {
		return nil, nil
	}
	ops := make([]Operation, 0, len(snaps))
	for _, s := range snaps {
		switch s.Kind {
		case "step-stop-loss":
			op := &StepStopLoss{}
			if err := json.Unmarshal(s.Data, op); err != nil {
				return nil, fmt.Errorf("restoring %s operation: %w", s.Kind, err)
			}
			ops = append(ops, op)
		default:
			return nil, fmt.Errorf("unknown trade operation kind %q", s.Kind)
		}
	}
	return ops, nil
}
