package trade

import (
	"tradeLedgerBot/internal/domain"
)

// MarginTrade runs the divisible margin model: one entry order, own
// stop/limit exit orders, leverage, and a broker-assigned position id that
// is informational only; fills still arrive as order signals.
type MarginTrade struct {
	orderedTrade
}

// NewMarginTrade returns an empty margin trade in state NEW.
func NewMarginTrade() *MarginTrade {
	t := &MarginTrade{}
	t.baseTrade = newBaseTrade(KindMargin)
	return t
}

// PositionSignal records the informal position id. Quantities and prices are
// authoritative on the order side for this market model.
func (t *MarginTrade) PositionSignal(ev domain.PositionEvent) {
	switch ev.Type {
	case domain.PositionOpened, domain.PositionUpdated, domain.PositionAmended:
		if ev.PositionID != "" {
			t.positionID = ev.PositionID
		}
		if ev.Quantity != nil {
			t.positionQty = *ev.Quantity
		}
	case domain.PositionDeleted:
		t.positionID = ""
		t.positionQty = 0
	}
}
