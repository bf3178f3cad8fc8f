package domain

// OrderEventType tags an asynchronous broker order signal.
type OrderEventType int

const (
	OrderOpened OrderEventType = iota
	OrderTraded
	OrderUpdated
	OrderDeleted
	OrderCanceled
	OrderRejected
)

// String returns the string representation of the order event type.
func (t OrderEventType) String() string {
	switch t {
	case OrderOpened:
		return "order-opened"
	case OrderTraded:
		return "order-traded"
	case OrderUpdated:
		return "order-updated"
	case OrderDeleted:
		return "order-deleted"
	case OrderCanceled:
		return "order-canceled"
	case OrderRejected:
		return "order-rejected"
	default:
		return "order-unknown"
	}
}

// OrderEvent is an asynchronous order signal from the broker. Different
// brokers populate different subsets of the payload, so every payload field
// is a pointer: nil means "not reported", never "zero". The cumulative vs
// incremental branch (Filled vs CumulativeFilled, ExecPrice vs AvgPrice) is
// resolved centrally by the trade fill reconciliation, not by consumers.
type OrderEvent struct {
	Type       OrderEventType
	Symbol     string
	OrderID    string  // broker-assigned id, empty before ORDER_OPENED
	RefOrderID string  // client correlation id, assigned before submission
	Timestamp  float64 // unix seconds

	// ORDER_OPENED / ORDER_UPDATED payload.
	Price     *float64
	StopPrice *float64
	Quantity  *float64

	// Embedded stop-loss / take-profit, when the broker supports them on
	// the order itself.
	StopLoss   *float64
	TakeProfit *float64

	// ORDER_TRADED payload. Exactly one of Filled (incremental) or
	// CumulativeFilled (total since creation) is expected; same for
	// ExecPrice (single fill) vs AvgPrice (authoritative cumulative).
	Filled           *float64
	CumulativeFilled *float64
	ExecPrice        *float64
	AvgPrice         *float64
	FullyFilled      bool

	// Commission fields, possibly absent (fee fallback applies then).
	Commission           *float64
	CumulativeCommission *float64
	CommissionAsset      string
	Maker                *bool
}

// PositionEventType tags an asynchronous broker position signal.
type PositionEventType int

const (
	PositionOpened PositionEventType = iota
	PositionUpdated
	PositionDeleted
	PositionAmended
)

// String returns the string representation of the position event type.
func (t PositionEventType) String() string {
	switch t {
	case PositionOpened:
		return "position-opened"
	case PositionUpdated:
		return "position-updated"
	case PositionDeleted:
		return "position-deleted"
	case PositionAmended:
		return "position-amended"
	default:
		return "position-unknown"
	}
}

// PositionEvent is an asynchronous position signal. For position-centric
// markets a quantity change versus the last tracked position quantity is
// itself the fill signal; there is no separate order-traded event.
type PositionEvent struct {
	Type       PositionEventType
	Symbol     string
	PositionID string
	RefOrderID string
	Timestamp  float64 // unix seconds

	Direction  Direction
	Quantity   *float64 // current position quantity, absolute
	AvgPrice   *float64 // position average price
	ExecPrice  *float64 // price of the amendment that produced this event
	StopLoss   *float64
	TakeProfit *float64
	ProfitLoss *float64 // broker-computed unrealized P&L, informational
}
