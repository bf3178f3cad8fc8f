package domain

// Direction is the side of a strategic trade. The numeric values are used
// directly in P&L math (dir * (axp - aep) / aep).
type Direction int

const (
	Long  Direction = 1
	Short Direction = -1
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	if d == Short {
		return "short"
	}
	return "long"
}

// Opposite returns the inverse direction.
func (d Direction) Opposite() Direction {
	return -d
}

// OrderType represents the execution type of an order.
type OrderType string

const (
	OrderMarket          OrderType = "MARKET"
	OrderLimit           OrderType = "LIMIT"
	OrderStop            OrderType = "STOP"
	OrderStopLimit       OrderType = "STOP_LIMIT"
	OrderTakeProfit      OrderType = "TAKE_PROFIT"
	OrderTakeProfitLimit OrderType = "TAKE_PROFIT_LIMIT"
)

// IsMakerType reports whether an order of this type is assumed to execute as
// maker. This is a heuristic inherited from the fee model: a limit order that
// crosses the spread actually executes as taker, but without broker
// confirmation the order type is the only evidence available.
func (t OrderType) IsMakerType() bool {
	return t == OrderLimit || t == OrderTakeProfitLimit
}

// TradeState is the per-side (entry or exit) state of a strategic trade.
type TradeState int

const (
	TradeStateUndefined TradeState = iota
	TradeStateNew
	TradeStateRejected
	TradeStateOpened
	TradeStatePartiallyFilled
	TradeStateFilled
	TradeStateCanceled
	TradeStateDeleted
	TradeStateError
)

// String returns the string representation of the trade state.
func (s TradeState) String() string {
	switch s {
	case TradeStateNew:
		return "new"
	case TradeStateRejected:
		return "rejected"
	case TradeStateOpened:
		return "opened"
	case TradeStatePartiallyFilled:
		return "partially-filled"
	case TradeStateFilled:
		return "filled"
	case TradeStateCanceled:
		return "canceled"
	case TradeStateDeleted:
		return "deleted"
	case TradeStateError:
		return "error"
	default:
		return "undefined"
	}
}

// OrderResult is the closed result taxonomy for trade operations
// (close, modify-stop-loss, modify-take-profit, cancel-open).
type OrderResult int

const (
	OrderResultError OrderResult = iota - 2
	OrderResultRejected
	OrderResultNothingToDo
	OrderResultAccepted
	OrderResultInsufficientFunds
	OrderResultInsufficientMargin
)

// String returns the string representation of the order result.
func (r OrderResult) String() string {
	switch r {
	case OrderResultAccepted:
		return "accepted"
	case OrderResultRejected:
		return "rejected"
	case OrderResultError:
		return "error"
	case OrderResultInsufficientFunds:
		return "insufficient-funds"
	case OrderResultInsufficientMargin:
		return "insufficient-margin"
	default:
		return "nothing-to-do"
	}
}

// CloseReason indicates why a trade was exited.
type CloseReason string

const (
	CloseReasonStopLoss    CloseReason = "SL"
	CloseReasonTakeProfit  CloseReason = "TP"
	CloseReasonMarket      CloseReason = "Market"
	CloseReasonLiquidation CloseReason = "Liquidation"
	CloseReasonTimeout     CloseReason = "Timeout"
	CloseReasonUnknown     CloseReason = "Unknown"
)
