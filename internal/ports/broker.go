package ports

import (
	"context"

	"tradeLedgerBot/internal/domain"
)

// Broker is the gateway to the remote broker/exchange. All calls are
// synchronous from the caller's perspective; asynchronous consequences
// (acknowledgements, fills, deletions) arrive later through the signal bus.
type Broker interface {
	// SetRefOrderID assigns a client correlation id to the order before
	// submission and returns it. Async signals may carry only this ref id
	// until the broker assigns its own order id.
	SetRefOrderID(order *domain.Order) string

	// CreateOrder submits an order and returns the broker order id.
	// Rejections are reported through the error taxonomy
	// (ErrInsufficientFunds, ErrOrderPlacementFailed, ...).
	CreateOrder(ctx context.Context, order *domain.Order, instrument *domain.Instrument) (string, error)

	// CancelOrder cancels an open order. Cancelling an order the broker no
	// longer knows returns ErrOrderNotFound.
	CancelOrder(ctx context.Context, orderID string, instrument *domain.Instrument) error

	// OrderInfo polls the broker for one order. A non-nil error means the
	// API call itself failed (retry later, state unknown). A result with an
	// empty ID means the broker has no record of the order.
	OrderInfo(ctx context.Context, orderID string, instrument *domain.Instrument) (*domain.OrderInfo, error)

	// ClosePosition closes (part of) a broker-side position, at market when
	// market is true, else with a limit order at price.
	ClosePosition(ctx context.Context, positionID string, instrument *domain.Instrument,
		direction domain.Direction, quantity float64, market bool, price float64) error

	// ModifyPosition updates the stop-loss / take-profit prices attached to
	// a broker-side position. Zero leaves the corresponding price unset.
	ModifyPosition(ctx context.Context, positionID string, instrument *domain.Instrument,
		stopLoss, takeProfit float64) error
}

// SignalConsumer receives the asynchronous order/position signals decoded by
// a broker adapter. The StrategyTrader implements it.
type SignalConsumer interface {
	OnOrderSignal(sig domain.OrderEvent)
	OnPositionSignal(sig domain.PositionEvent)
}
