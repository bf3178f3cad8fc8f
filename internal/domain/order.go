package domain

// Order is a request submitted to the broker gateway. RefOrderID is
// populated by the gateway (SetRefOrderID) before submission so async
// signals can be correlated before the broker assigns its own id.
type Order struct {
	RefOrderID string
	Symbol     string
	Direction  Direction
	Type       OrderType

	Quantity  float64
	Price     float64 // limit price, for limit-type orders
	StopPrice float64 // trigger price, for stop-type orders

	// Embedded protective prices, for brokers that accept them on the
	// entry order itself.
	StopLoss   float64
	TakeProfit float64

	Leverage   int
	ReduceOnly bool
	CloseOnly  bool
	Hedging    bool
}

// OrderInfo is a polled snapshot of one order, returned by the gateway's
// order-info lookup. An empty ID means the broker has no record of the
// order; the caller infers terminal state from its locally realized
// quantity.
type OrderInfo struct {
	ID            string
	RefOrderID    string
	Symbol        string
	Status        string // broker-native status string, informational
	CumulativeQty float64
	AvgPrice      float64
	FullyFilled   bool
	Canceled      bool
	Timestamp     float64
}
