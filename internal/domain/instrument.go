package domain

import "math"

// Instrument carries the static market description plus the last observed
// book prices for one tradable symbol. The trade state machines only read
// from it; the market-data feed is responsible for keeping Bid/Ask current.
type Instrument struct {
	Symbol   string
	Currency string // settlement currency, e.g. "USDT"

	TickSize float64 // price increment
	StepSize float64 // quantity increment

	MinNotional  float64
	ContractSize float64
	OnePipMeans  float64

	// Fee rates as fractions of notional, plus fixed per-order commissions.
	MakerFee        float64
	TakerFee        float64
	MakerCommission float64
	TakerCommission float64

	Bid float64
	Ask float64
}

// AdjustPrice snaps a price to the instrument tick size.
func (i *Instrument) AdjustPrice(price float64) float64 {
	if i.TickSize <= 0 || price <= 0 {
		return price
	}
	return math.Round(price/i.TickSize) * i.TickSize
}

// AdjustQuantity snaps a quantity down to the instrument step size. Rounding
// down keeps an exit order from exceeding the realized entry quantity.
func (i *Instrument) AdjustQuantity(qty float64) float64 {
	if i.StepSize <= 0 || qty <= 0 {
		return qty
	}
	return math.Floor(qty/i.StepSize+1e-9) * i.StepSize
}

// MarketPrice returns the mid price.
func (i *Instrument) MarketPrice() float64 {
	if i.Bid > 0 && i.Ask > 0 {
		return (i.Bid + i.Ask) * 0.5
	}
	if i.Bid > 0 {
		return i.Bid
	}
	return i.Ask
}

// CloseExecPrice is the worst-of-book execution price estimate for closing a
// position of the given direction: a long exits into the bid, a short into
// the ask. Used for client-side SL/TP trigger evaluation.
func (i *Instrument) CloseExecPrice(dir Direction) float64 {
	if dir == Long {
		if i.Bid > 0 {
			return i.Bid
		}
		return i.Ask
	}
	if i.Ask > 0 {
		return i.Ask
	}
	return i.Bid
}

// OpenExecPrice is the worst-of-book execution price estimate for entering a
// position of the given direction.
func (i *Instrument) OpenExecPrice(dir Direction) float64 {
	return i.CloseExecPrice(dir.Opposite())
}
