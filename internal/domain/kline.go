package domain

import "time"

// Kline is one candlestick from the market-data feed. The trade engine
// consumes final klines only, as the clock for the periodic update pass and
// as the source of the instrument's last prices.
type Kline struct {
	OpenTime  time.Time
	CloseTime time.Time
	Symbol    string
	Interval  string // e.g., "1m", "1h"
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	IsFinal   bool
}
