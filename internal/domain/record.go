package domain

// ClosedTrade is the immutable historical record appended when a strategic
// trade terminates and is removed from the active list.
type ClosedTrade struct {
	ID        int64 // repository-assigned
	TradeID   int   // id the trade carried while active
	Symbol    string
	Direction Direction
	Timeframe float64

	Quantity   float64
	EntryPrice float64 // volume-weighted average entry
	ExitPrice  float64 // volume-weighted average exit

	ProfitLossRate float64 // direction-adjusted fraction, net of fees
	Fees           float64 // entry + exit, settlement currency

	BestPrice  float64
	WorstPrice float64

	FirstRealizedEntryTime float64
	LastRealizedExitTime   float64

	CloseReason CloseReason
}

// IsWin reports whether the record closed with a positive net result.
func (c *ClosedTrade) IsWin() bool {
	return c.ProfitLossRate > 0
}
