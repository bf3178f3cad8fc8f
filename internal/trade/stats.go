package trade

import "tradeLedgerBot/internal/domain"

// Stats accumulates the per-trade analytics sidecar: MFE/MAE extremes, fee
// totals, realized fill timestamps and order provenance. Every field is
// written by the state machine and read by reporting; nothing here feeds
// back into order placement.
type Stats struct {
	BestPrice          float64 `json:"best-price"`
	BestPriceTimestamp float64 `json:"best-price-timestamp"`

	WorstPrice          float64 `json:"worst-price"`
	WorstPriceTimestamp float64 `json:"worst-price-timestamp"`

	EntryOrderType domain.OrderType `json:"entry-order-type"`
	TakeProfitType domain.OrderType `json:"take-profit-order-type"`
	StopLossType   domain.OrderType `json:"stop-loss-order-type"`

	FirstRealizedEntryTimestamp float64 `json:"first-realized-entry-timestamp"`
	LastRealizedEntryTimestamp  float64 `json:"last-realized-entry-timestamp"`
	FirstRealizedExitTimestamp  float64 `json:"first-realized-exit-timestamp"`
	LastRealizedExitTimestamp   float64 `json:"last-realized-exit-timestamp"`

	UnrealizedProfitLoss float64 `json:"unrealized-profit-loss"`
	ProfitLossCurrency   string  `json:"profit-loss-currency"`

	EntryFees float64 `json:"entry-fees"`
	ExitFees  float64 `json:"exit-fees"`

	EntryMaker bool `json:"entry-maker"`
	ExitMaker  bool `json:"exit-maker"`
}

// updateExtremes records the best/worst observed price for MFE/MAE,
// direction-adjusted.
func (s *Stats) updateExtremes(dir domain.Direction, price, ts float64) {
	if price <= 0 {
		return
	}
	if s.BestPrice == 0 || float64(dir)*(price-s.BestPrice) > 0 {
		s.BestPrice = price
		s.BestPriceTimestamp = ts
	}
	if s.WorstPrice == 0 || float64(dir)*(price-s.WorstPrice) < 0 {
		s.WorstPrice = price
		s.WorstPriceTimestamp = ts
	}
}

// Fees returns total accrued fees, entry plus exit side.
func (s *Stats) Fees() float64 {
	return s.EntryFees + s.ExitFees
}
