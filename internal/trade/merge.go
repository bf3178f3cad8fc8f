package trade

import "tradeLedgerBot/internal/domain"

func (t *baseTrade) base() *baseTrade { return t }

// CanMerge reports whether src's realized entry can be folded into dst:
// same market model and direction, both entries fully done, and no exit
// activity on either side yet.
func CanMerge(dst, src Trade) bool {
	d, ok := dst.(interface{ base() *baseTrade })
	if !ok {
		return false
	}
	s, ok := src.(interface{ base() *baseTrade })
	if !ok {
		return false
	}
	db, sb := d.base(), s.base()

	if db == sb || db.kind != sb.kind || db.dir != sb.dir {
		return false
	}
	if db.entryState != domain.TradeStateFilled || sb.entryState != domain.TradeStateFilled {
		return false
	}
	if qtyZero(sb.execEntryQty) {
		return false
	}
	if qtyGT(db.execExitQty, 0) || qtyGT(sb.execExitQty, 0) {
		return false
	}
	if db.closing || sb.closing || dst.HasStopOrder() || dst.HasLimitOrder() ||
		src.HasStopOrder() || src.HasLimitOrder() {
		return false
	}
	return true
}

// Merge folds src's realized entry into dst: quantities add up, the average
// entry price is volume-weighted across both, entry fees and timestamp
// extremes carry over. src is left an empty canceled shell that the next
// sweep deletes. Used by the DCA merge handler to collapse laddered entries
// into one position.
func Merge(dst, src Trade) bool {
	if !CanMerge(dst, src) {
		return false
	}
	db := dst.(interface{ base() *baseTrade }).base()
	sb := src.(interface{ base() *baseTrade }).base()

	total := db.execEntryQty + sb.execEntryQty
	db.entryPrice = (db.entryPrice*db.execEntryQty + sb.entryPrice*sb.execEntryQty) / total
	db.execEntryQty = total
	db.orderQty += sb.orderQty

	db.stats.EntryFees += sb.stats.EntryFees
	if sb.stats.FirstRealizedEntryTimestamp > 0 &&
		(db.stats.FirstRealizedEntryTimestamp == 0 ||
			sb.stats.FirstRealizedEntryTimestamp < db.stats.FirstRealizedEntryTimestamp) {
		db.stats.FirstRealizedEntryTimestamp = sb.stats.FirstRealizedEntryTimestamp
	}
	if sb.stats.LastRealizedEntryTimestamp > db.stats.LastRealizedEntryTimestamp {
		db.stats.LastRealizedEntryTimestamp = sb.stats.LastRealizedEntryTimestamp
	}
	if sb.openTimestamp > 0 && (db.openTimestamp == 0 || sb.openTimestamp < db.openTimestamp) {
		db.openTimestamp = sb.openTimestamp
	}

	sb.execEntryQty = 0
	sb.orderQty = 0
	sb.entryPrice = 0
	sb.stats.EntryFees = 0
	sb.entryState = domain.TradeStateCanceled
	sb.positionID = ""
	sb.positionQty = 0
	return true
}
