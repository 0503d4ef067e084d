package domain

import "time"

// Fill is one match between a resting maker order and an incoming taker
// order. It carries enough of each side to let a caller build a trade
// record, book keeping entry, or market-data tick without reaching back
// into the book.
type Fill struct {
	MakerOrderID OrderID
	TakerOrderID OrderID
	MakerUser    *UserID
	TakerUser    *UserID
	Price        Price
	Quantity     uint64
	MakerFilled  bool // true if this fill reduced the maker to zero
	Timestamp    time.Time
}

// RefillEvent records an iceberg order's head-of-FIFO re-enqueue: its
// display portion was exhausted by a fill and refilled from its hidden
// reserve, then moved to the tail of its price level.
type RefillEvent struct {
	OrderID        OrderID
	RefilledQty    uint64
	RemainingHidden uint64
}

// MatchResult collects everything one call to PriceLevel.MatchAgainst or
// the book-level matching loop produced.
type MatchResult struct {
	Fills   []Fill
	Refills []RefillEvent
	// RemovedMakers holds every maker order that left the book during
	// this match — either fully consumed (and not an iceberg with
	// remaining hidden quantity) or cancelled by an STPCancelMaker /
	// STPCancelBoth verdict. The book mirrors each of these removals into
	// the Directory and User Index through MatchAgainst's onRemove
	// callback; the full order, not just its id, is kept here so its User
	// stays readable once the order has left its PriceLevel. An
	// iceberg maker that was refilled from its hidden reserve is
	// deliberately excluded, since it is still resting at the same
	// (side, price).
	RemovedMakers []*Order
	// TakerCancelled is true when an STPCancelTaker or STPCancelBoth
	// verdict stopped the match before the taker's remaining quantity
	// was exhausted.
	TakerCancelled bool
}

// Merge appends other's fills, refills and STP side effects onto m, used
// by the book-level matching loop to combine results from each price
// level it walks.
func (m *MatchResult) Merge(other MatchResult) {
	m.Fills = append(m.Fills, other.Fills...)
	m.Refills = append(m.Refills, other.Refills...)
	m.RemovedMakers = append(m.RemovedMakers, other.RemovedMakers...)
	m.TakerCancelled = m.TakerCancelled || other.TakerCancelled
}
