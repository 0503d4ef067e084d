package orderbook

import (
	"sync"

	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"ironbook/domain"
)

// SideIndex is the ordered Price -> *PriceLevel map for one side of the
// book, backed by github.com/emirpasic/gods/v2/trees/redblacktree. The
// comparator encodes side ordering, so the tree's minimum (Left()) is
// always this side's best price: descending for bids means "greater
// price compares less", ascending for asks is the natural order.
type SideIndex struct {
	mu   sync.RWMutex
	tree *rbt.Tree[domain.Price, *PriceLevel]
	side domain.Side
}

func priceComparator(side domain.Side) func(a, b domain.Price) int {
	if side == domain.Buy {
		return func(a, b domain.Price) int { return -a.Cmp(b) }
	}
	return func(a, b domain.Price) int { return a.Cmp(b) }
}

func newSideIndex(side domain.Side) *SideIndex {
	return &SideIndex{
		tree: rbt.NewWith[domain.Price, *PriceLevel](priceComparator(side)),
		side: side,
	}
}

// Best returns the best price level for this side, or (nil, false) if
// the side is empty.
func (si *SideIndex) Best() (*PriceLevel, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	node := si.tree.Left()
	if node == nil {
		return nil, false
	}
	return node.Value, true
}

// Get returns the level at price, if one exists.
func (si *SideIndex) Get(price domain.Price) (*PriceLevel, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.tree.Get(price)
}

// GetOrCreate returns the level at price, creating an empty one if
// absent. The second return value reports whether it was created.
func (si *SideIndex) GetOrCreate(price domain.Price) (*PriceLevel, bool) {
	si.mu.RLock()
	if lvl, ok := si.tree.Get(price); ok {
		si.mu.RUnlock()
		return lvl, false
	}
	si.mu.RUnlock()

	si.mu.Lock()
	defer si.mu.Unlock()
	if lvl, ok := si.tree.Get(price); ok {
		return lvl, false
	}
	lvl := newPriceLevel(price)
	si.tree.Put(price, lvl)
	return lvl, true
}

// RemoveIfEmpty prunes the level at price from the tree if it has no
// resting orders: no empty PriceLevel should stay reachable from the
// tree. Must be called after every removal from a level.
func (si *SideIndex) RemoveIfEmpty(price domain.Price) {
	si.mu.Lock()
	defer si.mu.Unlock()
	if lvl, ok := si.tree.Get(price); ok && lvl.Empty() {
		si.tree.Remove(price)
	}
}

// Size returns the number of non-empty price levels.
func (si *SideIndex) Size() int {
	si.mu.RLock()
	defer si.mu.RUnlock()
	return si.tree.Size()
}

// Range returns every level whose price falls in the inclusive range
// [lo, hi], in the side's natural iteration order (ascending for asks,
// descending for bids). An inverted range (lo > hi) yields nil.
func (si *SideIndex) Range(lo, hi domain.Price) []*PriceLevel {
	if lo.GreaterThan(hi) {
		return nil
	}
	si.mu.RLock()
	defer si.mu.RUnlock()
	var out []*PriceLevel
	it := si.tree.Iterator()
	for it.Next() {
		p := it.Key()
		if p.Cmp(lo) >= 0 && p.Cmp(hi) <= 0 {
			out = append(out, it.Value())
		}
	}
	return out
}

// Levels returns every level currently in the tree, in the side's
// natural order.
func (si *SideIndex) Levels() []*PriceLevel {
	si.mu.RLock()
	defer si.mu.RUnlock()
	out := make([]*PriceLevel, 0, si.tree.Size())
	it := si.tree.Iterator()
	for it.Next() {
		out = append(out, it.Value())
	}
	return out
}

// RemovePrices deletes the given prices from the tree unconditionally,
// used by the mass-cancel engine right after draining those levels.
func (si *SideIndex) RemovePrices(prices []domain.Price) {
	if len(prices) == 0 {
		return
	}
	si.mu.Lock()
	defer si.mu.Unlock()
	for _, p := range prices {
		si.tree.Remove(p)
	}
}

// Clear removes every level from the tree.
func (si *SideIndex) Clear() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.tree.Clear()
}

// DrainAll empties every level on this side and returns every order
// they held, used by CancelAllOrders (CancelOrdersBySide uses
// DrainAllWithCallback). The side
// lock is held exclusively for the whole operation so no concurrent
// insert can observe a partially drained tree.
func (si *SideIndex) DrainAll() []*domain.Order {
	return si.DrainAllWithCallback(func(*domain.Order) {})
}

// DrainAllWithCallback is DrainAll, but invokes remove for every order
// while the order's own level is still locked, immediately before that
// order leaves the level. Callers use this to mirror the removal into
// the Directory and User Index in lockstep with each level's
// compaction, so those structures never trail what the SideIndex
// itself already reflects.
func (si *SideIndex) DrainAllWithCallback(remove func(*domain.Order)) []*domain.Order {
	si.mu.Lock()
	defer si.mu.Unlock()
	var out []*domain.Order
	it := si.tree.Iterator()
	for it.Next() {
		out = append(out, it.Value().DrainWithCallback(remove)...)
	}
	si.tree.Clear()
	return out
}

// DrainRange empties every level whose price falls in the inclusive
// range [lo, hi] and returns every order they held; it is
// DrainRangeWithCallback with a no-op callback (CancelOrdersByPriceRange
// calls DrainRangeWithCallback directly). An inverted range (lo > hi)
// drains nothing.
func (si *SideIndex) DrainRange(lo, hi domain.Price) []*domain.Order {
	return si.DrainRangeWithCallback(lo, hi, func(*domain.Order) {})
}

// DrainRangeWithCallback is DrainRange, but invokes remove for every
// order while the order's own level is still locked, immediately
// before that order leaves the level, the same lockstep mirroring
// DrainAllWithCallback provides.
func (si *SideIndex) DrainRangeWithCallback(lo, hi domain.Price, remove func(*domain.Order)) []*domain.Order {
	if lo.GreaterThan(hi) {
		return nil
	}
	si.mu.Lock()
	defer si.mu.Unlock()
	var out []*domain.Order
	var prices []domain.Price
	it := si.tree.Iterator()
	for it.Next() {
		p := it.Key()
		if p.Cmp(lo) >= 0 && p.Cmp(hi) <= 0 {
			out = append(out, it.Value().DrainWithCallback(remove)...)
			prices = append(prices, p)
		}
	}
	for _, p := range prices {
		si.tree.Remove(p)
	}
	return out
}
