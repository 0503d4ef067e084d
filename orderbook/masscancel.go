package orderbook

import "ironbook/domain"

// CancelAllOrders clears the Directory and User Index before draining
// either SideIndex, so every id this call will remove is already gone
// from the Directory before its PriceLevel is touched: no observer can
// read a Directory entry for an id that cancel-all has already dropped
// from its level. Bids are drained before asks, the fixed order any
// path touching both sides must follow.
func (ob *OrderBook) CancelAllOrders() domain.MassCancelResult {
	ob.dir.clear()
	ob.users.clear()

	bidOrders := ob.bids.DrainAll()
	askOrders := ob.asks.DrainAll()

	ids := make([]domain.OrderID, 0, len(bidOrders)+len(askOrders))
	for _, o := range bidOrders {
		ids = append(ids, o.ID)
	}
	for _, o := range askOrders {
		ids = append(ids, o.ID)
	}

	ob.refreshCache()

	ob.log.Info().Int("count", len(ids)).Msg("cancel_all_orders")
	return domain.MassCancelResult{CancelledOrderIDs: ids, Count: uint64(len(ids))}
}

// CancelOrdersBySide drains only the given side; the opposite side is
// untouched. Each order's Directory and User Index entries are removed
// from inside the drain callback, while its own PriceLevel is still
// locked and before that order leaves the level, so the Directory
// never lags what the SideIndex already reflects.
func (ob *OrderBook) CancelOrdersBySide(side domain.Side) domain.MassCancelResult {
	var ids []domain.OrderID
	remove := func(o *domain.Order) {
		ob.dir.remove(o.ID)
		if o.User != nil {
			ob.users.remove(*o.User, o.ID)
		}
		ids = append(ids, o.ID)
	}
	drained := ob.sideIndexFor(side).DrainAllWithCallback(remove)
	if len(drained) == 0 {
		return domain.MassCancelResult{}
	}
	ob.refreshCache()

	ob.log.Info().Str("side", side.String()).Int("count", len(ids)).Msg("cancel_orders_by_side")
	return domain.MassCancelResult{CancelledOrderIDs: ids, Count: uint64(len(ids))}
}

// CancelOrdersByUser removes every order belonging to user, wherever it
// rests on either side. Orders belonging to other users are untouched.
// dir.take removes the Directory entry atomically with the lookup, so
// a concurrent Cancel or mass-cancel racing the same id can only ever
// observe it already gone, never still listed after its PriceLevel has
// emptied.
func (ob *OrderBook) CancelOrdersByUser(user domain.UserID) domain.MassCancelResult {
	orderIDs := ob.users.orders(user)
	if len(orderIDs) == 0 {
		return domain.MassCancelResult{}
	}

	ids := make([]domain.OrderID, 0, len(orderIDs))
	for _, id := range orderIDs {
		loc, ok := ob.dir.take(id)
		if !ok {
			continue
		}
		ob.users.remove(user, id)
		si := ob.sideIndexFor(loc.side)
		lvl, ok := si.Get(loc.price)
		if !ok {
			ob.log.Error().Str("order_id", id.String()).Msg("user index pointed at missing price level")
			continue
		}
		if _, ok := lvl.Remove(id); !ok {
			ob.log.Error().Str("order_id", id.String()).Msg("price level missing user-indexed order")
			continue
		}
		si.RemoveIfEmpty(loc.price)
		ids = append(ids, id)
	}
	ob.refreshCache()

	ob.log.Info().Str("user", user.String()).Int("count", len(ids)).Msg("cancel_orders_by_user")
	return domain.MassCancelResult{CancelledOrderIDs: ids, Count: uint64(len(ids))}
}

// CancelOrdersByPriceRange drains every level on side whose price falls
// in the inclusive range [lo, hi]. An inverted range (lo > hi) or a
// range that intersects no level returns an empty result with no side
// effects. As in CancelOrdersBySide, Directory and User Index removal
// happens from inside the drain callback, ahead of each order leaving
// its level.
func (ob *OrderBook) CancelOrdersByPriceRange(side domain.Side, lo, hi domain.Price) domain.MassCancelResult {
	var ids []domain.OrderID
	remove := func(o *domain.Order) {
		ob.dir.remove(o.ID)
		if o.User != nil {
			ob.users.remove(*o.User, o.ID)
		}
		ids = append(ids, o.ID)
	}
	drained := ob.sideIndexFor(side).DrainRangeWithCallback(lo, hi, remove)
	if len(drained) == 0 {
		return domain.MassCancelResult{}
	}
	ob.refreshCache()

	ob.log.Info().Str("side", side.String()).Int("count", len(ids)).Msg("cancel_orders_by_price_range")
	return domain.MassCancelResult{CancelledOrderIDs: ids, Count: uint64(len(ids))}
}
