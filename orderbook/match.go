package orderbook

import (
	"ironbook/domain"
)

// crosses is the crossing predicate: for a buy incoming at takerPrice,
// an ask level at levelPrice crosses iff levelPrice <= takerPrice; for
// a sell, a bid level crosses iff levelPrice >= takerPrice.
func crosses(takerSide domain.Side, takerPrice, levelPrice domain.Price) bool {
	if takerSide == domain.Buy {
		return !levelPrice.GreaterThan(takerPrice)
	}
	return !levelPrice.LessThan(takerPrice)
}

// availableCrossingQuantity sums the visible and hidden remaining
// quantity of every level on the opposite side that currently crosses
// takerPrice, used for the fill-or-kill precheck: a FOK order is only
// accepted once its full quantity is verified available before any fill
// is committed. opposite.Levels() already walks in best-to-worst order
// for that side, so the sum stops at the first non-crossing level.
// Hidden (iceberg) quantity counts: after an iceberg refill moves its
// maker to the tail, submit's match loop returns to the same level while
// the taker has quantity left, so the refilled display is consumed by
// this same submission.
func availableCrossingQuantity(opposite *SideIndex, takerSide domain.Side, takerPrice domain.Price) uint64 {
	var total uint64
	for _, lvl := range opposite.Levels() {
		if !crosses(takerSide, takerPrice, lvl.Price) {
			break
		}
		lvl.mu.Lock()
		total += lvl.visibleSum
		for e := lvl.orders.Front(); e != nil; e = e.Next() {
			total += e.Value.(*domain.Order).Hidden
		}
		lvl.mu.Unlock()
	}
	return total
}

// submit runs the full order-acceptance pipeline: validation, post-only
// would-cross rejection, FOK precheck, the match
// loop against the opposite SideIndex, Directory/User Index bookkeeping
// for every maker the match loop removed, residual disposition by TIF,
// and a final cache refresh. It is the single entry point every
// AddXxxOrder façade method funnels through.
func (ob *OrderBook) submit(order *domain.Order, postOnly bool) (domain.MatchResult, error) {
	if order.ID.IsZero() {
		return domain.MatchResult{}, domain.NewInvalidInput("order id must be non-zero")
	}
	if order.Price.IsZero() {
		return domain.MatchResult{}, domain.NewInvalidInput("price must be positive")
	}
	if order.Remaining == 0 {
		return domain.MatchResult{}, domain.NewInvalidInput("quantity must be positive")
	}
	now := ob.clock()
	if order.TIF == domain.GTD && !order.Expiry.After(now) {
		return domain.MatchResult{}, domain.NewExpired(order.ID)
	}
	if _, exists := ob.dir.get(order.ID); exists {
		return domain.MatchResult{}, domain.NewDuplicateOrderID(order.ID)
	}

	opposite := ob.sideIndexFor(order.Side.Opposite())
	own := ob.sideIndexFor(order.Side)

	if postOnly {
		if lvl, ok := opposite.Best(); ok && crosses(order.Side, order.Price, lvl.Price) {
			return domain.MatchResult{}, domain.NewWouldCross(order.ID)
		}
	}

	if order.TIF == domain.FOK {
		if availableCrossingQuantity(opposite, order.Side, order.Price) < order.Remaining {
			return domain.MatchResult{}, domain.NewFOKUnfillable(order.ID)
		}
	}

	mode, stpFunc := ob.stpSnapshot()

	// onRemove mirrors a maker's removal into the Directory and User
	// Index from inside MatchAgainst's own critical section, before
	// that maker leaves its PriceLevel, so a concurrent Cancel can
	// never find it still in the Directory after its level has already
	// dropped it.
	onRemove := func(maker *domain.Order) {
		ob.dir.remove(maker.ID)
		if maker.User != nil {
			ob.users.remove(*maker.User, maker.ID)
		}
	}

	var result domain.MatchResult
	for order.Remaining > 0 {
		lvl, ok := opposite.Best()
		if !ok || !crosses(order.Side, order.Price, lvl.Price) {
			break
		}
		levelPrice := lvl.Price
		levelResult := lvl.MatchAgainst(order, stpFunc, mode, ob.seq.next, now, onRemove)
		result.Merge(levelResult)
		opposite.RemoveIfEmpty(levelPrice)
		if levelResult.TakerCancelled {
			break
		}
	}

	if len(result.Fills) > 0 {
		ob.log.Info().
			Str("order_id", order.ID.String()).
			Str("side", order.Side.String()).
			Int("fills", len(result.Fills)).
			Msg("matched")
	}

	if order.Remaining > 0 && !result.TakerCancelled {
		switch order.TIF {
		case domain.IOC, domain.FOK:
			// residual dropped, not rested
		default: // GTC, GTD with future expiry already checked above
			order.ArrivalSeq = ob.seq.next()
			lvl, _ := own.GetOrCreate(order.Price)
			lvl.PushBack(order)
			ob.dir.put(order.ID, order.Side, order.Price)
			if order.User != nil {
				ob.users.add(*order.User, order.ID)
			}
			ob.log.Debug().Str("order_id", order.ID.String()).Str("price", order.Price.String()).Msg("rested")
		}
	}

	ob.refreshCache()
	return result, nil
}
