package orderbook

import (
	"container/list"
	"sync"
	"time"

	"ironbook/domain"
)

// PriceLevel holds the FIFO of resting orders at one price, plus a
// cached sum of visible quantity. It pairs a container/list FIFO with
// an intrusive per-id locator for O(1) removal, kept as an explicit map
// rather than a field stashed on the order itself, since PriceLevel
// lives in a different package than domain.Order.
type PriceLevel struct {
	mu sync.Mutex

	Price domain.Price

	orders     *list.List
	elemByID   map[domain.OrderID]*list.Element
	visibleSum uint64
}

func newPriceLevel(price domain.Price) *PriceLevel {
	return &PriceLevel{
		Price:    price,
		orders:   list.New(),
		elemByID: make(map[domain.OrderID]*list.Element),
	}
}

// PushBack appends an order to the tail of the FIFO.
func (lvl *PriceLevel) PushBack(o *domain.Order) {
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	e := lvl.orders.PushBack(o)
	lvl.elemByID[o.ID] = e
	lvl.visibleSum += o.Remaining
}

// Remove removes an order by id, preserving FIFO order of survivors.
func (lvl *PriceLevel) Remove(id domain.OrderID) (*domain.Order, bool) {
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	e, ok := lvl.elemByID[id]
	if !ok {
		return nil, false
	}
	o := e.Value.(*domain.Order)
	lvl.orders.Remove(e)
	delete(lvl.elemByID, id)
	lvl.visibleSum -= o.Remaining
	return o, true
}

// Len reports the number of resting orders at this level.
func (lvl *PriceLevel) Len() int {
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	return lvl.orders.Len()
}

// Empty reports whether the level has no resting orders.
func (lvl *PriceLevel) Empty() bool {
	return lvl.Len() == 0
}

// VisibleQuantity returns the cached sum of visible (displayed) remaining
// quantity across all orders at this level.
func (lvl *PriceLevel) VisibleQuantity() uint64 {
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	return lvl.visibleSum
}

// Orders returns a snapshot slice of resting orders in FIFO order. Used
// by tests; callers must not mutate the returned
// orders' book-owned fields (ArrivalSeq, Remaining, Hidden).
func (lvl *PriceLevel) Orders() []*domain.Order {
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	out := make([]*domain.Order, 0, lvl.orders.Len())
	for e := lvl.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*domain.Order))
	}
	return out
}

// Drain empties the level and returns every order it held, in FIFO
// order. Used by the mass-cancel engine.
func (lvl *PriceLevel) Drain() []*domain.Order {
	return lvl.DrainWithCallback(func(*domain.Order) {})
}

// DrainWithCallback empties the level and returns every order it held,
// in FIFO order. remove is invoked for each order while this level's
// lock is still held, before that order's removal is reflected in the
// level's list, so a caller that mirrors the removal into the
// Directory and User Index from inside remove can never have another
// goroutine observe a Directory entry for an id this level no longer
// lists.
func (lvl *PriceLevel) DrainWithCallback(remove func(*domain.Order)) []*domain.Order {
	lvl.mu.Lock()
	defer lvl.mu.Unlock()
	out := make([]*domain.Order, 0, lvl.orders.Len())
	for e := lvl.orders.Front(); e != nil; e = e.Next() {
		o := e.Value.(*domain.Order)
		remove(o)
		out = append(out, o)
	}
	lvl.orders.Init()
	lvl.elemByID = make(map[domain.OrderID]*list.Element)
	lvl.visibleSum = 0
	return out
}

func (lvl *PriceLevel) removeElemLocked(e *list.Element) *domain.Order {
	o := e.Value.(*domain.Order)
	lvl.orders.Remove(e)
	delete(lvl.elemByID, o.ID)
	lvl.visibleSum -= o.Remaining
	return o
}

// MatchAgainst consumes head orders while taker.Remaining > 0, applying
// STP at each prospective fill and the classic iceberg refill-at-tail
// rule when a maker's display is exhausted but its hidden reserve is
// not. nextSeq supplies the fresh arrival sequence number a refilled
// iceberg order is re-enqueued with, since re-enqueuing at the tail is
// logically a new arrival for FIFO purposes. onRemove is invoked, still
// under this level's lock, for every maker that permanently leaves the
// level (full fill or STP cancellation) before it is spliced out, so
// the caller can mirror the removal into the Directory and User Index
// without ever letting those structures trail this level's own state.
func (lvl *PriceLevel) MatchAgainst(
	taker *domain.Order,
	stp domain.STPFunc,
	mode domain.STPMode,
	nextSeq func() uint64,
	now time.Time,
	onRemove func(*domain.Order),
) domain.MatchResult {
	lvl.mu.Lock()
	defer lvl.mu.Unlock()

	var result domain.MatchResult

	e := lvl.orders.Front()
	for e != nil && taker.Remaining > 0 {
		maker := e.Value.(*domain.Order)

		verdict := domain.STPAllow
		if maker.User != nil && taker.User != nil && *maker.User == *taker.User {
			verdict = stp(mode, *maker.User, *taker.User)
		}

		switch verdict {
		case domain.STPSkipMaker:
			e = e.Next()
			continue
		case domain.STPCancelMaker:
			next := e.Next()
			onRemove(maker)
			cancelled := lvl.removeElemLocked(e)
			result.RemovedMakers = append(result.RemovedMakers, cancelled)
			e = next
			continue
		case domain.STPCancelTaker, domain.STPCancelBoth:
			if verdict == domain.STPCancelBoth {
				onRemove(maker)
				cancelled := lvl.removeElemLocked(e)
				result.RemovedMakers = append(result.RemovedMakers, cancelled)
			}
			result.TakerCancelled = true
			taker.Remaining = 0
			return result
		}

		qty := taker.Remaining
		if maker.Remaining < qty {
			qty = maker.Remaining
		}
		maker.Fill(qty)
		taker.Fill(qty)
		lvl.visibleSum -= qty

		result.Fills = append(result.Fills, domain.Fill{
			MakerOrderID: maker.ID,
			TakerOrderID: taker.ID,
			MakerUser:    maker.User,
			TakerUser:    taker.User,
			Price:        lvl.Price,
			Quantity:     qty,
			MakerFilled:  maker.Filled(),
			Timestamp:    now,
		})

		if !maker.Filled() {
			// Maker stays at the head; taker must be exhausted, the loop
			// condition above will stop on the next check.
			break
		}

		if maker.IsIceberg() && maker.Hidden > 0 {
			next := e.Next()
			lvl.orders.Remove(e)
			delete(lvl.elemByID, maker.ID)

			moved := maker.RefillFromHidden(maker.DisplaySize)
			maker.ArrivalSeq = nextSeq()
			ne := lvl.orders.PushBack(maker)
			lvl.elemByID[maker.ID] = ne
			lvl.visibleSum += moved

			result.Refills = append(result.Refills, domain.RefillEvent{
				OrderID:         maker.ID,
				RefilledQty:     moved,
				RemainingHidden: maker.Hidden,
			})
			e = next
			continue
		}

		next := e.Next()
		onRemove(maker)
		lvl.orders.Remove(e)
		delete(lvl.elemByID, maker.ID)
		result.RemovedMakers = append(result.RemovedMakers, maker)
		e = next
	}

	return result
}
