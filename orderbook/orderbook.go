// Package orderbook is the stateful matching-and-bookkeeping core: one
// OrderBook per instrument, built from a SideIndex per side, an Order
// Directory, a User Index and a Best-Price Cache. Nothing in package
// domain holds a lock; every lock in this module lives here.
package orderbook

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ironbook/domain"
)

// OrderBook represents the book for a single instrument. Construction
// follows the functional-options idiom: New takes only the symbol,
// everything else defaults and can be overridden with an Option.
type OrderBook struct {
	symbol string

	bids *SideIndex
	asks *SideIndex

	dir   *directory
	users *userIndex

	cache *BestPriceCache
	seq   sequencer

	cfgMu   sync.RWMutex
	stpMode domain.STPMode
	stpFunc domain.STPFunc

	log   zerolog.Logger
	clock func() time.Time
}

// Option configures an OrderBook at construction time.
type Option func(*OrderBook)

// WithLogger injects a zerolog.Logger. The default is zerolog.Nop(), so a
// book built without this option produces no log output.
func WithLogger(log zerolog.Logger) Option {
	return func(ob *OrderBook) { ob.log = log }
}

// WithSTPFunc injects the self-trade-prevention decision function. The
// default, domain.DefaultSTPFunc, always allows.
func WithSTPFunc(fn domain.STPFunc) Option {
	return func(ob *OrderBook) { ob.stpFunc = fn }
}

// WithClock injects the time source used for GTD-expiry checks and fill
// timestamps. The default is time.Now; tests inject a fixed or
// step-controlled clock to make expiry deterministic.
func WithClock(clock func() time.Time) Option {
	return func(ob *OrderBook) { ob.clock = clock }
}

// New constructs an empty book for symbol.
func New(symbol string, opts ...Option) *OrderBook {
	ob := &OrderBook{
		symbol:  symbol,
		bids:    newSideIndex(domain.Buy),
		asks:    newSideIndex(domain.Sell),
		dir:     newDirectory(),
		users:   newUserIndex(),
		cache:   NewBestPriceCache(),
		stpMode: domain.STPModeNone,
		stpFunc: domain.DefaultSTPFunc,
		log:     zerolog.Nop(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(ob)
	}
	return ob
}

// Symbol returns the instrument this book was constructed for.
func (ob *OrderBook) Symbol() string { return ob.symbol }

// SetSTPMode changes the self-trade-prevention mode (defaults to
// domain.STPModeNone). The core does not interpret the mode beyond
// passing it to the injected STPFunc.
func (ob *OrderBook) SetSTPMode(mode domain.STPMode) {
	ob.cfgMu.Lock()
	defer ob.cfgMu.Unlock()
	ob.stpMode = mode
}

func (ob *OrderBook) stpSnapshot() (domain.STPMode, domain.STPFunc) {
	ob.cfgMu.RLock()
	defer ob.cfgMu.RUnlock()
	return ob.stpMode, ob.stpFunc
}

func (ob *OrderBook) sideIndexFor(side domain.Side) *SideIndex {
	if side == domain.Buy {
		return ob.bids
	}
	return ob.asks
}

// AddLimitOrder rests or matches a plain limit order anonymously. It is
// a convenience wrapper around AddLimitOrderWithUser with a nil user.
func (ob *OrderBook) AddLimitOrder(id domain.OrderID, price domain.Price, qty uint64, side domain.Side, tif domain.TimeInForce, expiry time.Time) (domain.MatchResult, error) {
	return ob.AddLimitOrderWithUser(id, price, qty, side, tif, expiry, nil)
}

// AddLimitOrderWithUser submits a plain limit order on behalf of an
// explicit user, used for self-trade prevention and user-scoped
// mass-cancel.
func (ob *OrderBook) AddLimitOrderWithUser(id domain.OrderID, price domain.Price, qty uint64, side domain.Side, tif domain.TimeInForce, expiry time.Time, user *domain.UserID) (domain.MatchResult, error) {
	order := &domain.Order{
		ID:        id,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
		TIF:       tif,
		Expiry:    expiry,
		User:      user,
	}
	return ob.submit(order, false)
}

// AddIcebergOrder submits an iceberg order: identical to a limit order,
// but the resting order carries a non-zero hidden quantity that refills
// the display as it is exhausted.
func (ob *OrderBook) AddIcebergOrder(id domain.OrderID, price domain.Price, display, hidden uint64, side domain.Side, tif domain.TimeInForce, expiry time.Time, user *domain.UserID) (domain.MatchResult, error) {
	order := &domain.Order{
		ID:          id,
		Side:        side,
		Price:       price,
		Quantity:    display + hidden,
		Remaining:   display,
		Hidden:      hidden,
		DisplaySize: display,
		TIF:         tif,
		Expiry:      expiry,
		User:        user,
	}
	return ob.submit(order, false)
}

// AddPostOnlyOrder submits a post-only order: rejected with
// ErrWouldCross if it would take liquidity at submission, never
// partial-rests.
func (ob *OrderBook) AddPostOnlyOrder(id domain.OrderID, price domain.Price, qty uint64, side domain.Side, tif domain.TimeInForce, expiry time.Time, user *domain.UserID) (domain.MatchResult, error) {
	order := &domain.Order{
		ID:        id,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
		TIF:       tif,
		Expiry:    expiry,
		User:      user,
		Flags:     domain.OrderFlags{PostOnly: true},
	}
	return ob.submit(order, true)
}

// Cancel removes a single resting order by id. It removes the
// Directory entry before touching the PriceLevel it pointed at: a
// concurrent Cancel for the same id can only ever see this order
// already gone from the Directory, never see it still listed there
// after its PriceLevel has emptied.
func (ob *OrderBook) Cancel(id domain.OrderID) (*domain.Order, error) {
	loc, ok := ob.dir.take(id)
	if !ok {
		return nil, domain.NewNotFound(id)
	}
	si := ob.sideIndexFor(loc.side)
	lvl, ok := si.Get(loc.price)
	if !ok {
		ob.log.Error().Str("order_id", id.String()).Msg("directory entry pointed at missing price level")
		return nil, domain.NewInternal("directory entry %s pointed at missing price level", id)
	}
	order, ok := lvl.Remove(id)
	if !ok {
		ob.log.Error().Str("order_id", id.String()).Msg("price level missing directory-tracked order")
		return nil, domain.NewInternal("price level %s missing directory-tracked order %s", loc.price, id)
	}
	si.RemoveIfEmpty(loc.price)
	if order.User != nil {
		ob.users.remove(*order.User, id)
	}
	ob.refreshCache()
	ob.log.Info().Str("order_id", id.String()).Str("side", loc.side.String()).Msg("cancelled")
	return order, nil
}

// refreshCache invalidates then immediately recomputes the Best-Price
// Cache from both SideIndices. Called after every mutation that could
// change either side's best.
func (ob *OrderBook) refreshCache() {
	ob.cache.Invalidate()
	var bid, ask *domain.Price
	if lvl, ok := ob.bids.Best(); ok {
		p := lvl.Price
		bid = &p
	}
	if lvl, ok := ob.asks.Best(); ok {
		p := lvl.Price
		ask = &p
	}
	ob.cache.Update(bid, ask)
}

// BestBid returns the current best bid, preferring the lock-free cache
// and falling back to a SideIndex recompute on a cache miss.
func (ob *OrderBook) BestBid() (domain.Price, bool) {
	if p, ok := ob.cache.CachedBestBid(); ok {
		return p, true
	}
	return ob.recomputeBest(ob.bids)
}

// BestAsk is the ask-side counterpart of BestBid.
func (ob *OrderBook) BestAsk() (domain.Price, bool) {
	if p, ok := ob.cache.CachedBestAsk(); ok {
		return p, true
	}
	return ob.recomputeBest(ob.asks)
}

func (ob *OrderBook) recomputeBest(want *SideIndex) (domain.Price, bool) {
	ob.refreshCache()
	lvl, ok := want.Best()
	if !ok {
		return domain.ZeroPrice, false
	}
	return lvl.Price, true
}

// CacheSnapshot renders the Best-Price Cache's raw state.
func (ob *OrderBook) CacheSnapshot() CacheSnapshot {
	return ob.cache.Snapshot()
}

// Depth returns up to maxLevels price/visible-quantity pairs for side,
// best price first. It is a read-only diagnostic query, not part of the
// core matching path.
func (ob *OrderBook) Depth(side domain.Side, maxLevels int) []DepthLevel {
	levels := ob.sideIndexFor(side).Levels()
	if maxLevels > 0 && maxLevels < len(levels) {
		levels = levels[:maxLevels]
	}
	out := make([]DepthLevel, 0, len(levels))
	for _, lvl := range levels {
		out = append(out, DepthLevel{Price: lvl.Price, VisibleQuantity: lvl.VisibleQuantity(), OrderCount: lvl.Len()})
	}
	return out
}

// DepthLevel is one row of a Depth snapshot.
type DepthLevel struct {
	Price           domain.Price
	VisibleQuantity uint64
	OrderCount      int
}
