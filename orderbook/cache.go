package orderbook

import (
	"sync/atomic"

	"ironbook/domain"
)

// maxCacheRetries bounds the seqlock retry loop. Readers tolerate "none
// under contention, recompute", so giving up after a bounded number of
// retries and asking the caller to fall back to the SideIndex is
// correct, not just an optimization.
const maxCacheRetries = 64

// BestPriceCache is a lock-free best-bid/best-ask cache built on a
// seqlock. Go has no native 128-bit atomic, so each price is stored as
// two atomic.Uint64 halves guarded by a sequence counter: writers bump
// the sequence to odd before storing and back to even after, readers
// retry whenever they observe an odd or changing sequence.
type BestPriceCache struct {
	seq atomic.Uint64

	bidHi atomic.Uint64
	bidLo atomic.Uint64
	askHi atomic.Uint64
	askLo atomic.Uint64

	valid atomic.Bool
}

// NewBestPriceCache returns an invalid (unset) cache.
func NewBestPriceCache() *BestPriceCache {
	return &BestPriceCache{}
}

// Invalidate marks the cache stale. Called by every mutation that could
// change either side's best.
func (c *BestPriceCache) Invalidate() {
	c.valid.Store(false)
}

// Valid reports whether the cache currently holds a trustworthy value.
func (c *BestPriceCache) Valid() bool {
	return c.valid.Load()
}

// Update stores the given bests (nil meaning "that side is empty",
// which is stored as the zero price sentinel) and marks the cache
// valid. The price words are written inside the sequence bracket so
// readers never observe a torn pair of halves.
func (c *BestPriceCache) Update(bestBid, bestAsk *domain.Price) {
	c.seq.Add(1) // now odd: write in progress

	bid := domain.ZeroPrice
	if bestBid != nil {
		bid = *bestBid
	}
	ask := domain.ZeroPrice
	if bestAsk != nil {
		ask = *bestAsk
	}
	c.bidHi.Store(bid.Hi)
	c.bidLo.Store(bid.Lo)
	c.askHi.Store(ask.Hi)
	c.askLo.Store(ask.Lo)

	c.seq.Add(1) // now even: write complete
	c.valid.Store(true)
}

// CachedBestBid returns (price, true) iff the cache is valid and the
// stored bid is non-zero; it returns (_, false) otherwise, including
// under sustained write contention, in which case the caller must
// recompute from the SideIndex and call Update.
func (c *BestPriceCache) CachedBestBid() (domain.Price, bool) {
	return c.readSide(&c.bidHi, &c.bidLo)
}

// CachedBestAsk is the ask-side counterpart of CachedBestBid.
func (c *BestPriceCache) CachedBestAsk() (domain.Price, bool) {
	return c.readSide(&c.askHi, &c.askLo)
}

func (c *BestPriceCache) readSide(hiWord, loWord *atomic.Uint64) (domain.Price, bool) {
	if !c.valid.Load() {
		return domain.ZeroPrice, false
	}
	for i := 0; i < maxCacheRetries; i++ {
		s1 := c.seq.Load()
		if s1&1 == 1 {
			continue // writer in flight
		}
		hi := hiWord.Load()
		lo := loWord.Load()
		s2 := c.seq.Load()
		if s1 != s2 {
			continue // torn read, retry
		}
		p := domain.Price{Hi: hi, Lo: lo}
		if p.IsZero() {
			return domain.ZeroPrice, false
		}
		return p, true
	}
	return domain.ZeroPrice, false
}

// CacheSnapshot is a serialized view of the Best-Price Cache, dumping
// the raw stored words regardless of validity, with CacheValid telling
// the reader whether to trust them.
type CacheSnapshot struct {
	BestBidPrice domain.Price `json:"best_bid_price"`
	BestAskPrice domain.Price `json:"best_ask_price"`
	CacheValid   bool         `json:"cache_valid"`
}

// Snapshot renders the cache's raw state for observability/debugging. It
// performs no retries; a snapshot taken mid-write may show a torn pair,
// which is acceptable here since Snapshot is diagnostic, not a read path
// any matching or cancel operation depends on.
func (c *BestPriceCache) Snapshot() CacheSnapshot {
	return CacheSnapshot{
		BestBidPrice: domain.Price{Hi: c.bidHi.Load(), Lo: c.bidLo.Load()},
		BestAskPrice: domain.Price{Hi: c.askHi.Load(), Lo: c.askLo.Load()},
		CacheValid:   c.valid.Load(),
	}
}
