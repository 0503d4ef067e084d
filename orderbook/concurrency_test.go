package orderbook

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ironbook/domain"
)

// waitForCondition polls condition until it is true or timeout elapses.
func waitForCondition(condition func() bool, timeout, checkInterval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(checkInterval)
	}
	return condition()
}

// TestConcurrentWritersWithPeriodicCancelAll exercises the concurrency
// property: N writer goroutines each submitting M orders concurrently
// with one goroutine issuing cancel_all_orders, and at quiescence the
// Directory, User Index and SideIndex must be mutually consistent and
// bests must match a full scan. Every writer calls the book directly;
// there is no single owning goroutine serializing access.
func TestConcurrentWritersWithPeriodicCancelAll(t *testing.T) {
	const writers = 8
	const perWriter = 200

	ob := New("BTCUSD")
	var submitted atomic.Int64
	var wg sync.WaitGroup

	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(2 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ob.CancelAllOrders()
			}
		}
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			side := domain.Buy
			if w%2 == 0 {
				side = domain.Sell
			}
			for i := 0; i < perWriter; i++ {
				price := domain.PriceFromUint64(uint64(100 + i%10))
				id := domain.NewOrderID()
				if _, err := ob.AddLimitOrder(id, price, 1, side, domain.GTC, time.Time{}); err != nil {
					// duplicate ids and races against cancel_all are not
					// errors here: NewOrderID is unique, so only
					// transient InvalidInput/DuplicateOrderID from book
					// state would fail, and neither is expected.
					assert.NoErrorf(t, err, "writer %d: unexpected AddLimitOrder error", w)
					return
				}
				submitted.Add(1)
			}
		}(w)
	}

	ok := waitForCondition(func() bool {
		return submitted.Load() == writers*perWriter
	}, 10*time.Second, 5*time.Millisecond)
	close(stop)
	wg.Wait()

	require.Truef(t, ok, "writers did not finish submitting: %d/%d", submitted.Load(), writers*perWriter)

	ob.CancelAllOrders()
	assertBookConsistent(t, ob)
}

// assertBookConsistent re-derives bests from a full scan of both
// SideIndices and checks them against BestBid/BestAsk, and checks that
// the Directory's size matches the total number of resting orders
// reachable from both SideIndices.
func assertBookConsistent(t *testing.T, ob *OrderBook) {
	t.Helper()

	bidLevels := ob.bids.Levels()
	askLevels := ob.asks.Levels()

	total := 0
	for _, lvl := range bidLevels {
		assert.False(t, lvl.Empty(), "found an empty bid PriceLevel still reachable from the SideIndex")
		total += lvl.Len()
	}
	for _, lvl := range askLevels {
		assert.False(t, lvl.Empty(), "found an empty ask PriceLevel still reachable from the SideIndex")
		total += lvl.Len()
	}

	assert.Equal(t, total, ob.dir.size(), "Directory size does not match total resting orders")

	if len(bidLevels) > 0 {
		want := bidLevels[0].Price
		got, ok := ob.BestBid()
		assert.True(t, ok)
		assert.Equal(t, want, got, "BestBid() mismatch against full scan")
	} else {
		_, ok := ob.BestBid()
		assert.False(t, ok, "BestBid() reported a price on an empty bid side")
	}

	if len(askLevels) > 0 {
		want := askLevels[0].Price
		got, ok := ob.BestAsk()
		assert.True(t, ok)
		assert.Equal(t, want, got, "BestAsk() mismatch against full scan")
	} else {
		_, ok := ob.BestAsk()
		assert.False(t, ok, "BestAsk() reported a price on an empty ask side")
	}
}
