package orderbook

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ironbook/domain"
)

func TestSideIndexBestOrderingBids(t *testing.T) {
	si := newSideIndex(domain.Buy)
	for _, p := range []uint64{90, 100, 95} {
		lvl, _ := si.GetOrCreate(domain.PriceFromUint64(p))
		lvl.PushBack(mkOrder(1))
	}

	best, ok := si.Best()
	require.True(t, ok)
	require.Equal(t, domain.PriceFromUint64(100), best.Price)
}

func TestSideIndexBestOrderingAsks(t *testing.T) {
	si := newSideIndex(domain.Sell)
	for _, p := range []uint64{120, 110, 115} {
		lvl, _ := si.GetOrCreate(domain.PriceFromUint64(p))
		lvl.PushBack(mkOrder(1))
	}

	best, ok := si.Best()
	require.True(t, ok)
	require.Equal(t, domain.PriceFromUint64(110), best.Price)
}

func TestSideIndexEmptyHasNoBest(t *testing.T) {
	si := newSideIndex(domain.Buy)
	_, ok := si.Best()
	require.False(t, ok, "expected no best price on an empty side")
}

func TestSideIndexRemoveIfEmptyPrunes(t *testing.T) {
	si := newSideIndex(domain.Buy)
	price := domain.PriceFromUint64(100)
	lvl, created := si.GetOrCreate(price)
	require.True(t, created, "expected GetOrCreate to report creation")
	o := mkOrder(10)
	lvl.PushBack(o)

	lvl.Remove(o.ID)
	si.RemoveIfEmpty(price)

	require.Equal(t, 0, si.Size())
	_, ok := si.Get(price)
	require.False(t, ok, "expected Get() to miss a pruned price")
}

func TestSideIndexRemoveIfEmptyKeepsNonEmptyLevel(t *testing.T) {
	si := newSideIndex(domain.Buy)
	price := domain.PriceFromUint64(100)
	lvl, _ := si.GetOrCreate(price)
	lvl.PushBack(mkOrder(10))

	si.RemoveIfEmpty(price)

	require.Equal(t, 1, si.Size(), "non-empty level should survive")
}

func TestSideIndexRangeInclusive(t *testing.T) {
	si := newSideIndex(domain.Buy)
	for _, p := range []uint64{100, 200, 300} {
		lvl, _ := si.GetOrCreate(domain.PriceFromUint64(p))
		lvl.PushBack(mkOrder(1))
	}

	levels := si.Range(domain.PriceFromUint64(100), domain.PriceFromUint64(200))
	require.Len(t, levels, 2)
}

func TestSideIndexRangeInvertedIsEmpty(t *testing.T) {
	si := newSideIndex(domain.Buy)
	lvl, _ := si.GetOrCreate(domain.PriceFromUint64(100))
	lvl.PushBack(mkOrder(1))

	levels := si.Range(domain.PriceFromUint64(200), domain.PriceFromUint64(100))
	require.Empty(t, levels, "inverted range should return no levels")
}

func TestSideIndexDrainAll(t *testing.T) {
	si := newSideIndex(domain.Buy)
	for _, p := range []uint64{100, 200} {
		lvl, _ := si.GetOrCreate(domain.PriceFromUint64(p))
		lvl.PushBack(mkOrder(10))
		lvl.PushBack(mkOrder(20))
	}

	drained := si.DrainAll()
	require.Len(t, drained, 4)
	require.Equal(t, 0, si.Size(), "expected empty tree after DrainAll()")
}

func TestSideIndexDrainRange(t *testing.T) {
	si := newSideIndex(domain.Buy)
	for _, p := range []uint64{100, 200, 300} {
		lvl, _ := si.GetOrCreate(domain.PriceFromUint64(p))
		lvl.PushBack(mkOrder(1))
	}

	drained := si.DrainRange(domain.PriceFromUint64(100), domain.PriceFromUint64(200))
	require.Len(t, drained, 2)
	require.Equal(t, 1, si.Size(), "expected one level left")

	_, ok := si.Get(domain.PriceFromUint64(300))
	require.True(t, ok, "expected price 300 to survive the drain")
}
