package orderbook

import "sync/atomic"

// sequencer hands out monotonically increasing arrival sequence numbers.
// Arrival sequence is a pure ordering key, never displayed, so a bare
// atomic counter is enough: the book bumps it on acceptance, not on
// submission attempt, so callers must only invoke next() once an order
// is actually committed.
type sequencer struct {
	counter atomic.Uint64
}

func (s *sequencer) next() uint64 {
	return s.counter.Add(1)
}
