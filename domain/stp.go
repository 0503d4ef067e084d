package domain

// STPMode is an opaque self-trade-prevention mode selector. The core
// does not interpret its value beyond passing it to an STPFunc; concrete
// modes and their meaning are an external policy concern.
type STPMode int

// STPModeNone is the default mode. It is passed to the STPFunc like any
// other mode; with DefaultSTPFunc every match is allowed.
const STPModeNone STPMode = 0

// STPVerdict is the outcome of evaluating an STP policy against a
// candidate maker/taker pair that share a user.
type STPVerdict int

const (
	// STPAllow lets the match proceed normally.
	STPAllow STPVerdict = iota
	// STPSkipMaker skips this maker and continues matching against the
	// next one, leaving the maker resting.
	STPSkipMaker
	// STPCancelMaker cancels the maker order and continues matching.
	STPCancelMaker
	// STPCancelTaker cancels the remainder of the taker order, stopping
	// the match loop.
	STPCancelTaker
	// STPCancelBoth cancels both the maker and the remainder of the
	// taker.
	STPCancelBoth
)

// STPFunc decides what happens when a prospective fill's maker and taker
// share a user. It is pure and externally supplied; the core only calls
// it and applies the verdict.
type STPFunc func(mode STPMode, maker, taker UserID) STPVerdict

// DefaultSTPFunc always allows the match. It is the default used by a
// freshly constructed OrderBook (mode STPModeNone): the core carries no
// opinion about self-trade policy on its own.
func DefaultSTPFunc(STPMode, UserID, UserID) STPVerdict {
	return STPAllow
}
