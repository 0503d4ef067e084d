// Package domain holds the value types the matching core is built from:
// prices, quantities, identifiers, orders, fills, errors and the small
// STP contract. Nothing in this package holds a lock or a goroutine; all
// shared mutable state lives in package orderbook.
package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Price is a 128-bit unsigned fixed-point value, stored as two 64-bit
// halves. The zero value is the cache's "no price" sentinel; resting
// orders must never carry it (see ErrInvalidInput).
type Price struct {
	Hi uint64
	Lo uint64
}

// ZeroPrice is the sentinel "no price" value.
var ZeroPrice = Price{}

// PriceFromUint64 builds a Price from a plain 64-bit magnitude, the case
// every book-level test in this module exercises.
func PriceFromUint64(v uint64) Price {
	return Price{Lo: v}
}

// IsZero reports whether p is the sentinel zero price.
func (p Price) IsZero() bool {
	return p.Hi == 0 && p.Lo == 0
}

// Cmp returns -1, 0 or 1 as p is less than, equal to, or greater than o,
// treating (Hi, Lo) as a big-endian 128-bit unsigned integer.
func (p Price) Cmp(o Price) int {
	if p.Hi != o.Hi {
		if p.Hi < o.Hi {
			return -1
		}
		return 1
	}
	if p.Lo != o.Lo {
		if p.Lo < o.Lo {
			return -1
		}
		return 1
	}
	return 0
}

// LessThan reports whether p < o.
func (p Price) LessThan(o Price) bool { return p.Cmp(o) < 0 }

// GreaterThan reports whether p > o.
func (p Price) GreaterThan(o Price) bool { return p.Cmp(o) > 0 }

// Decimal renders p as a shopspring/decimal value scaled by 10^-scale,
// for human-readable snapshots and logs. It performs no arithmetic on the
// book's hot path; scale is supplied by the caller (the core is agnostic
// to how many fractional digits an instrument quotes).
func (p Price) Decimal(scale int32) decimal.Decimal {
	if p.Hi == 0 && p.Lo>>63 == 0 {
		return decimal.New(int64(p.Lo), -scale)
	}
	// Magnitude does not fit in an int64 (never the case for any price an
	// instrument actually quotes, but Price is defined as a full 128-bit
	// word, so render it faithfully instead of truncating).
	mag := new(big.Int).Lsh(new(big.Int).SetUint64(p.Hi), 64)
	mag.Or(mag, new(big.Int).SetUint64(p.Lo))
	return decimal.NewFromBigInt(mag, -scale)
}

func (p Price) String() string {
	return p.Decimal(0).String()
}
