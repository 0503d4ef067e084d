package domain

import (
	"crypto/sha256"

	"github.com/google/uuid"
)

// OrderID is an opaque, globally unique 128-bit order identifier. It is
// UUID-shaped because uuid.UUID already is a [16]byte.
type OrderID [16]byte

// NilOrderID is the zero-value "absent" order id. The book rejects an
// order carrying it with ErrInvalidInput.
var NilOrderID OrderID

// NewOrderID returns a fresh random order id. Order id generation lives
// with the caller, not the book core — this constructor exists for
// callers and tests that need one, not for internal use.
func NewOrderID() OrderID {
	return OrderID(uuid.New())
}

// OrderIDFromName derives a deterministic order id from a label, for
// tests that want stable, readable ids across runs.
func OrderIDFromName(name string) OrderID {
	return OrderID(uuid.NewMD5(uuid.Nil, []byte(name)))
}

func (id OrderID) String() string {
	return uuid.UUID(id).String()
}

func (id OrderID) IsZero() bool {
	return id == NilOrderID
}

// UserID is an opaque 256-bit user identifier. Absence of a UserID on an
// order (a nil *UserID) means "anonymous" for STP and user-cancel
// purposes.
type UserID [32]byte

// UserIDFromString derives a deterministic UserID from a label. No
// 256-bit identifier type exists in the retrieved example corpus, so this
// one helper is built on the standard library (crypto/sha256) rather than
// a third-party id package — see DESIGN.md.
func UserIDFromString(s string) UserID {
	return UserID(sha256.Sum256([]byte(s)))
}

func (id UserID) String() string {
	var head [16]byte
	copy(head[:], id[:16])
	return uuid.UUID(head).String()
}
