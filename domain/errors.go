package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the book's error taxonomy. It names a kind, not a
// Go type, so callers can branch on it with a single switch.
type ErrorKind int

const (
	InvalidInput ErrorKind = iota
	DuplicateOrderID
	NotFound
	WouldCross
	FOKUnfillable
	Expired
	Internal
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case DuplicateOrderID:
		return "duplicate_order_id"
	case NotFound:
		return "not_found"
	case WouldCross:
		return "would_cross"
	case FOKUnfillable:
		return "fok_unfillable"
	case Expired:
		return "expired"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// BookError is the error type every book operation returns. Kind is
// meant to be switched on; Err (when present) carries the underlying
// detail and participates in errors.Is/As via Unwrap.
type BookError struct {
	Kind ErrorKind
	Err  error
}

func (e *BookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *BookError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, domain.ErrNotFound) (or any of the sentinels
// below) match any BookError of the same Kind regardless of its wrapped
// detail.
func (e *BookError) Is(target error) bool {
	var other *BookError
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

func newErr(kind ErrorKind, format string, args ...any) *BookError {
	if format == "" {
		return &BookError{Kind: kind}
	}
	return &BookError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func NewInvalidInput(format string, args ...any) *BookError {
	return newErr(InvalidInput, format, args...)
}

func NewDuplicateOrderID(id OrderID) *BookError {
	return newErr(DuplicateOrderID, "order %s already resting", id)
}

func NewNotFound(id OrderID) *BookError {
	return newErr(NotFound, "order %s not found", id)
}

func NewWouldCross(id OrderID) *BookError {
	return newErr(WouldCross, "post-only order %s would cross the book", id)
}

func NewFOKUnfillable(id OrderID) *BookError {
	return newErr(FOKUnfillable, "fill-or-kill order %s could not be fully matched", id)
}

func NewExpired(id OrderID) *BookError {
	return newErr(Expired, "order %s expiry is in the past", id)
}

func NewInternal(format string, args ...any) *BookError {
	return newErr(Internal, format, args...)
}

// Sentinels for errors.Is comparisons that don't care about detail.
var (
	ErrInvalidInput     = &BookError{Kind: InvalidInput}
	ErrDuplicateOrderID = &BookError{Kind: DuplicateOrderID}
	ErrNotFound         = &BookError{Kind: NotFound}
	ErrWouldCross       = &BookError{Kind: WouldCross}
	ErrFOKUnfillable    = &BookError{Kind: FOKUnfillable}
	ErrExpired          = &BookError{Kind: Expired}
	ErrInternal         = &BookError{Kind: Internal}
)
