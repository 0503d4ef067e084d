package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMassCancelResultIsEmpty(t *testing.T) {
	var empty MassCancelResult
	assert.True(t, empty.IsEmpty())

	nonEmpty := MassCancelResult{CancelledOrderIDs: []OrderID{NewOrderID()}, Count: 1}
	assert.False(t, nonEmpty.IsEmpty())
}

func TestMassCancelResultString(t *testing.T) {
	r := MassCancelResult{Count: 3}
	assert.NotEmpty(t, r.String())
}
