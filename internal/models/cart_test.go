package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCart_TotalIsSumOfSubtotals(t *testing.T) {
	lines := []CartLine{
		{ProductID: "a", Quantity: 2, UnitPrice: decimal.NewFromInt(100)},
		{ProductID: "b", Quantity: 1, UnitPrice: decimal.RequireFromString("50.50")},
	}
	for i := range lines {
		lines[i].Recompute()
	}
	cart := Cart{Lines: lines}

	assert.True(t, decimal.NewFromInt(200).Equal(lines[0].Subtotal))
	assert.True(t, decimal.RequireFromString("250.50").Equal(cart.Total()))
}

func TestCart_EmptyTotalIsZero(t *testing.T) {
	cart := Cart{}
	assert.True(t, cart.Total().IsZero())
}
