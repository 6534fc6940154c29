package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSequentialGenerator(t *testing.T) {
	g := NewSequentialGenerator("tx")
	assert.Equal(t, "tx-1", g.NewID())
	assert.Equal(t, "tx-2", g.NewID())
}

func TestUUIDGenerator_Unique(t *testing.T) {
	g := NewUUIDGenerator()
	a, b := g.NewID(), g.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestSKUFromID(t *testing.T) {
	assert.Equal(t, "SKU-3F2A9C1B", SKUFromID("3f2a9c1b-77aa-4c1e-9d3e-0a0b0c0d0e0f"))
	assert.Equal(t, "SKU-P1", SKUFromID("p-1"))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "150.00 USD", FormatMoney(decimal.NewFromInt(150), "USD"))
	assert.Equal(t, "12.35", FormatMoney(decimal.RequireFromString("12.3456"), ""))
	assert.Equal(t, "-3.50 EUR", FormatMoney(decimal.RequireFromString("-3.5"), "EUR"))
}
