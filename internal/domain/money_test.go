package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentOf(t *testing.T) {
	assert.Equal(t, int64(850), PercentOf(8500, 10))
	assert.Equal(t, int64(0), PercentOf(0, 10))
	assert.Equal(t, int64(8500), PercentOf(8500, 100))
	// 33 * 15% = 4.95, rounds up
	assert.Equal(t, int64(5), PercentOf(33, 15))
	// 30 * 15% = 4.5, half rounds up
	assert.Equal(t, int64(5), PercentOf(30, 15))
}

func TestTaxFor(t *testing.T) {
	// 76.50 at 16% = 12.24
	assert.Equal(t, int64(1224), TaxFor(7650, 1600))
	assert.Equal(t, int64(0), TaxFor(0, 1600))
	assert.Equal(t, int64(0), TaxFor(7650, 0))
}

// Reproduces the reference order: 25.00×2 + 35.00×1 = 85.00 subtotal, 10%
// discount, 16% tax → 88.74 total.
func TestPricingExample(t *testing.T) {
	subtotal := int64(2500*2 + 3500*1)
	assert.Equal(t, int64(8500), subtotal)

	discount := (&Discount{Kind: DiscountPercentage, Value: 10}).AmountFor(subtotal)
	assert.Equal(t, int64(850), discount)

	discounted := subtotal - discount
	assert.Equal(t, int64(7650), discounted)

	tax := TaxFor(discounted, 1600)
	assert.Equal(t, int64(1224), tax)

	assert.Equal(t, int64(8874), discounted+tax)
}
