package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiscountEligibility(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name      string
		discount  Discount
		itemCount int
		wantErr   error
	}{
		{
			name:     "active without window",
			discount: Discount{Active: true},
			wantErr:  nil,
		},
		{
			name:     "inactive",
			discount: Discount{Active: false},
			wantErr:  ErrDiscountInactive,
		},
		{
			name:     "not yet started",
			discount: Discount{Active: true, StartsAt: &future},
			wantErr:  ErrDiscountNotYetStarted,
		},
		{
			name:     "expired",
			discount: Discount{Active: true, EndsAt: &past},
			wantErr:  ErrDiscountExpired,
		},
		{
			name:      "within window",
			discount:  Discount{Active: true, StartsAt: &past, EndsAt: &future},
			itemCount: 1,
			wantErr:   nil,
		},
		{
			name:      "below minimum items",
			discount:  Discount{Active: true, MinItems: 3},
			itemCount: 2,
			wantErr:   ErrDiscountNotEligible,
		},
		{
			name:      "meets minimum items",
			discount:  Discount{Active: true, MinItems: 3},
			itemCount: 3,
			wantErr:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.discount.Eligibility(now, tt.itemCount)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDiscountAmountFor(t *testing.T) {
	tests := []struct {
		name     string
		discount Discount
		subtotal int64
		want     int64
	}{
		{"ten percent", Discount{Kind: DiscountPercentage, Value: 10}, 8500, 850},
		{"percentage rounds half up", Discount{Kind: DiscountPercentage, Value: 15}, 33, 5},
		{"fixed amount", Discount{Kind: DiscountFixedAmount, Value: 500}, 8500, 500},
		{"fixed clamped to subtotal", Discount{Kind: DiscountFixedAmount, Value: 10000}, 8500, 8500},
		{"hundred percent", Discount{Kind: DiscountPercentage, Value: 100}, 8500, 8500},
		{"zero subtotal", Discount{Kind: DiscountPercentage, Value: 10}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.discount.AmountFor(tt.subtotal)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, got, tt.subtotal)
		})
	}
}
