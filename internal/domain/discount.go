package domain

import "time"

// Discount kind constants.
const (
	DiscountPercentage  = "percentage"
	DiscountFixedAmount = "fixed_amount"
)

// Discount represents a promotional rule applied to an order subtotal.
// Percentage values are whole percents in (0,100]; fixed amounts are cents.
type Discount struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Kind       string     `json:"kind"`
	Value      int64      `json:"value"`
	Active     bool       `json:"active"`
	StartsAt   *time.Time `json:"starts_at,omitempty"`
	EndsAt     *time.Time `json:"ends_at,omitempty"`
	MinItems   int        `json:"min_items,omitempty"`
	UsageCount int        `json:"usage_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ValidDiscountKinds returns the set of valid discount kinds.
func ValidDiscountKinds() []string {
	return []string{DiscountPercentage, DiscountFixedAmount}
}

// IsValidDiscountKind checks whether the given kind is a valid discount kind.
func IsValidDiscountKind(kind string) bool {
	for _, k := range ValidDiscountKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// Eligibility checks the discount against its activation flag, validity
// window, and minimum item count. Returns nil when the discount applies.
func (d *Discount) Eligibility(now time.Time, itemCount int) error {
	if !d.Active {
		return ErrDiscountInactive
	}
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return ErrDiscountNotYetStarted
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return ErrDiscountExpired
	}
	if d.MinItems > 0 && itemCount < d.MinItems {
		return ErrDiscountNotEligible
	}
	return nil
}

// AmountFor computes the discount amount for the given subtotal, clamped so
// the discounted subtotal can never go negative.
func (d *Discount) AmountFor(subtotal int64) int64 {
	var raw int64
	switch d.Kind {
	case DiscountPercentage:
		raw = PercentOf(subtotal, d.Value)
	case DiscountFixedAmount:
		raw = d.Value
	}
	if raw > subtotal {
		return subtotal
	}
	if raw < 0 {
		return 0
	}
	return raw
}
