package service

import (
	"context"
	"time"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/repository"
)

// DiscountEvaluator resolves a discount and applies it to an order subtotal.
type DiscountEvaluator struct {
	discounts repository.DiscountRepository
	now       func() time.Time
}

// NewDiscountEvaluator creates a discount evaluator.
func NewDiscountEvaluator(discounts repository.DiscountRepository) *DiscountEvaluator {
	return &DiscountEvaluator{
		discounts: discounts,
		now:       time.Now,
	}
}

// Applied is the result of evaluating a discount against a subtotal.
type Applied struct {
	Discount      *domain.Discount
	Amount        int64 // clamped so the discounted subtotal is never negative
	SubtotalAfter int64
}

// Apply resolves the discount, checks its eligibility against the current
// time and the order's item count, and computes the clamped discount amount.
// It does not record usage; callers increment the counter once the order
// actually commits.
func (e *DiscountEvaluator) Apply(ctx context.Context, discountID string, subtotal int64, itemCount int) (*Applied, error) {
	discount, err := e.discounts.GetByID(ctx, discountID)
	if err != nil {
		return nil, err
	}

	if err := discount.Eligibility(e.now(), itemCount); err != nil {
		return nil, err
	}

	amount := discount.AmountFor(subtotal)

	return &Applied{
		Discount:      discount,
		Amount:        amount,
		SubtotalAfter: subtotal - amount,
	}, nil
}

// RecordUsage bumps the discount's applied counter.
func (e *DiscountEvaluator) RecordUsage(ctx context.Context, discountID string) error {
	return e.discounts.IncrementUsage(ctx, discountID)
}
