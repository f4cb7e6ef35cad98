package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tavolo/fulfillment/internal/cache"
	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/repository"
)

// Cumulative-revenue tier boundaries, in percent.
const (
	tierACutoff = 80.0
	tierBCutoff = 95.0
)

// ABCClassifier partitions products into revenue-contribution tiers over an
// analysis period. Products with no delivered sales in the period are absent
// from the result, not tier C.
type ABCClassifier struct {
	orders repository.OrderRepository
	cache  *cache.Cache
}

// NewABCClassifier creates an ABC classifier.
func NewABCClassifier(orders repository.OrderRepository, c *cache.Cache) *ABCClassifier {
	return &ABCClassifier{orders: orders, cache: c}
}

// Classify ranks products sold in delivered orders within [from, to) by
// revenue and walks the ranking accumulating revenue share: tier A while the
// cumulative share is at or under 80%, tier B at or under 95%, tier C beyond.
func (c *ABCClassifier) Classify(ctx context.Context, from, to time.Time) ([]domain.ABCClassification, error) {
	key := fmt.Sprintf("abc:%s:%s", from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	var cached []domain.ABCClassification
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	sales, err := c.orders.SalesByProduct(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, s := range sales {
		total += s.Revenue
	}
	if total == 0 {
		return []domain.ABCClassification{}, nil
	}

	result := make([]domain.ABCClassification, 0, len(sales))
	var cumulative int64
	for _, s := range sales {
		cumulative += s.Revenue
		pct := float64(cumulative) / float64(total) * 100

		tier := domain.TierC
		switch {
		case pct <= tierACutoff:
			tier = domain.TierA
		case pct <= tierBCutoff:
			tier = domain.TierB
		}

		result = append(result, domain.ABCClassification{
			ProductID:     s.ProductID,
			Tier:          tier,
			CumulativePct: pct,
			Revenue:       s.Revenue,
			UnitsSold:     s.UnitsSold,
		})
	}

	_ = c.cache.Set(ctx, key, result)
	return result, nil
}
