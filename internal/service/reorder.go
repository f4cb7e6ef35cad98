package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tavolo/fulfillment/internal/cache"
	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/repository"
)

// Conservative fallbacks when an item's product has no sales history.
const (
	fallbackMeanDemand = 1.0
	fallbackStdDev     = 0.5
)

// zTable maps supported service levels to one-sided normal critical values.
// Requested levels between entries round up to the next supported level;
// levels above the highest entry clamp to it.
var zTable = map[float64]float64{
	0.80: 0.842,
	0.85: 1.036,
	0.90: 1.282,
	0.95: 1.645,
	0.99: 2.326,
}

// zFor returns the critical value for the requested service level.
func zFor(serviceLevel float64) (float64, float64) {
	levels := make([]float64, 0, len(zTable))
	for l := range zTable {
		levels = append(levels, l)
	}
	sort.Float64s(levels)

	for _, l := range levels {
		if serviceLevel <= l {
			return l, zTable[l]
		}
	}
	top := levels[len(levels)-1]
	return top, zTable[top]
}

// ReorderCalculator produces (s, Q) continuous-review replenishment
// recommendations per inventory item from delivered-order history.
type ReorderCalculator struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	cache     *cache.Cache

	windowDays          int
	leadTimeDays        int
	costFactor          float64
	defaultServiceLevel float64
	now                 func() time.Time
}

// NewReorderCalculator creates a reorder point calculator. windowDays is the
// demand-statistics window, leadTimeDays the assumed replenishment lead time,
// and costFactor a stand-in for the ordering-cost/holding-cost ratio.
func NewReorderCalculator(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	c *cache.Cache,
	windowDays, leadTimeDays int,
	costFactor, defaultServiceLevel float64,
) *ReorderCalculator {
	return &ReorderCalculator{
		orders:              orders,
		inventory:           inventory,
		cache:               c,
		windowDays:          windowDays,
		leadTimeDays:        leadTimeDays,
		costFactor:          costFactor,
		defaultServiceLevel: defaultServiceLevel,
		now:                 time.Now,
	}
}

// Compute derives the reorder threshold s and reorder quantity Q for an
// inventory item. A serviceLevel of 0 uses the configured default. Missing
// history degrades to conservative fallback statistics, never an error.
func (c *ReorderCalculator) Compute(ctx context.Context, itemID string, serviceLevel float64) (*domain.ReorderPoint, error) {
	if serviceLevel <= 0 {
		serviceLevel = c.defaultServiceLevel
	}

	item, err := c.inventory.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	effectiveLevel, z := zFor(serviceLevel)

	key := fmt.Sprintf("reorder:%s:%.2f", itemID, effectiveLevel)
	var cached domain.ReorderPoint
	if err := c.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	to := c.now().UTC()
	from := to.AddDate(0, 0, -c.windowDays)

	series, err := c.orders.DailyDemand(ctx, item.ProductID, from, to)
	if err != nil {
		return nil, err
	}

	meanDemand := fallbackMeanDemand
	stdDev := fallbackStdDev
	if len(series) > 0 {
		values := make([]float64, len(series))
		for i, d := range series {
			values[i] = float64(d.Quantity)
		}
		meanDemand = mean(values)
		stdDev = popStdDev(values)
	}

	lead := float64(c.leadTimeDays)
	s := math.Ceil(meanDemand*lead + z*stdDev*math.Sqrt(lead))
	q := math.Ceil(math.Sqrt(2 * meanDemand * lead * c.costFactor))

	point := &domain.ReorderPoint{
		InventoryItemID: item.ID,
		ProductID:       item.ProductID,
		ReorderLevel:    int(s),
		ReorderQuantity: int(q),
		ServiceLevel:    effectiveLevel,
		LeadTimeDays:    c.leadTimeDays,
		MeanDemand:      meanDemand,
		StdDevDemand:    stdDev,
		ComputedAt:      to,
	}

	_ = c.cache.Set(ctx, key, point)
	return point, nil
}
