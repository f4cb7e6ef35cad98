package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tavolo/fulfillment/internal/domain"
)

func TestClassifyPartitionsByRevenue(t *testing.T) {
	repo := &mockOrderRepo{}
	classifier := NewABCClassifier(repo, disabledCache())

	repo.On("SalesByProduct", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.ProductSales{
			{ProductID: "p1", UnitsSold: 100, Revenue: 50000},
			{ProductID: "p2", UnitsSold: 60, Revenue: 30000},
			{ProductID: "p3", UnitsSold: 30, Revenue: 15000},
			{ProductID: "p4", UnitsSold: 10, Revenue: 5000},
		}, nil)

	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 30)

	tiers, err := classifier.Classify(context.Background(), from, to)

	require.NoError(t, err)
	require.Len(t, tiers, 4)

	// Cumulative shares: 50%, 80%, 95%, 100%.
	assert.Equal(t, domain.TierA, tiers[0].Tier)
	assert.Equal(t, domain.TierA, tiers[1].Tier)
	assert.Equal(t, domain.TierB, tiers[2].Tier)
	assert.Equal(t, domain.TierC, tiers[3].Tier)

	assert.InDelta(t, 50.0, tiers[0].CumulativePct, 1e-9)
	assert.InDelta(t, 80.0, tiers[1].CumulativePct, 1e-9)
	assert.InDelta(t, 95.0, tiers[2].CumulativePct, 1e-9)
	assert.InDelta(t, 100.0, tiers[3].CumulativePct, 1e-9)
}

// A lone product carries 100% of revenue, which falls in the (95,100] range.
func TestClassifySingleProductLandsInTierC(t *testing.T) {
	repo := &mockOrderRepo{}
	classifier := NewABCClassifier(repo, disabledCache())

	repo.On("SalesByProduct", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.ProductSales{
			{ProductID: "p1", UnitsSold: 5, Revenue: 1000},
		}, nil)

	tiers, err := classifier.Classify(context.Background(), time.Now().AddDate(0, 0, -30), time.Now())

	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, domain.TierC, tiers[0].Tier)
	assert.InDelta(t, 100.0, tiers[0].CumulativePct, 1e-9)
}

func TestClassifyNoSales(t *testing.T) {
	repo := &mockOrderRepo{}
	classifier := NewABCClassifier(repo, disabledCache())

	repo.On("SalesByProduct", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil)

	tiers, err := classifier.Classify(context.Background(), time.Now().AddDate(0, 0, -30), time.Now())

	require.NoError(t, err)
	assert.Empty(t, tiers)
}
