package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/repository"
)

type mockProductRepo struct{ mock.Mock }

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*domain.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockInventoryRepo struct{ mock.Mock }

func (m *mockInventoryRepo) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	args := m.Called(ctx, id)
	if i := args.Get(0); i != nil {
		return i.(*domain.InventoryItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInventoryRepo) GetByProduct(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	args := m.Called(ctx, productID)
	if i := args.Get(0); i != nil {
		return i.(*domain.InventoryItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockInventoryRepo) AdjustStock(ctx context.Context, itemID string, quantity int, kind, reason string) (*domain.InventoryItem, *domain.StockMovement, error) {
	args := m.Called(ctx, itemID, quantity, kind, reason)
	var item *domain.InventoryItem
	var movement *domain.StockMovement
	if v := args.Get(0); v != nil {
		item = v.(*domain.InventoryItem)
	}
	if v := args.Get(1); v != nil {
		movement = v.(*domain.StockMovement)
	}
	return item, movement, args.Error(2)
}

func (m *mockInventoryRepo) ListLowStock(ctx context.Context, page, perPage int) ([]domain.InventoryItem, int, error) {
	args := m.Called(ctx, page, perPage)
	var items []domain.InventoryItem
	if v := args.Get(0); v != nil {
		items = v.([]domain.InventoryItem)
	}
	return items, args.Int(1), args.Error(2)
}

type mockDiscountRepo struct{ mock.Mock }

func (m *mockDiscountRepo) GetByID(ctx context.Context, id string) (*domain.Discount, error) {
	args := m.Called(ctx, id)
	if d := args.Get(0); d != nil {
		return d.(*domain.Discount), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDiscountRepo) IncrementUsage(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockOrderRepo struct{ mock.Mock }

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*domain.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	var orders []domain.Order
	if v := args.Get(0); v != nil {
		orders = v.([]domain.Order)
	}
	return orders, args.Int(1), args.Error(2)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	return m.Called(ctx, id, from, to).Error(0)
}

func (m *mockOrderRepo) NextNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockOrderRepo) DailyDemand(ctx context.Context, productID string, from, to time.Time) ([]domain.DailyDemand, error) {
	args := m.Called(ctx, productID, from, to)
	var series []domain.DailyDemand
	if v := args.Get(0); v != nil {
		series = v.([]domain.DailyDemand)
	}
	return series, args.Error(1)
}

func (m *mockOrderRepo) SalesByProduct(ctx context.Context, from, to time.Time) ([]domain.ProductSales, error) {
	args := m.Called(ctx, from, to)
	var sales []domain.ProductSales
	if v := args.Get(0); v != nil {
		sales = v.([]domain.ProductSales)
	}
	return sales, args.Error(1)
}
