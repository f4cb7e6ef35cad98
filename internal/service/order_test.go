package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/event"
	apperrors "github.com/tavolo/fulfillment/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fulfillmentFixture struct {
	orders    *mockOrderRepo
	products  *mockProductRepo
	inventory *mockInventoryRepo
	discounts *mockDiscountRepo
	svc       *FulfillmentService
}

func newFulfillmentFixture() *fulfillmentFixture {
	f := &fulfillmentFixture{
		orders:    &mockOrderRepo{},
		products:  &mockProductRepo{},
		inventory: &mockInventoryRepo{},
		discounts: &mockDiscountRepo{},
	}
	f.svc = NewFulfillmentService(
		f.orders, f.products, f.inventory,
		NewDiscountEvaluator(f.discounts),
		event.NopPublisher{}, testLogger(), 1600,
	)
	return f
}

const (
	productCoffee = "11111111-1111-1111-1111-111111111111"
	productCake   = "22222222-2222-2222-2222-222222222222"
	discountTen   = "33333333-3333-3333-3333-333333333333"
	itemCoffee    = "44444444-4444-4444-4444-444444444444"
)

func TestCreateOrderPricesReferenceExample(t *testing.T) {
	f := newFulfillmentFixture()

	f.products.On("GetByID", mock.Anything, productCoffee).
		Return(&domain.Product{ID: productCoffee, Name: "Coffee", Price: 2500, Available: true}, nil)
	f.products.On("GetByID", mock.Anything, productCake).
		Return(&domain.Product{ID: productCake, Name: "Cake", Price: 3500, Available: true}, nil)
	f.inventory.On("GetByProduct", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrNotFound)
	f.discounts.On("GetByID", mock.Anything, discountTen).
		Return(&domain.Discount{ID: discountTen, Kind: domain.DiscountPercentage, Value: 10, Active: true}, nil)
	f.discounts.On("IncrementUsage", mock.Anything, discountTen).Return(nil)
	f.orders.On("NextNumber", mock.Anything).Return("ORD-000001", nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)

	discountID := discountTen
	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines: []CreateOrderLine{
			{ProductID: productCoffee, Quantity: 2},
			{ProductID: productCake, Quantity: 1},
		},
		DiscountID:    &discountID,
		PaymentMethod: domain.PaymentCard,
	})

	require.NoError(t, err)
	assert.Equal(t, "ORD-000001", order.Number)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, int64(8500), order.SubtotalAmount)
	assert.Equal(t, int64(850), order.DiscountAmount)
	assert.Equal(t, int64(1224), order.TaxAmount)
	assert.Equal(t, int64(8874), order.TotalAmount)

	// total == (subtotal − discount) + tax
	assert.Equal(t, order.SubtotalAmount-order.DiscountAmount+order.TaxAmount, order.TotalAmount)

	require.Len(t, order.Lines, 2)
	assert.Equal(t, "Coffee", order.Lines[0].ProductName)
	assert.Equal(t, int64(2500), order.Lines[0].UnitPrice)
	assert.Equal(t, int64(5000), order.Lines[0].Subtotal)

	f.discounts.AssertCalled(t, "IncrementUsage", mock.Anything, discountTen)
}

func TestCreateOrderEmptyLines(t *testing.T) {
	f := newFulfillmentFixture()

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		PaymentMethod: domain.PaymentCash,
	})

	assert.ErrorIs(t, err, domain.ErrEmptyOrder)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderInvalidQuantity(t *testing.T) {
	f := newFulfillmentFixture()

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines:         []CreateOrderLine{{ProductID: productCoffee, Quantity: 0}},
		PaymentMethod: domain.PaymentCash,
	})

	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestCreateOrderInvalidPaymentMethod(t *testing.T) {
	f := newFulfillmentFixture()

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines:         []CreateOrderLine{{ProductID: productCoffee, Quantity: 1}},
		PaymentMethod: "crypto",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateOrderProductUnavailable(t *testing.T) {
	f := newFulfillmentFixture()

	f.products.On("GetByID", mock.Anything, productCoffee).
		Return(&domain.Product{ID: productCoffee, Name: "Coffee", Price: 2500, Available: false}, nil)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines:         []CreateOrderLine{{ProductID: productCoffee, Quantity: 1}},
		PaymentMethod: domain.PaymentCash,
	})

	var unavailable *domain.ProductUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, productCoffee, unavailable.ProductID)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFulfillmentFixture()

	f.products.On("GetByID", mock.Anything, productCoffee).
		Return(&domain.Product{ID: productCoffee, Name: "Coffee", Price: 2500, Available: true}, nil)
	f.inventory.On("GetByProduct", mock.Anything, productCoffee).
		Return(&domain.InventoryItem{ID: itemCoffee, ProductID: productCoffee, Quantity: 1}, nil)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines:         []CreateOrderLine{{ProductID: productCoffee, Quantity: 2}},
		PaymentMethod: domain.PaymentCash,
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 2, insufficient.Requested)
	assert.Equal(t, 1, insufficient.Available)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrderWithoutDiscount(t *testing.T) {
	f := newFulfillmentFixture()

	f.products.On("GetByID", mock.Anything, productCoffee).
		Return(&domain.Product{ID: productCoffee, Name: "Coffee", Price: 2500, Available: true}, nil)
	f.inventory.On("GetByProduct", mock.Anything, productCoffee).
		Return(nil, apperrors.ErrNotFound)
	f.orders.On("NextNumber", mock.Anything).Return("ORD-000002", nil)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		Lines:         []CreateOrderLine{{ProductID: productCoffee, Quantity: 1}},
		PaymentMethod: domain.PaymentCash,
	})

	require.NoError(t, err)
	assert.Zero(t, order.DiscountAmount)
	assert.Nil(t, order.AppliedDiscountID)
	assert.Equal(t, int64(2500), order.SubtotalAmount)
	assert.Equal(t, int64(400), order.TaxAmount)
	assert.Equal(t, int64(2900), order.TotalAmount)
}

func TestAdvanceStatusRejectsSkippedState(t *testing.T) {
	f := newFulfillmentFixture()

	f.orders.On("GetByID", mock.Anything, "o1").
		Return(&domain.Order{ID: "o1", Status: domain.OrderStatusPending}, nil)

	_, err := f.svc.AdvanceStatus(context.Background(), "o1", domain.OrderStatusReady)

	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, domain.OrderStatusPending, invalid.From)
	assert.Equal(t, domain.OrderStatusReady, invalid.To)
	f.orders.AssertNotCalled(t, "UpdateStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceStatusDeliveryDeductsOnce(t *testing.T) {
	f := newFulfillmentFixture()

	order := &domain.Order{
		ID:     "o1",
		Number: "ORD-000007",
		Status: domain.OrderStatusReady,
		Lines: []domain.OrderLine{
			{ProductID: productCoffee, ProductName: "Coffee", Quantity: 2},
		},
	}
	item := &domain.InventoryItem{ID: itemCoffee, ProductID: productCoffee, Quantity: 5, MinimumQuantity: 1}

	f.orders.On("GetByID", mock.Anything, "o1").Return(order, nil)
	f.inventory.On("GetByProduct", mock.Anything, productCoffee).Return(item, nil)
	f.inventory.On("AdjustStock", mock.Anything, itemCoffee, 2, domain.MovementOut, "order ORD-000007 delivered").
		Return(&domain.InventoryItem{ID: itemCoffee, ProductID: productCoffee, Quantity: 3, MinimumQuantity: 1},
			&domain.StockMovement{Kind: domain.MovementOut, Quantity: 2}, nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusReady, domain.OrderStatusDelivered).
		Return(nil)

	updated, err := f.svc.AdvanceStatus(context.Background(), "o1", domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, updated.Status)

	f.inventory.AssertNumberOfCalls(t, "AdjustStock", 1)
	f.orders.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestAdvanceStatusDeliveredTwiceIsInvalid(t *testing.T) {
	f := newFulfillmentFixture()

	f.orders.On("GetByID", mock.Anything, "o1").
		Return(&domain.Order{ID: "o1", Status: domain.OrderStatusDelivered}, nil)

	_, err := f.svc.AdvanceStatus(context.Background(), "o1", domain.OrderStatusDelivered)

	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	f.inventory.AssertNotCalled(t, "AdjustStock",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceStatusDeliveryInsufficientStock(t *testing.T) {
	f := newFulfillmentFixture()

	order := &domain.Order{
		ID:     "o1",
		Number: "ORD-000008",
		Status: domain.OrderStatusReady,
		Lines: []domain.OrderLine{
			{ProductID: productCoffee, ProductName: "Coffee", Quantity: 3},
		},
	}

	f.orders.On("GetByID", mock.Anything, "o1").Return(order, nil)
	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusReady, domain.OrderStatusDelivered).
		Return(nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusDelivered, domain.OrderStatusReady).
		Return(nil).Once()
	f.inventory.On("GetByProduct", mock.Anything, productCoffee).
		Return(&domain.InventoryItem{ID: itemCoffee, ProductID: productCoffee, Quantity: 1}, nil)

	_, err := f.svc.AdvanceStatus(context.Background(), "o1", domain.OrderStatusDelivered)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 1, insufficient.Available)
	// The claimed status is released so a retry is possible.
	f.orders.AssertCalled(t, "UpdateStatus",
		mock.Anything, "o1", domain.OrderStatusDelivered, domain.OrderStatusReady)
	f.inventory.AssertNotCalled(t, "AdjustStock",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceStatusCompensatesPartialDeduction(t *testing.T) {
	f := newFulfillmentFixture()

	itemCake := "55555555-5555-5555-5555-555555555555"
	order := &domain.Order{
		ID:     "o1",
		Number: "ORD-000009",
		Status: domain.OrderStatusReady,
		Lines: []domain.OrderLine{
			{ProductID: productCoffee, ProductName: "Coffee", Quantity: 2},
			{ProductID: productCake, ProductName: "Cake", Quantity: 1},
		},
	}

	f.orders.On("GetByID", mock.Anything, "o1").Return(order, nil)
	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusReady, domain.OrderStatusDelivered).
		Return(nil).Once()
	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusDelivered, domain.OrderStatusReady).
		Return(nil).Once()
	f.inventory.On("GetByProduct", mock.Anything, productCoffee).
		Return(&domain.InventoryItem{ID: itemCoffee, ProductID: productCoffee, Quantity: 5}, nil)
	f.inventory.On("GetByProduct", mock.Anything, productCake).
		Return(&domain.InventoryItem{ID: itemCake, ProductID: productCake, Quantity: 1}, nil)

	// First deduction succeeds, second loses a race to a concurrent adjustment.
	f.inventory.On("AdjustStock", mock.Anything, itemCoffee, 2, domain.MovementOut, mock.Anything).
		Return(&domain.InventoryItem{ID: itemCoffee, Quantity: 3}, &domain.StockMovement{}, nil)
	f.inventory.On("AdjustStock", mock.Anything, itemCake, 1, domain.MovementOut, mock.Anything).
		Return(nil, nil, &domain.InsufficientStockError{ProductID: productCake, Requested: 1, Available: 0})
	f.inventory.On("AdjustStock", mock.Anything, itemCoffee, 2, domain.MovementIn, "order ORD-000009 delivery reverted").
		Return(&domain.InventoryItem{ID: itemCoffee, Quantity: 5}, &domain.StockMovement{}, nil)

	_, err := f.svc.AdvanceStatus(context.Background(), "o1", domain.OrderStatusDelivered)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	f.inventory.AssertCalled(t, "AdjustStock",
		mock.Anything, itemCoffee, 2, domain.MovementIn, "order ORD-000009 delivery reverted")
	f.orders.AssertCalled(t, "UpdateStatus",
		mock.Anything, "o1", domain.OrderStatusDelivered, domain.OrderStatusReady)
}

func TestAdvanceStatusLostClaimSkipsDeduction(t *testing.T) {
	f := newFulfillmentFixture()

	order := &domain.Order{
		ID:     "o1",
		Number: "ORD-000010",
		Status: domain.OrderStatusReady,
		Lines: []domain.OrderLine{
			{ProductID: productCoffee, ProductName: "Coffee", Quantity: 2},
		},
	}

	// A concurrent delivery claimed the transition between the read and the
	// write; no stock may be touched for this request.
	f.orders.On("GetByID", mock.Anything, "o1").Return(order, nil)
	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusReady, domain.OrderStatusDelivered).
		Return(domain.ErrTransitionConflict)

	_, err := f.svc.AdvanceStatus(context.Background(), "o1", domain.OrderStatusDelivered)

	assert.ErrorIs(t, err, domain.ErrTransitionConflict)
	f.inventory.AssertNotCalled(t, "GetByProduct", mock.Anything, mock.Anything)
	f.inventory.AssertNotCalled(t, "AdjustStock",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelOrderFromPending(t *testing.T) {
	f := newFulfillmentFixture()

	f.orders.On("GetByID", mock.Anything, "o1").
		Return(&domain.Order{ID: "o1", Status: domain.OrderStatusPending}, nil)
	f.orders.On("UpdateStatus", mock.Anything, "o1", domain.OrderStatusPending, domain.OrderStatusCancelled).
		Return(nil)

	order, err := f.svc.CancelOrder(context.Background(), "o1")

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, order.Status)
	f.inventory.AssertNotCalled(t, "AdjustStock",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelDeliveredOrderFails(t *testing.T) {
	f := newFulfillmentFixture()

	f.orders.On("GetByID", mock.Anything, "o1").
		Return(&domain.Order{ID: "o1", Status: domain.OrderStatusDelivered}, nil)

	_, err := f.svc.CancelOrder(context.Background(), "o1")

	var invalid *domain.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
}
