package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavolo/fulfillment/internal/cache"
	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/event"
	"github.com/tavolo/fulfillment/internal/repository"
	"github.com/tavolo/fulfillment/internal/service"
	apperrors "github.com/tavolo/fulfillment/pkg/errors"
	"github.com/tavolo/fulfillment/pkg/health"
)

// ---------------------------------------------------------------------------
// in-memory fakes
// ---------------------------------------------------------------------------

type fakeProductRepo struct {
	products map[string]*domain.Product
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := f.products[id]; ok {
		return p, nil
	}
	return nil, &domain.ProductNotFoundError{ProductID: id}
}

type fakeInventoryRepo struct {
	items map[string]*domain.InventoryItem // keyed by item id
}

func (f *fakeInventoryRepo) GetByID(_ context.Context, id string) (*domain.InventoryItem, error) {
	if i, ok := f.items[id]; ok {
		return i, nil
	}
	return nil, &domain.InventoryItemNotFoundError{InventoryItemID: id}
}

func (f *fakeInventoryRepo) GetByProduct(_ context.Context, productID string) (*domain.InventoryItem, error) {
	for _, i := range f.items {
		if i.ProductID == productID {
			return i, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeInventoryRepo) AdjustStock(_ context.Context, itemID string, quantity int, kind, reason string) (*domain.InventoryItem, *domain.StockMovement, error) {
	item, ok := f.items[itemID]
	if !ok {
		return nil, nil, &domain.InventoryItemNotFoundError{InventoryItemID: itemID}
	}
	switch kind {
	case domain.MovementIn:
		item.Quantity += quantity
	case domain.MovementOut:
		if quantity > item.Quantity {
			return nil, nil, &domain.InsufficientStockError{
				ProductID: item.ProductID, Requested: quantity, Available: item.Quantity,
			}
		}
		item.Quantity -= quantity
	case domain.MovementSet:
		item.Quantity = quantity
	}
	movement := &domain.StockMovement{
		ID: "mov-1", InventoryItemID: itemID, Kind: kind, Quantity: quantity,
		Reason: reason, CreatedAt: time.Now().UTC(),
	}
	return item, movement, nil
}

func (f *fakeInventoryRepo) ListLowStock(_ context.Context, _, _ int) ([]domain.InventoryItem, int, error) {
	var low []domain.InventoryItem
	for _, i := range f.items {
		if i.IsLowStock() {
			low = append(low, *i)
		}
	}
	return low, len(low), nil
}

type fakeDiscountRepo struct {
	discounts map[string]*domain.Discount
}

func (f *fakeDiscountRepo) GetByID(_ context.Context, id string) (*domain.Discount, error) {
	if d, ok := f.discounts[id]; ok {
		return d, nil
	}
	return nil, &domain.DiscountNotFoundError{DiscountID: id}
}

func (f *fakeDiscountRepo) IncrementUsage(_ context.Context, id string) error {
	if d, ok := f.discounts[id]; ok {
		d.UsageCount++
		return nil
	}
	return &domain.DiscountNotFoundError{DiscountID: id}
}

type fakeOrderRepo struct {
	orders map[string]*domain.Order
	seq    int
}

func (f *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	if o, ok := f.orders[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, apperrors.NotFound("order", id)
}

func (f *fakeOrderRepo) List(_ context.Context, _ repository.OrderFilter) ([]domain.Order, int, error) {
	var out []domain.Order
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, len(out), nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id, from, to string) error {
	o, ok := f.orders[id]
	if !ok {
		return apperrors.NotFound("order", id)
	}
	if o.Status != from {
		return domain.ErrTransitionConflict
	}
	o.Status = to
	return nil
}

func (f *fakeOrderRepo) NextNumber(_ context.Context) (string, error) {
	f.seq++
	return fmt.Sprintf("ORD-%06d", f.seq), nil
}

func (f *fakeOrderRepo) DailyDemand(_ context.Context, _ string, _, _ time.Time) ([]domain.DailyDemand, error) {
	return nil, nil
}

func (f *fakeOrderRepo) SalesByProduct(_ context.Context, _, _ time.Time) ([]domain.ProductSales, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// fixture
// ---------------------------------------------------------------------------

const (
	productID  = "11111111-1111-1111-1111-111111111111"
	itemID     = "44444444-4444-4444-4444-444444444444"
	discountID = "33333333-3333-3333-3333-333333333333"
)

func newTestServer(t *testing.T) (http.Handler, *fakeOrderRepo, *fakeInventoryRepo) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	products := &fakeProductRepo{products: map[string]*domain.Product{
		productID: {ID: productID, Name: "Coffee", Price: 2500, Available: true},
	}}
	inventory := &fakeInventoryRepo{items: map[string]*domain.InventoryItem{
		itemID: {ID: itemID, ProductID: productID, Quantity: 10, MinimumQuantity: 2},
	}}
	discounts := &fakeDiscountRepo{discounts: map[string]*domain.Discount{
		discountID: {ID: discountID, Kind: domain.DiscountPercentage, Value: 10, Active: true},
	}}
	orders := &fakeOrderRepo{orders: map[string]*domain.Order{}}

	analyticsCache := cache.New(nil, time.Minute)
	evaluator := service.NewDiscountEvaluator(discounts)
	fulfillment := service.NewFulfillmentService(
		orders, products, inventory, evaluator, event.NopPublisher{}, log, 1600)
	ledger := service.NewStockLedger(inventory, event.NopPublisher{}, log)
	forecaster := service.NewForecaster(orders, analyticsCache, 30)
	reorder := service.NewReorderCalculator(orders, inventory, analyticsCache, 90, 7, 10, 0.95)
	abc := service.NewABCClassifier(orders, analyticsCache)

	router := NewRouter(RouterConfig{
		Orders:      NewOrderHandler(fulfillment, log),
		Inventory:   NewInventoryHandler(ledger, log),
		Analytics:   NewAnalyticsHandler(forecaster, reorder, abc, log),
		Health:      health.NewHandler(),
		Logger:      log,
		ServiceName: "fulfillment-test",
	})

	return router, orders, inventory
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// tests
// ---------------------------------------------------------------------------

func TestCreateOrderEndpoint(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", map[string]any{
		"lines": []map[string]any{
			{"product_id": productID, "quantity": 2},
		},
		"payment_method": "card",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-000001", resp.Data.Number)
	assert.Equal(t, domain.OrderStatusPending, resp.Data.Status)
	assert.Equal(t, int64(5000), resp.Data.SubtotalAmount)
	assert.Equal(t, int64(5800), resp.Data.TotalAmount)
}

func TestCreateOrderEndpointValidation(t *testing.T) {
	router, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing lines", map[string]any{"payment_method": "card"}},
		{"bad payment method", map[string]any{
			"lines":          []map[string]any{{"product_id": productID, "quantity": 1}},
			"payment_method": "crypto",
		}},
		{"zero quantity", map[string]any{
			"lines":          []map[string]any{{"product_id": productID, "quantity": 0}},
			"payment_method": "card",
		}},
		{"malformed product id", map[string]any{
			"lines":          []map[string]any{{"product_id": "not-a-uuid", "quantity": 1}},
			"payment_method": "card",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestOrderLifecycleEndpoints(t *testing.T) {
	router, orders, inventory := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/orders", map[string]any{
		"lines":          []map[string]any{{"product_id": productID, "quantity": 2}},
		"payment_method": "cash",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data domain.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id := created.Data.ID

	// Skipping a state is rejected.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/"+id+"/status",
		map[string]any{"status": "ready"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	for _, status := range []string{"in_preparation", "ready", "delivered"} {
		rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/"+id+"/status",
			map[string]any{"status": status})
		require.Equal(t, http.StatusOK, rec.Code, status)
	}

	// Delivery deducted the line quantity.
	assert.Equal(t, 8, inventory.items[itemID].Quantity)
	assert.Equal(t, domain.OrderStatusDelivered, orders.orders[id].Status)

	// Terminal: delivering again conflicts.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/"+id+"/status",
		map[string]any{"status": "delivered"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// And cancel conflicts too.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/orders/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdjustInventoryEndpoint(t *testing.T) {
	router, _, inventory := newTestServer(t)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/inventory/"+itemID+"/adjust",
		map[string]any{"quantity": 5, "kind": "in", "reason": "restock"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 15, inventory.items[itemID].Quantity)

	// An OUT past the available quantity is unprocessable.
	rec = doJSON(t, router, http.MethodPost, "/api/v1/inventory/"+itemID+"/adjust",
		map[string]any{"quantity": 100, "kind": "out"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/inventory/"+itemID+"/adjust",
		map[string]any{"quantity": 5, "kind": "transfer"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLowStockEndpoint(t *testing.T) {
	router, _, inventory := newTestServer(t)
	inventory.items[itemID].Quantity = 1

	rec := doJSON(t, router, http.MethodGet, "/api/v1/inventory/low-stock", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data       []domain.InventoryItem `json:"data"`
		TotalCount int                    `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalCount)
}

func TestForecastEndpoint(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/analytics/forecast/"+productID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.DemandForecast `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ForecastMethodNoHistory, resp.Data.Method)
	assert.Zero(t, resp.Data.Demand)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/analytics/forecast/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReorderPointEndpoint(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/analytics/reorder-point/"+itemID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data domain.ReorderPoint `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// No history: conservative fallback statistics.
	assert.Equal(t, 10, resp.Data.ReorderLevel)
	assert.Equal(t, 12, resp.Data.ReorderQuantity)
	assert.Equal(t, 0.95, resp.Data.ServiceLevel)

	rec = doJSON(t, router, http.MethodGet,
		"/api/v1/analytics/reorder-point/"+itemID+"?service_level=1.5", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestABCEndpoint(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/analytics/abc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/analytics/abc?from=2026-08-01&to=2026-07-01", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/analytics/abc?from=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router, _, _ := newTestServer(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
