package repository

import (
	"context"
	"time"

	"github.com/tavolo/fulfillment/internal/domain"
)

// ProductRepository reads catalog products. The catalog is written by an
// external collaborator; this engine only resolves and prices.
type ProductRepository interface {
	// GetByID retrieves a product by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// InventoryRepository persists inventory items and their movement log.
type InventoryRepository interface {
	// GetByID retrieves an inventory item by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.InventoryItem, error)

	// GetByProduct retrieves the inventory item tracking the given product.
	// Returns ErrNotFound when the product is not stock-tracked.
	GetByProduct(ctx context.Context, productID string) (*domain.InventoryItem, error)

	// AdjustStock atomically applies a quantity change and appends the
	// movement record in the same transaction. The row is locked for the
	// duration so concurrent adjustments on one item serialize; an OUT that
	// would drive the quantity negative fails without mutating anything.
	AdjustStock(ctx context.Context, itemID string, quantity int, kind, reason string) (*domain.InventoryItem, *domain.StockMovement, error)

	// ListLowStock returns items with quantity at or below their minimum,
	// with the total count for pagination.
	ListLowStock(ctx context.Context, page, perPage int) ([]domain.InventoryItem, int, error)
}

// DiscountRepository persists promotional discounts.
type DiscountRepository interface {
	// GetByID retrieves a discount by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Discount, error)

	// IncrementUsage bumps the discount's applied counter.
	IncrementUsage(ctx context.Context, id string) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	Status  *string
	Page    int
	PerPage int
}

// OrderRepository persists orders and serves the delivered-order history the
// analytics components compute over.
type OrderRepository interface {
	// Create inserts an order and its lines atomically.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier, including lines.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns orders matching the filter along with the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatus atomically moves an order from one status to another. The
	// write applies only while the order still holds the expected status;
	// ErrTransitionConflict reports that another request changed it first.
	UpdateStatus(ctx context.Context, id, from, to string) error

	// NextNumber allocates the next sequential human-readable order number.
	NextNumber(ctx context.Context) (string, error)

	// DailyDemand returns per-day delivered quantities for a product in
	// [from, to), sorted ascending by day. Days with no sales are absent.
	DailyDemand(ctx context.Context, productID string, from, to time.Time) ([]domain.DailyDemand, error)

	// SalesByProduct returns per-product units and revenue over delivered
	// orders in [from, to), sorted by revenue descending.
	SalesByProduct(ctx context.Context, from, to time.Time) ([]domain.ProductSales, error)
}
