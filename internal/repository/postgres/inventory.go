package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/pkg/database"
	apperrors "github.com/tavolo/fulfillment/pkg/errors"
)

// InventoryRepository implements repository.InventoryRepository using PostgreSQL.
type InventoryRepository struct {
	pool database.DBTX
}

// NewInventoryRepository creates a PostgreSQL-backed inventory repository.
func NewInventoryRepository(pool database.DBTX) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

const itemColumns = `id, product_id, quantity, minimum_quantity, unit, location, expires_at, updated_at`

func scanItem(row pgx.Row) (*domain.InventoryItem, error) {
	var i domain.InventoryItem
	err := row.Scan(
		&i.ID,
		&i.ProductID,
		&i.Quantity,
		&i.MinimumQuantity,
		&i.Unit,
		&i.Location,
		&i.ExpiresAt,
		&i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// GetByID retrieves an inventory item by its unique identifier.
func (r *InventoryRepository) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE id = $1`

	item, err := scanItem(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.InventoryItemNotFoundError{InventoryItemID: id}
		}
		return nil, fmt.Errorf("get inventory item by id: %w", err)
	}

	return item, nil
}

// GetByProduct retrieves the inventory item tracking the given product.
func (r *InventoryRepository) GetByProduct(ctx context.Context, productID string) (*domain.InventoryItem, error) {
	query := `SELECT ` + itemColumns + ` FROM inventory_items WHERE product_id = $1`

	item, err := scanItem(r.pool.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get inventory item by product: %w", err)
	}

	return item, nil
}

// AdjustStock atomically applies a quantity change and appends the movement
// record. The item row is locked with SELECT ... FOR UPDATE so concurrent
// adjustments on the same item serialize and no update is ever lost; the
// quantity write and the movement insert commit together or not at all.
func (r *InventoryRepository) AdjustStock(ctx context.Context, itemID string, quantity int, kind, reason string) (*domain.InventoryItem, *domain.StockMovement, error) {
	if quantity < 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin adjustment transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockQuery := `
		SELECT i.quantity, p.id, p.name
		FROM inventory_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.id = $1
		FOR UPDATE OF i`

	var (
		current     int
		productID   string
		productName string
	)
	if err := tx.QueryRow(ctx, lockQuery, itemID).Scan(&current, &productID, &productName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, &domain.InventoryItemNotFoundError{InventoryItemID: itemID}
		}
		return nil, nil, fmt.Errorf("lock inventory item: %w", err)
	}

	var newQuantity int
	switch kind {
	case domain.MovementIn:
		newQuantity = current + quantity
	case domain.MovementOut:
		if quantity > current {
			return nil, nil, &domain.InsufficientStockError{
				ProductID:   productID,
				ProductName: productName,
				Requested:   quantity,
				Available:   current,
			}
		}
		newQuantity = current - quantity
	case domain.MovementSet:
		newQuantity = quantity
	default:
		return nil, nil, apperrors.InvalidInput(fmt.Sprintf("invalid movement kind %q", kind))
	}

	updateQuery := `
		UPDATE inventory_items
		SET quantity = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + itemColumns

	item, err := scanItem(tx.QueryRow(ctx, updateQuery, newQuantity, itemID))
	if err != nil {
		return nil, nil, fmt.Errorf("update inventory quantity: %w", err)
	}

	movementQuery := `
		INSERT INTO stock_movements (id, inventory_item_id, kind, quantity, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, inventory_item_id, kind, quantity, reason, created_at`

	var m domain.StockMovement
	err = tx.QueryRow(ctx, movementQuery, uuid.New().String(), itemID, kind, quantity, reason).Scan(
		&m.ID,
		&m.InventoryItemID,
		&m.Kind,
		&m.Quantity,
		&m.Reason,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert stock movement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit adjustment transaction: %w", err)
	}

	return item, &m, nil
}

// ListLowStock returns items with quantity at or below their minimum.
func (r *InventoryRepository) ListLowStock(ctx context.Context, page, perPage int) ([]domain.InventoryItem, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}

	offset := (page - 1) * perPage

	query := `
		SELECT ` + itemColumns + `,
			   count(*) OVER() AS total_count
		FROM inventory_items
		WHERE quantity <= minimum_quantity
		ORDER BY quantity ASC, updated_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()

	var (
		items      []domain.InventoryItem
		totalCount int
	)

	for rows.Next() {
		var i domain.InventoryItem
		if err := rows.Scan(
			&i.ID,
			&i.ProductID,
			&i.Quantity,
			&i.MinimumQuantity,
			&i.Unit,
			&i.Location,
			&i.ExpiresAt,
			&i.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan low stock row: %w", err)
		}
		items = append(items, i)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate low stock rows: %w", err)
	}

	return items, totalCount, nil
}
