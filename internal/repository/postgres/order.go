package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/repository"
	"github.com/tavolo/fulfillment/pkg/database"
	apperrors "github.com/tavolo/fulfillment/pkg/errors"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts an order and its lines atomically.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderQuery := `
		INSERT INTO orders (
			id, number, status, subtotal_amount, discount_amount, applied_discount_id,
			tax_amount, total_amount, payment_method, table_ref, customer_name, notes,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err = tx.Exec(ctx, orderQuery,
		order.ID,
		order.Number,
		order.Status,
		order.SubtotalAmount,
		order.DiscountAmount,
		order.AppliedDiscountID,
		order.TaxAmount,
		order.TotalAmount,
		order.PaymentMethod,
		order.TableRef,
		order.CustomerName,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (id, order_id, product_id, product_name, unit_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, line := range order.Lines {
		_, err = tx.Exec(ctx, lineQuery,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.ProductName,
			line.UnitPrice,
			line.Quantity,
			line.Subtotal,
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create order transaction: %w", err)
	}

	return nil
}

const orderColumns = `id, number, status, subtotal_amount, discount_amount, applied_discount_id,
	tax_amount, total_amount, payment_method, table_ref, customer_name, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.Number,
		&o.Status,
		&o.SubtotalAmount,
		&o.DiscountAmount,
		&o.AppliedDiscountID,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.PaymentMethod,
		&o.TableRef,
		&o.CustomerName,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID retrieves an order by its unique identifier, including lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("get order by id: %w", err)
	}

	lines, err := r.linesFor(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.Lines = lines[id]

	return order, nil
}

// List returns orders matching the filter along with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}

	offset := (filter.Page - 1) * filter.PerPage

	query := `
		SELECT ` + orderColumns + `,
			   count(*) OVER() AS total_count
		FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, filter.Status, filter.PerPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var (
		orders     []domain.Order
		totalCount int
	)

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID,
			&o.Number,
			&o.Status,
			&o.SubtotalAmount,
			&o.DiscountAmount,
			&o.AppliedDiscountID,
			&o.TaxAmount,
			&o.TotalAmount,
			&o.PaymentMethod,
			&o.TableRef,
			&o.CustomerName,
			&o.Notes,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, totalCount, nil
}

// UpdateStatus moves an order to a new status with a compare-and-set on the
// current one, so two concurrent transitions can never both claim the same
// order. Zero rows means the order is no longer in the expected status (the
// caller has already resolved the order by id).
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransitionConflict
	}

	return nil
}

// NextNumber allocates the next sequential order number from a database
// sequence, formatted as ORD-000001.
func (r *OrderRepository) NextNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("ORD-%06d", n), nil
}

// DailyDemand returns per-day delivered quantities for a product in [from, to).
func (r *OrderRepository) DailyDemand(ctx context.Context, productID string, from, to time.Time) ([]domain.DailyDemand, error) {
	query := `
		SELECT date_trunc('day', o.created_at) AS day, SUM(l.quantity)::int AS quantity
		FROM orders o
		JOIN order_lines l ON l.order_id = o.id
		WHERE o.status = $1 AND l.product_id = $2 AND o.created_at >= $3 AND o.created_at < $4
		GROUP BY day
		ORDER BY day ASC`

	rows, err := r.pool.Query(ctx, query, domain.OrderStatusDelivered, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query daily demand: %w", err)
	}
	defer rows.Close()

	var series []domain.DailyDemand
	for rows.Next() {
		var d domain.DailyDemand
		if err := rows.Scan(&d.Day, &d.Quantity); err != nil {
			return nil, fmt.Errorf("scan daily demand row: %w", err)
		}
		series = append(series, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily demand rows: %w", err)
	}

	return series, nil
}

// SalesByProduct returns per-product units and revenue over delivered orders
// in [from, to), sorted by revenue descending.
func (r *OrderRepository) SalesByProduct(ctx context.Context, from, to time.Time) ([]domain.ProductSales, error) {
	query := `
		SELECT l.product_id, SUM(l.quantity)::int AS units_sold, SUM(l.subtotal) AS revenue
		FROM orders o
		JOIN order_lines l ON l.order_id = o.id
		WHERE o.status = $1 AND o.created_at >= $2 AND o.created_at < $3
		GROUP BY l.product_id
		ORDER BY revenue DESC`

	rows, err := r.pool.Query(ctx, query, domain.OrderStatusDelivered, from, to)
	if err != nil {
		return nil, fmt.Errorf("query sales by product: %w", err)
	}
	defer rows.Close()

	var sales []domain.ProductSales
	for rows.Next() {
		var s domain.ProductSales
		if err := rows.Scan(&s.ProductID, &s.UnitsSold, &s.Revenue); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		sales = append(sales, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales rows: %w", err)
	}

	return sales, nil
}

// linesFor loads order lines for the given order ids, grouped by order id.
func (r *OrderRepository) linesFor(ctx context.Context, orderIDs []string) (map[string][]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, product_name, unit_price, quantity, subtotal
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[string][]domain.OrderLine, len(orderIDs))
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(
			&l.ID,
			&l.OrderID,
			&l.ProductID,
			&l.ProductName,
			&l.UnitPrice,
			&l.Quantity,
			&l.Subtotal,
		); err != nil {
			return nil, fmt.Errorf("scan order line row: %w", err)
		}
		lines[l.OrderID] = append(lines[l.OrderID], l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order line rows: %w", err)
	}

	return lines, nil
}

// attachLines populates Lines on each order in place.
func (r *OrderRepository) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return err
	}

	for i := range orders {
		orders[i].Lines = lines[orders[i].ID]
	}

	return nil
}
