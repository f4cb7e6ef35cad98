package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/pkg/database"
)

// DiscountRepository implements repository.DiscountRepository using PostgreSQL.
type DiscountRepository struct {
	pool database.DBTX
}

// NewDiscountRepository creates a PostgreSQL-backed discount repository.
func NewDiscountRepository(pool database.DBTX) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// GetByID retrieves a discount by its unique identifier.
func (r *DiscountRepository) GetByID(ctx context.Context, id string) (*domain.Discount, error) {
	query := `
		SELECT id, name, kind, value, active, starts_at, ends_at, min_items, usage_count, created_at, updated_at
		FROM discounts
		WHERE id = $1`

	var d domain.Discount
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&d.ID,
		&d.Name,
		&d.Kind,
		&d.Value,
		&d.Active,
		&d.StartsAt,
		&d.EndsAt,
		&d.MinItems,
		&d.UsageCount,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.DiscountNotFoundError{DiscountID: id}
		}
		return nil, fmt.Errorf("get discount by id: %w", err)
	}

	return &d, nil
}

// IncrementUsage bumps the discount's applied counter.
func (r *DiscountRepository) IncrementUsage(ctx context.Context, id string) error {
	query := `
		UPDATE discounts
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment discount usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.DiscountNotFoundError{DiscountID: id}
	}

	return nil
}
