package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/event"
	"github.com/tavolo/fulfillment/internal/repository"
	apperrors "github.com/tavolo/fulfillment/pkg/errors"
)

// StockLedger applies quantity adjustments to inventory items and keeps the
// movement audit trail in lockstep with the current quantity.
type StockLedger struct {
	inventory repository.InventoryRepository
	events    event.Publisher
	logger    *slog.Logger
}

// NewStockLedger creates a stock ledger service.
func NewStockLedger(inventory repository.InventoryRepository, events event.Publisher, logger *slog.Logger) *StockLedger {
	return &StockLedger{
		inventory: inventory,
		events:    events,
		logger:    logger,
	}
}

// Adjust applies a stock movement to an item. IN adds, OUT subtracts (failing
// if the result would go negative), SET overwrites the quantity. The quantity
// write and the movement append happen in one atomic unit.
func (s *StockLedger) Adjust(ctx context.Context, itemID string, quantity int, kind, reason string) (*domain.InventoryItem, *domain.StockMovement, error) {
	if !domain.IsValidMovementKind(kind) {
		return nil, nil, apperrors.InvalidInput(fmt.Sprintf("invalid movement kind %q", kind))
	}
	if quantity < 0 {
		return nil, nil, domain.ErrInvalidQuantity
	}

	item, movement, err := s.inventory.AdjustStock(ctx, itemID, quantity, kind, reason)
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "stock adjusted",
		slog.String("inventory_item_id", item.ID),
		slog.String("kind", kind),
		slog.Int("quantity", quantity),
		slog.Int("new_quantity", item.Quantity),
	)

	s.events.InventoryAdjusted(ctx, item, movement)
	if item.IsLowStock() {
		s.events.LowStock(ctx, item)
	}

	return item, movement, nil
}

// ListLowStock returns items at or below their reorder floor.
func (s *StockLedger) ListLowStock(ctx context.Context, page, perPage int) ([]domain.InventoryItem, int, error) {
	return s.inventory.ListLowStock(ctx, page, perPage)
}

// GetItem retrieves a single inventory item.
func (s *StockLedger) GetItem(ctx context.Context, itemID string) (*domain.InventoryItem, error) {
	return s.inventory.GetByID(ctx, itemID)
}
