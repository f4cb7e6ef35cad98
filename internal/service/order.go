package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/internal/event"
	"github.com/tavolo/fulfillment/internal/repository"
	apperrors "github.com/tavolo/fulfillment/pkg/errors"
)

// CreateOrderLine is one requested line on a new order.
type CreateOrderLine struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput carries everything needed to create and price an order.
type CreateOrderInput struct {
	Lines         []CreateOrderLine
	DiscountID    *string
	PaymentMethod string
	TableRef      string
	CustomerName  string
	Notes         string
}

// FulfillmentService prices orders and drives them through the lifecycle
// state machine. Stock is validated at creation but deducted only when an
// order transitions into delivered.
type FulfillmentService struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	inventory repository.InventoryRepository
	discounts *DiscountEvaluator
	events    event.Publisher
	logger    *slog.Logger

	taxRateBps int64
	now        func() time.Time
}

// NewFulfillmentService creates a fulfillment service. taxRateBps is the tax
// rate in basis points (1600 = 16%).
func NewFulfillmentService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	inventory repository.InventoryRepository,
	discounts *DiscountEvaluator,
	events event.Publisher,
	logger *slog.Logger,
	taxRateBps int64,
) *FulfillmentService {
	return &FulfillmentService{
		orders:     orders,
		products:   products,
		inventory:  inventory,
		discounts:  discounts,
		events:     events,
		logger:     logger,
		taxRateBps: taxRateBps,
		now:        time.Now,
	}
}

// CreateOrder validates, prices, and persists a new order in pending status.
// All lines validate before anything is written; product name and unit price
// are snapshotted onto each line. Availability is checked against current
// stock here, but nothing is deducted until delivery.
func (s *FulfillmentService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	if len(input.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}

	requested := make(map[string]int, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, domain.ErrInvalidQuantity
		}
		requested[line.ProductID] += line.Quantity
	}

	orderID := uuid.New().String()
	createdAt := s.now().UTC()

	var (
		lines    []domain.OrderLine
		subtotal int64
	)
	checked := make(map[string]bool, len(requested))

	for _, line := range input.Lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Available {
			return nil, &domain.ProductUnavailableError{
				ProductID:   product.ID,
				ProductName: product.Name,
			}
		}

		if !checked[product.ID] {
			checked[product.ID] = true
			if err := s.checkStock(ctx, product, requested[product.ID]); err != nil {
				return nil, err
			}
		}

		l := domain.OrderLine{
			ID:          uuid.New().String(),
			OrderID:     orderID,
			ProductID:   product.ID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		}
		l.Subtotal = l.LineTotal()
		subtotal += l.Subtotal
		lines = append(lines, l)
	}

	var (
		discountAmount    int64
		appliedDiscountID *string
	)
	discounted := subtotal

	if input.DiscountID != nil && *input.DiscountID != "" {
		itemCount := 0
		for _, q := range requested {
			itemCount += q
		}
		applied, err := s.discounts.Apply(ctx, *input.DiscountID, subtotal, itemCount)
		if err != nil {
			return nil, err
		}
		discountAmount = applied.Amount
		discounted = applied.SubtotalAfter
		appliedDiscountID = &applied.Discount.ID
	}

	tax := domain.TaxFor(discounted, s.taxRateBps)

	number, err := s.orders.NextNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:                orderID,
		Number:            number,
		Status:            domain.OrderStatusPending,
		Lines:             lines,
		SubtotalAmount:    subtotal,
		DiscountAmount:    discountAmount,
		AppliedDiscountID: appliedDiscountID,
		TaxAmount:         tax,
		TotalAmount:       discounted + tax,
		PaymentMethod:     input.PaymentMethod,
		TableRef:          input.TableRef,
		CustomerName:      input.CustomerName,
		Notes:             input.Notes,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	if appliedDiscountID != nil {
		if err := s.discounts.RecordUsage(ctx, *appliedDiscountID); err != nil {
			s.logger.ErrorContext(ctx, "failed to record discount usage",
				slog.String("discount_id", *appliedDiscountID),
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("number", order.Number),
		slog.Int64("total_amount", order.TotalAmount),
	)

	s.events.OrderCreated(ctx, order)

	return order, nil
}

// checkStock verifies current stock covers the requested quantity. Products
// without an inventory item are not stock-tracked and always pass.
func (s *FulfillmentService) checkStock(ctx context.Context, product *domain.Product, quantity int) error {
	item, err := s.inventory.GetByProduct(ctx, product.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if item.Quantity < quantity {
		return &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Requested:   quantity,
			Available:   item.Quantity,
		}
	}
	return nil
}

// AdvanceStatus moves an order to the target status. Only forward-adjacent
// transitions are allowed, plus cancellation from any non-terminal status.
// Landing on delivered deducts stock for every line exactly once.
func (s *FulfillmentService) AdvanceStatus(ctx context.Context, orderID, target string) (*domain.Order, error) {
	if !domain.IsValidStatus(target) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid order status %q", target))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.CanTransitionTo(target) {
		return nil, &domain.InvalidTransitionError{From: order.Status, To: target}
	}

	// Claim the transition with a compare-and-set before touching stock, so
	// two concurrent requests can never both pass the state check and deduct
	// for the same order.
	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, target); err != nil {
		return nil, err
	}

	if target == domain.OrderStatusDelivered {
		if err := s.deductStock(ctx, order); err != nil {
			s.releaseClaim(ctx, orderID, order.Status)
			return nil, err
		}
	}

	from := order.Status
	order.Status = target
	order.UpdatedAt = s.now().UTC()

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", order.ID),
		slog.String("from", from),
		slog.String("to", target),
	)

	if target == domain.OrderStatusCancelled {
		s.events.OrderCanceled(ctx, order, "")
	} else {
		s.events.OrderStatusChanged(ctx, order, from)
	}

	return order, nil
}

// CancelOrder moves the order to cancelled. No stock reversal is needed
// because nothing was deducted before delivery.
func (s *FulfillmentService) CancelOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.AdvanceStatus(ctx, orderID, domain.OrderStatusCancelled)
}

// GetOrder retrieves an order with its lines.
func (s *FulfillmentService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, orderID)
}

// ListOrders returns orders matching the filter with the total count.
func (s *FulfillmentService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	return s.orders.List(ctx, filter)
}

// deductStock issues an OUT adjustment per line, tagged with the order
// number. Stock for every line is pre-validated before the first adjustment;
// if an adjustment still fails partway (a concurrent deduction won the race),
// completed deductions are compensated with IN movements so the order is
// never left partially deducted.
func (s *FulfillmentService) deductStock(ctx context.Context, order *domain.Order) error {
	var planned []stockDeduction
	for _, line := range order.Lines {
		item, err := s.inventory.GetByProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			return err
		}
		if item.Quantity < line.Quantity {
			return &domain.InsufficientStockError{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Requested:   line.Quantity,
				Available:   item.Quantity,
			}
		}
		planned = append(planned, stockDeduction{itemID: item.ID, quantity: line.Quantity})
	}

	reason := fmt.Sprintf("order %s delivered", order.Number)

	var done []stockDeduction
	for _, d := range planned {
		item, movement, err := s.inventory.AdjustStock(ctx, d.itemID, d.quantity, domain.MovementOut, reason)
		if err != nil {
			s.compensate(ctx, done, order.Number)
			return err
		}
		done = append(done, d)

		s.events.InventoryAdjusted(ctx, item, movement)
		if item.IsLowStock() {
			s.events.LowStock(ctx, item)
		}
	}

	return nil
}

// stockDeduction is one planned or completed per-item deduction during a
// delivery transition.
type stockDeduction struct {
	itemID   string
	quantity int
}

// releaseClaim moves a claimed order back to its prior status after the
// delivery deduction failed, so the transition can be retried. Any completed
// deductions have already been compensated by deductStock.
func (s *FulfillmentService) releaseClaim(ctx context.Context, orderID, previous string) {
	if err := s.orders.UpdateStatus(ctx, orderID, domain.OrderStatusDelivered, previous); err != nil {
		s.logger.ErrorContext(ctx, "failed to release order status claim",
			slog.String("order_id", orderID),
			slog.String("status", previous),
			slog.String("error", err.Error()),
		)
	}
}

// compensate reverses completed deductions with IN movements after a
// partial delivery failure.
func (s *FulfillmentService) compensate(ctx context.Context, done []stockDeduction, number string) {
	reason := fmt.Sprintf("order %s delivery reverted", number)
	for _, d := range done {
		if _, _, err := s.inventory.AdjustStock(ctx, d.itemID, d.quantity, domain.MovementIn, reason); err != nil {
			s.logger.ErrorContext(ctx, "failed to compensate stock deduction",
				slog.String("inventory_item_id", d.itemID),
				slog.Int("quantity", d.quantity),
				slog.String("error", err.Error()),
			)
		}
	}
}
