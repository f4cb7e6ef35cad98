// Package event publishes domain events to Kafka. Publishing is best-effort:
// state changes commit first, and a broker failure is logged, never surfaced
// to the caller.
package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/tavolo/fulfillment/internal/domain"
	"github.com/tavolo/fulfillment/pkg/kafka"
	"github.com/tavolo/fulfillment/pkg/logger"
)

// Topic names.
const (
	TopicOrderCreated       = "pos.order.created"
	TopicOrderStatusChanged = "pos.order.status_changed"
	TopicOrderCanceled      = "pos.order.canceled"
	TopicInventoryAdjusted  = "pos.inventory.adjusted"
	TopicLowStock           = "pos.inventory.low_stock"
)

const source = "fulfillment"

// Publisher is the event output port the services depend on.
type Publisher interface {
	OrderCreated(ctx context.Context, order *domain.Order)
	OrderStatusChanged(ctx context.Context, order *domain.Order, from string)
	OrderCanceled(ctx context.Context, order *domain.Order, reason string)
	InventoryAdjusted(ctx context.Context, item *domain.InventoryItem, movement *domain.StockMovement)
	LowStock(ctx context.Context, item *domain.InventoryItem)
}

// OrderCreatedData is the payload for pos.order.created.
type OrderCreatedData struct {
	OrderID       string    `json:"order_id"`
	Number        string    `json:"number"`
	TotalAmount   int64     `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
	LineCount     int       `json:"line_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// OrderStatusChangedData is the payload for pos.order.status_changed.
type OrderStatusChangedData struct {
	OrderID string `json:"order_id"`
	Number  string `json:"number"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// OrderCanceledData is the payload for pos.order.canceled.
type OrderCanceledData struct {
	OrderID string `json:"order_id"`
	Number  string `json:"number"`
	Reason  string `json:"reason,omitempty"`
}

// InventoryAdjustedData is the payload for pos.inventory.adjusted.
type InventoryAdjustedData struct {
	InventoryItemID string `json:"inventory_item_id"`
	ProductID       string `json:"product_id"`
	Kind            string `json:"kind"`
	Quantity        int    `json:"quantity"`
	NewQuantity     int    `json:"new_quantity"`
	Reason          string `json:"reason,omitempty"`
}

// LowStockData is the payload for pos.inventory.low_stock.
type LowStockData struct {
	InventoryItemID string `json:"inventory_item_id"`
	ProductID       string `json:"product_id"`
	Quantity        int    `json:"quantity"`
	MinimumQuantity int    `json:"minimum_quantity"`
}

// KafkaPublisher publishes domain events through a Kafka producer.
type KafkaPublisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(producer *kafka.Producer, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, logger: log}
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.producer.Publish(ctx, topic, evt); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}

// OrderCreated publishes pos.order.created.
func (p *KafkaPublisher) OrderCreated(ctx context.Context, order *domain.Order) {
	p.publish(ctx, TopicOrderCreated, "order.created", order.ID, "order", OrderCreatedData{
		OrderID:       order.ID,
		Number:        order.Number,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		LineCount:     len(order.Lines),
		CreatedAt:     order.CreatedAt,
	})
}

// OrderStatusChanged publishes pos.order.status_changed.
func (p *KafkaPublisher) OrderStatusChanged(ctx context.Context, order *domain.Order, from string) {
	p.publish(ctx, TopicOrderStatusChanged, "order.status_changed", order.ID, "order", OrderStatusChangedData{
		OrderID: order.ID,
		Number:  order.Number,
		From:    from,
		To:      order.Status,
	})
}

// OrderCanceled publishes pos.order.canceled.
func (p *KafkaPublisher) OrderCanceled(ctx context.Context, order *domain.Order, reason string) {
	p.publish(ctx, TopicOrderCanceled, "order.canceled", order.ID, "order", OrderCanceledData{
		OrderID: order.ID,
		Number:  order.Number,
		Reason:  reason,
	})
}

// InventoryAdjusted publishes pos.inventory.adjusted.
func (p *KafkaPublisher) InventoryAdjusted(ctx context.Context, item *domain.InventoryItem, movement *domain.StockMovement) {
	p.publish(ctx, TopicInventoryAdjusted, "inventory.adjusted", item.ID, "inventory_item", InventoryAdjustedData{
		InventoryItemID: item.ID,
		ProductID:       item.ProductID,
		Kind:            movement.Kind,
		Quantity:        movement.Quantity,
		NewQuantity:     item.Quantity,
		Reason:          movement.Reason,
	})
}

// LowStock publishes pos.inventory.low_stock.
func (p *KafkaPublisher) LowStock(ctx context.Context, item *domain.InventoryItem) {
	p.publish(ctx, TopicLowStock, "inventory.low_stock", item.ID, "inventory_item", LowStockData{
		InventoryItemID: item.ID,
		ProductID:       item.ProductID,
		Quantity:        item.Quantity,
		MinimumQuantity: item.MinimumQuantity,
	})
}

// NopPublisher discards all events. Used in tests and when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) OrderCreated(context.Context, *domain.Order)          {}
func (NopPublisher) OrderStatusChanged(context.Context, *domain.Order, string) {}
func (NopPublisher) OrderCanceled(context.Context, *domain.Order, string) {}
func (NopPublisher) InventoryAdjusted(context.Context, *domain.InventoryItem, *domain.StockMovement) {
}
func (NopPublisher) LowStock(context.Context, *domain.InventoryItem) {}
