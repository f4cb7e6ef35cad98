package domain

import "time"

// Order status constants. The success path is strictly forward:
// pending → in_preparation → ready → delivered. Cancelled is reachable from
// any non-terminal status. Delivered and cancelled are terminal.
const (
	OrderStatusPending       = "pending"
	OrderStatusInPreparation = "in_preparation"
	OrderStatusReady         = "ready"
	OrderStatusDelivered     = "delivered"
	OrderStatusCancelled     = "cancelled"
)

// Payment method constants.
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentTransfer = "transfer"
)

// Order is a priced customer order moving through the fulfillment lifecycle.
// Stock is validated at creation but only deducted on the transition into
// delivered, so cancellation needs no reversal bookkeeping.
type Order struct {
	ID                string      `json:"id"`
	Number            string      `json:"number"`
	Status            string      `json:"status"`
	Lines             []OrderLine `json:"lines"`
	SubtotalAmount    int64       `json:"subtotal_amount"` // before discount
	DiscountAmount    int64       `json:"discount_amount"`
	AppliedDiscountID *string     `json:"applied_discount_id,omitempty"`
	TaxAmount         int64       `json:"tax_amount"`
	TotalAmount       int64       `json:"total_amount"`
	PaymentMethod     string      `json:"payment_method"`
	TableRef          string      `json:"table_ref,omitempty"`
	CustomerName      string      `json:"customer_name,omitempty"`
	Notes             string      `json:"notes,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// OrderLine is a line item with the product name and unit price snapshotted
// at order time. Later catalog changes never reprice an existing order.
type OrderLine struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    int64  `json:"subtotal"`
}

// LineTotal returns quantity × unit price for this line.
func (l *OrderLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// ValidStatuses returns all valid order statuses.
func ValidStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusInPreparation,
		OrderStatusReady,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValidStatus checks if a status string is valid.
func IsValidStatus(status string) bool {
	for _, s := range ValidStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// ValidPaymentMethods returns all valid payment methods.
func ValidPaymentMethods() []string {
	return []string{PaymentCash, PaymentCard, PaymentTransfer}
}

// IsValidPaymentMethod checks if a payment method string is valid.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// AllowedTransitions defines which status transitions are valid.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:       {OrderStatusInPreparation, OrderStatusCancelled},
		OrderStatusInPreparation: {OrderStatusReady, OrderStatusCancelled},
		OrderStatusReady:         {OrderStatusDelivered, OrderStatusCancelled},
		OrderStatusDelivered:     {},
		OrderStatusCancelled:     {},
	}
}

// CanTransitionTo checks if the order can transition to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order is in a terminal status.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusDelivered || o.Status == OrderStatusCancelled
}
