package domain

import "time"

// InventoryItem tracks the on-hand quantity for a product. One item per
// product. Quantity is the source of truth for current stock; movements are
// the audit trail.
type InventoryItem struct {
	ID              string     `json:"id"`
	ProductID       string     `json:"product_id"`
	Quantity        int        `json:"quantity"`
	MinimumQuantity int        `json:"minimum_quantity"`
	Unit            string     `json:"unit"`
	Location        string     `json:"location,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsLowStock reports whether the item is at or below its reorder floor.
func (i *InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.MinimumQuantity
}

// Stock movement kinds.
const (
	MovementIn  = "in"  // quantity added
	MovementOut = "out" // quantity removed
	MovementSet = "set" // quantity overwritten with an absolute value
)

// ValidMovementKinds returns the set of valid movement kinds.
func ValidMovementKinds() []string {
	return []string{MovementIn, MovementOut, MovementSet}
}

// IsValidMovementKind checks whether the given kind is a valid movement kind.
func IsValidMovementKind(kind string) bool {
	for _, k := range ValidMovementKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// StockMovement is an immutable audit record of a single quantity change.
// Movements are appended in the same transaction as the quantity update and
// are never edited or deleted.
type StockMovement struct {
	ID              string    `json:"id"`
	InventoryItemID string    `json:"inventory_item_id"`
	Kind            string    `json:"kind"`
	Quantity        int       `json:"quantity"` // magnitude, always >= 0
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}
