package domain

import "time"

// Product is a sellable catalog item. The catalog itself is managed by an
// external collaborator; this engine only reads products to price order lines
// and to join analytics results back to names.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"` // unit price in cents
	Cost      int64     `json:"cost"`  // unit cost in cents
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
