package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsLowStock(t *testing.T) {
	assert.True(t, (&InventoryItem{Quantity: 5, MinimumQuantity: 5}).IsLowStock())
	assert.True(t, (&InventoryItem{Quantity: 0, MinimumQuantity: 5}).IsLowStock())
	assert.False(t, (&InventoryItem{Quantity: 6, MinimumQuantity: 5}).IsLowStock())
}

func TestIsValidMovementKind(t *testing.T) {
	assert.True(t, IsValidMovementKind(MovementIn))
	assert.True(t, IsValidMovementKind(MovementOut))
	assert.True(t, IsValidMovementKind(MovementSet))
	assert.False(t, IsValidMovementKind("transfer"))
	assert.False(t, IsValidMovementKind(""))
}
