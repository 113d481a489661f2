package catalog

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tillkit/till/internal/unit"
)

var (
	ErrNotFound    = errors.New("catalog: not found")
	ErrItemMissing = errors.New("catalog: recipe references unknown inventory item")
)

// InventoryItem is a raw material. Quantity and CostPerUnit are expressed
// in storage units (kg, L, pieces). Quantity never goes below zero;
// deductions clamp at zero at the persistence layer.
type InventoryItem struct {
	ID          uuid.UUID
	Name        string
	Kind        unit.Kind
	Quantity    float64 // storage units
	CostPerUnit float64 // per storage unit
	ImageID     string  // opaque object-storage reference, never interpreted
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// RecipeLine ties a product to one inventory item. Quantity is expressed
// in display units (g, mL, pieces) - NOT storage units.
type RecipeLine struct {
	ItemID   uuid.UUID
	Quantity float64 // display units
}

// Product is a sellable item composed of recipe lines. Its cost is always
// derived from the current inventory snapshot, never stored.
type Product struct {
	ID        uuid.UUID
	Name      string
	Price     float64
	ImageID   string
	Lines     []RecipeLine
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// Snapshot is a point-in-time read of the inventory items a computation
// needs, keyed by item id.
type Snapshot map[uuid.UUID]*InventoryItem
