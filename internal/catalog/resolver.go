package catalog

import (
	"fmt"

	"github.com/tillkit/till/internal/unit"
)

// Cost derives a product's ingredient cost from the given inventory
// snapshot: for each line, the item's per-storage-unit cost times the
// line quantity converted from display to storage units. Skipping that
// conversion would be off by 1000x for weight and volume items, so every
// line goes through unit.ToStorage. The result is rounded to cents.
func Cost(p *Product, snap Snapshot) (float64, error) {
	var total float64

	for _, line := range p.Lines {
		item, ok := snap[line.ItemID]
		if !ok {
			return 0, fmt.Errorf("%w: product %s item %s", ErrItemMissing, p.ID, line.ItemID)
		}

		total += item.CostPerUnit * unit.ToStorage(line.Quantity, item.Kind)
	}

	return unit.Round2(total), nil
}

// Available reports whether every recipe line can be satisfied by the
// snapshot. A product with no lines is never available. The comparison
// happens in display units: the item's storage quantity is converted up
// and compared against the line quantity as entered.
func Available(p *Product, snap Snapshot) bool {
	if len(p.Lines) == 0 {
		return false
	}

	for _, line := range p.Lines {
		item, ok := snap[line.ItemID]
		if !ok {
			return false
		}

		if unit.ToDisplay(item.Quantity, item.Kind) < line.Quantity {
			return false
		}
	}

	return true
}
