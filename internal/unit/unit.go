// Package unit converts quantities between the units inventory is stored
// in (kilograms, liters, pieces) and the finer units recipes and the UI
// work with (grams, milliliters, pieces).
package unit

import (
	"fmt"
	"math"
)

// Kind classifies an inventory item's measurement family.
type Kind string

const (
	KindPiece  Kind = "piece"
	KindWeight Kind = "weight"
	KindVolume Kind = "volume"
)

// StorageUnit returns the unit label quantities are persisted in.
func (k Kind) StorageUnit() string {
	switch k {
	case KindPiece:
		return "pc"
	case KindWeight:
		return "kg"
	case KindVolume:
		return "L"
	}
	panic(fmt.Sprintf("unit: unknown kind %q", k))
}

// DisplayUnit returns the unit label recipes and the UI use.
func (k Kind) DisplayUnit() string {
	switch k {
	case KindPiece:
		return "pc"
	case KindWeight:
		return "g"
	case KindVolume:
		return "mL"
	}
	panic(fmt.Sprintf("unit: unknown kind %q", k))
}

// factor is the display-units-per-storage-unit multiplier.
// An unknown kind is a programming error, not a runtime condition.
func factor(k Kind) float64 {
	switch k {
	case KindPiece:
		return 1
	case KindWeight, KindVolume:
		return 1000
	}
	panic(fmt.Sprintf("unit: unknown kind %q", k))
}

// ToDisplay converts a storage-unit quantity to display units
// (kg to g, L to mL, pieces unchanged).
func ToDisplay(storage float64, k Kind) float64 {
	return storage * factor(k)
}

// ToStorage converts a display-unit quantity back to storage units.
// ToStorage(ToDisplay(x, k), k) == x for all finite non-negative x.
func ToStorage(display float64, k Kind) float64 {
	return display / factor(k)
}

// Round2 rounds to two decimal places, used for currency-derived values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
