package unit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tillkit/till/internal/unit"
)

func TestToDisplay(t *testing.T) {
	tests := []struct {
		name    string
		storage float64
		kind    unit.Kind
		want    float64
	}{
		{name: "WeightKgToG", storage: 1.5, kind: unit.KindWeight, want: 1500},
		{name: "VolumeLToML", storage: 0.25, kind: unit.KindVolume, want: 250},
		{name: "PieceIdentity", storage: 12, kind: unit.KindPiece, want: 12},
		{name: "Zero", storage: 0, kind: unit.KindWeight, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, unit.ToDisplay(tt.storage, tt.kind), 1e-9)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	kinds := []unit.Kind{unit.KindPiece, unit.KindWeight, unit.KindVolume}
	quantities := []float64{0, 0.001, 0.2, 1, 1.5, 7.33, 42, 1234.56, 1e6}

	for _, k := range kinds {
		for _, q := range quantities {
			got := unit.ToStorage(unit.ToDisplay(q, k), k)
			assert.InDelta(t, q, got, 1e-9, "kind %s qty %v", k, q)
		}
	}
}

func TestUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() { unit.ToDisplay(1, unit.Kind("carat")) })
	assert.Panics(t, func() { unit.ToStorage(1, unit.Kind("")) })
}

func TestRound2(t *testing.T) {
	assert.InDelta(t, 10.0, unit.Round2(9.999), 1e-9)
	assert.InDelta(t, 0.05, unit.Round2(0.054), 1e-9)
	assert.InDelta(t, 3.14, unit.Round2(3.14159), 1e-9)
	assert.InDelta(t, 2.72, unit.Round2(2.718), 1e-9)
}

func TestUnitLabels(t *testing.T) {
	assert.Equal(t, "kg", unit.KindWeight.StorageUnit())
	assert.Equal(t, "g", unit.KindWeight.DisplayUnit())
	assert.Equal(t, "L", unit.KindVolume.StorageUnit())
	assert.Equal(t, "mL", unit.KindVolume.DisplayUnit())
	assert.Equal(t, "pc", unit.KindPiece.StorageUnit())
	assert.Equal(t, "pc", unit.KindPiece.DisplayUnit())
}
