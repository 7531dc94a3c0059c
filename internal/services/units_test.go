package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"lb", "pound"},
		{"LBS", "pound"},
		{"Tbsp.", "tablespoon"},
		{"fl oz", "fluid ounce"},
		{"  cups ", "cup"},
		{"g", "gram"},
		{"", ""},
		{"handful", "handful"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeUnit(tt.in), "NormalizeUnit(%q)", tt.in)
	}
}

func TestUnitDimension(t *testing.T) {
	tests := []struct {
		unit string
		want Dimension
	}{
		{"lb", DimensionMass},
		{"kg", DimensionMass},
		{"cup", DimensionVolume},
		{"tsp", DimensionVolume},
		{"ml", DimensionVolume},
		{"", DimensionCount},
		{"clove", DimensionCount},
		{"sticks", DimensionCount},
		{"handful", DimensionUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UnitDimension(tt.unit), "UnitDimension(%q)", tt.unit)
	}
}

func TestToBaseUnit(t *testing.T) {
	qty, unit := ToBaseUnit(1, "lb")
	assert.InDelta(t, 453.592, qty, 1e-9)
	assert.Equal(t, BaseUnitMass, unit)

	qty, unit = ToBaseUnit(2, "cups")
	assert.InDelta(t, 473.176, qty, 1e-9)
	assert.Equal(t, BaseUnitVolume, unit)

	// Count and unknown pass through unconverted.
	qty, unit = ToBaseUnit(3, "cloves")
	assert.Equal(t, 3.0, qty)
	assert.Equal(t, "clove", unit)

	qty, unit = ToBaseUnit(1, "handful")
	assert.Equal(t, 1.0, qty)
	assert.Equal(t, "handful", unit)
}

func TestToDisplayUnit_PreferredUnitWins(t *testing.T) {
	qty, unit := ToDisplayUnit(907.184, DimensionMass, "lb")
	assert.InDelta(t, 2.0, qty, 1e-9)
	assert.Equal(t, "pound", unit)

	qty, unit = ToDisplayUnit(907.184, DimensionMass, "oz")
	assert.InDelta(t, 32.0, qty, 1e-9)
	assert.Equal(t, "ounce", unit)
}

func TestToDisplayUnit_MagnitudeFallback(t *testing.T) {
	// Under a pound falls back to ounces.
	qty, unit := ToDisplayUnit(100, DimensionMass, "")
	assert.Equal(t, "ounce", unit)
	assert.InDelta(t, 100/28.3495, qty, 1e-9)

	// Over a cup shows cups.
	qty, unit = ToDisplayUnit(500, DimensionVolume, "")
	assert.Equal(t, "cup", unit)
	assert.InDelta(t, 500/236.588, qty, 1e-9)

	// Between a tablespoon and a cup shows tablespoons.
	_, unit = ToDisplayUnit(30, DimensionVolume, "")
	assert.Equal(t, "tablespoon", unit)

	// Tiny volumes floor at a quarter teaspoon.
	qty, unit = ToDisplayUnit(0.5, DimensionVolume, "")
	assert.Equal(t, "teaspoon", unit)
	assert.Equal(t, 0.25, qty)
}

func TestUnitConversion_RoundTrip(t *testing.T) {
	// Converting to base units and back through the same preferred unit
	// must be lossless, before friendly rounding.
	for _, unit := range []string{"gram", "kilogram", "ounce", "pound"} {
		base, baseUnit := ToBaseUnit(3, unit)
		assert.Equal(t, BaseUnitMass, baseUnit)
		qty, displayUnit := ToDisplayUnit(base, DimensionMass, unit)
		assert.InDelta(t, 3.0, qty, 1e-9, "round trip through %q", unit)
		assert.Equal(t, unit, displayUnit)
	}
	for _, unit := range []string{"teaspoon", "tablespoon", "cup", "quart", "liter"} {
		base, baseUnit := ToBaseUnit(3, unit)
		assert.Equal(t, BaseUnitVolume, baseUnit)
		qty, displayUnit := ToDisplayUnit(base, DimensionVolume, unit)
		assert.InDelta(t, 3.0, qty, 1e-9, "round trip through %q", unit)
		assert.Equal(t, unit, displayUnit)
	}
}

func TestRoundFriendly_AlwaysRoundsUp(t *testing.T) {
	tests := []struct {
		qty  float64
		unit string
		want float64
	}{
		{1.01, "cup", 1.25},
		{1.25, "cup", 1.25},
		{0.9, "tsp", 1.0},
		{0.13, "tablespoon", 0.25},
		{1.1, "pound", 1.25},
		{2.0, "pound", 2.0},
		{1.01, "kg", 1.1},
		{2.2, "clove", 3.0},
		{4.0, "each", 4.0},
		{0, "cup", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundFriendly(tt.qty, tt.unit), 1e-9, "RoundFriendly(%v, %q)", tt.qty, tt.unit)
	}
}

func TestAggregationKey(t *testing.T) {
	assert.Equal(t, "butter::volume", AggregationKey("Butter", DimensionVolume))
	assert.Equal(t, "ground beef::mass", AggregationKey("  Ground Beef ", DimensionMass))

	// Same name in different dimensions stays separate.
	assert.NotEqual(t,
		AggregationKey("butter", DimensionVolume),
		AggregationKey("butter", DimensionMass))
}
