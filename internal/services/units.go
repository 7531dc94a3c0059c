package services

import (
	"math"
	"strings"
)

// Dimension is the physical measurement family of a unit. Arithmetic only
// ever happens within one dimension: mass sums in grams, volume in
// milliliters, count and unknown pass through unconverted.
type Dimension string

const (
	DimensionMass    Dimension = "mass"
	DimensionVolume  Dimension = "volume"
	DimensionCount   Dimension = "count"
	DimensionUnknown Dimension = "unknown"
)

// Base units per dimension.
const (
	BaseUnitMass   = "gram"
	BaseUnitVolume = "milliliter"
)

// Conversion factors to base units. These tables are fixed configuration,
// loaded once; nothing mutates them at runtime.
var gramsPerUnit = map[string]float64{
	"gram":     1,
	"kilogram": 1000,
	"ounce":    28.3495,
	"pound":    453.592,
}

var millilitersPerUnit = map[string]float64{
	"milliliter":  1,
	"liter":       1000,
	"teaspoon":    4.92892,
	"tablespoon":  14.7868,
	"fluid ounce": 29.5735,
	"cup":         236.588,
	"pint":        473.176,
	"quart":       946.353,
	"gallon":      3785.41,
}

// countUnits are discrete container words. The empty string is the
// implicit "count" unit for lines entered without one.
var countUnits = map[string]struct{}{
	"":        {},
	"each":    {},
	"piece":   {},
	"count":   {},
	"can":     {},
	"jar":     {},
	"package": {},
	"pack":    {},
	"bunch":   {},
	"head":    {},
	"clove":   {},
	"slice":   {},
	"stalk":   {},
	"sprig":   {},
	"stick":   {},
	"loaf":    {},
	"ear":     {},
}

// unitAliases maps common abbreviations and plurals onto canonical unit
// names before table lookup.
var unitAliases = map[string]string{
	"tsp":          "teaspoon",
	"t":            "teaspoon",
	"teaspoons":    "teaspoon",
	"tbsp":         "tablespoon",
	"tbs":          "tablespoon",
	"tablespoons":  "tablespoon",
	"fl oz":        "fluid ounce",
	"floz":         "fluid ounce",
	"fluid ounces": "fluid ounce",
	"c":            "cup",
	"cups":         "cup",
	"pt":           "pint",
	"pints":        "pint",
	"qt":           "quart",
	"quarts":       "quart",
	"gal":          "gallon",
	"gallons":      "gallon",
	"l":            "liter",
	"liters":       "liter",
	"litres":       "liter",
	"ml":           "milliliter",
	"milliliters":  "milliliter",
	"oz":           "ounce",
	"ounces":       "ounce",
	"lb":           "pound",
	"lbs":          "pound",
	"pounds":       "pound",
	"g":            "gram",
	"grams":        "gram",
	"kg":           "kilogram",
	"kilograms":    "kilogram",
	"pc":           "piece",
	"pcs":          "piece",
	"pieces":       "piece",
	"ct":           "count",
	"ea":           "each",
	"pk":           "pack",
	"pkg":          "package",
	"packages":     "package",
	"bunches":      "bunch",
	"heads":        "head",
	"cloves":       "clove",
	"slices":       "slice",
	"stalks":       "stalk",
	"sprigs":       "sprig",
	"sticks":       "stick",
	"cans":         "can",
	"jars":         "jar",
	"loaves":       "loaf",
	"ears":         "ear",
}

// NormalizeUnit canonicalizes a raw unit string: trim, lowercase, strip a
// trailing period, resolve aliases. The result is what the dimension and
// conversion tables are keyed by.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	u = strings.TrimSuffix(u, ".")
	if canonical, ok := unitAliases[u]; ok {
		return canonical
	}
	return u
}

// UnitDimension classifies a unit string into its measurement family.
// Unrecognized units are DimensionUnknown: they sum without conversion,
// like counts, but group separately by the dimension tag.
func UnitDimension(unit string) Dimension {
	u := NormalizeUnit(unit)
	if _, ok := gramsPerUnit[u]; ok {
		return DimensionMass
	}
	if _, ok := millilitersPerUnit[u]; ok {
		return DimensionVolume
	}
	if _, ok := countUnits[u]; ok {
		return DimensionCount
	}
	return DimensionUnknown
}

// ToBaseUnit converts a quantity into its dimension's base unit: grams for
// mass, milliliters for volume. Count and unknown quantities pass through
// with their normalized unit untouched.
func ToBaseUnit(quantity float64, unit string) (float64, string) {
	u := NormalizeUnit(unit)
	if factor, ok := gramsPerUnit[u]; ok {
		return quantity * factor, BaseUnitMass
	}
	if factor, ok := millilitersPerUnit[u]; ok {
		return quantity * factor, BaseUnitVolume
	}
	return quantity, u
}

// ToDisplayUnit converts a base quantity back into a human-scale unit.
// A preferred unit of the matching dimension wins, keeping the displayed
// unit in the family most recipes used. Without one, magnitude picks:
// pounds over a pound else ounces; cups over a cup, tablespoons over a
// tablespoon, else teaspoons with a quarter-teaspoon floor.
func ToDisplayUnit(baseQuantity float64, dimension Dimension, preferredUnit string) (float64, string) {
	pref := NormalizeUnit(preferredUnit)

	switch dimension {
	case DimensionMass:
		if factor, ok := gramsPerUnit[pref]; ok {
			return baseQuantity / factor, pref
		}
		if baseQuantity >= gramsPerUnit["pound"] {
			return baseQuantity / gramsPerUnit["pound"], "pound"
		}
		return baseQuantity / gramsPerUnit["ounce"], "ounce"

	case DimensionVolume:
		if factor, ok := millilitersPerUnit[pref]; ok {
			return baseQuantity / factor, pref
		}
		if baseQuantity >= millilitersPerUnit["cup"] {
			return baseQuantity / millilitersPerUnit["cup"], "cup"
		}
		if baseQuantity >= millilitersPerUnit["tablespoon"] {
			return baseQuantity / millilitersPerUnit["tablespoon"], "tablespoon"
		}
		qty := baseQuantity / millilitersPerUnit["teaspoon"]
		if qty < 0.25 {
			qty = 0.25
		}
		return qty, "teaspoon"

	default:
		// Count and unknown keep the quantity and the unit as entered.
		return baseQuantity, pref
	}
}

// roundEpsilon absorbs float noise so exact multiples of a step are not
// bumped to the next one.
const roundEpsilon = 1e-9

// RoundFriendly rounds a display quantity up to a human-friendly fraction.
// It never rounds down: a shopping list must not under-state a need.
// Count-like units round to whole numbers, spoon units to eighths,
// cup/pound/ounce-scale units to quarters, metric base units to wholes.
func RoundFriendly(quantity float64, unit string) float64 {
	step := 1.0
	switch NormalizeUnit(unit) {
	case "teaspoon", "tablespoon":
		step = 0.125
	case "cup", "pound", "ounce", "fluid ounce", "pint", "quart", "gallon":
		step = 0.25
	case "kilogram", "liter":
		step = 0.1
	}
	return ceilToStep(quantity, step)
}

func ceilToStep(quantity, step float64) float64 {
	if quantity <= 0 {
		return 0
	}
	return math.Ceil(quantity/step-roundEpsilon) * step
}

// AggregationKey is the identity of one recipe-sourced shopping row:
// lowercased ingredient name plus the dimension it sums in.
func AggregationKey(ingredientName string, dimension Dimension) string {
	return strings.ToLower(strings.TrimSpace(ingredientName)) + "::" + string(dimension)
}
