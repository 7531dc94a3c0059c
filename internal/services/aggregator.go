package services

import (
	"strings"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

// Contribution is one unsummed tuple the aggregator emits per ingredient
// line: the base-unit amount one recipe occurrence adds under one
// aggregation key. Summation across lines and slots happens in the sync
// engine, not here.
type Contribution struct {
	AggregationKey string
	IngredientName string
	BaseQuantity   float64
	Dimension      Dimension
	OriginalUnit   string
	RecipeID       int
}

// AggregateSlot expands one planner slot into contribution tuples.
// recipeIDs is the slot's meal expansion (main + sides) and may contain
// the same recipe more than once; each occurrence scales that recipe's
// line quantities. categoryFilter, when non-empty, drops lines whose
// ingredient category does not match (produce-only shopping mode).
func AggregateSlot(recipeIDs []int, lines []models.RecipeIngredientLine, categoryFilter string) []Contribution {
	occurrences := make(map[int]int, len(recipeIDs))
	for _, id := range recipeIDs {
		occurrences[id]++
	}

	var out []Contribution
	for _, line := range lines {
		count := occurrences[line.RecipeID]
		if count == 0 {
			continue
		}
		if categoryFilter != "" && !categoryMatches(line.IngredientCategory, categoryFilter) {
			continue
		}

		// Null quantity means the recipe calls for an unspecified amount;
		// aggregate it as zero so the item still appears.
		qty := 0.0
		if line.Quantity != nil {
			qty = *line.Quantity
		}
		qty *= float64(count)

		dim := UnitDimension(line.Unit)
		base, _ := ToBaseUnit(qty, line.Unit)

		out = append(out, Contribution{
			AggregationKey: AggregationKey(line.IngredientName, dim),
			IngredientName: line.IngredientName,
			BaseQuantity:   base,
			Dimension:      dim,
			OriginalUnit:   line.Unit,
			RecipeID:       line.RecipeID,
		})
	}
	return out
}

func categoryMatches(category *string, filter string) bool {
	return category != nil && strings.EqualFold(*category, filter)
}
