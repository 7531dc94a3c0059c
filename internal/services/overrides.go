package services

import (
	"math"
	"strings"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

// OverrideRules indexes per-ingredient unit substitution rules by
// (ingredient name, display unit). Rules apply once, after aggregation
// has already happened in standard units.
type OverrideRules struct {
	rules map[string]models.UnitOverrideRule
}

// NewOverrideRules builds the lookup from persisted rule rows.
func NewOverrideRules(rows []models.UnitOverrideRule) *OverrideRules {
	rules := make(map[string]models.UnitOverrideRule, len(rows))
	for _, r := range rows {
		rules[overrideKey(r.IngredientName, r.FromUnit)] = r
	}
	return &OverrideRules{rules: rules}
}

// Apply rewrites a computed display quantity/unit when a rule matches the
// ingredient and current unit: the quantity is divided by the rule's
// factor (e.g. 8 tablespoons of butter become 1 stick), optionally forced
// up to a whole number.
func (o *OverrideRules) Apply(ingredientName string, quantity float64, unit string) (float64, string) {
	rule, ok := o.rules[overrideKey(ingredientName, unit)]
	if !ok {
		return quantity, unit
	}
	qty := quantity / rule.Factor
	if rule.RoundUp {
		qty = math.Ceil(qty - roundEpsilon)
	}
	return qty, rule.ToUnit
}

func overrideKey(ingredientName, unit string) string {
	return strings.ToLower(strings.TrimSpace(ingredientName)) + "|" + NormalizeUnit(unit)
}
