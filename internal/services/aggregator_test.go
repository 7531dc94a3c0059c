package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestAggregateSlot_DuplicateRecipeDoubles(t *testing.T) {
	lines := []models.RecipeIngredientLine{
		{RecipeID: 1, IngredientName: "rice", Quantity: ptr(1.0), Unit: "cup"},
	}

	// The same recipe as both main and side counts twice.
	out := AggregateSlot([]int{1, 1}, lines, "")
	require.Len(t, out, 1)
	assert.InDelta(t, 2*236.588, out[0].BaseQuantity, 1e-6)
	assert.Equal(t, DimensionVolume, out[0].Dimension)
	assert.Equal(t, "rice::volume", out[0].AggregationKey)
}

func TestAggregateSlot_SkipsRecipesNotInSlot(t *testing.T) {
	lines := []models.RecipeIngredientLine{
		{RecipeID: 1, IngredientName: "rice", Quantity: ptr(1.0), Unit: "cup"},
		{RecipeID: 2, IngredientName: "beans", Quantity: ptr(1.0), Unit: "can"},
	}

	out := AggregateSlot([]int{1}, lines, "")
	require.Len(t, out, 1)
	assert.Equal(t, "rice", out[0].IngredientName)
}

func TestAggregateSlot_NilQuantityAggregatesAsZero(t *testing.T) {
	lines := []models.RecipeIngredientLine{
		{RecipeID: 1, IngredientName: "salt", Quantity: nil, Unit: ""},
	}

	out := AggregateSlot([]int{1}, lines, "")
	require.Len(t, out, 1)
	assert.Equal(t, 0.0, out[0].BaseQuantity)
	assert.Equal(t, DimensionCount, out[0].Dimension)
}

func TestAggregateSlot_CategoryFilter(t *testing.T) {
	lines := []models.RecipeIngredientLine{
		{RecipeID: 1, IngredientName: "tomato", IngredientCategory: ptr("Produce"), Quantity: ptr(2.0), Unit: ""},
		{RecipeID: 1, IngredientName: "flour", IngredientCategory: ptr("pantry"), Quantity: ptr(1.0), Unit: "cup"},
		{RecipeID: 1, IngredientName: "mystery", IngredientCategory: nil, Quantity: ptr(1.0), Unit: ""},
	}

	out := AggregateSlot([]int{1}, lines, "produce")
	require.Len(t, out, 1)
	assert.Equal(t, "tomato", out[0].IngredientName)

	// No filter keeps everything, including uncategorized lines.
	out = AggregateSlot([]int{1}, lines, "")
	assert.Len(t, out, 3)
}

func TestOverrideRules_Apply(t *testing.T) {
	rules := NewOverrideRules([]models.UnitOverrideRule{
		{IngredientName: "butter", FromUnit: "tablespoon", ToUnit: "stick", Factor: 8, RoundUp: true},
		{IngredientName: "honey", FromUnit: "tablespoon", ToUnit: "jar", Factor: 20, RoundUp: false},
	})

	qty, unit := rules.Apply("Butter", 8, "tbsp")
	assert.Equal(t, 1.0, qty)
	assert.Equal(t, "stick", unit)

	// 9 tablespoons round up to 2 sticks.
	qty, unit = rules.Apply("butter", 9, "tablespoon")
	assert.Equal(t, 2.0, qty)
	assert.Equal(t, "stick", unit)

	// Without round_up the fraction survives.
	qty, unit = rules.Apply("honey", 10, "tablespoon")
	assert.Equal(t, 0.5, qty)
	assert.Equal(t, "jar", unit)

	// No rule for this unit: untouched.
	qty, unit = rules.Apply("butter", 2, "cup")
	assert.Equal(t, 2.0, qty)
	assert.Equal(t, "cup", unit)
}
