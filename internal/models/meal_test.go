package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeal_AllRecipeIDs(t *testing.T) {
	m := &Meal{MainRecipeID: 1, SideRecipeIDs: []int{2, 3}}
	assert.Equal(t, []int{1, 2, 3}, m.AllRecipeIDs())

	// A recipe used as both main and side appears twice so the
	// aggregator doubles its quantities.
	m = &Meal{MainRecipeID: 1, SideRecipeIDs: []int{1}}
	assert.Equal(t, []int{1, 1}, m.AllRecipeIDs())

	m = &Meal{MainRecipeID: 5}
	assert.Equal(t, []int{5}, m.AllRecipeIDs())
}

func TestShoppingMode(t *testing.T) {
	assert.True(t, ShoppingModeAll.Valid())
	assert.True(t, ShoppingModeProduceOnly.Valid())
	assert.True(t, ShoppingModeNone.Valid())
	assert.False(t, ShoppingMode("weekly").Valid())

	assert.Equal(t, "", ShoppingModeAll.CategoryFilter())
	assert.Equal(t, "produce", ShoppingModeProduceOnly.CategoryFilter())
}

func TestPlannerEntry_IsActive(t *testing.T) {
	e := &PlannerEntry{ShoppingMode: ShoppingModeAll}
	assert.True(t, e.IsActive())

	assert.False(t, (&PlannerEntry{IsCompleted: true, ShoppingMode: ShoppingModeAll}).IsActive())
	assert.False(t, (&PlannerEntry{IsCleared: true, ShoppingMode: ShoppingModeAll}).IsActive())
	assert.False(t, (&PlannerEntry{ShoppingMode: ShoppingModeNone}).IsActive())
}
