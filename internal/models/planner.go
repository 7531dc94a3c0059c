package models

import (
	"time"
)

// ShoppingMode controls how a planner entry feeds the shopping list.
type ShoppingMode string

const (
	ShoppingModeAll         ShoppingMode = "all"
	ShoppingModeProduceOnly ShoppingMode = "produce_only"
	ShoppingModeNone        ShoppingMode = "none"
)

// Valid reports whether m is one of the known shopping modes.
func (m ShoppingMode) Valid() bool {
	switch m {
	case ShoppingModeAll, ShoppingModeProduceOnly, ShoppingModeNone:
		return true
	}
	return false
}

// CategoryFilter returns the ingredient-category filter the mode implies,
// or "" when every category contributes.
func (m ShoppingMode) CategoryFilter() string {
	if m == ShoppingModeProduceOnly {
		return "produce"
	}
	return ""
}

// MaxActivePlannerEntries caps how many active slots a user's planner holds.
const MaxActivePlannerEntries = 15

// PlannerEntry is one slot in the active meal planner. Clearing is a
// soft delete so planner history survives.
type PlannerEntry struct {
	ID           int          `json:"id"`
	UserID       int          `json:"user_id"`
	MealID       int          `json:"meal_id"`
	IsCompleted  bool         `json:"is_completed"`
	IsCleared    bool         `json:"is_cleared"`
	ShoppingMode ShoppingMode `json:"shopping_mode"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsActive reports whether the entry contributes to the shopping list.
func (e *PlannerEntry) IsActive() bool {
	return !e.IsCompleted && !e.IsCleared && e.ShoppingMode != ShoppingModeNone
}

// PlannerEntryWithMeal includes the meal the slot references
type PlannerEntryWithMeal struct {
	PlannerEntry
	MealName      string `json:"meal_name"`
	MainRecipeID  int    `json:"main_recipe_id"`
	SideRecipeIDs []int  `json:"side_recipe_ids"`
}

// ActiveSlot is the shape the sync engine consumes: an active planner
// entry with its meal's recipe ids already expanded.
type ActiveSlot struct {
	SlotID       int
	ShoppingMode ShoppingMode
	RecipeIDs    []int // main + sides, duplicates preserved
}

// AddPlannerEntryRequest is the request body for adding a meal to the planner
type AddPlannerEntryRequest struct {
	MealID       int          `json:"meal_id"`
	ShoppingMode ShoppingMode `json:"shopping_mode,omitempty"`
}

// SetShoppingModeRequest is the request body for changing a slot's shopping mode
type SetShoppingModeRequest struct {
	ShoppingMode ShoppingMode `json:"shopping_mode"`
}

// SetCompletedRequest is the request body for toggling slot completion
type SetCompletedRequest struct {
	IsCompleted bool `json:"is_completed"`
}
