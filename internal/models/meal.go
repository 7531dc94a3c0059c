package models

import (
	"time"
)

// MaxSideRecipes is the maximum number of side recipes a meal can carry.
const MaxSideRecipes = 3

// Meal is a saved combination of one main recipe and up to three side
// recipes, referenced by id.
type Meal struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	MainRecipeID  int       `json:"main_recipe_id"`
	SideRecipeIDs []int     `json:"side_recipe_ids"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AllRecipeIDs returns the main recipe id followed by the side recipe ids,
// in order. Duplicates are preserved: a recipe used as both main and side
// appears twice, and the aggregator scales its quantities accordingly.
func (m *Meal) AllRecipeIDs() []int {
	ids := make([]int, 0, 1+len(m.SideRecipeIDs))
	ids = append(ids, m.MainRecipeID)
	ids = append(ids, m.SideRecipeIDs...)
	return ids
}

// CreateMealRequest is the request body for creating a meal
type CreateMealRequest struct {
	Name          string `json:"name"`
	MainRecipeID  int    `json:"main_recipe_id"`
	SideRecipeIDs []int  `json:"side_recipe_ids,omitempty"`
}

// UpdateMealRequest is the request body for updating a meal.
// A non-nil SideRecipeIDs slice replaces the existing sides.
type UpdateMealRequest struct {
	Name          *string `json:"name,omitempty"`
	MainRecipeID  *int    `json:"main_recipe_id,omitempty"`
	SideRecipeIDs []int   `json:"side_recipe_ids,omitempty"`
}
