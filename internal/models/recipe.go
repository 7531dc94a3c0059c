package models

import (
	"time"
)

// Recipe is a user-owned recipe with an ordered list of ingredient lines.
type Recipe struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Name         string    `json:"name"`
	Instructions *string   `json:"instructions,omitempty"`
	Servings     *int      `json:"servings,omitempty"`
	ImageKey     *string   `json:"-"` // object-storage key, served via the image endpoint
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecipeIngredient is one ordered line of a recipe. Quantity may be null
// (treated as zero by aggregation) and an empty unit means "count".
type RecipeIngredient struct {
	ID           int      `json:"id"`
	RecipeID     int      `json:"recipe_id"`
	IngredientID int      `json:"ingredient_id"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Unit         string   `json:"unit"`
	Position     int      `json:"position"`
}

// RecipeWithIngredients includes the recipe and its ingredient lines
type RecipeWithIngredients struct {
	Recipe
	Ingredients []RecipeIngredientWithDetails `json:"ingredients"`
}

// RecipeIngredientWithDetails includes ingredient name and category
type RecipeIngredientWithDetails struct {
	RecipeIngredient
	IngredientName     string  `json:"ingredient_name"`
	IngredientCategory *string `json:"ingredient_category,omitempty"`
}

// RecipeIngredientLine is the flattened shape the aggregator consumes:
// one row per ingredient line of a recipe, with the ingredient's name
// and category resolved.
type RecipeIngredientLine struct {
	RecipeID           int
	IngredientName     string
	IngredientCategory *string
	Quantity           *float64
	Unit               string
}

// CreateRecipeRequest is the request body for creating a recipe
type CreateRecipeRequest struct {
	Name         string                `json:"name"`
	Instructions *string               `json:"instructions,omitempty"`
	Servings     *int                  `json:"servings,omitempty"`
	Ingredients  []RecipeIngredientReq `json:"ingredients"`
}

// RecipeIngredientReq is one ingredient line in a recipe request
type RecipeIngredientReq struct {
	IngredientID int      `json:"ingredient_id"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Unit         string   `json:"unit"`
}

// UpdateRecipeRequest is the request body for updating a recipe.
// A non-nil Ingredients slice replaces all existing lines.
type UpdateRecipeRequest struct {
	Name         *string               `json:"name,omitempty"`
	Instructions *string               `json:"instructions,omitempty"`
	Servings     *int                  `json:"servings,omitempty"`
	Ingredients  []RecipeIngredientReq `json:"ingredients,omitempty"`
}
