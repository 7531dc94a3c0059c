package models

import (
	"time"
)

// Ingredient is a named pantry item with an optional shopping category
// (e.g. "produce", "dairy"). Names are unique per user.
type Ingredient struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	Category  *string   `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateIngredientRequest is the request body for creating an ingredient
type CreateIngredientRequest struct {
	Name     string  `json:"name"`
	Category *string `json:"category,omitempty"`
}

// UpdateIngredientRequest is the request body for updating an ingredient
type UpdateIngredientRequest struct {
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
}
