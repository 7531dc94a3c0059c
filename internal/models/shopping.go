package models

import (
	"time"
)

// ItemSource distinguishes engine-managed rows from user-entered ones.
type ItemSource string

const (
	SourceRecipe ItemSource = "recipe"
	SourceManual ItemSource = "manual"
)

// ShoppingItem is one row of the shopping list. Recipe-sourced items are
// created and destroyed exclusively by the sync engine and carry a unique
// aggregation key; manual items are user-owned and never have one.
type ShoppingItem struct {
	ID             int        `json:"id"`
	UserID         int        `json:"user_id"`
	IngredientName string     `json:"ingredient_name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	Category       *string    `json:"category,omitempty"`
	Source         ItemSource `json:"source"`
	Have           bool       `json:"have"`
	Flagged        bool       `json:"flagged"`
	AggregationKey *string    `json:"aggregation_key,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ShoppingItemContribution attributes the base-unit amount one recipe
// occurrence inside one planner slot adds to one shopping item. Unique
// per (item, recipe, slot).
type ShoppingItemContribution struct {
	ID             int     `json:"id"`
	ShoppingItemID int     `json:"shopping_item_id"`
	RecipeID       int     `json:"recipe_id"`
	PlannerEntryID int     `json:"planner_entry_id"`
	BaseQuantity   float64 `json:"base_quantity"`
	Dimension      string  `json:"dimension"`
}

// ShoppingItemWithSources includes how many distinct recipes feed the item
type ShoppingItemWithSources struct {
	ShoppingItem
	RecipeCount int `json:"recipe_count"`
}

// UnitOverrideRule rewrites a computed display quantity for one specific
// ingredient and unit, e.g. 8 tablespoons of butter become 1 stick. The
// rule divides by Factor after aggregation and never participates in
// base-unit arithmetic.
type UnitOverrideRule struct {
	ID             int     `json:"id"`
	IngredientName string  `json:"ingredient_name"`
	FromUnit       string  `json:"from_unit"`
	ToUnit         string  `json:"to_unit"`
	Factor         float64 `json:"factor"`
	RoundUp        bool    `json:"round_up"`
}

// SyncResult reports what one sync pass changed. A no-op pass reports
// all zeros.
type SyncResult struct {
	ItemsCreated        int `json:"items_created"`
	ItemsUpdated        int `json:"items_updated"`
	ItemsDeleted        int `json:"items_deleted"`
	ContributionsSynced int `json:"contributions_synced"`
}

// IsZero reports whether the sync changed nothing.
func (r SyncResult) IsZero() bool {
	return r.ItemsCreated == 0 && r.ItemsUpdated == 0 && r.ItemsDeleted == 0 && r.ContributionsSynced == 0
}

// CreateManualItemRequest is the request body for adding a manual item
type CreateManualItemRequest struct {
	IngredientName string  `json:"ingredient_name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	Category       *string `json:"category,omitempty"`
}

// UpdateManualItemRequest is the request body for editing a manual item
type UpdateManualItemRequest struct {
	IngredientName *string  `json:"ingredient_name,omitempty"`
	Quantity       *float64 `json:"quantity,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	Category       *string  `json:"category,omitempty"`
}
