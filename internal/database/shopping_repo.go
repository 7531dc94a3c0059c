package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

var (
	ErrShoppingItemNotFound = errors.New("shopping item not found")
	ErrNotManualItem        = errors.New("item is managed by the planner")
)

// ListShoppingItems returns the user's full shopping list (recipe-sourced
// and manual), with the number of distinct recipes feeding each item,
// grouped by category then name
func (db *DB) ListShoppingItems(ctx context.Context, userID int) ([]*models.ShoppingItemWithSources, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT
			si.id, si.user_id, si.ingredient_name, si.quantity, si.unit, si.category,
			si.source, si.have, si.flagged, si.aggregation_key, si.created_at, si.updated_at,
			COALESCE((
				SELECT COUNT(DISTINCT c.recipe_id)
				FROM shopping_item_contributions c
				WHERE c.shopping_item_id = si.id
			), 0) as recipe_count
		FROM shopping_items si
		WHERE si.user_id = $1
		ORDER BY si.category NULLS LAST, si.ingredient_name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.ShoppingItemWithSources
	for rows.Next() {
		item := &models.ShoppingItemWithSources{}
		err := rows.Scan(
			&item.ID, &item.UserID, &item.IngredientName, &item.Quantity, &item.Unit, &item.Category,
			&item.Source, &item.Have, &item.Flagged, &item.AggregationKey, &item.CreatedAt, &item.UpdatedAt,
			&item.RecipeCount,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

// CreateManualItem adds a user-entered item. Manual items never carry an
// aggregation key and are invisible to the sync engine.
func (db *DB) CreateManualItem(ctx context.Context, userID int, req *models.CreateManualItemRequest) (*models.ShoppingItem, error) {
	item := &models.ShoppingItem{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO shopping_items (user_id, ingredient_name, quantity, unit, category, source, have, flagged, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'manual', false, false, NOW(), NOW())
		RETURNING id, user_id, ingredient_name, quantity, unit, category, source, have, flagged, aggregation_key, created_at, updated_at
	`, userID, req.IngredientName, req.Quantity, req.Unit, req.Category).Scan(
		&item.ID, &item.UserID, &item.IngredientName, &item.Quantity, &item.Unit, &item.Category,
		&item.Source, &item.Have, &item.Flagged, &item.AggregationKey, &item.CreatedAt, &item.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return item, nil
}

// UpdateManualItem edits a manual item. Recipe-sourced rows are owned by
// the sync engine and cannot be edited this way.
func (db *DB) UpdateManualItem(ctx context.Context, id int, userID int, req *models.UpdateManualItemRequest) (*models.ShoppingItem, error) {
	if err := db.requireManualItem(ctx, id, userID); err != nil {
		return nil, err
	}

	item := &models.ShoppingItem{}
	err := db.Pool.QueryRow(ctx, `
		UPDATE shopping_items
		SET ingredient_name = COALESCE($3, ingredient_name),
		    quantity = COALESCE($4, quantity),
		    unit = COALESCE($5, unit),
		    category = COALESCE($6, category),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, ingredient_name, quantity, unit, category, source, have, flagged, aggregation_key, created_at, updated_at
	`, id, userID, req.IngredientName, req.Quantity, req.Unit, req.Category).Scan(
		&item.ID, &item.UserID, &item.IngredientName, &item.Quantity, &item.Unit, &item.Category,
		&item.Source, &item.Have, &item.Flagged, &item.AggregationKey, &item.CreatedAt, &item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShoppingItemNotFound
		}
		return nil, err
	}

	return item, nil
}

// DeleteManualItem removes a manual item. Recipe-sourced rows disappear
// on their own once no planner slot needs them.
func (db *DB) DeleteManualItem(ctx context.Context, id int, userID int) error {
	if err := db.requireManualItem(ctx, id, userID); err != nil {
		return err
	}

	result, err := db.Pool.Exec(ctx, `
		DELETE FROM shopping_items WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrShoppingItemNotFound
	}

	return nil
}

// ToggleItemHave flips the user-owned "have" flag on any shopping item
func (db *DB) ToggleItemHave(ctx context.Context, id int, userID int) (*models.ShoppingItem, error) {
	return db.toggleItemFlag(ctx, id, userID, "have")
}

// ToggleItemFlagged flips the user-owned "flagged" flag on any shopping item
func (db *DB) ToggleItemFlagged(ctx context.Context, id int, userID int) (*models.ShoppingItem, error) {
	return db.toggleItemFlag(ctx, id, userID, "flagged")
}

func (db *DB) toggleItemFlag(ctx context.Context, id int, userID int, column string) (*models.ShoppingItem, error) {
	item := &models.ShoppingItem{}
	// column is one of two compile-time constants, never user input
	err := db.Pool.QueryRow(ctx, `
		UPDATE shopping_items
		SET `+column+` = NOT `+column+`, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, ingredient_name, quantity, unit, category, source, have, flagged, aggregation_key, created_at, updated_at
	`, id, userID).Scan(
		&item.ID, &item.UserID, &item.IngredientName, &item.Quantity, &item.Unit, &item.Category,
		&item.Source, &item.Have, &item.Flagged, &item.AggregationKey, &item.CreatedAt, &item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShoppingItemNotFound
		}
		return nil, err
	}

	return item, nil
}

// ListContributionsForItem returns the attribution rows behind one item,
// e.g. to show which planner meals need an ingredient
func (db *DB) ListContributionsForItem(ctx context.Context, itemID int, userID int) ([]*models.ShoppingItemContribution, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT c.id, c.shopping_item_id, c.recipe_id, c.planner_entry_id, c.base_quantity, c.dimension
		FROM shopping_item_contributions c
		JOIN shopping_items si ON c.shopping_item_id = si.id
		WHERE c.shopping_item_id = $1 AND si.user_id = $2
		ORDER BY c.planner_entry_id, c.recipe_id
	`, itemID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contribs []*models.ShoppingItemContribution
	for rows.Next() {
		c := &models.ShoppingItemContribution{}
		if err := rows.Scan(&c.ID, &c.ShoppingItemID, &c.RecipeID, &c.PlannerEntryID, &c.BaseQuantity, &c.Dimension); err != nil {
			return nil, err
		}
		contribs = append(contribs, c)
	}

	return contribs, nil
}

// ListContributionsForSlot returns every contribution one planner slot is
// feeding into the shopping list, e.g. to preview what clearing it removes
func (db *DB) ListContributionsForSlot(ctx context.Context, slotID int, userID int) ([]*models.ShoppingItemContribution, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT c.id, c.shopping_item_id, c.recipe_id, c.planner_entry_id, c.base_quantity, c.dimension
		FROM shopping_item_contributions c
		JOIN shopping_items si ON c.shopping_item_id = si.id
		WHERE c.planner_entry_id = $1 AND si.user_id = $2
		ORDER BY c.shopping_item_id, c.recipe_id
	`, slotID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contribs []*models.ShoppingItemContribution
	for rows.Next() {
		c := &models.ShoppingItemContribution{}
		if err := rows.Scan(&c.ID, &c.ShoppingItemID, &c.RecipeID, &c.PlannerEntryID, &c.BaseQuantity, &c.Dimension); err != nil {
			return nil, err
		}
		contribs = append(contribs, c)
	}

	return contribs, nil
}

func (db *DB) requireManualItem(ctx context.Context, id int, userID int) error {
	var source models.ItemSource
	err := db.Pool.QueryRow(ctx, `
		SELECT source FROM shopping_items WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrShoppingItemNotFound
		}
		return err
	}
	if source != models.SourceManual {
		return ErrNotManualItem
	}
	return nil
}
