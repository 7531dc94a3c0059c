package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mjmiller3416/recipe-app/internal/models"
	"github.com/mjmiller3416/recipe-app/internal/services"
)

// InSyncTx runs fn inside one database transaction, the sync engine's
// unit of atomicity. A per-user advisory lock serializes concurrent
// mutate+sync sequences for the same user: the second one blocks until
// the first commits, then recomputes from its committed state.
func (db *DB) InSyncTx(ctx context.Context, userID int, fn func(tx services.SyncTx) error) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(userID)); err != nil {
		return err
	}

	if err := fn(&syncTx{tx: tx}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// syncTx implements services.SyncTx over one pgx transaction.
type syncTx struct {
	tx pgx.Tx
}

// ActiveSlots returns the planner entries that feed the shopping list,
// with each meal expanded to its recipe ids (main + sides, duplicates
// preserved so they scale quantities)
func (s *syncTx) ActiveSlots(ctx context.Context, userID int) ([]models.ActiveSlot, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT pe.id, pe.shopping_mode, m.main_recipe_id, m.side_recipe_ids
		FROM planner_entries pe
		JOIN meals m ON pe.meal_id = m.id
		WHERE pe.user_id = $1
			AND pe.is_completed = FALSE
			AND pe.is_cleared = FALSE
			AND pe.shopping_mode != 'none'
		ORDER BY pe.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []models.ActiveSlot
	for rows.Next() {
		var slot models.ActiveSlot
		var mainRecipeID int
		var sideRecipeIDs []int
		if err := rows.Scan(&slot.SlotID, &slot.ShoppingMode, &mainRecipeID, &sideRecipeIDs); err != nil {
			return nil, err
		}
		slot.RecipeIDs = append([]int{mainRecipeID}, sideRecipeIDs...)
		slots = append(slots, slot)
	}

	return slots, nil
}

// RecipeIngredientLines returns the flattened ingredient lines of the
// given recipes, with ingredient names and categories resolved
func (s *syncTx) RecipeIngredientLines(ctx context.Context, recipeIDs []int) ([]models.RecipeIngredientLine, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT ri.recipe_id, i.name, i.category, ri.quantity, ri.unit
		FROM recipe_ingredients ri
		JOIN ingredients i ON ri.ingredient_id = i.id
		WHERE ri.recipe_id = ANY($1)
		ORDER BY ri.recipe_id, ri.position
	`, recipeIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.RecipeIngredientLine
	for rows.Next() {
		var line models.RecipeIngredientLine
		if err := rows.Scan(&line.RecipeID, &line.IngredientName, &line.IngredientCategory, &line.Quantity, &line.Unit); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// IngredientCategory looks up the stored category for an ingredient name;
// nil when the ingredient is unknown or uncategorized
func (s *syncTx) IngredientCategory(ctx context.Context, userID int, name string) (*string, error) {
	var category *string
	err := s.tx.QueryRow(ctx, `
		SELECT category FROM ingredients
		WHERE user_id = $1 AND LOWER(name) = LOWER($2)
	`, userID, name).Scan(&category)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return category, nil
}

// OverrideRules returns the global rules plus the user's own
func (s *syncTx) OverrideRules(ctx context.Context, userID int) ([]models.UnitOverrideRule, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, ingredient_name, from_unit, to_unit, factor, round_up
		FROM shopping_unit_rules
		WHERE user_id IS NULL OR user_id = $1
		ORDER BY user_id NULLS FIRST, id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.UnitOverrideRule
	for rows.Next() {
		var r models.UnitOverrideRule
		if err := rows.Scan(&r.ID, &r.IngredientName, &r.FromUnit, &r.ToUnit, &r.Factor, &r.RoundUp); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	return rules, nil
}

// RecipeItems returns every recipe-sourced shopping item; manual items
// are never visible to the engine
func (s *syncTx) RecipeItems(ctx context.Context, userID int) ([]*models.ShoppingItem, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT id, user_id, ingredient_name, quantity, unit, category, source, have, flagged, aggregation_key, created_at, updated_at
		FROM shopping_items
		WHERE user_id = $1 AND source = 'recipe'
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.ShoppingItem
	for rows.Next() {
		item := &models.ShoppingItem{}
		err := rows.Scan(
			&item.ID, &item.UserID, &item.IngredientName, &item.Quantity, &item.Unit, &item.Category,
			&item.Source, &item.Have, &item.Flagged, &item.AggregationKey, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, nil
}

// RecipeItemContributions loads the contribution ledger for all of the
// user's recipe-sourced items, keyed by item id
func (s *syncTx) RecipeItemContributions(ctx context.Context, userID int) (map[int][]models.ShoppingItemContribution, error) {
	rows, err := s.tx.Query(ctx, `
		SELECT c.id, c.shopping_item_id, c.recipe_id, c.planner_entry_id, c.base_quantity, c.dimension
		FROM shopping_item_contributions c
		JOIN shopping_items si ON c.shopping_item_id = si.id
		WHERE si.user_id = $1 AND si.source = 'recipe'
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contribs := make(map[int][]models.ShoppingItemContribution)
	for rows.Next() {
		var c models.ShoppingItemContribution
		if err := rows.Scan(&c.ID, &c.ShoppingItemID, &c.RecipeID, &c.PlannerEntryID, &c.BaseQuantity, &c.Dimension); err != nil {
			return nil, err
		}
		contribs[c.ShoppingItemID] = append(contribs[c.ShoppingItemID], c)
	}

	return contribs, nil
}

// CreateRecipeItem inserts a new engine-managed item and returns its id
func (s *syncTx) CreateRecipeItem(ctx context.Context, item *models.ShoppingItem) (int, error) {
	var id int
	err := s.tx.QueryRow(ctx, `
		INSERT INTO shopping_items (user_id, ingredient_name, quantity, unit, category, source, have, flagged, aggregation_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'recipe', false, false, $6, NOW(), NOW())
		RETURNING id
	`, item.UserID, item.IngredientName, item.Quantity, item.Unit, item.Category, item.AggregationKey).Scan(&id)

	if err != nil {
		return 0, err
	}

	return id, nil
}

// UpdateRecipeItem writes a recomputed display quantity/unit. When the
// quantity grew, the user-owned have/flagged flags reset so the user
// re-confirms; otherwise they are left alone.
func (s *syncTx) UpdateRecipeItem(ctx context.Context, userID, itemID int, quantity float64, unit string, resetOwnedFlags bool) error {
	_, err := s.tx.Exec(ctx, `
		UPDATE shopping_items
		SET quantity = $3,
		    unit = $4,
		    have = CASE WHEN $5 THEN false ELSE have END,
		    flagged = CASE WHEN $5 THEN false ELSE flagged END,
		    updated_at = NOW()
		WHERE id = $2 AND user_id = $1 AND source = 'recipe'
	`, userID, itemID, quantity, unit, resetOwnedFlags)
	return err
}

// DeleteRecipeItems removes orphaned items; contributions cascade
func (s *syncTx) DeleteRecipeItems(ctx context.Context, userID int, itemIDs []int) error {
	_, err := s.tx.Exec(ctx, `
		DELETE FROM shopping_items
		WHERE user_id = $1 AND source = 'recipe' AND id = ANY($2)
	`, userID, itemIDs)
	return err
}

// ReplaceContributions rewrites an item's ledger rows wholesale.
// Delete-then-insert is intentional simplicity over incremental patching;
// slot counts are small enough that the write amplification is cheap.
func (s *syncTx) ReplaceContributions(ctx context.Context, itemID int, contribs []models.ShoppingItemContribution) error {
	if _, err := s.tx.Exec(ctx, `
		DELETE FROM shopping_item_contributions WHERE shopping_item_id = $1
	`, itemID); err != nil {
		return err
	}

	for _, c := range contribs {
		_, err := s.tx.Exec(ctx, `
			INSERT INTO shopping_item_contributions (shopping_item_id, recipe_id, planner_entry_id, base_quantity, dimension)
			VALUES ($1, $2, $3, $4, $5)
		`, itemID, c.RecipeID, c.PlannerEntryID, c.BaseQuantity, c.Dimension)
		if err != nil {
			return err
		}
	}

	return nil
}

// AddPlannerEntry adds a meal to the planner inside the sync transaction,
// enforcing the active-slot cap
func (s *syncTx) AddPlannerEntry(ctx context.Context, userID, mealID int, mode models.ShoppingMode) (*models.PlannerEntry, error) {
	var activeCount int
	err := s.tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM planner_entries
		WHERE user_id = $1 AND is_completed = FALSE AND is_cleared = FALSE
	`, userID).Scan(&activeCount)
	if err != nil {
		return nil, err
	}
	if activeCount >= models.MaxActivePlannerEntries {
		return nil, ErrPlannerFull
	}

	e := &models.PlannerEntry{}
	err = s.tx.QueryRow(ctx, `
		INSERT INTO planner_entries (user_id, meal_id, shopping_mode, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, user_id, meal_id, is_completed, is_cleared, shopping_mode, created_at, updated_at
	`, userID, mealID, mode).Scan(
		&e.ID, &e.UserID, &e.MealID, &e.IsCompleted, &e.IsCleared, &e.ShoppingMode, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// ClearPlannerEntry soft-deletes one slot
func (s *syncTx) ClearPlannerEntry(ctx context.Context, userID, entryID int) error {
	result, err := s.tx.Exec(ctx, `
		UPDATE planner_entries
		SET is_cleared = TRUE, updated_at = NOW()
		WHERE id = $2 AND user_id = $1 AND is_cleared = FALSE
	`, userID, entryID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPlannerEntryNotFound
	}
	return nil
}

// ClearAllPlannerEntries soft-deletes every non-cleared slot
func (s *syncTx) ClearAllPlannerEntries(ctx context.Context, userID int) error {
	_, err := s.tx.Exec(ctx, `
		UPDATE planner_entries
		SET is_cleared = TRUE, updated_at = NOW()
		WHERE user_id = $1 AND is_cleared = FALSE
	`, userID)
	return err
}

// SetPlannerShoppingMode changes how one slot feeds the shopping list
func (s *syncTx) SetPlannerShoppingMode(ctx context.Context, userID, entryID int, mode models.ShoppingMode) (*models.PlannerEntry, error) {
	e := &models.PlannerEntry{}
	err := s.tx.QueryRow(ctx, `
		UPDATE planner_entries
		SET shopping_mode = $3, updated_at = NOW()
		WHERE id = $2 AND user_id = $1 AND is_cleared = FALSE
		RETURNING id, user_id, meal_id, is_completed, is_cleared, shopping_mode, created_at, updated_at
	`, userID, entryID, mode).Scan(
		&e.ID, &e.UserID, &e.MealID, &e.IsCompleted, &e.IsCleared, &e.ShoppingMode, &e.CreatedAt, &e.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlannerEntryNotFound
		}
		return nil, err
	}

	return e, nil
}
