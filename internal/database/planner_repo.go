package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

var (
	ErrPlannerEntryNotFound = errors.New("planner entry not found")
	ErrPlannerFull          = errors.New("planner is full")
)

// ListPlannerEntries returns the user's non-cleared planner entries with
// their meals, oldest first
func (db *DB) ListPlannerEntries(ctx context.Context, userID int) ([]*models.PlannerEntryWithMeal, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT pe.id, pe.user_id, pe.meal_id, pe.is_completed, pe.is_cleared, pe.shopping_mode,
			pe.created_at, pe.updated_at,
			m.name, m.main_recipe_id, m.side_recipe_ids
		FROM planner_entries pe
		JOIN meals m ON pe.meal_id = m.id
		WHERE pe.user_id = $1 AND pe.is_cleared = FALSE
		ORDER BY pe.created_at ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.PlannerEntryWithMeal
	for rows.Next() {
		e := &models.PlannerEntryWithMeal{}
		err := rows.Scan(
			&e.ID, &e.UserID, &e.MealID, &e.IsCompleted, &e.IsCleared, &e.ShoppingMode,
			&e.CreatedAt, &e.UpdatedAt,
			&e.MealName, &e.MainRecipeID, &e.SideRecipeIDs,
		)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, nil
}

// GetPlannerEntryByID retrieves one planner entry owned by the user
func (db *DB) GetPlannerEntryByID(ctx context.Context, id int, userID int) (*models.PlannerEntry, error) {
	e := &models.PlannerEntry{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, meal_id, is_completed, is_cleared, shopping_mode, created_at, updated_at
		FROM planner_entries
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
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

// SetPlannerEntryCompleted toggles a slot's completion outside the sync
// transaction: marking a meal cooked succeeds even when the follow-up
// shopping-list sync fails
func (db *DB) SetPlannerEntryCompleted(ctx context.Context, id int, userID int, completed bool) (*models.PlannerEntry, error) {
	e := &models.PlannerEntry{}
	err := db.Pool.QueryRow(ctx, `
		UPDATE planner_entries
		SET is_completed = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_cleared = FALSE
		RETURNING id, user_id, meal_id, is_completed, is_cleared, shopping_mode, created_at, updated_at
	`, id, userID, completed).Scan(
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
