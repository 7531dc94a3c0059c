package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

var (
	ErrMealNotFound = errors.New("meal not found")
	ErrMealInUse    = errors.New("meal is on the planner")
)

// ListMeals returns all meals for a user, ordered by name
func (db *DB) ListMeals(ctx context.Context, userID int) ([]*models.Meal, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, name, main_recipe_id, side_recipe_ids, created_at, updated_at
		FROM meals
		WHERE user_id = $1
		ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meals []*models.Meal
	for rows.Next() {
		m := &models.Meal{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.MainRecipeID, &m.SideRecipeIDs, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		meals = append(meals, m)
	}

	return meals, nil
}

// GetMealByID retrieves one meal owned by the user
func (db *DB) GetMealByID(ctx context.Context, id int, userID int) (*models.Meal, error) {
	m := &models.Meal{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, main_recipe_id, side_recipe_ids, created_at, updated_at
		FROM meals
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&m.ID, &m.UserID, &m.Name, &m.MainRecipeID, &m.SideRecipeIDs, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMealNotFound
		}
		return nil, err
	}

	return m, nil
}

// CreateMeal creates a new meal
func (db *DB) CreateMeal(ctx context.Context, userID int, req *models.CreateMealRequest) (*models.Meal, error) {
	m := &models.Meal{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO meals (user_id, name, main_recipe_id, side_recipe_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, user_id, name, main_recipe_id, side_recipe_ids, created_at, updated_at
	`, userID, req.Name, req.MainRecipeID, req.SideRecipeIDs).Scan(
		&m.ID, &m.UserID, &m.Name, &m.MainRecipeID, &m.SideRecipeIDs, &m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	return m, nil
}

// UpdateMeal updates a meal; a non-nil side list replaces the existing sides
func (db *DB) UpdateMeal(ctx context.Context, id int, userID int, req *models.UpdateMealRequest) (*models.Meal, error) {
	m := &models.Meal{}
	err := db.Pool.QueryRow(ctx, `
		UPDATE meals
		SET name = COALESCE($3, name),
		    main_recipe_id = COALESCE($4, main_recipe_id),
		    side_recipe_ids = COALESCE($5, side_recipe_ids),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, main_recipe_id, side_recipe_ids, created_at, updated_at
	`, id, userID, req.Name, req.MainRecipeID, req.SideRecipeIDs).Scan(
		&m.ID, &m.UserID, &m.Name, &m.MainRecipeID, &m.SideRecipeIDs, &m.CreatedAt, &m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMealNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	return m, nil
}

// DeleteMeal deletes a meal unless a planner entry still references it
func (db *DB) DeleteMeal(ctx context.Context, id int, userID int) error {
	// Cleared entries count too: they keep their meal reference for history
	var inUse bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM planner_entries
			WHERE meal_id = $1 AND user_id = $2
		)
	`, id, userID).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return ErrMealInUse
	}

	result, err := db.Pool.Exec(ctx, `
		DELETE FROM meals WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrMealNotFound
	}

	return nil
}
