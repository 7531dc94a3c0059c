package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

var (
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrIngredientExists   = errors.New("ingredient already exists")
	ErrIngredientInUse    = errors.New("ingredient is used by a recipe")
)

// ListIngredients returns all ingredients for a user, ordered by name
func (db *DB) ListIngredients(ctx context.Context, userID int) ([]*models.Ingredient, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, name, category, created_at, updated_at
		FROM ingredients
		WHERE user_id = $1
		ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []*models.Ingredient
	for rows.Next() {
		ing := &models.Ingredient{}
		if err := rows.Scan(&ing.ID, &ing.UserID, &ing.Name, &ing.Category, &ing.CreatedAt, &ing.UpdatedAt); err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}

	return ingredients, nil
}

// GetIngredientByID retrieves one ingredient owned by the user
func (db *DB) GetIngredientByID(ctx context.Context, id int, userID int) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, category, created_at, updated_at
		FROM ingredients
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(&ing.ID, &ing.UserID, &ing.Name, &ing.Category, &ing.CreatedAt, &ing.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIngredientNotFound
		}
		return nil, err
	}

	return ing, nil
}

// CreateIngredient creates a new ingredient
func (db *DB) CreateIngredient(ctx context.Context, userID int, req *models.CreateIngredientRequest) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO ingredients (user_id, name, category, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, user_id, name, category, created_at, updated_at
	`, userID, req.Name, req.Category).Scan(&ing.ID, &ing.UserID, &ing.Name, &ing.Category, &ing.CreatedAt, &ing.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrIngredientExists
		}
		return nil, err
	}

	return ing, nil
}

// UpdateIngredient updates an ingredient's name and category
func (db *DB) UpdateIngredient(ctx context.Context, id int, userID int, req *models.UpdateIngredientRequest) (*models.Ingredient, error) {
	ing := &models.Ingredient{}
	err := db.Pool.QueryRow(ctx, `
		UPDATE ingredients
		SET name = COALESCE($3, name),
		    category = COALESCE($4, category),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, category, created_at, updated_at
	`, id, userID, req.Name, req.Category).Scan(&ing.ID, &ing.UserID, &ing.Name, &ing.Category, &ing.CreatedAt, &ing.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIngredientNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrIngredientExists
		}
		return nil, err
	}

	return ing, nil
}

// DeleteIngredient deletes an ingredient unless a recipe still uses it
func (db *DB) DeleteIngredient(ctx context.Context, id int, userID int) error {
	result, err := db.Pool.Exec(ctx, `
		DELETE FROM ingredients WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrIngredientInUse
		}
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrIngredientNotFound
	}

	return nil
}
