package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mjmiller3416/recipe-app/internal/models"
)

var (
	ErrRecipeNotFound = errors.New("recipe not found")
	ErrRecipeInUse    = errors.New("recipe is used by a meal")
)

// ListRecipes returns all recipes for a user, ordered by name
func (db *DB) ListRecipes(ctx context.Context, userID int) ([]*models.Recipe, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, name, instructions, servings, image_key, created_at, updated_at
		FROM recipes
		WHERE user_id = $1
		ORDER BY name ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*models.Recipe
	for rows.Next() {
		r := &models.Recipe{}
		if err := rows.Scan(&r.ID, &r.UserID, &r.Name, &r.Instructions, &r.Servings, &r.ImageKey, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}

	return recipes, nil
}

// GetRecipeByID retrieves a recipe with its ordered ingredient lines
func (db *DB) GetRecipeByID(ctx context.Context, id int, userID int) (*models.RecipeWithIngredients, error) {
	recipe := &models.RecipeWithIngredients{}
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, name, instructions, servings, image_key, created_at, updated_at
		FROM recipes
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
		&recipe.ID, &recipe.UserID, &recipe.Name, &recipe.Instructions, &recipe.Servings,
		&recipe.ImageKey, &recipe.CreatedAt, &recipe.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT ri.id, ri.recipe_id, ri.ingredient_id, ri.quantity, ri.unit, ri.position,
			i.name, i.category
		FROM recipe_ingredients ri
		JOIN ingredients i ON ri.ingredient_id = i.id
		WHERE ri.recipe_id = $1
		ORDER BY ri.position ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recipe.Ingredients = []models.RecipeIngredientWithDetails{}
	for rows.Next() {
		line := models.RecipeIngredientWithDetails{}
		err := rows.Scan(
			&line.ID, &line.RecipeID, &line.IngredientID, &line.Quantity, &line.Unit, &line.Position,
			&line.IngredientName, &line.IngredientCategory,
		)
		if err != nil {
			return nil, err
		}
		recipe.Ingredients = append(recipe.Ingredients, line)
	}

	return recipe, nil
}

// CreateRecipe creates a recipe and its ingredient lines in one transaction
func (db *DB) CreateRecipe(ctx context.Context, userID int, req *models.CreateRecipeRequest) (*models.RecipeWithIngredients, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var recipeID int
	err = tx.QueryRow(ctx, `
		INSERT INTO recipes (user_id, name, instructions, servings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id
	`, userID, req.Name, req.Instructions, req.Servings).Scan(&recipeID)
	if err != nil {
		return nil, err
	}

	if err := insertRecipeLines(ctx, tx, recipeID, req.Ingredients); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return db.GetRecipeByID(ctx, recipeID, userID)
}

// UpdateRecipe updates a recipe; a non-nil ingredient list replaces all lines
func (db *DB) UpdateRecipe(ctx context.Context, id int, userID int, req *models.UpdateRecipeRequest) (*models.RecipeWithIngredients, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE recipes
		SET name = COALESCE($3, name),
		    instructions = COALESCE($4, instructions),
		    servings = COALESCE($5, servings),
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, req.Name, req.Instructions, req.Servings)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, ErrRecipeNotFound
	}

	if req.Ingredients != nil {
		_, err = tx.Exec(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = $1`, id)
		if err != nil {
			return nil, err
		}
		if err := insertRecipeLines(ctx, tx, id, req.Ingredients); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return db.GetRecipeByID(ctx, id, userID)
}

func insertRecipeLines(ctx context.Context, tx pgx.Tx, recipeID int, lines []models.RecipeIngredientReq) error {
	for i, line := range lines {
		_, err := tx.Exec(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, ingredient_id, quantity, unit, position)
			VALUES ($1, $2, $3, $4, $5)
		`, recipeID, line.IngredientID, line.Quantity, line.Unit, i)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return ErrIngredientNotFound
			}
			return err
		}
	}
	return nil
}

// DeleteRecipe deletes a recipe unless a meal still references it
func (db *DB) DeleteRecipe(ctx context.Context, id int, userID int) error {
	// Meals reference recipes by id in an array column, so the check is explicit
	var inUse bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM meals
			WHERE user_id = $2 AND (main_recipe_id = $1 OR $1 = ANY(side_recipe_ids))
		)
	`, id, userID).Scan(&inUse)
	if err != nil {
		return err
	}
	if inUse {
		return ErrRecipeInUse
	}

	result, err := db.Pool.Exec(ctx, `
		DELETE FROM recipes WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}

	return nil
}

// SetRecipeImageKey records the object-storage key of a recipe's photo
func (db *DB) SetRecipeImageKey(ctx context.Context, id int, userID int, key *string) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE recipes SET image_key = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, id, userID, key)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrRecipeNotFound
	}

	return nil
}
