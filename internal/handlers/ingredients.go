package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/middleware"
	"github.com/mjmiller3416/recipe-app/internal/models"
)

// ListIngredients returns all of the user's ingredients
func (h *Handler) ListIngredients(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	ingredients, err := h.db.ListIngredients(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list ingredients")
	}

	return Success(c, ingredients)
}

// GetIngredient returns one ingredient by id
func (h *Handler) GetIngredient(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	ing, err := h.db.GetIngredientByID(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get ingredient")
	}

	return Success(c, ing)
}

// CreateIngredient adds a new ingredient to the user's catalog
func (h *Handler) CreateIngredient(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateIngredientRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}

	ing, err := h.db.CreateIngredient(c.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrIngredientExists) {
			return Error(c, fiber.StatusConflict, "ingredient already exists")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to create ingredient")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: ing})
}

// UpdateIngredient edits an ingredient's name or category. A category
// change propagates to the shopping list on the next sync, so one is
// triggered here best-effort.
func (h *Handler) UpdateIngredient(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	var req models.UpdateIngredientRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return Error(c, fiber.StatusBadRequest, "name cannot be empty")
		}
		req.Name = &trimmed
	}

	ing, err := h.db.UpdateIngredient(c.Context(), id, userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		if errors.Is(err, database.ErrIngredientExists) {
			return Error(c, fiber.StatusConflict, "ingredient already exists")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update ingredient")
	}

	h.sync.BestEffortSync(c.Context(), userID)

	return Success(c, ing)
}

// DeleteIngredient removes an ingredient unless a recipe still uses it
func (h *Handler) DeleteIngredient(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid ingredient id")
	}

	if err := h.db.DeleteIngredient(c.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusNotFound, "ingredient not found")
		}
		if errors.Is(err, database.ErrIngredientInUse) {
			return Error(c, fiber.StatusConflict, "ingredient is used by a recipe")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete ingredient")
	}

	return Success(c, fiber.Map{"deleted": true})
}
