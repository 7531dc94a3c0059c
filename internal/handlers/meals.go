package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/middleware"
	"github.com/mjmiller3416/recipe-app/internal/models"
)

// ListMeals returns all of the user's meals
func (h *Handler) ListMeals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	meals, err := h.db.ListMeals(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list meals")
	}

	return Success(c, meals)
}

// GetMeal returns one meal by id
func (h *Handler) GetMeal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid meal id")
	}

	meal, err := h.db.GetMealByID(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, database.ErrMealNotFound) {
			return Error(c, fiber.StatusNotFound, "meal not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get meal")
	}

	return Success(c, meal)
}

// CreateMeal creates a meal from a main recipe and up to three sides
func (h *Handler) CreateMeal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateMealRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}
	if req.MainRecipeID <= 0 {
		return Error(c, fiber.StatusBadRequest, "main_recipe_id is required")
	}
	if msg := validateSides(req.MainRecipeID, req.SideRecipeIDs); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	meal, err := h.db.CreateMeal(c.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusBadRequest, "unknown recipe id")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to create meal")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: meal})
}

// UpdateMeal edits a meal. Planner slots referencing it may now produce
// different ingredients, so a sync runs best-effort after the write.
func (h *Handler) UpdateMeal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid meal id")
	}

	var req models.UpdateMealRequest
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
	if req.SideRecipeIDs != nil {
		main := 0
		if req.MainRecipeID != nil {
			main = *req.MainRecipeID
		}
		if msg := validateSides(main, req.SideRecipeIDs); msg != "" {
			return Error(c, fiber.StatusBadRequest, msg)
		}
	}

	meal, err := h.db.UpdateMeal(c.Context(), id, userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrMealNotFound) {
			return Error(c, fiber.StatusNotFound, "meal not found")
		}
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusBadRequest, "unknown recipe id")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update meal")
	}

	result := h.sync.BestEffortSync(c.Context(), userID)

	return SuccessWithMeta(c, meal, fiber.Map{"sync": result})
}

// DeleteMeal removes a meal unless the planner still references it
func (h *Handler) DeleteMeal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid meal id")
	}

	if err := h.db.DeleteMeal(c.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrMealNotFound) {
			return Error(c, fiber.StatusNotFound, "meal not found")
		}
		if errors.Is(err, database.ErrMealInUse) {
			return Error(c, fiber.StatusConflict, "meal is on the planner")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete meal")
	}

	return Success(c, fiber.Map{"deleted": true})
}

// validateSides rejects too many sides and duplicate side ids. A side may
// repeat the main recipe; that is a deliberate doubling.
func validateSides(mainRecipeID int, sides []int) string {
	if len(sides) > models.MaxSideRecipes {
		return fmt.Sprintf("a meal can have at most %d side recipes", models.MaxSideRecipes)
	}
	seen := make(map[int]struct{}, len(sides))
	for _, id := range sides {
		if id <= 0 {
			return "invalid side recipe id"
		}
		if _, dup := seen[id]; dup {
			return "duplicate side recipe"
		}
		seen[id] = struct{}{}
	}
	return ""
}
