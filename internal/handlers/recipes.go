package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/middleware"
	"github.com/mjmiller3416/recipe-app/internal/models"
	"github.com/mjmiller3416/recipe-app/internal/services"
)

const maxPhotoSize = 10 * 1024 * 1024 // 10MB

// ListRecipes returns all of the user's recipes without ingredient lines
func (h *Handler) ListRecipes(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	recipes, err := h.db.ListRecipes(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list recipes")
	}

	return Success(c, recipes)
}

// GetRecipe returns one recipe with its ordered ingredient lines
func (h *Handler) GetRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.db.GetRecipeByID(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get recipe")
	}

	return Success(c, recipe)
}

// CreateRecipe creates a recipe with its ingredient lines
func (h *Handler) CreateRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateRecipeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return Error(c, fiber.StatusBadRequest, "name is required")
	}
	if msg := validateRecipeLines(req.Ingredients); msg != "" {
		return Error(c, fiber.StatusBadRequest, msg)
	}

	recipe, err := h.db.CreateRecipe(c.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusBadRequest, "unknown ingredient id")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to create recipe")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: recipe})
}

// UpdateRecipe edits a recipe. When its ingredient lines change, any
// shopping items fed by planner slots using this recipe are stale, so a
// sync runs best-effort after the write.
func (h *Handler) UpdateRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	var req models.UpdateRecipeRequest
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
	if req.Ingredients != nil {
		if msg := validateRecipeLines(req.Ingredients); msg != "" {
			return Error(c, fiber.StatusBadRequest, msg)
		}
	}

	recipe, err := h.db.UpdateRecipe(c.Context(), id, userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		if errors.Is(err, database.ErrIngredientNotFound) {
			return Error(c, fiber.StatusBadRequest, "unknown ingredient id")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update recipe")
	}

	result := h.sync.BestEffortSync(c.Context(), userID)

	return SuccessWithMeta(c, recipe, fiber.Map{"sync": result})
}

// DeleteRecipe removes a recipe unless a meal still references it
func (h *Handler) DeleteRecipe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if err := h.db.DeleteRecipe(c.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		if errors.Is(err, database.ErrRecipeInUse) {
			return Error(c, fiber.StatusConflict, "recipe is used by a meal")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete recipe")
	}

	return Success(c, fiber.Map{"deleted": true})
}

// UploadRecipePhoto stores a recipe photo in object storage
func (h *Handler) UploadRecipePhoto(c *fiber.Ctx) error {
	if h.photos == nil {
		return Error(c, fiber.StatusServiceUnavailable, "photo storage not configured")
	}

	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	if _, err := h.db.GetRecipeByID(c.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get recipe")
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "photo file is required")
	}
	if fileHeader.Size > maxPhotoSize {
		return Error(c, fiber.StatusRequestEntityTooLarge, "photo exceeds 10MB limit")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return Error(c, fiber.StatusBadRequest, "file must be an image")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read photo")
	}
	defer file.Close()

	key := services.RecipePhotoKey(userID, id)
	if _, err := h.photos.Upload(c.Context(), key, file, fileHeader.Size, contentType); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to store photo")
	}

	if err := h.db.SetRecipeImageKey(c.Context(), id, userID, &key); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to save photo reference")
	}

	return Success(c, fiber.Map{"uploaded": true})
}

// GetRecipePhoto streams a recipe photo from object storage
func (h *Handler) GetRecipePhoto(c *fiber.Ctx) error {
	if h.photos == nil {
		return Error(c, fiber.StatusServiceUnavailable, "photo storage not configured")
	}

	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.db.GetRecipeByID(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get recipe")
	}
	if recipe.ImageKey == nil {
		return Error(c, fiber.StatusNotFound, "recipe has no photo")
	}

	obj, contentType, err := h.photos.Get(c.Context(), *recipe.ImageKey)
	if err != nil {
		return Error(c, fiber.StatusNotFound, "photo not found")
	}

	c.Set("Content-Type", contentType)
	return c.SendStream(obj)
}

// DeleteRecipePhoto removes a recipe's photo
func (h *Handler) DeleteRecipePhoto(c *fiber.Ctx) error {
	if h.photos == nil {
		return Error(c, fiber.StatusServiceUnavailable, "photo storage not configured")
	}

	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid recipe id")
	}

	recipe, err := h.db.GetRecipeByID(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, database.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to get recipe")
	}
	if recipe.ImageKey == nil {
		return Error(c, fiber.StatusNotFound, "recipe has no photo")
	}

	if err := h.photos.Delete(c.Context(), *recipe.ImageKey); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete photo")
	}
	if err := h.db.SetRecipeImageKey(c.Context(), id, userID, nil); err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to clear photo reference")
	}

	return Success(c, fiber.Map{"deleted": true})
}

func validateRecipeLines(lines []models.RecipeIngredientReq) string {
	for _, line := range lines {
		if line.IngredientID <= 0 {
			return "each ingredient line needs an ingredient_id"
		}
		if line.Quantity != nil && *line.Quantity < 0 {
			return "quantity cannot be negative"
		}
	}
	return ""
}
