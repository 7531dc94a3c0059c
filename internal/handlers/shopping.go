package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/middleware"
	"github.com/mjmiller3416/recipe-app/internal/models"
)

// ListShoppingItems returns the full shopping list, grouped by category
// on the client side via the ordering
func (h *Handler) ListShoppingItems(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	items, err := h.db.ListShoppingItems(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list shopping items")
	}

	return Success(c, items)
}

// SyncShoppingList forces a full recompute of the recipe-sourced items.
// Normally unnecessary since every planner mutation syncs, but useful
// after bulk ingredient or recipe edits.
func (h *Handler) SyncShoppingList(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	result, err := h.sync.Sync(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to sync shopping list")
	}

	return Success(c, result)
}

// CreateManualItem adds a user-owned item to the list. Manual items are
// invisible to the sync engine and survive every planner change.
func (h *Handler) CreateManualItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateManualItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.IngredientName = strings.TrimSpace(req.IngredientName)
	if req.IngredientName == "" {
		return Error(c, fiber.StatusBadRequest, "ingredient_name is required")
	}
	if req.Quantity < 0 {
		return Error(c, fiber.StatusBadRequest, "quantity cannot be negative")
	}

	item, err := h.db.CreateManualItem(c.Context(), userID, &req)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to create item")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Data: item})
}

// UpdateManualItem edits a manual item. Recipe-sourced items cannot be
// edited directly; their quantities belong to the sync engine.
func (h *Handler) UpdateManualItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	var req models.UpdateManualItemRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	if req.IngredientName != nil {
		trimmed := strings.TrimSpace(*req.IngredientName)
		if trimmed == "" {
			return Error(c, fiber.StatusBadRequest, "ingredient_name cannot be empty")
		}
		req.IngredientName = &trimmed
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		return Error(c, fiber.StatusBadRequest, "quantity cannot be negative")
	}

	item, err := h.db.UpdateManualItem(c.Context(), id, userID, &req)
	if err != nil {
		if errors.Is(err, database.ErrShoppingItemNotFound) {
			return Error(c, fiber.StatusNotFound, "item not found")
		}
		if errors.Is(err, database.ErrNotManualItem) {
			return Error(c, fiber.StatusForbidden, "recipe items are managed by the planner")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update item")
	}

	return Success(c, item)
}

// DeleteManualItem removes a manual item
func (h *Handler) DeleteManualItem(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	if err := h.db.DeleteManualItem(c.Context(), id, userID); err != nil {
		if errors.Is(err, database.ErrShoppingItemNotFound) {
			return Error(c, fiber.StatusNotFound, "item not found")
		}
		if errors.Is(err, database.ErrNotManualItem) {
			return Error(c, fiber.StatusForbidden, "recipe items are managed by the planner")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete item")
	}

	return Success(c, fiber.Map{"deleted": true})
}

// ToggleHave flips an item's checked-off state. Works on any item; the
// flag survives syncs unless the item's quantity grows.
func (h *Handler) ToggleHave(c *fiber.Ctx) error {
	return h.toggleItemFlag(c, h.db.ToggleItemHave)
}

// ToggleFlagged flips an item's flagged state
func (h *Handler) ToggleFlagged(c *fiber.Ctx) error {
	return h.toggleItemFlag(c, h.db.ToggleItemFlagged)
}

func (h *Handler) toggleItemFlag(c *fiber.Ctx, toggle func(ctx context.Context, id int, userID int) (*models.ShoppingItem, error)) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	item, err := toggle(c.Context(), id, userID)
	if err != nil {
		if errors.Is(err, database.ErrShoppingItemNotFound) {
			return Error(c, fiber.StatusNotFound, "item not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update item")
	}

	return Success(c, item)
}

// GetItemContributions returns the per-slot, per-recipe breakdown behind
// one recipe-sourced item
func (h *Handler) GetItemContributions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	contribs, err := h.db.ListContributionsForItem(c.Context(), id, userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list contributions")
	}

	return Success(c, contribs)
}
