package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/middleware"
	"github.com/mjmiller3416/recipe-app/internal/models"
	"github.com/mjmiller3416/recipe-app/internal/services"
)

// ListPlannerEntries returns all non-cleared planner slots with their meals
func (h *Handler) ListPlannerEntries(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	entries, err := h.db.ListPlannerEntries(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list planner")
	}

	return Success(c, entries)
}

// AddPlannerEntry adds a meal to the planner. The slot insert and the
// shopping-list sync it triggers commit in one transaction: if the sync
// fails, the slot is not added.
func (h *Handler) AddPlannerEntry(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.AddPlannerEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.MealID <= 0 {
		return Error(c, fiber.StatusBadRequest, "meal_id is required")
	}
	if req.ShoppingMode == "" {
		req.ShoppingMode = models.ShoppingModeAll
	}
	if !req.ShoppingMode.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid shopping_mode")
	}

	if _, err := h.db.GetMealByID(c.Context(), req.MealID, userID); err != nil {
		if errors.Is(err, database.ErrMealNotFound) {
			return Error(c, fiber.StatusBadRequest, "unknown meal id")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to check meal")
	}

	var entry *models.PlannerEntry
	result, err := h.sync.SyncWithMutation(c.Context(), userID, func(tx services.SyncTx) error {
		var err error
		entry, err = tx.AddPlannerEntry(c.Context(), userID, req.MealID, req.ShoppingMode)
		return err
	})
	if err != nil {
		if errors.Is(err, database.ErrPlannerFull) {
			return Error(c, fiber.StatusConflict, "planner is full")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to add planner entry")
	}

	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    entry,
		Meta:    fiber.Map{"sync": result},
	})
}

// ClearPlannerEntry soft-deletes one slot and syncs the shopping list
// in the same transaction
func (h *Handler) ClearPlannerEntry(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid planner entry id")
	}

	result, err := h.sync.SyncWithMutation(c.Context(), userID, func(tx services.SyncTx) error {
		return tx.ClearPlannerEntry(c.Context(), userID, id)
	})
	if err != nil {
		if errors.Is(err, database.ErrPlannerEntryNotFound) {
			return Error(c, fiber.StatusNotFound, "planner entry not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to clear planner entry")
	}

	return SuccessWithMeta(c, fiber.Map{"cleared": true}, fiber.Map{"sync": result})
}

// ClearAllPlannerEntries soft-deletes every slot; the sync then removes
// all recipe-sourced shopping items while manual ones survive
func (h *Handler) ClearAllPlannerEntries(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	result, err := h.sync.SyncWithMutation(c.Context(), userID, func(tx services.SyncTx) error {
		return tx.ClearAllPlannerEntries(c.Context(), userID)
	})
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to clear planner")
	}

	return SuccessWithMeta(c, fiber.Map{"cleared": true}, fiber.Map{"sync": result})
}

// SetShoppingMode changes how one slot feeds the shopping list, syncing
// in the same transaction
func (h *Handler) SetShoppingMode(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid planner entry id")
	}

	var req models.SetShoppingModeRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if !req.ShoppingMode.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid shopping_mode")
	}

	var entry *models.PlannerEntry
	result, err := h.sync.SyncWithMutation(c.Context(), userID, func(tx services.SyncTx) error {
		var err error
		entry, err = tx.SetPlannerShoppingMode(c.Context(), userID, id, req.ShoppingMode)
		return err
	})
	if err != nil {
		if errors.Is(err, database.ErrPlannerEntryNotFound) {
			return Error(c, fiber.StatusNotFound, "planner entry not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to set shopping mode")
	}

	return SuccessWithMeta(c, entry, fiber.Map{"sync": result})
}

// GetSlotContributions returns what one slot currently feeds into the
// shopping list, for previewing what clearing it would remove
func (h *Handler) GetSlotContributions(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid planner entry id")
	}

	contribs, err := h.db.ListContributionsForSlot(c.Context(), id, userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list contributions")
	}

	return Success(c, contribs)
}

// SetCompleted toggles whether a slot's meal has been cooked. The toggle
// itself must succeed even when the sync cannot, so the sync here is
// best-effort rather than transactional.
func (h *Handler) SetCompleted(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid planner entry id")
	}

	var req models.SetCompletedRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	entry, err := h.db.SetPlannerEntryCompleted(c.Context(), id, userID, req.IsCompleted)
	if err != nil {
		if errors.Is(err, database.ErrPlannerEntryNotFound) {
			return Error(c, fiber.StatusNotFound, "planner entry not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to update planner entry")
	}

	result := h.sync.BestEffortSync(c.Context(), userID)

	return SuccessWithMeta(c, entry, fiber.Map{"sync": result})
}
