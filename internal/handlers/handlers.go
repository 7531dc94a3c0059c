package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mjmiller3416/recipe-app/internal/config"
	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/services"
)

// Handler holds all handler dependencies
type Handler struct {
	db     *database.DB
	cfg    *config.Config
	sync   *services.ShoppingSync
	photos *services.PhotoStorage
}

// New creates a new Handler instance. photos may be nil when no object
// storage is configured; the photo endpoints then return 503.
func New(db *database.DB, cfg *config.Config, sync *services.ShoppingSync, photos *services.PhotoStorage) *Handler {
	return &Handler{
		db:     db,
		cfg:    cfg,
		sync:   sync,
		photos: photos,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with extra metadata,
// used to report sync results alongside the primary payload
func SuccessWithMeta(c *fiber.Ctx, data interface{}, meta interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}
