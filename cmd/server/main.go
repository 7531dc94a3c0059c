package main

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mjmiller3416/recipe-app/internal/config"
	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/handlers"
	"github.com/mjmiller3416/recipe-app/internal/logger"
	"github.com/mjmiller3416/recipe-app/internal/middleware"
	"github.com/mjmiller3416/recipe-app/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()

	logger.Init(cfg.Environment)
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logger.L().Fatal("failed to run migrations", zap.Error(err))
	}

	if err := database.EnsureAdminUser(db, cfg); err != nil {
		logger.Warn("could not ensure admin user", zap.Error(err))
	}

	// Photo storage is optional: without an endpoint the photo endpoints
	// return 503 and everything else works.
	var photos *services.PhotoStorage
	if cfg.S3Endpoint != "" {
		photos, err = services.NewPhotoStorage(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			logger.Warn("failed to initialize photo storage, photos disabled", zap.Error(err))
			photos = nil
		} else if err := photos.EnsureBucket(context.Background()); err != nil {
			logger.Warn("failed to ensure photo bucket exists", zap.Error(err))
		}
	}

	sync := services.NewShoppingSync(db, logger.L())

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	h := handlers.New(db, cfg, sync, photos)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", middleware.AuthRequired(cfg), h.GetCurrentUser)

	// Ingredient routes
	ingredients := api.Group("/ingredients", middleware.AuthRequired(cfg))
	ingredients.Get("/", h.ListIngredients)
	ingredients.Post("/", h.CreateIngredient)
	ingredients.Get("/:id", h.GetIngredient)
	ingredients.Put("/:id", h.UpdateIngredient)
	ingredients.Delete("/:id", h.DeleteIngredient)

	// Recipe routes
	recipes := api.Group("/recipes", middleware.AuthRequired(cfg))
	recipes.Get("/", h.ListRecipes)
	recipes.Post("/", h.CreateRecipe)
	recipes.Get("/:id", h.GetRecipe)
	recipes.Put("/:id", h.UpdateRecipe)
	recipes.Delete("/:id", h.DeleteRecipe)
	recipes.Post("/:id/photo", h.UploadRecipePhoto)
	recipes.Get("/:id/photo", h.GetRecipePhoto)
	recipes.Delete("/:id/photo", h.DeleteRecipePhoto)

	// Meal routes
	meals := api.Group("/meals", middleware.AuthRequired(cfg))
	meals.Get("/", h.ListMeals)
	meals.Post("/", h.CreateMeal)
	meals.Get("/:id", h.GetMeal)
	meals.Put("/:id", h.UpdateMeal)
	meals.Delete("/:id", h.DeleteMeal)

	// Planner routes. Every mutation here syncs the shopping list.
	planner := api.Group("/planner", middleware.AuthRequired(cfg))
	planner.Get("/", h.ListPlannerEntries)
	planner.Post("/", h.AddPlannerEntry)
	planner.Delete("/", h.ClearAllPlannerEntries)
	planner.Delete("/:id", h.ClearPlannerEntry)
	planner.Patch("/:id/shopping-mode", h.SetShoppingMode)
	planner.Patch("/:id/completed", h.SetCompleted)
	planner.Get("/:id/contributions", h.GetSlotContributions)

	// Shopping list routes
	shopping := api.Group("/shopping", middleware.AuthRequired(cfg))
	shopping.Get("/", h.ListShoppingItems)
	shopping.Post("/sync", h.SyncShoppingList)
	shopping.Post("/items", h.CreateManualItem)
	shopping.Put("/items/:id", h.UpdateManualItem)
	shopping.Delete("/items/:id", h.DeleteManualItem)
	shopping.Post("/items/:id/toggle-have", h.ToggleHave)
	shopping.Post("/items/:id/toggle-flagged", h.ToggleFlagged)
	shopping.Get("/items/:id/contributions", h.GetItemContributions)

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}
