package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjmiller3416/recipe-app/internal/config"
	"github.com/mjmiller3416/recipe-app/internal/database"
	"github.com/mjmiller3416/recipe-app/internal/models"
)

// seedIngredient is one catalog entry to create for the demo user
type seedIngredient struct {
	name     string
	category string
}

var demoIngredients = []seedIngredient{
	{"ground beef", "meat"},
	{"chicken breast", "meat"},
	{"bacon", "meat"},
	{"butter", "dairy"},
	{"cream cheese", "dairy"},
	{"milk", "dairy"},
	{"cheddar cheese", "dairy"},
	{"eggs", "dairy"},
	{"onion", "produce"},
	{"garlic", "produce"},
	{"tomato", "produce"},
	{"bell pepper", "produce"},
	{"lettuce", "produce"},
	{"potato", "produce"},
	{"broccoli", "produce"},
	{"flour", "pantry"},
	{"sugar", "pantry"},
	{"olive oil", "pantry"},
	{"salt", "pantry"},
	{"black pepper", "pantry"},
	{"pasta", "pantry"},
	{"rice", "pantry"},
	{"chicken broth", "pantry"},
}

// seedLine is one ingredient line of a demo recipe
type seedLine struct {
	ingredient string
	quantity   float64
	unit       string
}

type seedRecipe struct {
	name     string
	servings int
	lines    []seedLine
}

var demoRecipes = []seedRecipe{
	{
		name:     "Spaghetti Bolognese",
		servings: 4,
		lines: []seedLine{
			{"ground beef", 1, "lb"},
			{"onion", 1, ""},
			{"garlic", 3, "clove"},
			{"tomato", 4, ""},
			{"pasta", 1, "lb"},
			{"olive oil", 2, "tbsp"},
		},
	},
	{
		name:     "Roast Chicken and Potatoes",
		servings: 4,
		lines: []seedLine{
			{"chicken breast", 2, "lb"},
			{"potato", 6, ""},
			{"butter", 4, "tbsp"},
			{"garlic", 2, "clove"},
			{"salt", 1, "tsp"},
		},
	},
	{
		name:     "Garden Salad",
		servings: 2,
		lines: []seedLine{
			{"lettuce", 1, ""},
			{"tomato", 2, ""},
			{"bell pepper", 1, ""},
			{"olive oil", 1, "tbsp"},
		},
	},
	{
		name:     "Buttered Broccoli",
		servings: 4,
		lines: []seedLine{
			{"broccoli", 1, "lb"},
			{"butter", 2, "tbsp"},
			{"salt", 0.5, "tsp"},
		},
	},
}

func main() {
	email := flag.String("email", "demo@mealplanner.local", "Email for the demo user")
	password := flag.String("password", "demo1234", "Password for the demo user")
	flag.Parse()

	godotenv.Load()
	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	user, err := db.GetUserByEmail(ctx, *email)
	if err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		username := "demo"
		user, err = db.CreateUser(ctx, *email, string(hash), &username)
		if err != nil {
			log.Fatalf("Failed to create demo user: %v", err)
		}
		log.Printf("Created demo user %s (id=%d)", *email, user.ID)
	} else {
		log.Printf("Demo user %s already exists (id=%d)", *email, user.ID)
	}

	ingredientIDs := make(map[string]int, len(demoIngredients))
	created := 0
	for _, seed := range demoIngredients {
		category := seed.category
		ing, err := db.CreateIngredient(ctx, user.ID, &models.CreateIngredientRequest{
			Name:     seed.name,
			Category: &category,
		})
		if err != nil {
			// Already seeded on a previous run; look it up for the recipes below.
			existing, lookupErr := findIngredient(ctx, db, user.ID, seed.name)
			if lookupErr != nil {
				log.Fatalf("Failed to seed ingredient %q: %v", seed.name, err)
			}
			ingredientIDs[seed.name] = existing
			continue
		}
		ingredientIDs[seed.name] = ing.ID
		created++
	}
	log.Printf("Seeded %d ingredients (%d new)", len(demoIngredients), created)

	recipeIDs := make(map[string]int, len(demoRecipes))
	for _, seed := range demoRecipes {
		lines := make([]models.RecipeIngredientReq, 0, len(seed.lines))
		for _, l := range seed.lines {
			qty := l.quantity
			lines = append(lines, models.RecipeIngredientReq{
				IngredientID: ingredientIDs[l.ingredient],
				Quantity:     &qty,
				Unit:         l.unit,
			})
		}
		servings := seed.servings
		recipe, err := db.CreateRecipe(ctx, user.ID, &models.CreateRecipeRequest{
			Name:        seed.name,
			Servings:    &servings,
			Ingredients: lines,
		})
		if err != nil {
			log.Fatalf("Failed to seed recipe %q: %v", seed.name, err)
		}
		recipeIDs[seed.name] = recipe.ID
	}
	log.Printf("Seeded %d recipes", len(demoRecipes))

	meals := []models.CreateMealRequest{
		{
			Name:          "Pasta Night",
			MainRecipeID:  recipeIDs["Spaghetti Bolognese"],
			SideRecipeIDs: []int{recipeIDs["Garden Salad"]},
		},
		{
			Name:          "Sunday Roast",
			MainRecipeID:  recipeIDs["Roast Chicken and Potatoes"],
			SideRecipeIDs: []int{recipeIDs["Buttered Broccoli"], recipeIDs["Garden Salad"]},
		},
	}
	for _, req := range meals {
		if _, err := db.CreateMeal(ctx, user.ID, &req); err != nil {
			log.Fatalf("Failed to seed meal %q: %v", req.Name, err)
		}
	}
	log.Printf("Seeded %d meals", len(meals))

	log.Println("Done")
}

func findIngredient(ctx context.Context, db *database.DB, userID int, name string) (int, error) {
	ingredients, err := db.ListIngredients(ctx, userID)
	if err != nil {
		return 0, err
	}
	for _, ing := range ingredients {
		if ing.Name == name {
			return ing.ID, nil
		}
	}
	return 0, database.ErrIngredientNotFound
}
