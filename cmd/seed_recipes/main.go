package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeData is one demo recipe. Tags and ingredients are referenced by name and
// created when missing.
type RecipeData struct {
	Name        string           `json:"name"`
	Text        string           `json:"text"`
	CookingTime int              `json:"cooking_time"`
	Tags        []TagData        `json:"tags"`
	Ingredients []IngredientData `json:"ingredients"`
}

type TagData struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientData struct {
	Name   string `json:"name"`
	Unit   string `json:"measurement_unit"`
	Amount int    `json:"amount"`
}

var (
	breakfast = TagData{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}
	lunch     = TagData{Name: "Lunch", Color: "#49B64E", Slug: "lunch"}
	dinner    = TagData{Name: "Dinner", Color: "#8775D2", Slug: "dinner"}
)

var demoRecipes = []RecipeData{
	{
		Name: "Buttermilk pancakes", Text: "Whisk the batter, rest it for ten minutes and fry on a hot pan.", CookingTime: 25,
		Tags: []TagData{breakfast},
		Ingredients: []IngredientData{
			{"flour", "g", 250}, {"buttermilk", "ml", 400}, {"egg", "pcs", 2}, {"sugar", "g", 30},
		},
	},
	{
		Name: "Tomato soup", Text: "Roast the tomatoes with garlic, blend with stock and season.", CookingTime: 45,
		Tags: []TagData{lunch, dinner},
		Ingredients: []IngredientData{
			{"tomato", "g", 800}, {"garlic", "clove", 3}, {"vegetable stock", "ml", 500},
		},
	},
	{
		Name: "Shakshuka", Text: "Simmer peppers and tomatoes, crack in the eggs and cover until set.", CookingTime: 30,
		Tags: []TagData{breakfast, lunch},
		Ingredients: []IngredientData{
			{"egg", "pcs", 4}, {"tomato", "g", 400}, {"bell pepper", "pcs", 2}, {"garlic", "clove", 2},
		},
	},
	{
		Name: "Mushroom risotto", Text: "Toast the rice, add stock ladle by ladle and finish with parmesan.", CookingTime: 40,
		Tags: []TagData{dinner},
		Ingredients: []IngredientData{
			{"arborio rice", "g", 300}, {"mushrooms", "g", 250}, {"vegetable stock", "ml", 1000}, {"parmesan", "g", 60},
		},
	},
}

var palette = []color.NRGBA{
	{R: 226, G: 108, B: 45, A: 255},
	{R: 73, G: 182, B: 78, A: 255},
	{R: 135, G: 117, B: 210, A: 255},
	{R: 240, G: 200, B: 70, A: 255},
}

func main() {
	file := flag.String("file", "", "JSON file with recipes to seed (defaults to the built-in demo set)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	recipes := demoRecipes
	if *file != "" {
		if recipes, err = loadRecipes(*file); err != nil {
			logging.Fatal().Err(err).Str("file", *file).Msg("failed to read recipes")
		}
	}

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	var authors []models.User
	if err := db.Order("id").Find(&authors).Error; err != nil || len(authors) == 0 {
		logging.Fatal().Err(err).Msg("no users found, run seed_test_users first")
	}

	ctx := context.Background()
	catalog := service.NewCatalogService(db)
	images := service.NewImageService(service.NewLocalImageStore(cfg.MediaDir, cfg.MediaURL))
	recipeService := service.NewRecipeService(db, images, cfg.PageSize)

	created := 0
	for i, data := range recipes {
		author := authors[i%len(authors)]
		in, err := buildInput(ctx, db, catalog, data, palette[i%len(palette)])
		if err != nil {
			logging.Fatal().Err(err).Str("recipe", data.Name).Msg("failed to prepare recipe")
		}

		recipe, err := recipeService.CreateRecipe(ctx, author.ID, in)
		if err != nil {
			logging.Error().Err(err).Str("recipe", data.Name).Msg("failed to create recipe")
			continue
		}
		logging.Info().Uint("recipe_id", recipe.ID).Str("author", author.Username).Msg("seeded recipe")
		created++
	}

	logging.Info().Int("created", created).Int("total", len(recipes)).Msg("recipe seeding complete")
}

func loadRecipes(path string) ([]RecipeData, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var recipes []RecipeData
	if err := json.Unmarshal(content, &recipes); err != nil {
		return nil, fmt.Errorf("failed to parse recipes: %w", err)
	}
	return recipes, nil
}

// buildInput makes sure the tags and ingredients of data exist and resolves them to ids.
func buildInput(ctx context.Context, db *gorm.DB, catalog *service.CatalogService, data RecipeData, tint color.NRGBA) (*types.RecipeInput, error) {
	in := &types.RecipeInput{Name: data.Name, Text: data.Text, CookingTime: data.CookingTime}

	tags := make([]models.Tag, len(data.Tags))
	for i, t := range data.Tags {
		tags[i] = models.Tag{Name: t.Name, Color: t.Color, Slug: t.Slug}
	}
	if _, err := catalog.ImportTags(ctx, tags); err != nil {
		return nil, err
	}
	for _, t := range data.Tags {
		var tag models.Tag
		if err := db.WithContext(ctx).Where("slug = ?", t.Slug).First(&tag).Error; err != nil {
			return nil, fmt.Errorf("failed to load tag %s: %w", t.Slug, err)
		}
		in.Tags = append(in.Tags, tag.ID)
	}

	ingredients := make([]models.Ingredient, len(data.Ingredients))
	for i, ing := range data.Ingredients {
		ingredients[i] = models.Ingredient{Name: ing.Name, MeasurementUnit: ing.Unit}
	}
	if _, err := catalog.ImportIngredients(ctx, ingredients); err != nil {
		return nil, err
	}
	for _, ing := range data.Ingredients {
		var ingredient models.Ingredient
		if err := db.WithContext(ctx).
			Where("name = ? AND measurement_unit = ?", ing.Name, ing.Unit).
			First(&ingredient).Error; err != nil {
			return nil, fmt.Errorf("failed to load ingredient %s: %w", ing.Name, err)
		}
		in.Ingredients = append(in.Ingredients, types.RecipeIngredientInput{ID: ingredient.ID, Amount: ing.Amount})
	}

	image, err := placeholderImage(tint)
	if err != nil {
		return nil, err
	}
	in.Image = image
	return in, nil
}

// placeholderImage renders a solid 640x480 picture as a data URI.
func placeholderImage(tint color.NRGBA) (string, error) {
	img := imaging.New(640, 480, tint)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return "", fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
