package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeService handles recipe operations
type RecipeService struct {
	db       *gorm.DB
	images   *ImageService
	pageSize int
}

var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images *ImageService, pageSize int) *RecipeService {
	return &RecipeService{
		db:       db,
		images:   images,
		pageSize: pageSize,
	}
}

func (s *RecipeService) preloaded(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// ListRecipes returns one page of recipes, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uint, filter RecipeFilter, page Pagination) ([]types.RecipeResponse, int64, error) {
	page = page.Normalize(s.pageSize)
	db := s.db.WithContext(ctx)

	var count int64
	if err := filter.Apply(db.Model(&models.Recipe{}), viewerID).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := filter.Apply(s.preloaded(db), viewerID).
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	out, err := s.responses(db, viewerID, recipes)
	if err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

// GetRecipe returns a recipe as seen by viewerID.
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error) {
	db := s.db.WithContext(ctx)
	var recipe models.Recipe
	if err := s.preloaded(db).First(&recipe, id).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	out, err := s.responses(db, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// CreateRecipe stores a recipe of authorID together with its picture, tags and
// ingredient amounts.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, in *types.RecipeInput) (*types.RecipeResponse, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Image) == "" {
		return nil, fieldError("image", "This field is required.")
	}
	db := s.db.WithContext(ctx)
	if err := checkReferences(db, in); err != nil {
		return nil, err
	}

	imageURL, err := s.images.Store(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        in.Name,
		Text:        in.Text,
		CookingTime: in.CookingTime,
		Image:       imageURL,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := setRecipeTags(tx, recipe.ID, in.Tags); err != nil {
			return err
		}
		return setRecipeIngredients(tx, recipe.ID, in.Ingredients)
	})
	if err != nil {
		s.images.Remove(ctx, imageURL)
		return nil, err
	}

	metrics.RecipesCreated.Inc()
	logging.Info().Uint("recipe_id", recipe.ID).Uint("author_id", authorID).Msg("recipe created")
	return s.GetRecipe(ctx, authorID, recipe.ID)
}

// UpdateRecipe replaces the fields, tags and ingredients of recipe id. The picture is
// kept when in.Image is empty.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, id uint, in *types.RecipeInput) (*types.RecipeResponse, error) {
	db := s.db.WithContext(ctx)
	recipe, err := loadForWrite(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkReferences(db, in); err != nil {
		return nil, err
	}

	oldImage := recipe.Image
	imageURL := oldImage
	if strings.TrimSpace(in.Image) != "" {
		if imageURL, err = s.images.Store(ctx, in.Image); err != nil {
			return nil, err
		}
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{}).Where("id = ?", id).Updates(map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
			"image":        imageURL,
		}).Error; err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if err := setRecipeTags(tx, id, in.Tags); err != nil {
			return err
		}
		return setRecipeIngredients(tx, id, in.Ingredients)
	})
	if err != nil {
		if imageURL != oldImage {
			s.images.Remove(ctx, imageURL)
		}
		return nil, err
	}
	if imageURL != oldImage {
		s.images.Remove(ctx, oldImage)
	}

	return s.GetRecipe(ctx, userID, id)
}

// DeleteRecipe removes recipe id and everything that references it.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, id uint) error {
	db := s.db.WithContext(ctx)
	recipe, err := loadForWrite(db, userID, id)
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{&models.FavoriteRecipe{}, &models.CartRecipe{}, &models.RecipeIngredient{}} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return fmt.Errorf("failed to delete recipe references: %w", err)
			}
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to delete recipe tags: %w", err)
		}
		return tx.Delete(&models.Recipe{}, id).Error
	})
	if err != nil {
		return err
	}

	s.images.Remove(ctx, recipe.Image)
	logging.Info().Uint("recipe_id", id).Uint("user_id", userID).Msg("recipe deleted")
	return nil
}

func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	entry := &models.FavoriteRecipe{UserID: userID, RecipeID: recipeID}
	return s.addEntry(ctx, "favorites", entry, userID, recipeID, "Recipe is already in favorites.")
}

func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.removeEntry(ctx, "favorites", &models.FavoriteRecipe{}, userID, recipeID)
}

func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error) {
	entry := &models.CartRecipe{UserID: userID, RecipeID: recipeID}
	return s.addEntry(ctx, "shopping_cart", entry, userID, recipeID, "Recipe is already in the shopping cart.")
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.removeEntry(ctx, "shopping_cart", &models.CartRecipe{}, userID, recipeID)
}

// ShoppingList sums the ingredient amounts of all recipes in the cart of userID per
// (name, unit), ordered by name.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingItem, error) {
	items := []types.ShoppingItem{}
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, CAST(SUM(recipe_ingredients.amount) AS BIGINT) AS total_amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN cart_recipes ON cart_recipes.recipe_id = recipe_ingredients.recipe_id").
		Where("cart_recipes.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return items, nil
}

func (s *RecipeService) addEntry(ctx context.Context, list string, entry interface{}, userID, recipeID uint, duplicateMsg string) (*types.RecipeShortResponse, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			return notFound(err, "recipe")
		}

		var count int64
		if err := tx.Model(entry).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check %s: %w", list, err)
		}
		if count > 0 {
			return nonFieldError(duplicateMsg)
		}

		if err := tx.Omit(clause.Associations).Create(entry).Error; err != nil {
			return duplicateOr(err, duplicateMsg, "failed to add to "+list)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.UserListChanges.WithLabelValues(list, "add").Inc()
	resp := types.NewRecipeShortResponse(&recipe)
	return &resp, nil
}

func (s *RecipeService) removeEntry(ctx context.Context, list string, model interface{}, userID, recipeID uint) error {
	db := s.db.WithContext(ctx)
	var recipe models.Recipe
	if err := db.Select("id").First(&recipe, recipeID).Error; err != nil {
		return notFound(err, "recipe")
	}

	res := db.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to remove from %s: %w", list, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	metrics.UserListChanges.WithLabelValues(list, "remove").Inc()
	return nil
}

// responses converts recipes and fills the viewer relative flags with one query each.
func (s *RecipeService) responses(db *gorm.DB, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	followed, err := followedAuthors(db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}
	favorited, err := userRecipeSet(db, &models.FavoriteRecipe{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := userRecipeSet(db, &models.CartRecipe{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		out[i] = types.NewRecipeResponse(r, followed[r.AuthorID], favorited[r.ID], inCart[r.ID])
	}
	return out, nil
}

func userRecipeSet(db *gorm.DB, model interface{}, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return out, nil
	}
	var ids []uint
	if err := db.Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load user recipes: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// loadForWrite returns recipe id when userID may modify it: its author or an admin.
func loadForWrite(db *gorm.DB, userID, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.First(&recipe, id).Error; err != nil {
		return nil, notFound(err, "recipe")
	}
	if recipe.AuthorID == userID {
		return &recipe, nil
	}

	user, err := findUser(db, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrForbidden
	}
	return &recipe, nil
}

// checkReferences rejects repeated or unknown tags and ingredients.
func checkReferences(db *gorm.DB, in *types.RecipeInput) error {
	verr := NewValidationError()

	tagIDs := make([]uint, 0, len(in.Tags))
	seenTags := make(map[uint]bool)
	for _, id := range in.Tags {
		if seenTags[id] {
			verr.Add("tags", "Tags must not repeat.")
			break
		}
		seenTags[id] = true
		tagIDs = append(tagIDs, id)
	}

	ingredientIDs := make([]uint, 0, len(in.Ingredients))
	seenIngredients := make(map[uint]bool)
	for _, item := range in.Ingredients {
		if seenIngredients[item.ID] {
			verr.Add("ingredients", "Ingredients must not repeat.")
			break
		}
		seenIngredients[item.ID] = true
		ingredientIDs = append(ingredientIDs, item.ID)
	}

	missing, err := missingIDs(db, &models.Tag{}, tagIDs)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("tags", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
	}

	missing, err = missingIDs(db, &models.Ingredient{}, ingredientIDs)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("ingredients", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
	}

	return verr.Err()
}

// missingIDs returns the ids, in input order, that have no row in model's table.
func missingIDs(db *gorm.DB, model interface{}, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := db.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check references: %w", err)
	}
	exists := make(map[uint]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}

	var missing []uint
	for _, id := range ids {
		if !exists[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func setRecipeTags(tx *gorm.DB, recipeID uint, tagIDs []uint) error {
	if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", recipeID).Error; err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}
	rows := make([]map[string]interface{}, len(tagIDs))
	for i, id := range tagIDs {
		rows[i] = map[string]interface{}{"recipe_id": recipeID, "tag_id": id}
	}
	if err := tx.Table("recipe_tags").Create(rows).Error; err != nil {
		return duplicateOr(err, "Tags must not repeat.", "failed to set recipe tags")
	}
	return nil
}

func setRecipeIngredients(tx *gorm.DB, recipeID uint, items []types.RecipeIngredientInput) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return duplicateOr(err, "Ingredients must not repeat.", "failed to set recipe ingredients")
	}
	return nil
}
