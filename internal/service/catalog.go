package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// importBatchSize bounds the rows of one INSERT during CSV imports.
const importBatchSize = 500

// CatalogService manages tags and ingredients.
type CatalogService struct {
	db *gorm.DB
}

var _ ICatalogService = (*CatalogService)(nil)

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, notFound(err, "tag")
	}
	return &tag, nil
}

// CreateTag adds a tag. Name and slug must be unused.
func (s *CatalogService) CreateTag(ctx context.Context, in *types.TagInput) (*models.Tag, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.checkTagUnique(db, 0, in); err != nil {
		return nil, err
	}

	tag := models.Tag{Name: in.Name, Color: tagColor(in.Color), Slug: in.Slug}
	if err := db.Create(&tag).Error; err != nil {
		return nil, duplicateOr(err, "A tag with this name or slug already exists.", "failed to create tag")
	}
	logging.Info().Uint("tag_id", tag.ID).Str("slug", tag.Slug).Msg("tag created")
	return &tag, nil
}

// UpdateTag replaces all fields of tag id.
func (s *CatalogService) UpdateTag(ctx context.Context, id uint, in *types.TagInput) (*models.Tag, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	tag, err := s.GetTag(ctx, id)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if err := s.checkTagUnique(db, id, in); err != nil {
		return nil, err
	}

	tag.Name = in.Name
	tag.Color = tagColor(in.Color)
	tag.Slug = in.Slug
	if err := db.Save(tag).Error; err != nil {
		return nil, duplicateOr(err, "A tag with this name or slug already exists.", "failed to update tag")
	}
	return tag, nil
}

// DeleteTag removes a tag and detaches it from all recipes.
func (s *CatalogService) DeleteTag(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tag models.Tag
		if err := tx.First(&tag, id).Error; err != nil {
			return notFound(err, "tag")
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to detach tag: %w", err)
		}
		return tx.Delete(&tag).Error
	})
}

func (s *CatalogService) checkTagUnique(db *gorm.DB, exceptID uint, in *types.TagInput) error {
	verr := NewValidationError()
	var count int64
	if err := db.Model(&models.Tag{}).Where("name = ? AND id <> ?", in.Name, exceptID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check tag name: %w", err)
	}
	if count > 0 {
		verr.Add("name", "A tag with this name already exists.")
	}
	if err := db.Model(&models.Tag{}).Where("slug = ? AND id <> ?", in.Slug, exceptID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check tag slug: %w", err)
	}
	if count > 0 {
		verr.Add("slug", "A tag with this slug already exists.")
	}
	return verr.Err()
}

func tagColor(color string) string {
	if color == "" {
		return models.DefaultTagColor
	}
	return strings.ToUpper(color)
}

// ListIngredients returns ingredients whose name starts with namePrefix, ignoring
// case. An empty prefix lists everything.
func (s *CatalogService) ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix := strings.TrimSpace(namePrefix); prefix != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, escapeLike(strings.ToLower(prefix))+"%")
	}

	var ingredients []models.Ingredient
	if err := q.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, notFound(err, "ingredient")
	}
	return &ingredient, nil
}

// CreateIngredient adds an ingredient. The (name, unit) pair must be unused.
func (s *CatalogService) CreateIngredient(ctx context.Context, in *types.IngredientInput) (*models.Ingredient, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Ingredient{}).
		Where("name = ? AND measurement_unit = ?", in.Name, in.MeasurementUnit).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check ingredient: %w", err)
	}
	if count > 0 {
		return nil, nonFieldError("An ingredient with this name and measurement unit already exists.")
	}

	ingredient := models.Ingredient{Name: in.Name, MeasurementUnit: in.MeasurementUnit}
	if err := db.Create(&ingredient).Error; err != nil {
		return nil, duplicateOr(err, "An ingredient with this name and measurement unit already exists.", "failed to create ingredient")
	}
	return &ingredient, nil
}

// DeleteIngredient removes an ingredient together with its recipe amounts.
func (s *CatalogService) DeleteIngredient(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, id).Error; err != nil {
			return notFound(err, "ingredient")
		}
		if err := tx.Where("ingredient_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to delete recipe amounts: %w", err)
		}
		return tx.Delete(&ingredient).Error
	})
}

// ImportIngredients inserts ingredients, skipping (name, unit) pairs that already
// exist. It returns the number of new rows.
func (s *CatalogService) ImportIngredients(ctx context.Context, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&ingredients, importBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ImportTags inserts tags, skipping names or slugs that already exist.
func (s *CatalogService) ImportTags(ctx context.Context, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	for i := range tags {
		tags[i].Color = tagColor(tags[i].Color)
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&tags, importBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to import tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// notFound maps gorm.ErrRecordNotFound to ErrNotFound.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}

// duplicateOr turns a unique violation into a validation error and wraps anything else.
func duplicateOr(err error, duplicateMsg, wrap string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nonFieldError(duplicateMsg)
	}
	return fmt.Errorf("%s: %w", wrap, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
