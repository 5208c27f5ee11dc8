package service

import (
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// RecipeFilter narrows the recipe list. Zero values disable a condition. Tags match
// recipes carrying any of the given slugs, compared case-insensitively.
type RecipeFilter struct {
	AuthorID         uint
	Tags             []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// Apply adds the filter conditions to q. The favorite and cart conditions select
// nothing for anonymous viewers.
func (f RecipeFilter) Apply(q *gorm.DB, viewerID uint) *gorm.DB {
	if f.AuthorID != 0 {
		q = q.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.Tags) > 0 {
		tagged := q.Session(&gorm.Session{NewDB: true}).
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("LOWER(tags.slug) IN ?", lowerAll(f.Tags))
		q = q.Where("recipes.id IN (?)", tagged)
	}
	if f.IsFavorited {
		q = q.Where("recipes.id IN (?)", userRecipes(q, &models.FavoriteRecipe{}, viewerID))
	}
	if f.IsInShoppingCart {
		q = q.Where("recipes.id IN (?)", userRecipes(q, &models.CartRecipe{}, viewerID))
	}
	return q
}

func userRecipes(q *gorm.DB, model interface{}, userID uint) *gorm.DB {
	return q.Session(&gorm.Session{NewDB: true}).
		Model(model).
		Select("recipe_id").
		Where("user_id = ?", userID)
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
