package models

import (
	"time"
)

// Limits shared by the models and request validation.
const (
	MaxRecipeNameLength = 200
	MinCookingTime      = 1
	MinIngredientAmount = 1
	DefaultTagColor     = "#FF0000"
)

type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:256;not null;uniqueIndex" json:"name"`
	Color string `gorm:"size:7;not null;default:'#FF0000'" json:"color"`
	Slug  string `gorm:"size:50;not null;uniqueIndex" json:"slug"`
}

type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:256;not null;index;uniqueIndex:idx_ingredients_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:10;not null;uniqueIndex:idx_ingredients_name_unit" json:"measurement_unit"`
}

type Recipe struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	AuthorID    uint               `gorm:"not null;index" json:"author_id"`
	Author      User               `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name        string             `gorm:"size:200;not null" json:"name"`
	Text        string             `gorm:"type:text;not null" json:"text"`
	CookingTime int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1" json:"cooking_time"`
	Image       string             `gorm:"size:255" json:"image"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
	PubDate     time.Time          `gorm:"autoCreateTime;index" json:"pub_date"`
}

// RecipeIngredient is the amount of one ingredient used by a recipe.
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredients_pair" json:"-"`
	IngredientID uint       `gorm:"not null;index;uniqueIndex:idx_recipe_ingredients_pair" json:"id"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredients_amount,amount >= 1" json:"amount"`
}

type FavoriteRecipe struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_recipes_pair"`
	RecipeID  uint   `gorm:"not null;index;uniqueIndex:idx_favorite_recipes_pair"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

// CartRecipe puts a recipe on the user's shopping list.
type CartRecipe struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_recipes_pair"`
	RecipeID  uint   `gorm:"not null;index;uniqueIndex:idx_cart_recipes_pair"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&RevokedToken{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&FavoriteRecipe{},
		&CartRecipe{},
	}
}
