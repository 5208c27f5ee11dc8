package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
)

func TestSetupTestDBIsolated(t *testing.T) {
	first := SetupTestDB(t)
	second := SetupTestDB(t)

	CreateUser(t, first, "alice", models.RoleUser)

	var count int64
	require.NoError(t, second.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeFixture(t *testing.T) {
	db := SetupTestDB(t)
	author := CreateUser(t, db, "chef", models.RoleUser)
	tag := CreateTag(t, db, "Breakfast", "breakfast")
	egg := CreateIngredient(t, db, "egg", "pcs")

	recipe := CreateRecipe(t, db, author, "omelette", []*models.Tag{tag}, map[uint]int{egg.ID: 3})

	var loaded models.Recipe
	require.NoError(t, db.Preload("Tags").Preload("Ingredients").First(&loaded, recipe.ID).Error)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, "breakfast", loaded.Tags[0].Slug)
	require.Len(t, loaded.Ingredients, 1)
	assert.Equal(t, 3, loaded.Ingredients[0].Amount)
}

func TestForeignKeysEnforced(t *testing.T) {
	db := SetupTestDB(t)
	err := db.Omit("Author").Create(&models.Recipe{AuthorID: 999, Name: "orphan", Text: "x", CookingTime: 1}).Error
	assert.Error(t, err)
}
