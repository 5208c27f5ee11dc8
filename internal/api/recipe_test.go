package api_test

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type recipeAPI struct {
	*testAPI
	author *models.User
	other  *models.User
	admin  *models.User
	lunch  *models.Tag
	dinner *models.Tag
	flour  *models.Ingredient
	egg    *models.Ingredient
}

func newRecipeAPI(t *testing.T) *recipeAPI {
	a := newTestAPI(t)
	return &recipeAPI{
		testAPI: a,
		author:  testhelpers.CreateUser(t, a.db, "author", models.RoleUser),
		other:   testhelpers.CreateUser(t, a.db, "other", models.RoleUser),
		admin:   testhelpers.CreateUser(t, a.db, "admin", models.RoleAdmin),
		lunch:   testhelpers.CreateTag(t, a.db, "Lunch", "lunch"),
		dinner:  testhelpers.CreateTag(t, a.db, "Dinner", "dinner"),
		flour:   testhelpers.CreateIngredient(t, a.db, "flour", "g"),
		egg:     testhelpers.CreateIngredient(t, a.db, "egg", "pcs"),
	}
}

func (r *recipeAPI) body() gin.H {
	return gin.H{
		"ingredients": []gin.H{
			{"id": r.flour.ID, "amount": 200},
			{"id": r.egg.ID, "amount": 2},
		},
		"tags":         []uint{r.lunch.ID},
		"image":        testhelpers.PNGDataURI(r.t, 4, 4),
		"name":         "Pancakes",
		"text":         "Whisk and fry.",
		"cooking_time": 15,
	}
}

func (r *recipeAPI) create(token string) types.RecipeResponse {
	r.t.Helper()
	w := r.do(http.MethodPost, "/api/recipes", token, r.body())
	require.Equal(r.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[types.RecipeResponse](r.t, w)
}

func TestCreateRecipe(t *testing.T) {
	r := newRecipeAPI(t)

	recipe := r.create(r.token(r.author))
	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, r.author.ID, recipe.Author.ID)
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "lunch", recipe.Tags[0].Slug)
	require.Len(t, recipe.Ingredients, 2)
	assert.Equal(t, "flour", recipe.Ingredients[0].Name)
	assert.Equal(t, 200, recipe.Ingredients[0].Amount)
	assert.Contains(t, recipe.Image, "/media/recipes/images/")
	assert.False(t, recipe.IsFavorited)

	w := r.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", recipe.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, recipe.Name, decode[types.RecipeResponse](t, w).Name)
}

func TestCreateRecipeDeletedUserToken(t *testing.T) {
	r := newRecipeAPI(t)
	token := r.token(r.other)
	require.NoError(t, r.db.Delete(&models.User{}, r.other.ID).Error)

	w := r.do(http.MethodPost, "/api/recipes", token, r.body())
	assert.Equal(t, http.StatusUnauthorized, w.Code, w.Body.String())
}

func TestCreateRecipeValidation(t *testing.T) {
	r := newRecipeAPI(t)
	token := r.token(r.author)

	assert.Equal(t, http.StatusUnauthorized, r.do(http.MethodPost, "/api/recipes", "", r.body()).Code)

	body := r.body()
	body["cooking_time"] = 0
	body["ingredients"] = []gin.H{{"id": r.flour.ID, "amount": 0}}
	w := r.do(http.MethodPost, "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	errs := decode[fieldErrors](t, w)
	assert.Contains(t, errs, "cooking_time")
	assert.Contains(t, errs, "ingredients")

	body = r.body()
	body["tags"] = []uint{r.lunch.ID, r.lunch.ID}
	w = r.do(http.MethodPost, "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[fieldErrors](t, w), "tags")

	body = r.body()
	body["ingredients"] = []gin.H{{"id": 999, "amount": 1}}
	w = r.do(http.MethodPost, "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[fieldErrors](t, w), "ingredients")

	body = r.body()
	delete(body, "image")
	w = r.do(http.MethodPost, "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[fieldErrors](t, w), "image")
}

func TestUpdateDeleteRecipePermissions(t *testing.T) {
	r := newRecipeAPI(t)
	recipe := r.create(r.token(r.author))
	path := fmt.Sprintf("/api/recipes/%d", recipe.ID)

	body := r.body()
	delete(body, "image")
	body["name"] = "Crepes"

	assert.Equal(t, http.StatusForbidden, r.do(http.MethodPatch, path, r.token(r.other), body).Code)

	w := r.do(http.MethodPatch, path, r.token(r.author), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[types.RecipeResponse](t, w)
	assert.Equal(t, "Crepes", updated.Name)
	assert.Equal(t, recipe.Image, updated.Image)

	body["name"] = "Admin crepes"
	w = r.do(http.MethodPatch, path, r.token(r.admin), body)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusForbidden, r.do(http.MethodDelete, path, r.token(r.other), nil).Code)
	assert.Equal(t, http.StatusNoContent, r.do(http.MethodDelete, path, r.token(r.author), nil).Code)
	assert.Equal(t, http.StatusNotFound, r.do(http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusNotFound, r.do(http.MethodDelete, path, r.token(r.author), nil).Code)
}

func TestListRecipesFilters(t *testing.T) {
	r := newRecipeAPI(t)
	soup := testhelpers.CreateRecipe(t, r.db, r.author, "soup", []*models.Tag{r.lunch}, nil)
	testhelpers.CreateRecipe(t, r.db, r.author, "stew", []*models.Tag{r.dinner}, nil)
	pie := testhelpers.CreateRecipe(t, r.db, r.other, "pie", nil, nil)
	token := r.token(r.other)

	list := func(query, token string) types.Page[types.RecipeResponse] {
		t.Helper()
		w := r.do(http.MethodGet, "/api/recipes"+query, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[types.Page[types.RecipeResponse]](t, w)
	}

	assert.EqualValues(t, 3, list("", "").Count)
	assert.EqualValues(t, 2, list(fmt.Sprintf("?author=%d", r.author.ID), "").Count)
	assert.EqualValues(t, 2, list("?tags=lunch&tags=dinner", "").Count)
	assert.EqualValues(t, 1, list("?tags=dinner", "").Count)

	p := list("?limit=1", "")
	assert.Len(t, p.Results, 1)
	assert.NotNil(t, p.Next)

	require.Equal(t, http.StatusCreated, r.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/favorite", soup.ID), token, nil).Code)
	require.Equal(t, http.StatusCreated, r.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", pie.ID), token, nil).Code)

	fav := list("?is_favorited=1", token)
	require.Len(t, fav.Results, 1)
	assert.Equal(t, soup.ID, fav.Results[0].ID)
	assert.True(t, fav.Results[0].IsFavorited)

	cart := list("?is_in_shopping_cart=true", token)
	require.Len(t, cart.Results, 1)
	assert.Equal(t, pie.ID, cart.Results[0].ID)

	assert.EqualValues(t, 0, list("?is_favorited=1", "").Count)
	assert.EqualValues(t, 3, list("?is_favorited=0", token).Count)

	w := r.do(http.MethodGet, "/api/recipes?author=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[fieldErrors](t, w), "author")
}

func TestFavoriteAndCart(t *testing.T) {
	r := newRecipeAPI(t)
	recipe := testhelpers.CreateRecipe(t, r.db, r.author, "soup", []*models.Tag{r.lunch}, nil)
	token := r.token(r.other)

	for _, list := range []string{"favorite", "shopping_cart"} {
		path := fmt.Sprintf("/api/recipes/%d/%s", recipe.ID, list)

		w := r.do(http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		short := decode[types.RecipeShortResponse](t, w)
		assert.Equal(t, recipe.ID, short.ID)
		assert.Equal(t, "soup", short.Name)

		w = r.do(http.MethodPost, path, token, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, list)
		assert.Contains(t, decode[fieldErrors](t, w), "non_field_errors")

		assert.Equal(t, http.StatusNoContent, r.do(http.MethodDelete, path, token, nil).Code)
		assert.Equal(t, http.StatusNotFound, r.do(http.MethodDelete, path, token, nil).Code)
		assert.Equal(t, http.StatusUnauthorized, r.do(http.MethodPost, path, "", nil).Code)
	}

	assert.Equal(t, http.StatusNotFound, r.do(http.MethodPost, "/api/recipes/999/favorite", token, nil).Code)
}

func TestDownloadShoppingCart(t *testing.T) {
	r := newRecipeAPI(t)
	soup := testhelpers.CreateRecipe(t, r.db, r.author, "soup", nil, map[uint]int{r.flour.ID: 100, r.egg.ID: 1})
	pie := testhelpers.CreateRecipe(t, r.db, r.author, "pie", nil, map[uint]int{r.flour.ID: 250})
	token := r.token(r.other)

	for _, id := range []uint{soup.ID, pie.ID} {
		require.Equal(t, http.StatusCreated, r.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), token, nil).Code)
	}

	w := r.do(http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_list.pdf")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = r.do(http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
