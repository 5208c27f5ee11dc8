package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/report"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListRenderer turns an aggregated shopping list into a document.
type ShoppingListRenderer interface {
	Render(owner string, items []types.ShoppingItem) ([]byte, error)
}

type RecipeHandler struct {
	recipeService service.IRecipeService
	authService   service.IAuthService
	renderer      ShoppingListRenderer
	createLimiter middleware.Limiter
	pageSize      int
}

// NewRecipeHandler creates a RecipeHandler. createLimiter may be nil to disable
// throttling of recipe creation.
func NewRecipeHandler(recipeService service.IRecipeService, authService service.IAuthService, renderer ShoppingListRenderer, createLimiter middleware.Limiter, pageSize int) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		authService:   authService,
		renderer:      renderer,
		createLimiter: createLimiter,
		pageSize:      pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)
	optional := middleware.OptionalAuth(h.authService)

	create := []gin.HandlerFunc{auth}
	if h.createLimiter != nil {
		create = append(create, middleware.RateLimitMiddleware("recipe_create", h.createLimiter))
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", auth, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.PATCH("/:id", auth, h.UpdateRecipe)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", auth, h.AddFavorite)
		recipes.DELETE("/:id/favorite", auth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", auth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", auth, h.RemoveFromCart)
	}
}

// ListRecipes supports ?author, repeated ?tags, ?is_favorited and ?is_in_shopping_cart
// on top of pagination.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter, ok := recipeFilter(c)
	if !ok {
		return
	}
	page := pageParams(c, h.pageSize)

	recipes, count, err := h.recipeService.ListRecipes(c.Request.Context(), middleware.UserID(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page, recipes, count)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var in types.RecipeInput
	if !bindJSON(c, &in) {
		return
	}
	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), middleware.UserID(c), &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in types.RecipeInput
	if !bindJSON(c, &in) {
		return
	}
	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), middleware.UserID(c), id, &in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recipeService.DeleteRecipe(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addEntry(c, h.recipeService.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeEntry(c, h.recipeService.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addEntry(c, h.recipeService.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeEntry(c, h.recipeService.RemoveFromCart)
}

// DownloadShoppingCart renders the caller's aggregated shopping list as a PDF.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	user, err := h.authService.GetUserByID(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := h.recipeService.ShoppingList(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	owner := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if owner == "" {
		owner = user.Username
	}
	doc, err := h.renderer.Render(owner, items)
	if err != nil {
		respondError(c, fmt.Errorf("failed to render shopping list: %w", err))
		return
	}

	metrics.ShoppingListDownloads.Inc()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.ShoppingListFilename))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *RecipeHandler) addEntry(c *gin.Context, add func(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error)) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recipe, err := add(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (h *RecipeHandler) removeEntry(c *gin.Context, remove func(ctx context.Context, userID, recipeID uint) error) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func recipeFilter(c *gin.Context) (service.RecipeFilter, bool) {
	filter := service.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"author": []string{"Enter a number."}})
			return filter, false
		}
		filter.AuthorID = uint(id)
	}
	return filter, true
}

// queryFlag treats 1 and true as set, anything else as unset.
func queryFlag(c *gin.Context, name string) bool {
	switch strings.ToLower(c.Query(name)) {
	case "1", "true":
		return true
	}
	return false
}
