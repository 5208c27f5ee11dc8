package service

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GenerateToken(user *models.User) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	SetPassword(ctx context.Context, userID uint, req *types.SetPasswordRequest) error
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
}

// IUserService defines the interface for user listing and subscriptions. viewerID 0
// means an anonymous caller.
type IUserService interface {
	ListUsers(ctx context.Context, viewerID uint, page Pagination) ([]types.UserResponse, int64, error)
	GetUser(ctx context.Context, viewerID, userID uint) (*types.UserResponse, error)
	Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
	Subscriptions(ctx context.Context, userID uint, page Pagination, recipesLimit int) ([]types.SubscriptionResponse, int64, error)
}

// ICatalogService defines the interface for tags and ingredients
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	CreateTag(ctx context.Context, in *types.TagInput) (*models.Tag, error)
	UpdateTag(ctx context.Context, id uint, in *types.TagInput) (*models.Tag, error)
	DeleteTag(ctx context.Context, id uint) error
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
	CreateIngredient(ctx context.Context, in *types.IngredientInput) (*models.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uint) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ListRecipes(ctx context.Context, viewerID uint, filter RecipeFilter, page Pagination) ([]types.RecipeResponse, int64, error)
	GetRecipe(ctx context.Context, viewerID, id uint) (*types.RecipeResponse, error)
	CreateRecipe(ctx context.Context, authorID uint, in *types.RecipeInput) (*types.RecipeResponse, error)
	UpdateRecipe(ctx context.Context, userID, id uint, in *types.RecipeInput) (*types.RecipeResponse, error)
	DeleteRecipe(ctx context.Context, userID, id uint) error
	AddFavorite(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*types.RecipeShortResponse, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	ShoppingList(ctx context.Context, userID uint) ([]types.ShoppingItem, error)
}
