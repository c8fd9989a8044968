package service

import (
	"context"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IUserService defines the interface for user profile reads
type IUserService interface {
	Get(ctx context.Context, viewer types.Viewer, id uint) (*UserView, error)
	Me(ctx context.Context, viewer types.Viewer) (*UserView, error)
	List(ctx context.Context, viewer types.Viewer, page Pagination) ([]UserView, int64, error)
}

// ICatalogService defines the interface for tag and ingredient reads
type ICatalogService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
	ListIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	Get(ctx context.Context, viewer types.Viewer, id uint) (*RecipeView, error)
	List(ctx context.Context, viewer types.Viewer, filter RecipeFilter, page Pagination) ([]RecipeView, int64, error)
	Create(ctx context.Context, viewer types.Viewer, in RecipeInput) (*RecipeView, error)
	Update(ctx context.Context, viewer types.Viewer, id uint, in RecipeInput) (*RecipeView, error)
	Delete(ctx context.Context, viewer types.Viewer, id uint) error
}

// IMembershipService defines the interface for favorites and the shopping cart
type IMembershipService interface {
	Kind() models.MembershipKind
	Add(ctx context.Context, viewer types.Viewer, recipeID uint) (*models.Recipe, error)
	Remove(ctx context.Context, viewer types.Viewer, recipeID uint) error
}

// IShoppingListService defines the interface for the shopping list download
type IShoppingListService interface {
	Build(ctx context.Context, viewer types.Viewer) ([]ShoppingListItem, error)
	Render(items []ShoppingListItem) string
}

// IFollowService defines the interface for subscriptions
type IFollowService interface {
	Follow(ctx context.Context, viewer types.Viewer, targetID uint, recipesLimit *int) (*SubscriptionView, error)
	Unfollow(ctx context.Context, viewer types.Viewer, targetID uint) error
	ListFollowing(ctx context.Context, viewer types.Viewer, page Pagination, recipesLimit *int) ([]SubscriptionView, int64, error)
}

var (
	_ IAuthService         = (*AuthService)(nil)
	_ IUserService         = (*UserService)(nil)
	_ ICatalogService      = (*CatalogService)(nil)
	_ IRecipeService       = (*RecipeService)(nil)
	_ IMembershipService   = (*MembershipService)(nil)
	_ IShoppingListService = (*ShoppingListService)(nil)
	_ IFollowService       = (*FollowService)(nil)
	_ ImageStore           = (*S3ImageStore)(nil)
	_ ImageStore           = (*LocalImageStore)(nil)
)
