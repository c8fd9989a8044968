package api

import (
	"go.uber.org/zap"

	"github.com/foodgram/backend/internal/service"
)

// Services are the collaborators the handlers call into
type Services struct {
	Auth         service.IAuthService
	Users        service.IUserService
	Catalog      service.ICatalogService
	Recipes      service.IRecipeService
	Favorites    service.IMembershipService
	ShoppingCart service.IMembershipService
	ShoppingList service.IShoppingListService
	Follows      service.IFollowService
	Database     HealthCheck
}

// Handlers holds one handler per resource
type Handlers struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Catalog *CatalogHandler
	Recipes *RecipeHandler
	Health  *HealthHandler
}

// NewHandlers builds every handler. conflictStatus is the status used for duplicate
// favorites, cart entries and subscriptions; zero means 400.
func NewHandlers(svc Services, conflictStatus int, logger *zap.Logger) *Handlers {
	r := newResponder(logger, conflictStatus)
	return &Handlers{
		Auth:    NewAuthHandler(r, svc.Auth),
		Users:   NewUserHandler(r, svc.Auth, svc.Users, svc.Follows),
		Catalog: NewCatalogHandler(r, svc.Catalog),
		Recipes: NewRecipeHandler(r, svc.Recipes, svc.Favorites, svc.ShoppingCart, svc.ShoppingList),
		Health:  NewHealthHandler(svc.Database, logger),
	}
}
