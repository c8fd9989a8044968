package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	responder
	recipes      service.IRecipeService
	favorites    service.IMembershipService
	shoppingCart service.IMembershipService
	shoppingList service.IShoppingListService
}

func NewRecipeHandler(
	r responder,
	recipes service.IRecipeService,
	favorites service.IMembershipService,
	shoppingCart service.IMembershipService,
	shoppingList service.IShoppingListService,
) *RecipeHandler {
	return &RecipeHandler{
		responder:    r,
		recipes:      recipes,
		favorites:    favorites,
		shoppingCart: shoppingCart,
		shoppingList: shoppingList,
	}
}

// RecipeRouteMiddleware groups the middlewares the recipe routes need
type RecipeRouteMiddleware struct {
	Optional gin.HandlerFunc
	Required gin.HandlerFunc
	Create   gin.HandlerFunc
	Modify   gin.HandlerFunc
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, mw RecipeRouteMiddleware) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", mw.Optional, h.ListRecipes)
		recipes.GET("/download_shopping_cart", mw.Required, h.DownloadShoppingCart)
		recipes.GET("/:id", mw.Optional, h.GetRecipe)
		recipes.POST("", chain(mw.Required, mw.Create, h.CreateRecipe)...)
		recipes.PATCH("/:id", chain(mw.Required, mw.Modify, h.UpdateRecipe)...)
		recipes.DELETE("/:id", chain(mw.Required, mw.Modify, h.DeleteRecipe)...)

		recipes.POST("/:id/favorite", mw.Required, h.addMember(h.favorites))
		recipes.DELETE("/:id/favorite", mw.Required, h.removeMember(h.favorites))
		recipes.POST("/:id/shopping_cart", mw.Required, h.addMember(h.shoppingCart))
		recipes.DELETE("/:id/shopping_cart", mw.Required, h.removeMember(h.shoppingCart))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      c.Query("is_favorited") == "1",
		IsInShoppingCart: c.Query("is_in_shopping_cart") == "1",
	}
	if author := c.Query("author"); author != "" {
		id, err := strconv.ParseUint(author, 10, 64)
		if err != nil {
			h.respondError(c, service.NewValidationError("author", "A valid integer is required."))
			return
		}
		filter.AuthorID = uint(id)
	}

	page := paginationFromQuery(c)
	views, total, err := h.recipes.List(c.Request.Context(), middleware.ViewerFrom(c), filter, page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	results := make([]types.RecipeResponse, 0, len(views))
	for _, v := range views {
		results = append(results, toRecipeResponse(v))
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	view, err := h.recipes.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeResponse(*view))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	view, err := h.recipes.Create(c.Request.Context(), middleware.ViewerFrom(c), recipeInputFromRequest(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipeResponse(*view))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	view, err := h.recipes.Update(c.Request.Context(), middleware.ViewerFrom(c), id, recipeInputFromRequest(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeResponse(*view))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	if err := h.recipes.Delete(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) addMember(svc service.IMembershipService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.parseID(c, "id")
		if !ok {
			return
		}

		recipe, err := svc.Add(c.Request.Context(), middleware.ViewerFrom(c), id)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toRecipeShortResponse(*recipe))
	}
}

func (h *RecipeHandler) removeMember(svc service.IMembershipService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := h.parseID(c, "id")
		if !ok {
			return
		}

		if err := svc.Remove(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
			h.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.shoppingList.Build(c.Request.Context(), middleware.ViewerFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, service.ShoppingListFilename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(h.shoppingList.Render(items)))
}

// chain drops nil middlewares so optional limiters can be left out
func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
