package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

// UserHandler serves registration, profiles and subscriptions
type UserHandler struct {
	responder
	auth    service.IAuthService
	users   service.IUserService
	follows service.IFollowService
}

func NewUserHandler(r responder, auth service.IAuthService, users service.IUserService, follows service.IFollowService) *UserHandler {
	return &UserHandler{responder: r, auth: auth, users: users, follows: follows}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, optional, required gin.HandlerFunc) {
	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", optional, h.ListUsers)
		users.GET("/me", required, h.Me)
		users.GET("/subscriptions", required, h.Subscriptions)
		users.GET("/:id", optional, h.GetUser)
		users.POST("/:id/subscribe", required, h.Subscribe)
		users.DELETE("/:id/subscribe", required, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), registerInputFromRequest(req))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, types.RegisteredUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page := paginationFromQuery(c)
	views, total, err := h.users.List(c.Request.Context(), middleware.ViewerFrom(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	results := make([]types.UserResponse, 0, len(views))
	for _, v := range views {
		results = append(results, toUserResponse(v.User, v.IsSubscribed))
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	view, err := h.users.Get(c.Request.Context(), middleware.ViewerFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(view.User, view.IsSubscribed))
}

func (h *UserHandler) Me(c *gin.Context) {
	view, err := h.users.Me(c.Request.Context(), middleware.ViewerFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(view.User, view.IsSubscribed))
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	limit, ok := optionalInt(c, "recipes_limit")
	if !ok {
		h.respondError(c, service.NewValidationError("recipes_limit", "A valid integer is required."))
		return
	}

	page := paginationFromQuery(c)
	views, total, err := h.follows.ListFollowing(c.Request.Context(), middleware.ViewerFrom(c), page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	results := make([]types.SubscriptionResponse, 0, len(views))
	for _, v := range views {
		results = append(results, toSubscriptionResponse(v))
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	limit, ok := optionalInt(c, "recipes_limit")
	if !ok {
		h.respondError(c, service.NewValidationError("recipes_limit", "A valid integer is required."))
		return
	}

	view, err := h.follows.Follow(c.Request.Context(), middleware.ViewerFrom(c), id, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSubscriptionResponse(*view))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.follows.Unfollow(c.Request.Context(), middleware.ViewerFrom(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
