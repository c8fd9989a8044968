package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

// AuthHandler issues tokens
type AuthHandler struct {
	responder
	auth service.IAuthService
}

func NewAuthHandler(r responder, auth service.IAuthService) *AuthHandler {
	return &AuthHandler{responder: r, auth: auth}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, required gin.HandlerFunc) {
	auth := router.Group("/auth/token")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", required, h.Logout)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err)
		return
	}

	ve := &service.ValidationError{}
	if req.Email == "" {
		ve.Add("email", "This field is required.")
	}
	if req.Password == "" {
		ve.Add("password", "This field is required.")
	}
	if ve.HasErrors() {
		h.respondError(c, ve)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.TokenResponse{AuthToken: token})
}

// Logout acknowledges the request. Tokens are stateless and expire on their own.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
