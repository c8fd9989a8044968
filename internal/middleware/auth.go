package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/foodgram/backend/internal/types"
)

const (
	userIDKey = "user_id"
	viewerKey = "viewer"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// AuthMiddleware creates a middleware that rejects requests without a valid token
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := extractToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}

		setViewer(c, claims)
		c.Next()
	}
}

// OptionalAuth resolves the viewer when a token is present and lets anonymous requests through.
// A malformed or expired token is still rejected.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(viewerKey, types.Anonymous)
			c.Next()
			return
		}

		token, ok := extractToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token header."})
			return
		}
		claims, err := validator.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid token."})
			return
		}

		setViewer(c, claims)
		c.Next()
	}
}

// ViewerFrom returns the viewer stored by the auth middlewares, anonymous when there is none
func ViewerFrom(c *gin.Context) types.Viewer {
	if v, ok := c.Get(viewerKey); ok {
		if viewer, ok := v.(types.Viewer); ok {
			return viewer
		}
	}
	return types.Anonymous
}

func setViewer(c *gin.Context, claims *types.TokenClaims) {
	c.Set(userIDKey, claims.UserID)
	c.Set("username", claims.Username)
	c.Set(viewerKey, types.ViewerFromClaims(claims))
}

// extractToken accepts "Bearer <token>" and "Token <token>"
func extractToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	switch parts[0] {
	case "Bearer", "Token":
		return parts[1], true
	}
	return "", false
}
