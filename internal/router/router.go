package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
)

// Options configures the router around the handlers
type Options struct {
	CORSOrigins []string
	// MediaURL and MediaRoot serve locally stored images; empty disables it
	MediaURL  string
	MediaRoot string
	// Nil limiters disable the corresponding limit
	CreationLimiter     middleware.Limiter
	ModificationLimiter middleware.Limiter
	TokenValidator      middleware.TokenValidator
}

// SetupRouter configures the application routes
func SetupRouter(h *api.Handlers, opts Options, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.Metrics(),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})),
	)
	if len(opts.CORSOrigins) > 0 {
		router.Use(middleware.CORS(opts.CORSOrigins))
	}

	router.GET("/health", h.Health.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.MediaURL != "" && opts.MediaRoot != "" {
		router.Static(opts.MediaURL, opts.MediaRoot)
	}

	optional := middleware.OptionalAuth(opts.TokenValidator)
	required := middleware.AuthMiddleware(opts.TokenValidator)

	recipeMW := api.RecipeRouteMiddleware{Optional: optional, Required: required}
	if opts.CreationLimiter != nil {
		recipeMW.Create = middleware.RateLimitMiddleware(opts.CreationLimiter, logger)
	}
	if opts.ModificationLimiter != nil {
		recipeMW.Modify = middleware.PerRecipeRateLimitMiddleware(opts.ModificationLimiter, logger)
	}

	apiGroup := router.Group("/api")
	h.Auth.RegisterRoutes(apiGroup, required)
	h.Users.RegisterRoutes(apiGroup, optional, required)
	h.Catalog.RegisterRoutes(apiGroup)
	h.Recipes.RegisterRoutes(apiGroup, recipeMW)

	return router
}
