package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/backend/internal/types"
)

const recipeCreationLimit = 2

func setupRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	auth := service.NewAuthService(db, "integration-secret", time.Hour, logger)
	handlers := api.NewHandlers(api.Services{
		Auth:         auth,
		Users:        service.NewUserService(db),
		Catalog:      service.NewCatalogService(db),
		Recipes:      service.NewRecipeService(db, service.NewLocalImageStore(t.TempDir(), "/media"), logger),
		Favorites:    service.NewMembershipService(db, models.Favorites, logger),
		ShoppingCart: service.NewMembershipService(db, models.ShoppingCart, logger),
		ShoppingList: service.NewShoppingListService(db),
		Follows:      service.NewFollowService(db, logger),
		Database: func(ctx context.Context) error {
			return database.HealthCheck(ctx, db)
		},
	}, 0, logger)

	return router.SetupRouter(handlers, router.Options{
		TokenValidator:      auth,
		CreationLimiter:     middleware.NewRecipeCreationLimiter(redisClient, recipeCreationLimit, time.Hour),
		ModificationLimiter: middleware.NewRecipeModificationLimiter(redisClient, 10, time.Hour),
	}, logger)
}

type client struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func (c *client) signUp(username string) uint {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/users", gin.H{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "integration-pass",
	})
	require.Equal(c.t, http.StatusCreated, w.Code, w.Body.String())
	var user types.RegisteredUserResponse
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &user))

	w = c.do(http.MethodPost, "/api/auth/token/login", gin.H{"email": username + "@example.com", "password": "integration-pass"})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	var token types.TokenResponse
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &token))
	c.token = token.AuthToken
	return user.ID
}

func TestIntegrationRecipeFlow(t *testing.T) {
	db := testhelpers.SetupPostgres(t)
	r := setupRouter(t, db)

	dinner := testhelpers.CreateTag(t, db, "Dinner", "dinner")
	potato := testhelpers.CreateIngredient(t, db, "Potato", "g")
	salt := testhelpers.CreateIngredient(t, db, "Salt", "g")

	chef := &client{t: t, router: r}
	chefID := chef.signUp("chef")
	fan := &client{t: t, router: r}
	fan.signUp("fan")

	recipe := func(name string, saltAmount int) gin.H {
		return gin.H{
			"name":         name,
			"text":         "Cook it.",
			"cooking_time": 20,
			"image":        testhelpers.PNGDataURI,
			"tags":         []uint{dinner.ID},
			"ingredients":  []gin.H{{"id": potato.ID, "amount": 300}, {"id": salt.ID, "amount": saltAmount}},
		}
	}

	var recipeIDs []uint
	for i, amount := range []int{5, 3} {
		w := chef.do(http.MethodPost, "/api/recipes", recipe(fmt.Sprintf("dish %d", i), amount))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, fmt.Sprint(recipeCreationLimit-i-1), w.Header().Get("X-RateLimit-Remaining"))
		var created types.RecipeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		recipeIDs = append(recipeIDs, created.ID)
	}

	w := chef.do(http.MethodPost, "/api/recipes", recipe("one too many", 1))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	for _, id := range recipeIDs {
		require.Equal(t, http.StatusCreated, fan.do(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", id), nil).Code)
	}
	w = fan.do(http.MethodGet, "/api/recipes/download_shopping_cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shopping list:\n • Potato 600 g\n • Salt 8 g", w.Body.String())

	w = fan.do(http.MethodPost, fmt.Sprintf("/api/users/%d/subscribe?recipes_limit=1", chefID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sub types.SubscriptionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.EqualValues(t, 2, sub.RecipesCount)
	assert.Len(t, sub.Recipes, 1)

	w = fan.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", recipeIDs[0]), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got types.RecipeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.IsInShoppingCart)
	assert.True(t, got.Author.IsSubscribed)

	update := recipe("renamed", 1)
	delete(update, "image")
	w = chef.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d", recipeIDs[0]), update)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, http.StatusNoContent, chef.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", recipeIDs[1]), nil).Code)
	w = fan.do(http.MethodGet, "/api/recipes/download_shopping_cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shopping list:\n • Potato 300 g\n • Salt 1 g", w.Body.String())

	w = fan.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
