package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

// testApp is the full HTTP stack over a throwaway SQLite database
type testApp struct {
	db     *gorm.DB
	auth   *service.AuthService
	router *gin.Engine
}

func newTestApp(t *testing.T, conflictStatus int) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLite(t)
	logger := zap.NewNop()
	auth := service.NewAuthService(db, "test-secret", time.Hour, logger)

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
	}, conflictStatus, logger)

	return &testApp{
		db:     db,
		auth:   auth,
		router: router.SetupRouter(handlers, router.Options{TokenValidator: auth}, logger),
	}
}

// token signs a token for a user created with the fixtures
func (a *testApp) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := a.auth.GenerateToken(&user)
	require.NoError(t, err)
	return token
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		var buf bytes.Buffer
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
		req = httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

// mustField returns one top-level member of a JSON object response
func mustField(t *testing.T, w *httptest.ResponseRecorder, name string) json.RawMessage {
	t.Helper()
	obj := decode[map[string]json.RawMessage](t, w)
	raw, ok := obj[name]
	require.True(t, ok, "missing %q in %s", name, w.Body.String())
	return raw
}
