package api_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/mocks"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/backend/internal/types"
)

func recipeBody(tagID, potatoID, waterID uint) gin.H {
	return gin.H{
		"name":         "Soup",
		"text":         "Boil everything.",
		"cooking_time": 30,
		"image":        testhelpers.PNGDataURI,
		"tags":         []uint{tagID},
		"ingredients": []gin.H{
			{"id": potatoID, "amount": 200},
			{"id": waterID, "amount": 500},
		},
	}
}

func TestRecipeLifecycle(t *testing.T) {
	app := newTestApp(t, 0)
	author := testhelpers.CreateUser(t, app.db, "author")
	fan := testhelpers.CreateUser(t, app.db, "fan")
	dinner := testhelpers.CreateTag(t, app.db, "Dinner", "dinner")
	potato := testhelpers.CreateIngredient(t, app.db, "Potato", "g")
	water := testhelpers.CreateIngredient(t, app.db, "Water", "ml")
	authorToken := app.token(t, author)
	fanToken := app.token(t, fan)

	w := app.do(t, http.MethodPost, "/api/recipes", authorToken, recipeBody(dinner.ID, potato.ID, water.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[types.RecipeResponse](t, w)
	assert.Equal(t, "Soup", created.Name)
	assert.Equal(t, "author", created.Author.Username)
	assert.Equal(t, []types.TagResponse{{ID: dinner.ID, Name: "Dinner", Color: "#E26C2D", Slug: "dinner"}}, created.Tags)
	assert.Equal(t, []types.RecipeIngredientResponse{
		{ID: potato.ID, Name: "Potato", MeasurementUnit: "g", Amount: 200},
		{ID: water.ID, Name: "Water", MeasurementUnit: "ml", Amount: 500},
	}, created.Ingredients)
	assert.Contains(t, created.Image, "/media/recipes/images/")

	recipePath := fmt.Sprintf("/api/recipes/%d", created.ID)

	t.Run("anonymous read", func(t *testing.T) {
		w := app.do(t, http.MethodGet, recipePath, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[types.RecipeResponse](t, w)
		assert.False(t, got.IsFavorited)
		assert.False(t, got.IsInShoppingCart)
		assert.False(t, got.Author.IsSubscribed)
	})

	t.Run("favorites", func(t *testing.T) {
		favPath := recipePath + "/favorite"

		w := app.do(t, http.MethodPost, favPath, fanToken, nil)
		require.Equal(t, http.StatusCreated, w.Code)
		short := decode[types.RecipeShortResponse](t, w)
		assert.Equal(t, types.RecipeShortResponse{ID: created.ID, Name: "Soup", Image: created.Image, CookingTime: 30}, short)

		w = app.do(t, http.MethodPost, favPath, fanToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"errors":"Recipe is already in favorites."}`, w.Body.String())

		got := decode[types.RecipeResponse](t, app.do(t, http.MethodGet, recipePath, fanToken, nil))
		assert.True(t, got.IsFavorited)

		page := decode[types.Page[types.RecipeResponse]](t, app.do(t, http.MethodGet, "/api/recipes?is_favorited=1", fanToken, nil))
		assert.EqualValues(t, 1, page.Count)

		assert.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, favPath, fanToken, nil).Code)

		w = app.do(t, http.MethodDelete, favPath, fanToken, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"errors":"Recipe is not in favorites."}`, w.Body.String())

		w = app.do(t, http.MethodPost, "/api/recipes/9999/favorite", fanToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = app.do(t, http.MethodPost, favPath, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("shopping cart download", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", fanToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Shopping list:", w.Body.String())

		require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, recipePath+"/shopping_cart", fanToken, nil).Code)

		w = app.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", fanToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="shopping_list.txt"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "Shopping list:\n • Potato 200 g\n • Water 500 ml", w.Body.String())

		w = app.do(t, http.MethodGet, "/api/recipes/download_shopping_cart", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("only the author may change it", func(t *testing.T) {
		update := recipeBody(dinner.ID, potato.ID, water.ID)
		update["name"] = "Better soup"
		delete(update, "image")

		w := app.do(t, http.MethodPatch, recipePath, fanToken, update)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.do(t, http.MethodDelete, recipePath, fanToken, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = app.do(t, http.MethodPatch, recipePath, authorToken, update)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decode[types.RecipeResponse](t, w)
		assert.Equal(t, "Better soup", got.Name)
		assert.Equal(t, created.Image, got.Image)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, app.do(t, http.MethodDelete, recipePath, authorToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, app.do(t, http.MethodGet, recipePath, "", nil).Code)
	})
}

func TestCreateRecipe_Errors(t *testing.T) {
	app := newTestApp(t, 0)
	author := testhelpers.CreateUser(t, app.db, "author")
	dinner := testhelpers.CreateTag(t, app.db, "Dinner", "dinner")
	potato := testhelpers.CreateIngredient(t, app.db, "Potato", "g")
	water := testhelpers.CreateIngredient(t, app.db, "Water", "ml")
	token := app.token(t, author)

	t.Run("unauthenticated", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/recipes", "", recipeBody(dinner.ID, potato.ID, water.ID))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("amount out of range", func(t *testing.T) {
		body := recipeBody(dinner.ID, potato.ID, water.ID)
		body["ingredients"] = []gin.H{{"id": potato.ID, "amount": 0}}
		w := app.do(t, http.MethodPost, "/api/recipes", token, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		fields := decode[map[string][]string](t, w)
		assert.Contains(t, fields, "ingredients")
	})

	t.Run("unknown ingredient", func(t *testing.T) {
		body := recipeBody(dinner.ID, potato.ID, 9999)
		w := app.do(t, http.MethodPost, "/api/recipes", token, body)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail":"Ingredient 9999 does not exist."}`, w.Body.String())
	})

	t.Run("wrong type", func(t *testing.T) {
		body := recipeBody(dinner.ID, potato.ID, water.ID)
		body["cooking_time"] = "long"
		w := app.do(t, http.MethodPost, "/api/recipes", token, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string][]string](t, w), "cooking_time")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := app.do(t, http.MethodPost, "/api/recipes", token, `{"name":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[map[string][]string](t, w), "non_field_errors")
	})

	t.Run("invalid token", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/recipes", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	var count int64
	require.NoError(t, app.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListRecipes(t *testing.T) {
	app := newTestApp(t, 0)
	author := testhelpers.CreateUser(t, app.db, "author")
	other := testhelpers.CreateUser(t, app.db, "other")
	dinner := testhelpers.CreateTag(t, app.db, "Dinner", "dinner")
	lunch := testhelpers.CreateTag(t, app.db, "Lunch", "lunch")
	salt := testhelpers.CreateIngredient(t, app.db, "Salt", "g")
	for i := 0; i < 7; i++ {
		testhelpers.CreateRecipe(t, app.db, author, fmt.Sprintf("dish-%d", i), []models.Tag{dinner}, map[uint]int{salt.ID: 1})
	}
	testhelpers.CreateRecipe(t, app.db, other, "lunchbox", []models.Tag{lunch}, map[uint]int{salt.ID: 1})

	t.Run("default page size", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/recipes", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[types.Page[types.RecipeResponse]](t, w)
		assert.EqualValues(t, 8, page.Count)
		assert.Len(t, page.Results, 6)
		require.NotNil(t, page.Next)
		assert.Equal(t, "http://example.com/api/recipes?page=2", *page.Next)
		assert.Nil(t, page.Previous)
		assert.Equal(t, "lunchbox", page.Results[0].Name)
	})

	t.Run("second page", func(t *testing.T) {
		page := decode[types.Page[types.RecipeResponse]](t, app.do(t, http.MethodGet, "/api/recipes?page=2&limit=3", "", nil))
		assert.Len(t, page.Results, 3)
		require.NotNil(t, page.Next)
		assert.Equal(t, "http://example.com/api/recipes?limit=3&page=3", *page.Next)
		require.NotNil(t, page.Previous)
		assert.Equal(t, "http://example.com/api/recipes?limit=3", *page.Previous)
	})

	t.Run("last page", func(t *testing.T) {
		page := decode[types.Page[types.RecipeResponse]](t, app.do(t, http.MethodGet, "/api/recipes?page=3&limit=3", "", nil))
		assert.Len(t, page.Results, 2)
		assert.Nil(t, page.Next)
	})

	t.Run("past the end", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/recipes?page=10", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(mustField(t, w, "results")))
	})

	t.Run("filters", func(t *testing.T) {
		page := decode[types.Page[types.RecipeResponse]](t, app.do(t, http.MethodGet, fmt.Sprintf("/api/recipes?author=%d", other.ID), "", nil))
		assert.EqualValues(t, 1, page.Count)

		page = decode[types.Page[types.RecipeResponse]](t, app.do(t, http.MethodGet, "/api/recipes?tags=lunch&tags=dinner&limit=100", "", nil))
		assert.EqualValues(t, 8, page.Count)

		w := app.do(t, http.MethodGet, "/api/recipes?author=abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		w := app.do(t, http.MethodGet, "/api/recipes/abc", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"detail":"Not found."}`, w.Body.String())
	})
}

func TestConflictStatusIsConfigurable(t *testing.T) {
	app := newTestApp(t, http.StatusConflict)
	author := testhelpers.CreateUser(t, app.db, "author")
	dinner := testhelpers.CreateTag(t, app.db, "Dinner", "dinner")
	salt := testhelpers.CreateIngredient(t, app.db, "Salt", "g")
	recipe := testhelpers.CreateRecipe(t, app.db, author, "soup", []models.Tag{dinner}, map[uint]int{salt.ID: 1})
	token := app.token(t, author)

	path := fmt.Sprintf("/api/recipes/%d/shopping_cart", recipe.ID)
	require.Equal(t, http.StatusCreated, app.do(t, http.MethodPost, path, token, nil).Code)

	w := app.do(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"errors":"Recipe is already in shopping cart."}`, w.Body.String())
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recipes := new(mocks.MockRecipeService)
	recipes.On("Get", mock.Anything, types.Anonymous, uint(7)).Return(nil, errors.New("connection reset by peer"))

	handlers := api.NewHandlers(api.Services{Recipes: recipes}, 0, zap.NewNop())
	r := router.SetupRouter(handlers, router.Options{}, zap.NewNop())
	app := &testApp{router: r}

	w := app.do(t, http.MethodGet, "/api/recipes/7", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
	recipes.AssertExpectations(t)
}
