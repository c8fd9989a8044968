package api

import (
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

// Request bodies are converted into service inputs by the from* functions,
// and service results into wire representations by the to* functions.

func recipeInputFromRequest(req types.RecipeRequest) service.RecipeInput {
	in := service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
		Tags:        req.Tags,
	}
	if req.Ingredients != nil {
		in.Ingredients = make([]service.IngredientAmount, 0, len(req.Ingredients))
		for _, ing := range req.Ingredients {
			in.Ingredients = append(in.Ingredients, service.IngredientAmount{ID: ing.ID, Amount: ing.Amount})
		}
	}
	return in
}

func registerInputFromRequest(req types.RegisterRequest) service.RegisterInput {
	return service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
}

func toUserResponse(u models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func toTagResponse(t models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toTagResponses(tags []models.Tag) []types.TagResponse {
	out := make([]types.TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, toTagResponse(t))
	}
	return out
}

func toIngredientResponse(i models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func toRecipeResponse(v service.RecipeView) types.RecipeResponse {
	r := v.Recipe
	ingredients := make([]types.RecipeIngredientResponse, 0, len(r.Ingredients))
	for _, ri := range r.Ingredients {
		ingredients = append(ingredients, types.RecipeIngredientResponse{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}

	return types.RecipeResponse{
		ID:               r.ID,
		Tags:             toTagResponses(r.Tags),
		Author:           toUserResponse(r.Author, v.AuthorSubscribed),
		Ingredients:      ingredients,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func toRecipeShortResponse(r models.Recipe) types.RecipeShortResponse {
	return types.RecipeShortResponse{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

func toSubscriptionResponse(v service.SubscriptionView) types.SubscriptionResponse {
	recipes := make([]types.RecipeShortResponse, 0, len(v.Recipes))
	for _, r := range v.Recipes {
		recipes = append(recipes, toRecipeShortResponse(r))
	}
	return types.SubscriptionResponse{
		UserResponse: toUserResponse(v.User, true),
		Recipes:      recipes,
		RecipesCount: v.RecipesCount,
	}
}
