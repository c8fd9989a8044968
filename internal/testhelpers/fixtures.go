package testhelpers

import (
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// PNGDataURI is a 1x1 transparent PNG encoded as a data URI
const PNGDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// CreateUser inserts a user whose email is derived from the username
func CreateUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "First " + username,
		LastName:     "Last " + username,
		PasswordHash: "unused",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, name, slug string) models.Tag {
	t.Helper()
	tag := models.Tag{Name: name, Color: "#E26C2D", Slug: slug}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ingredient
}

// CreateRecipe inserts a recipe with its tags and ingredient amounts directly, bypassing validation
func CreateRecipe(t *testing.T, db *gorm.DB, author models.User, name string, tags []models.Tag, amounts map[uint]int) models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Image:       fmt.Sprintf("/media/recipes/images/%s.png", name),
		Text:        "Cook " + name,
		CookingTime: 10,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(&recipe).Error; err != nil {
			return err
		}
		for _, tag := range tags {
			if err := tx.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		for ingredientID, amount := range amounts {
			row := models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ingredientID, Amount: amount}
			if err := tx.Omit("Ingredient").Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}
	return recipe
}

// AddMembership puts the recipe in the user's favorites or shopping cart
func AddMembership(t *testing.T, db *gorm.DB, kind models.MembershipKind, user models.User, recipe models.Recipe) {
	t.Helper()
	row := models.Membership{UserID: user.ID, RecipeID: recipe.ID}
	if err := db.Table(kind.Table()).Create(&row).Error; err != nil {
		t.Fatalf("failed to add recipe %d to %s: %v", recipe.ID, kind.Table(), err)
	}
}

// Viewer is the request context of an authenticated user
func Viewer(user models.User) types.Viewer {
	return types.Viewer{UserID: user.ID, IsStaff: user.IsStaff}
}
