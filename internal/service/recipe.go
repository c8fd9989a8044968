package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/metrics"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// IngredientAmount references a catalog ingredient and the quantity a recipe needs
type IngredientAmount struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"min=1,max=10000"`
}

// RecipeInput is the validated payload of a recipe create or update.
// Image is a base64 data URI; on update an empty Image keeps the stored one.
type RecipeInput struct {
	Name        string             `json:"name" validate:"required,max=200"`
	Text        string             `json:"text" validate:"required"`
	CookingTime int                `json:"cooking_time" validate:"min=1,max=3600"`
	Image       string             `json:"image"`
	Tags        []uint             `json:"tags" validate:"required,min=1,unique"`
	Ingredients []IngredientAmount `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
}

// RecipeView is a recipe as seen by one viewer
type RecipeView struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeFilter narrows recipe listings. Zero values do not filter.
type RecipeFilter struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService reads recipes and writes them together with their tag and ingredient rows
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
	logger *zap.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, logger *zap.Logger) *RecipeService {
	return &RecipeService{db: db, images: images, logger: logger}
}

// Get returns one recipe with its relations and the viewer's flags
func (s *RecipeService) Get(ctx context.Context, viewer types.Viewer, id uint) (*RecipeView, error) {
	var recipe models.Recipe
	if err := withRelations(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "Recipe not found.")
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	views, err := s.decorate(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns one page of recipes, newest first, and the total number of matches
func (s *RecipeService) List(ctx context.Context, viewer types.Viewer, filter RecipeFilter, page Pagination) ([]RecipeView, int64, error) {
	var total int64
	if err := s.filtered(ctx, viewer, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := withRelations(s.filtered(ctx, viewer, filter)).
		Order("recipes.id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.decorate(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// Create validates the input and stores the recipe, its tags and its ingredients atomically
func (s *RecipeService) Create(ctx context.Context, viewer types.Viewer, in RecipeInput) (*RecipeView, error) {
	if !viewer.Authenticated() {
		return nil, newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	if err := validateRecipeInput(in, true); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	image, err := s.storeImage(ctx, in.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    viewer.UserID,
		Name:        in.Name,
		Image:       image,
		Text:        in.Text,
		CookingTime: in.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return err
		}
		return replaceRelations(tx, recipe.ID, in)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	metrics.RecipeWrites.WithLabelValues("create").Inc()
	s.logger.Info("recipe created", zap.Uint("recipe_id", recipe.ID), zap.Uint("author_id", viewer.UserID))
	return s.Get(ctx, viewer, recipe.ID)
}

// Update replaces the recipe fields and all of its tag and ingredient rows
func (s *RecipeService) Update(ctx context.Context, viewer types.Viewer, id uint, in RecipeInput) (*RecipeView, error) {
	if !viewer.Authenticated() {
		return nil, newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !viewer.CanModify(recipe.AuthorID) {
		return nil, newError(ErrPermissionDenied, "You can only change your own recipes.")
	}
	if err := validateRecipeInput(in, false); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, in); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"name":         in.Name,
		"text":         in.Text,
		"cooking_time": in.CookingTime,
	}
	if in.Image != "" {
		image, err := s.storeImage(ctx, in.Image)
		if err != nil {
			return nil, err
		}
		updates["image"] = image
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(updates).Error; err != nil {
			return err
		}
		return replaceRelations(tx, recipe.ID, in)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	metrics.RecipeWrites.WithLabelValues("update").Inc()
	s.logger.Info("recipe updated", zap.Uint("recipe_id", recipe.ID), zap.Uint("user_id", viewer.UserID))
	return s.Get(ctx, viewer, recipe.ID)
}

// Delete removes the recipe with its join rows and every favorite or cart entry pointing at it
func (s *RecipeService) Delete(ctx context.Context, viewer types.Viewer, id uint) error {
	if !viewer.Authenticated() {
		return newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	recipe, err := findRecipe(ctx, s.db, id)
	if err != nil {
		return err
	}
	if !viewer.CanModify(recipe.AuthorID) {
		return newError(ErrPermissionDenied, "You can only delete your own recipes.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeTag{}).Error; err != nil {
			return err
		}
		for _, kind := range models.MembershipKinds {
			if err := tx.Table(kind.Table()).Where("recipe_id = ?", recipe.ID).Delete(&models.Membership{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, recipe.ID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	metrics.RecipeWrites.WithLabelValues("delete").Inc()
	s.logger.Info("recipe deleted", zap.Uint("recipe_id", recipe.ID), zap.Uint("user_id", viewer.UserID))
	return nil
}

func validateRecipeInput(in RecipeInput, requireImage bool) error {
	ve := &ValidationError{}
	if err := validateStruct(in); err != nil {
		if !errors.As(err, &ve) {
			return err
		}
	}
	if requireImage && strings.TrimSpace(in.Image) == "" {
		ve.Add("image", "This field is required.")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

// checkReferences makes sure every tag and ingredient exists before anything is written.
func (s *RecipeService) checkReferences(ctx context.Context, in RecipeInput) error {
	db := s.db.WithContext(ctx)

	var tagIDs []uint
	if err := db.Model(&models.Tag{}).Where("id IN ?", in.Tags).Pluck("id", &tagIDs).Error; err != nil {
		return fmt.Errorf("failed to look up tags: %w", err)
	}
	if missing := missingIDs(in.Tags, tagIDs); len(missing) > 0 {
		ve := &ValidationError{}
		for _, id := range missing {
			ve.Add("tags", fmt.Sprintf("Tag %d does not exist.", id))
		}
		return ve
	}

	wanted := make([]uint, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		wanted = append(wanted, ing.ID)
	}
	var ingredientIDs []uint
	if err := db.Model(&models.Ingredient{}).Where("id IN ?", wanted).Pluck("id", &ingredientIDs).Error; err != nil {
		return fmt.Errorf("failed to look up ingredients: %w", err)
	}
	if missing := missingIDs(wanted, ingredientIDs); len(missing) > 0 {
		return newError(ErrNotFound, "Ingredient %d does not exist.", missing[0])
	}
	return nil
}

func (s *RecipeService) storeImage(ctx context.Context, dataURI string) (string, error) {
	img, err := DecodeImage(dataURI)
	if err != nil {
		return "", err
	}
	url, err := s.images.Save(ctx, NewImageKey(img.Extension), img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("failed to store recipe image: %w", err)
	}
	return url, nil
}

// replaceRelations clears the recipe's tag and ingredient rows and inserts the submitted ones.
func replaceRelations(tx *gorm.DB, recipeID uint, in RecipeInput) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}

	tags := make([]models.RecipeTag, 0, len(in.Tags))
	for _, tagID := range in.Tags {
		tags = append(tags, models.RecipeTag{RecipeID: recipeID, TagID: tagID})
	}
	if err := tx.Create(&tags).Error; err != nil {
		return err
	}

	rows := make([]models.RecipeIngredient, 0, len(in.Ingredients))
	for _, ing := range in.Ingredients {
		rows = append(rows, models.RecipeIngredient{RecipeID: recipeID, IngredientID: ing.ID, Amount: ing.Amount})
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}

func (s *RecipeService) filtered(ctx context.Context, viewer types.Viewer, f RecipeFilter) *gorm.DB {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})

	if f.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", f.AuthorID)
	}
	if len(f.TagSlugs) > 0 {
		tagged := db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	// Membership filters only apply to signed-in viewers.
	if viewer.Authenticated() {
		if f.IsFavorited {
			query = query.Where("recipes.id IN (?)", membershipSubquery(db, models.Favorites, viewer.UserID))
		}
		if f.IsInShoppingCart {
			query = query.Where("recipes.id IN (?)", membershipSubquery(db, models.ShoppingCart, viewer.UserID))
		}
	}
	return query
}

// decorate attaches the viewer's favorite, cart and subscription flags.
func (s *RecipeService) decorate(ctx context.Context, viewer types.Viewer, recipes []models.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		views[i].Recipe = recipes[i]
	}
	if !viewer.Authenticated() || len(recipes) == 0 {
		return views, nil
	}

	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		authorIDs = append(authorIDs, r.AuthorID)
	}

	favorites, err := memberRecipeIDs(ctx, s.db, models.Favorites, viewer.UserID, recipeIDs)
	if err != nil {
		return nil, err
	}
	cart, err := memberRecipeIDs(ctx, s.db, models.ShoppingCart, viewer.UserID, recipeIDs)
	if err != nil {
		return nil, err
	}
	followed, err := followedUserIDs(ctx, s.db, viewer.UserID, authorIDs)
	if err != nil {
		return nil, err
	}

	for i := range views {
		views[i].IsFavorited = favorites[views[i].Recipe.ID]
		views[i].IsInShoppingCart = cart[views[i].Recipe.ID]
		views[i].AuthorSubscribed = followed[views[i].Recipe.AuthorID]
	}
	return views, nil
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

func findRecipe(ctx context.Context, db *gorm.DB, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "Recipe not found.")
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return &recipe, nil
}

func missingIDs(wanted, found []uint) []uint {
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []uint
	for _, id := range wanted {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing
}
