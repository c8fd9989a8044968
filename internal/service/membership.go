package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/metrics"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// MembershipService toggles one kind of "user marked recipe" relation.
// Favorites and the shopping cart are two instances of it.
type MembershipService struct {
	db     *gorm.DB
	kind   models.MembershipKind
	logger *zap.Logger
}

func NewMembershipService(db *gorm.DB, kind models.MembershipKind, logger *zap.Logger) *MembershipService {
	return &MembershipService{db: db, kind: kind, logger: logger}
}

func (s *MembershipService) Kind() models.MembershipKind {
	return s.kind
}

// Add marks the recipe for the viewer. Marking it twice is a Conflict; the unique
// index on (user_id, recipe_id) decides, so concurrent adds cannot both succeed.
func (s *MembershipService) Add(ctx context.Context, viewer types.Viewer, recipeID uint) (*models.Recipe, error) {
	if !viewer.Authenticated() {
		return nil, newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	recipe, err := findRecipe(ctx, s.db, recipeID)
	if err != nil {
		return nil, err
	}

	row := models.Membership{UserID: viewer.UserID, RecipeID: recipe.ID}
	if err := s.db.WithContext(ctx).Table(s.kind.Table()).Create(&row).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, newError(ErrConflict, "Recipe is already in %s.", s.kind.Label())
		}
		return nil, fmt.Errorf("failed to add recipe to %s: %w", s.kind.Label(), err)
	}

	metrics.MembershipChanges.WithLabelValues(string(s.kind), "add").Inc()
	s.logger.Debug("membership added",
		zap.String("kind", string(s.kind)),
		zap.Uint("user_id", viewer.UserID),
		zap.Uint("recipe_id", recipe.ID))
	return recipe, nil
}

// Remove unmarks the recipe. Removing an absent mark fails with ErrNotMember.
func (s *MembershipService) Remove(ctx context.Context, viewer types.Viewer, recipeID uint) error {
	if !viewer.Authenticated() {
		return newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	recipe, err := findRecipe(ctx, s.db, recipeID)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Table(s.kind.Table()).
		Where("user_id = ? AND recipe_id = ?", viewer.UserID, recipe.ID).
		Delete(&models.Membership{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove recipe from %s: %w", s.kind.Label(), res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(ErrNotMember, "Recipe is not in %s.", s.kind.Label())
	}

	metrics.MembershipChanges.WithLabelValues(string(s.kind), "remove").Inc()
	return nil
}

// Contains reports whether the user has marked the recipe
func (s *MembershipService) Contains(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Table(s.kind.Table()).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", s.kind.Label(), err)
	}
	return count > 0, nil
}

func membershipSubquery(db *gorm.DB, kind models.MembershipKind, userID uint) *gorm.DB {
	return db.Table(kind.Table()).Select("recipe_id").Where("user_id = ?", userID)
}

func memberRecipeIDs(ctx context.Context, db *gorm.DB, kind models.MembershipKind, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	var ids []uint
	err := db.WithContext(ctx).
		Table(kind.Table()).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", kind.Label(), err)
	}

	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
