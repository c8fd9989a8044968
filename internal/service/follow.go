package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// SubscriptionView is a followed author with their newest recipes.
// RecipesCount is always the author's full recipe count.
type SubscriptionView struct {
	User         models.User
	Recipes      []models.Recipe
	RecipesCount int64
}

// FollowService manages user to user subscriptions
type FollowService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewFollowService(db *gorm.DB, logger *zap.Logger) *FollowService {
	return &FollowService{db: db, logger: logger}
}

// Follow subscribes the viewer to target. recipesLimit bounds the embedded recipes; nil means all.
func (s *FollowService) Follow(ctx context.Context, viewer types.Viewer, targetID uint, recipesLimit *int) (*SubscriptionView, error) {
	if !viewer.Authenticated() {
		return nil, newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	if viewer.UserID == targetID {
		return nil, NewValidationError("following", "You cannot subscribe to yourself.")
	}
	if err := validateRecipesLimit(recipesLimit); err != nil {
		return nil, err
	}

	target, err := findUser(ctx, s.db, targetID)
	if err != nil {
		return nil, err
	}

	follow := models.Follow{UserID: viewer.UserID, FollowingID: target.ID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, newError(ErrConflict, "You are already subscribed to this user.")
		}
		return nil, fmt.Errorf("failed to follow user: %w", err)
	}

	s.logger.Info("user followed", zap.Uint("user_id", viewer.UserID), zap.Uint("following_id", target.ID))
	return s.subscription(ctx, *target, recipesLimit)
}

// Unfollow removes the subscription; it fails with NotFound when there is none.
func (s *FollowService) Unfollow(ctx context.Context, viewer types.Viewer, targetID uint) error {
	if !viewer.Authenticated() {
		return newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	target, err := findUser(ctx, s.db, targetID)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", viewer.UserID, target.ID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to unfollow user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return newError(ErrNotFound, "You are not subscribed to this user.")
	}

	s.logger.Info("user unfollowed", zap.Uint("user_id", viewer.UserID), zap.Uint("following_id", target.ID))
	return nil
}

// ListFollowing returns one page of the authors the viewer follows, in subscription order
func (s *FollowService) ListFollowing(ctx context.Context, viewer types.Viewer, page Pagination, recipesLimit *int) ([]SubscriptionView, int64, error) {
	if !viewer.Authenticated() {
		return nil, 0, newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	if err := validateRecipesLimit(recipesLimit); err != nil {
		return nil, 0, err
	}

	following := func() *gorm.DB {
		return s.db.WithContext(ctx).
			Model(&models.User{}).
			Joins("JOIN follows ON follows.following_id = users.id").
			Where("follows.user_id = ?", viewer.UserID)
	}

	var total int64
	if err := following().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var users []models.User
	err := following().
		Select("users.*").
		Order("follows.id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	views := make([]SubscriptionView, 0, len(users))
	for _, u := range users {
		view, err := s.subscription(ctx, u, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		views = append(views, *view)
	}
	return views, total, nil
}

func (s *FollowService) subscription(ctx context.Context, user models.User, recipesLimit *int) (*SubscriptionView, error) {
	db := s.db.WithContext(ctx)
	view := &SubscriptionView{User: user, Recipes: []models.Recipe{}}

	if err := db.Model(&models.Recipe{}).Where("author_id = ?", user.ID).Count(&view.RecipesCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	if recipesLimit != nil && *recipesLimit == 0 {
		return view, nil
	}

	query := db.Where("author_id = ?", user.ID).Order("id DESC")
	if recipesLimit != nil {
		query = query.Limit(*recipesLimit)
	}
	if err := query.Find(&view.Recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	return view, nil
}

func validateRecipesLimit(limit *int) error {
	if limit != nil && *limit < 0 {
		return NewValidationError("recipes_limit", "Ensure this value is greater than or equal to 0.")
	}
	return nil
}

func followedUserIDs(ctx context.Context, db *gorm.DB, userID uint, candidates []uint) (map[uint]bool, error) {
	var ids []uint
	err := db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND following_id IN ?", userID, candidates).
		Pluck("following_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func findUser(ctx context.Context, db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	if err := db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrNotFound, "User not found.")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
