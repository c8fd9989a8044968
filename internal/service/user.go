package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// UserView is a user profile with the viewer's subscription flag
type UserView struct {
	User         models.User
	IsSubscribed bool
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Get(ctx context.Context, viewer types.Viewer, id uint) (*UserView, error) {
	user, err := findUser(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	views, err := s.decorate(ctx, viewer, []models.User{*user})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Me returns the profile of the signed-in viewer
func (s *UserService) Me(ctx context.Context, viewer types.Viewer) (*UserView, error) {
	if !viewer.Authenticated() {
		return nil, newError(ErrUnauthenticated, "Authentication credentials were not provided.")
	}
	user, err := findUser(ctx, s.db, viewer.UserID)
	if err != nil {
		return nil, err
	}
	return &UserView{User: *user}, nil
}

func (s *UserService) List(ctx context.Context, viewer types.Viewer, page Pagination) ([]UserView, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := db.Order("id").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	views, err := s.decorate(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *UserService) decorate(ctx context.Context, viewer types.Viewer, users []models.User) ([]UserView, error) {
	views := make([]UserView, len(users))
	for i := range users {
		views[i].User = users[i]
	}
	if !viewer.Authenticated() || len(users) == 0 {
		return views, nil
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	followed, err := followedUserIDs(ctx, s.db, viewer.UserID, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].IsSubscribed = followed[views[i].User.ID]
	}
	return views, nil
}
