package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserService lists users and manages follows.
type UserService struct {
	db       *gorm.DB
	pageSize int
}

var _ IUserService = (*UserService)(nil)

func NewUserService(db *gorm.DB, pageSize int) *UserService {
	return &UserService{db: db, pageSize: pageSize}
}

// ListUsers returns one page of users ordered by id.
func (s *UserService) ListUsers(ctx context.Context, viewerID uint, page Pagination) ([]types.UserResponse, int64, error) {
	page = page.Normalize(s.pageSize)
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := db.Order("id").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	followed, err := followedAuthors(db, viewerID, ids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]types.UserResponse, len(users))
	for i := range users {
		out[i] = types.NewUserResponse(&users[i], followed[users[i].ID])
	}
	return out, count, nil
}

// GetUser returns a user as seen by viewerID.
func (s *UserService) GetUser(ctx context.Context, viewerID, userID uint) (*types.UserResponse, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, userID)
	if err != nil {
		return nil, err
	}
	followed, err := followedAuthors(db, viewerID, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	resp := types.NewUserResponse(user, followed[user.ID])
	return &resp, nil
}

// Subscribe makes userID follow authorID.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*types.SubscriptionResponse, error) {
	var author *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		author, err = findUser(tx, authorID)
		if err != nil {
			return err
		}
		if userID == authorID {
			return nonFieldError("You cannot subscribe to yourself.")
		}

		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", userID, authorID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check subscription: %w", err)
		}
		if count > 0 {
			return nonFieldError("You are already subscribed to this author.")
		}

		if err := tx.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nonFieldError("You are already subscribed to this author.")
			}
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.UserListChanges.WithLabelValues("subscriptions", "add").Inc()
	logging.Info().Uint("user_id", userID).Uint("author_id", authorID).Msg("subscribed")

	subs, err := s.subscriptionResponses(s.db.WithContext(ctx), []models.User{*author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &subs[0], nil
}

// Unsubscribe removes the follow of authorID by userID.
func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	db := s.db.WithContext(ctx)
	if _, err := findUser(db, authorID); err != nil {
		return err
	}

	res := db.Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	metrics.UserListChanges.WithLabelValues("subscriptions", "remove").Inc()
	return nil
}

// Subscriptions lists the authors followed by userID with up to recipesLimit recipe
// previews each. A recipesLimit below zero means no limit.
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page Pagination, recipesLimit int) ([]types.SubscriptionResponse, int64, error) {
	page = page.Normalize(s.pageSize)
	db := s.db.WithContext(ctx)

	followed := db.Model(&models.Follow{}).Select("author_id").Where("user_id = ?", userID)

	var count int64
	if err := db.Model(&models.User{}).Where("id IN (?)", followed).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	if err := db.Where("id IN (?)", followed).
		Order("id").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&authors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	out, err := s.subscriptionResponses(db, authors, recipesLimit)
	if err != nil {
		return nil, 0, err
	}
	return out, count, nil
}

// subscriptionResponses builds the followed-author view. All authors are followed by
// the caller, so is_subscribed is always true.
func (s *UserService) subscriptionResponses(db *gorm.DB, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	out := make([]types.SubscriptionResponse, 0, len(authors))
	for i := range authors {
		author := &authors[i]

		var recipesCount int64
		if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&recipesCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count recipes: %w", err)
		}

		q := db.Where("author_id = ?", author.ID).Order("pub_date DESC, id DESC")
		if recipesLimit >= 0 {
			q = q.Limit(recipesLimit)
		}
		var recipes []models.Recipe
		if err := q.Find(&recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to list author recipes: %w", err)
		}

		previews := make([]types.RecipeShortResponse, len(recipes))
		for j := range recipes {
			previews[j] = types.NewRecipeShortResponse(&recipes[j])
		}

		out = append(out, types.SubscriptionResponse{
			UserResponse: types.NewUserResponse(author, true),
			Recipes:      previews,
			RecipesCount: recipesCount,
		})
	}
	return out, nil
}

// followedAuthors reports which of authorIDs viewerID follows.
func followedAuthors(db *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool)
	if viewerID == 0 || len(authorIDs) == 0 {
		return out, nil
	}

	var ids []uint
	if err := db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
