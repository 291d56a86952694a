package service

import (
	"context"
	"net/mail"
	"strings"

	"spacehub/internal/models"
)

func (s *CatalogService) CreateUser(ctx context.Context, u *models.User) error {
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.MembershipStatus == "" {
		u.MembershipStatus = models.MembershipBasic
	}
	if err := validateUser(u); err != nil {
		return err
	}
	return s.repo.CreateUser(ctx, u)
}

func (s *CatalogService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *CatalogService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

func (s *CatalogService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *CatalogService) UpdateUser(ctx context.Context, u *models.User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	return s.repo.UpdateUser(ctx, u)
}

// LinkTelegram stores the chat used for push notifications.
func (s *CatalogService) LinkTelegram(ctx context.Context, userID, chatID int64) (*models.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.TelegramChatID = chatID
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func validateUser(u *models.User) error {
	u.Name = strings.TrimSpace(u.Name)
	switch {
	case u.Name == "":
		return invalidf("user name is required")
	case !validEmail(u.Email):
		return invalidf("invalid email %q", u.Email)
	case !models.IsValidRole(u.Role):
		return invalidf("unknown role %q", u.Role)
	case !models.IsValidMembership(u.MembershipStatus):
		return invalidf("unknown membership %q", u.MembershipStatus)
	}
	return nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil && addr.Name == ""
}

// CreateReview stores a review for a space. The facility comes from the space.
func (s *CatalogService) CreateReview(ctx context.Context, r *models.Review) error {
	if r.UserID <= 0 || r.SpaceID <= 0 {
		return invalidf("user and space are required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return invalidf("rating must be between 1 and 5")
	}
	space, err := s.repo.GetSpace(ctx, r.SpaceID)
	if err != nil {
		return err
	}
	r.FacilityID = space.FacilityID
	return s.repo.CreateReview(ctx, r)
}

func (s *CatalogService) GetReviews(ctx context.Context, spaceID int64) ([]*models.Review, error) {
	return s.repo.GetPublicReviewsBySpace(ctx, spaceID)
}

// GetRating returns the public average rounded to one decimal and the count.
func (s *CatalogService) GetRating(ctx context.Context, spaceID int64) (*models.RatingSummary, error) {
	return s.repo.GetSpaceRating(ctx, spaceID)
}

func (s *CatalogService) AddFavorite(ctx context.Context, userID, spaceID int64) (*models.Favorite, error) {
	if _, err := s.repo.GetSpace(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.repo.AddFavorite(ctx, userID, spaceID)
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, spaceID int64) error {
	return s.repo.RemoveFavorite(ctx, userID, spaceID)
}

func (s *CatalogService) GetFavorites(ctx context.Context, userID int64) ([]*models.Favorite, error) {
	return s.repo.GetFavoritesByUser(ctx, userID)
}

func (s *CatalogService) IsFavorite(ctx context.Context, userID, spaceID int64) (bool, error) {
	return s.repo.IsFavorite(ctx, userID, spaceID)
}
