package services

import (
	"context"
	"strings"
	"time"

	"taskhub/internal/apperrors"
	"taskhub/internal/models"
	"taskhub/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, name, email string) (*models.User, error)
}

type userService struct {
	repo repositories.UserRepository
	auth AuthService
}

func NewUserService(repo repositories.UserRepository, auth AuthService) UserService {
	return &userService{repo: repo, auth: auth}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, apperrors.Validation("name", "is required")
	}
	if email == "" {
		return nil, apperrors.Validation("email", "is required")
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate resolves email+password to a user. Unknown email and wrong
// password produce the same error so the response leaks nothing. The password
// is compared verbatim, exactly as it was registered.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}
	if !s.auth.CheckPassword(user.PasswordHash, password) {
		return nil, apperrors.ErrUnauthenticated
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, name, email string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, apperrors.Validation("name", "is required")
	}
	if email == "" {
		return nil, apperrors.Validation("email", "is required")
	}
	return s.repo.UpdateProfile(ctx, id, name, email)
}
