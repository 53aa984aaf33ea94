package services

import (
	"context"
	"errors"
	"fmt"

	"easyhomes/internal/models"
	"easyhomes/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles account records.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterUser stores a new account. user.Password holds the plain secret on
// input and the bcrypt hash afterwards. OAuth accounts may omit the password.
func (s *UserService) RegisterUser(ctx context.Context, user *models.User) error {
	if user.GoogleID != nil && *user.GoogleID == "" {
		user.GoogleID = nil
	}
	if user.GoogleID == nil && user.Password == "" {
		return fmt.Errorf("password is required for accounts without a Google ID: %w", ErrInvalidInput)
	}

	if existing, err := s.userRepo.GetByEmail(ctx, user.Email); err == nil && existing != nil {
		return fmt.Errorf("email '%s' already registered: %w", user.Email, ErrConflict)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if user.GoogleID != nil {
		if existing, err := s.userRepo.GetByGoogleID(ctx, *user.GoogleID); err == nil && existing != nil {
			return fmt.Errorf("google account already linked: %w", ErrConflict)
		} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to check google id: %w", err)
		}
	}

	if user.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}
	if user.Role == "" {
		user.Role = models.DefaultRole
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("user already exists: %w", ErrConflict)
		}
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// GetUserByID retrieves an account together with its commit ids.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
