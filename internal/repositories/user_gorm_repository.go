package repositories

import (
	"context"
	"errors"
	"fmt"

	"easyhomes/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.DefaultRole
	}
	if err := r.db.WithContext(ctx).Omit("Commits").Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CommitIDs = []string{}
	return nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email, "email "+email)
}

// GetByGoogleID retrieves a user by their Google account id.
func (r *GORMUserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.first(ctx, "google_id = ?", googleID, "Google ID "+googleID)
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id, "ID "+id)
}

func (r *GORMUserRepository) first(ctx context.Context, query string, arg interface{}, desc string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Commits", func(db *gorm.DB) *gorm.DB { return db.Select("id", "user_id", "created_at").Order("created_at") }).
		First(&user, query, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with %s %w", desc, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", desc, err)
	}
	user.CommitIDs = make([]string, 0, len(user.Commits))
	for _, c := range user.Commits {
		user.CommitIDs = append(user.CommitIDs, c.ID)
	}
	user.Commits = nil
	return &user, nil
}
