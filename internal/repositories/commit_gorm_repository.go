package repositories

import (
	"context"
	"errors"
	"fmt"

	"easyhomes/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMCommitRepository is a GORM implementation of CommitRepository.
type GORMCommitRepository struct {
	db *gorm.DB
}

// NewGORMCommitRepository creates a new instance of GORMCommitRepository.
func NewGORMCommitRepository(db *gorm.DB) *GORMCommitRepository {
	return &GORMCommitRepository{db: db}
}

// GetAll retrieves all commits in creation order.
func (r *GORMCommitRepository) GetAll(ctx context.Context) ([]models.Commit, error) {
	commits := []models.Commit{}
	if err := r.db.WithContext(ctx).Order("created_at").Find(&commits).Error; err != nil {
		return nil, fmt.Errorf("failed to get all commits: %w", err)
	}
	return commits, nil
}

// GetByID retrieves a single commit.
func (r *GORMCommitRepository) GetByID(ctx context.Context, id string) (*models.Commit, error) {
	return r.first(ctx, "id = ?", id, "ID "+id)
}

// GetByIdempotencyKey returns the commit previously stored under key.
func (r *GORMCommitRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.Commit, error) {
	return r.first(ctx, "idempotency_key = ?", key, "idempotency key "+key)
}

// GetByUserID retrieves the commits a user owns, oldest first.
func (r *GORMCommitRepository) GetByUserID(ctx context.Context, userID string) ([]models.Commit, error) {
	commits := []models.Commit{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at").Find(&commits).Error; err != nil {
		return nil, fmt.Errorf("failed to get commits for user %s: %w", userID, err)
	}
	return commits, nil
}

// Create inserts a new commit. A reused idempotency key yields ErrDuplicate.
func (r *GORMCommitRepository) Create(ctx context.Context, commit *models.Commit) error {
	if commit.ID == "" {
		commit.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(commit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create commit: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create commit: %w", err)
	}
	return nil
}

func (r *GORMCommitRepository) first(ctx context.Context, query string, arg interface{}, desc string) (*models.Commit, error) {
	var commit models.Commit
	if err := r.db.WithContext(ctx).First(&commit, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("commit with %s %w", desc, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get commit by %s: %w", desc, err)
	}
	return &commit, nil
}
