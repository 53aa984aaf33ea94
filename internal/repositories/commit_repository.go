package repositories

import (
	"context"

	"easyhomes/internal/models"
)

// CommitRepository defines the interface for commit data access.
// Commits are append-only.
type CommitRepository interface {
	GetAll(ctx context.Context) ([]models.Commit, error)
	GetByID(ctx context.Context, id string) (*models.Commit, error)
	GetByUserID(ctx context.Context, userID string) ([]models.Commit, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*models.Commit, error)
	Create(ctx context.Context, commit *models.Commit) error
}
