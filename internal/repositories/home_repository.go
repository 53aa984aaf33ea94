package repositories

import (
	"context"

	"easyhomes/internal/models"
)

// HomeRepository defines the interface for listing data access.
type HomeRepository interface {
	GetAll(ctx context.Context) ([]models.Home, error)
	GetByID(ctx context.Context, id string) (*models.Home, error)
	Create(ctx context.Context, home *models.Home) error
	Update(ctx context.Context, home *models.Home) error
	Delete(ctx context.Context, id string) error
}
