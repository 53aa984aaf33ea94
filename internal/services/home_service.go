package services

import (
	"context"

	"easyhomes/internal/models"
	"easyhomes/internal/repositories"
)

// HomeService handles business logic related to listings.
type HomeService struct {
	repo repositories.HomeRepository
}

// NewHomeService creates a new HomeService.
func NewHomeService(repo repositories.HomeRepository) *HomeService {
	return &HomeService{
		repo: repo,
	}
}

// GetAllHomes retrieves all listings.
func (s *HomeService) GetAllHomes(ctx context.Context) ([]models.Home, error) {
	return s.repo.GetAll(ctx)
}

// GetHomeByID retrieves a single listing by its ID.
func (s *HomeService) GetHomeByID(ctx context.Context, id string) (*models.Home, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateHome creates a new listing.
func (s *HomeService) CreateHome(ctx context.Context, home *models.Home) error {
	return s.repo.Create(ctx, home)
}

// UpdateHome replaces an existing listing, including its images and renter.
func (s *HomeService) UpdateHome(ctx context.Context, home *models.Home) error {
	return s.repo.Update(ctx, home)
}

// DeleteHome deletes a listing by its ID.
func (s *HomeService) DeleteHome(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
