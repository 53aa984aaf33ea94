package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"easyhomes/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMHomeRepository is a GORM implementation of HomeRepository.
// Images and the renter live in their own tables and are preloaded on read.
type GORMHomeRepository struct {
	db *gorm.DB
}

// NewGORMHomeRepository creates a new instance of GORMHomeRepository.
func NewGORMHomeRepository(db *gorm.DB) *GORMHomeRepository {
	return &GORMHomeRepository{
		db: db,
	}
}

func (r *GORMHomeRepository) withAssociations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Renter")
}

// GetAll retrieves every listing in creation order.
func (r *GORMHomeRepository) GetAll(ctx context.Context) ([]models.Home, error) {
	var homes []models.Home
	if err := r.withAssociations(ctx).Order("created_at").Find(&homes).Error; err != nil {
		return nil, fmt.Errorf("failed to get all homes: %w", err)
	}
	for i := range homes {
		normalizeHome(&homes[i])
	}
	return homes, nil
}

// GetByID retrieves a single listing by its ID.
func (r *GORMHomeRepository) GetByID(ctx context.Context, id string) (*models.Home, error) {
	var home models.Home
	if err := r.withAssociations(ctx).First(&home, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("home with ID %s %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get home by ID %s: %w", id, err)
	}
	normalizeHome(&home)
	return &home, nil
}

// Create inserts a listing together with its images and renter.
func (r *GORMHomeRepository) Create(ctx context.Context, home *models.Home) error {
	if home.ID == "" {
		home.ID = uuid.New().String()
	}
	prepareAssociations(home)
	if err := r.db.WithContext(ctx).Create(home).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to create home: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create home: %w", err)
	}
	normalizeHome(home)
	return nil
}

// Update replaces the listing's fields, images and renter in one transaction.
func (r *GORMHomeRepository) Update(ctx context.Context, home *models.Home) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Home
		if err := tx.Select("id", "created_at").First(&existing, "id = ?", home.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("home with ID %s %w for update", home.ID, ErrNotFound)
			}
			return err
		}
		home.CreatedAt = existing.CreatedAt
		home.UpdatedAt = time.Now()

		if err := tx.Model(&models.Home{ID: home.ID}).
			Select("Title", "Street", "Town", "State", "Pincode", "RentPrice", "PlusCode", "UpdatedAt").
			Omit(clause.Associations).
			Updates(home).Error; err != nil {
			return err
		}

		// commits reference the renter id, so it survives a body that omits it
		if home.Renter != nil && home.Renter.ID == "" {
			var current models.Renter
			if err := tx.Select("id").Where("home_id = ?", home.ID).Limit(1).Find(&current).Error; err != nil {
				return err
			}
			home.Renter.ID = current.ID
		}

		if err := tx.Where("home_id = ?", home.ID).Delete(&models.HomeImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("home_id = ?", home.ID).Delete(&models.Renter{}).Error; err != nil {
			return err
		}

		prepareAssociations(home)
		if len(home.Images) > 0 {
			if err := tx.Create(&home.Images).Error; err != nil {
				return err
			}
		}
		if home.Renter != nil {
			if err := tx.Create(home.Renter).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("failed to update home: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to update home: %w", err)
	}
	normalizeHome(home)
	return nil
}

// Delete removes a listing and everything embedded in it.
func (r *GORMHomeRepository) Delete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("home_id = ?", id).Delete(&models.HomeImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("home_id = ?", id).Delete(&models.Renter{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Home{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("home with ID %s %w for deletion", id, ErrNotFound)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete home: %w", err)
	}
	return nil
}

func prepareAssociations(home *models.Home) {
	for i := range home.Images {
		home.Images[i].ID = 0
		home.Images[i].HomeID = home.ID
		home.Images[i].Position = i
	}
	if home.Renter != nil {
		if home.Renter.ID == "" {
			home.Renter.ID = uuid.New().String()
		}
		home.Renter.HomeID = home.ID
	}
}

// normalizeHome replaces a nil image list with an empty one so clients always see an array.
func normalizeHome(home *models.Home) {
	if home.Images == nil {
		home.Images = []models.HomeImage{}
	}
}
