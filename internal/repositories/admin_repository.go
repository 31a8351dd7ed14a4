package repositories

import (
	"context"

	"example.com/restaurant-pos/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AdminRepository provides access to admin accounts
type AdminRepository struct {
	db *gorm.DB
}

// NewAdminRepository creates a new admin repository
func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create inserts a new admin
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if err := r.db.WithContext(ctx).Create(admin).Error; err != nil {
		return errors.Wrap(err, "failed to create admin")
	}
	return nil
}

// GetByUsername gets an admin by username
func (r *AdminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	if err != nil {
		return nil, translate(err, "failed to get admin by username")
	}
	return &admin, nil
}

// UpdatePassword replaces the stored password hash
func (r *AdminRepository) UpdatePassword(ctx context.Context, username, hash string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("username = ?", username).
		Update("password", hash)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update admin password")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every admin ordered by username
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	var admins []models.Admin
	if err := r.db.WithContext(ctx).Order("username ASC").Find(&admins).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list admins")
	}
	return admins, nil
}
