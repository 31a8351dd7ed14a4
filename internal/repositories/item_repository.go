package repositories

import (
	"context"

	"example.com/restaurant-pos/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ItemRepository provides access to the menu catalog
type ItemRepository struct {
	db *gorm.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create inserts a new item
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return errors.Wrap(err, "failed to create item")
	}
	return nil
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		return nil, translate(err, "failed to get item by ID")
	}
	return &item, nil
}

// List returns every item, newest first
func (r *ItemRepository) List(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}
	return items, nil
}

// Update overwrites the mutable columns of item, including a cleared image
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	res := r.db.WithContext(ctx).
		Model(item).
		Select("name", "price", "type", "status", "image").
		Updates(item)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update item")
	}
	return nil
}

// Delete removes an item. Order lines keep their own snapshot of it.
func (r *ItemRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Item{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to delete item")
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of catalog items
func (r *ItemRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Item{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count items")
	}
	return n, nil
}
