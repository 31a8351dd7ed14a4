package repositories

import (
	"context"
	"time"

	"example.com/restaurant-pos/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// OutboxRepository stores order events until the relay has delivered them
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create appends an event. Use the transactional store so the event commits
// with the ledger write it describes.
func (r *OutboxRepository) Create(ctx context.Context, event *models.OrderOutbox) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return errors.Wrap(err, "failed to create outbox event")
	}
	return nil
}

// ListPending returns up to limit undelivered events in insertion order
func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]models.OrderOutbox, error) {
	var events []models.OrderOutbox
	err := r.db.WithContext(ctx).
		Where("done = ?", false).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending outbox events")
	}
	return events, nil
}

// MarkDone flags events as delivered
func (r *OutboxRepository) MarkDone(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.OrderOutbox{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"done":         true,
			"processed_at": time.Now(),
		}).Error
	if err != nil {
		return errors.Wrap(err, "failed to mark outbox events done")
	}
	return nil
}

// CountPending returns the number of undelivered events
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderOutbox{}).Where("done = ?", false).Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count pending outbox events")
	}
	return n, nil
}
