package models

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Admin is a back-office user allowed to operate the POS
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Order event types written to the outbox
const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderBilled        = "order.billed"
)

// OrderOutbox is an order event waiting to be relayed to the broker and the search index
type OrderOutbox struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	EventType   string     `gorm:"size:50;not null" json:"event_type"`
	OrderID     uint       `gorm:"not null;index" json:"order_id"`
	Payload     string     `gorm:"type:text;not null" json:"payload"`
	Done        bool       `gorm:"not null;default:false;index" json:"done"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

// TableName keeps the outbox table name singular
func (OrderOutbox) TableName() string {
	return "order_outbox"
}

// SetupModels runs migrations for every model
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Admin{},
		&Item{},
		&Order{},
		&OrderItem{},
		&OrderOutbox{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
