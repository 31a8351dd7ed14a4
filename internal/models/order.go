package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is one of the four order states
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s admits no further edits to the line set
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OpenStatuses are the states shown on the kitchen queue
var OpenStatuses = []OrderStatus{OrderStatusPending, OrderStatusPreparing}

// PaymentStatus tracks whether the bill has been settled
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Order is a customer order with its line snapshots
type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	OrderNumber   string          `gorm:"size:20;not null;uniqueIndex" json:"order_number"`
	CustomerName  string          `gorm:"size:100;not null" json:"customer_name"`
	Status        OrderStatus     `gorm:"size:20;not null;default:pending;index" json:"status"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	Discount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	PaymentStatus PaymentStatus   `gorm:"size:20;not null;default:pending" json:"payment_status"`
	BillGenerated bool            `gorm:"not null;default:false" json:"bill_generated"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem is a snapshot of a catalog item taken when the line was written.
// ItemID is kept for traceability only; name and price are never re-read.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"not null;index" json:"order_id"`
	ItemID    uint            `gorm:"not null" json:"item_id"`
	ItemName  string          `gorm:"size:100;not null" json:"item_name"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
