package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType is the dietary type of a menu item
type ItemType string

const (
	ItemTypeVeg    ItemType = "veg"
	ItemTypeNonVeg ItemType = "nonveg"
)

// Valid reports whether t is a known dietary type
func (t ItemType) Valid() bool {
	return t == ItemTypeVeg || t == ItemTypeNonVeg
}

// ItemStatus is the availability of a menu item
type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "available"
	ItemStatusUnavailable ItemStatus = "unavailable"
)

// Valid reports whether s is a known availability status
func (s ItemStatus) Valid() bool {
	return s == ItemStatusAvailable || s == ItemStatusUnavailable
}

// Item represents a menu item in the catalog
type Item struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Type      ItemType        `gorm:"size:10;not null" json:"type"`
	Status    ItemStatus      `gorm:"size:20;not null;default:available" json:"status"`
	Image     *string         `gorm:"size:255" json:"image"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
