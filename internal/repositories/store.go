package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store bundles the repositories that share one database handle.
// Inside Transact every repository is bound to the same transaction.
type Store struct {
	db     *gorm.DB
	Items  *ItemRepository
	Orders *OrderRepository
	Admins *AdminRepository
	Outbox *OutboxRepository
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:     db,
		Items:  NewItemRepository(db),
		Orders: NewOrderRepository(db),
		Admins: NewAdminRepository(db),
		Outbox: NewOutboxRepository(db),
	}
}

// Transact runs fn inside a single transaction. The transaction commits when fn
// returns nil and rolls back on error or panic; the connection is released either way.
func (s *Store) Transact(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle for health checks
func (s *Store) DB() *gorm.DB {
	return s.db
}
