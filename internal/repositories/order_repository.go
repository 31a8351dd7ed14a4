package repositories

import (
	"context"
	"time"

	"example.com/restaurant-pos/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderRepository is the order ledger. It persists what it is told; lifecycle
// rules live in the order service and reach the database only as update guards.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

// Create inserts the order header together with its lines
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return errors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID gets an order with its lines
func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Preload("Items", orderedLines).First(&order, id).Error
	if err != nil {
		return nil, translate(err, "failed to get order by ID")
	}
	return &order, nil
}

// List returns every order with its lines, newest first
func (r *OrderRepository) List(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedLines).
		Order("created_at DESC, id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}
	return orders, nil
}

// ListByStatus returns orders in any of statuses with their lines, oldest first
func (r *OrderRepository) ListByStatus(ctx context.Context, statuses []models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderedLines).
		Where("status IN ?", statuses).
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders by status")
	}
	return orders, nil
}

// UpdateStatus sets the status of an unbilled order. When from is non-empty the
// current status must also be one of from. It reports whether a row was updated.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, from []models.OrderStatus) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND bill_generated = ?", id, false)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}

	res := q.Update("status", status)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to update order status")
	}
	return res.RowsAffected > 0, nil
}

// UpdateTotals rewrites the money columns of an order that is neither billed
// nor completed/cancelled. It reports whether a row was updated.
func (r *OrderRepository) UpdateTotals(ctx context.Context, id uint, subtotal, discount, total decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND bill_generated = ? AND status NOT IN ?", id, false,
			[]models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}).
		Updates(map[string]interface{}{
			"subtotal":     subtotal,
			"discount":     discount,
			"total_amount": total,
		})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to update order totals")
	}
	return res.RowsAffected > 0, nil
}

// ReplaceItems swaps the line set of an order. Call it inside Store.Transact
// after UpdateTotals so the header guard and the line swap commit together.
func (r *OrderRepository) ReplaceItems(ctx context.Context, orderID uint, items []models.OrderItem) error {
	db := r.db.WithContext(ctx)

	if err := db.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error; err != nil {
		return errors.Wrap(err, "failed to delete order lines")
	}

	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
	}
	if err := db.Create(&items).Error; err != nil {
		return errors.Wrap(err, "failed to insert order lines")
	}
	return nil
}

// BillOptions narrows which orders may be billed
type BillOptions struct {
	ForbidCancelled bool
}

// Bill closes an order in one conditional update: the discount is stored,
// total_amount is computed from the row's own subtotal, and the billing latch
// is set. Only unbilled orders whose subtotal covers the discount match.
// It reports whether a row was updated.
func (r *OrderRepository) Bill(ctx context.Context, id uint, discount decimal.Decimal, opts BillOptions) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND bill_generated = ? AND subtotal >= ?", id, false, discount)
	if opts.ForbidCancelled {
		q = q.Where("status <> ?", models.OrderStatusCancelled)
	}

	res := q.Updates(map[string]interface{}{
		"discount":       discount,
		"total_amount":   gorm.Expr("subtotal - ?", discount),
		"payment_status": models.PaymentStatusPaid,
		"bill_generated": true,
	})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "failed to generate bill")
	}
	return res.RowsAffected > 0, nil
}

// Count returns the number of orders
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&n).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count orders")
	}
	return n, nil
}

// CountByStatus returns the number of orders in any of statuses
func (r *OrderRepository) CountByStatus(ctx context.Context, statuses []models.OrderStatus) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Where("status IN ?", statuses).Count(&n).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count orders by status")
	}
	return n, nil
}

// OrderSummary aggregates orders created in a window
type OrderSummary struct {
	Orders  int64
	Revenue decimal.Decimal
}

// SummarizeSince counts orders created at or after since and sums the totals of the paid ones
func (r *OrderRepository) SummarizeSince(ctx context.Context, since time.Time) (*OrderSummary, error) {
	var row struct {
		Orders  int64
		Revenue decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS orders, SUM(CASE WHEN payment_status = ? THEN total_amount ELSE 0 END) AS revenue",
			models.PaymentStatusPaid).
		Where("created_at >= ?", since).
		Scan(&row).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to summarize orders")
	}

	summary := &OrderSummary{Orders: row.Orders, Revenue: decimal.Zero}
	if row.Revenue.Valid {
		summary.Revenue = row.Revenue.Decimal
	}
	return summary, nil
}
