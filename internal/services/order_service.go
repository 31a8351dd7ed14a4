package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/repositories"
	"example.com/restaurant-pos/internal/tracing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const maxOrderNumberAttempts = 3

// Catalog resolves menu items for pricing. Missing items are KindNotFound errors.
type Catalog interface {
	Get(ctx context.Context, id uint) (*models.Item, error)
}

// OrderPolicy tunes the order lifecycle
type OrderPolicy struct {
	WalkInName             string
	StrictTransitions      bool
	ForbidCancelledBilling bool
}

// LineRequest asks for quantity units of a catalog item
type LineRequest struct {
	ItemID   uint
	Quantity int
}

// CreatedOrder identifies a freshly created order
type CreatedOrder struct {
	OrderID     uint
	OrderNumber string
}

// OrderService orchestrates the order lifecycle over the catalog and the ledger
type OrderService struct {
	store   *repositories.Store
	catalog Catalog
	numbers *OrderNumberGenerator
	policy  OrderPolicy
	metrics *metrics.Metrics
	tracer  tracing.Tracer
}

// NewOrderService creates a new order service
func NewOrderService(
	store *repositories.Store,
	catalog Catalog,
	policy OrderPolicy,
	metricsCollector *metrics.Metrics,
	tracer tracing.Tracer,
) *OrderService {
	if policy.WalkInName == "" {
		policy.WalkInName = "Walk-in Customer"
	}
	if tracer == nil {
		tracer = tracing.Disabled()
	}

	return &OrderService{
		store:   store,
		catalog: catalog,
		numbers: NewOrderNumberGenerator(),
		policy:  policy,
		metrics: metricsCollector,
		tracer:  tracer,
	}
}

// CreateOrder prices lines from the catalog and stores the order and its lines
// in one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, customerName string, lines []LineRequest, discount decimal.Decimal) (created *CreatedOrder, err error) {
	defer s.observe("create_order", time.Now(), &err)
	span := s.tracer.StartSpanFromContext(ctx, "OrderService.CreateOrder")
	defer span.End()

	items, subtotal, err := s.resolveLines(ctx, lines)
	if err != nil {
		return nil, err
	}
	if err := checkDiscount(discount, subtotal); err != nil {
		return nil, err
	}

	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		customerName = s.policy.WalkInName
	}

	order := &models.Order{
		CustomerName:  customerName,
		Status:        models.OrderStatusPending,
		Subtotal:      subtotal,
		Discount:      discount,
		TotalAmount:   subtotal.Sub(discount),
		PaymentStatus: models.PaymentStatusPending,
		Items:         items,
	}

	for attempt := 1; ; attempt++ {
		order.OrderNumber = s.numbers.Next()
		err = s.store.Transact(ctx, func(tx *repositories.Store) error {
			if err := tx.Orders.Create(ctx, order); err != nil {
				return err
			}
			return writeEvent(ctx, tx, models.EventOrderCreated, order)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || attempt == maxOrderNumberAttempts {
			return nil, storageError(err, "failed to create order")
		}

		log.Warn().Str("order_number", order.OrderNumber).Int("attempt", attempt).Msg("order number taken, retrying")
		resetIDs(order)
	}

	s.metrics.IncrementCounter(metrics.OrdersCreated)
	log.Info().
		Uint("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Int("lines", len(order.Items)).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Msg("Order created")

	return &CreatedOrder{OrderID: order.ID, OrderNumber: order.OrderNumber}, nil
}

// GetOrder returns an order with its lines
func (s *OrderService) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found", "failed to get order")
	}
	return order, nil
}

// ListOrders returns every order, newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.Orders.List(ctx)
	if err != nil {
		return nil, storageError(err, "failed to list orders")
	}
	return orders, nil
}

// ListPendingOrders returns pending and preparing orders, oldest first
func (s *OrderService) ListPendingOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.Orders.ListByStatus(ctx, models.OpenStatuses)
	if err != nil {
		return nil, storageError(err, "failed to list pending orders")
	}
	return orders, nil
}

// SetOrderStatus moves an unbilled order to status. Any status may follow any
// other unless the policy asks for strict transitions.
func (s *OrderService) SetOrderStatus(ctx context.Context, id uint, status string) (err error) {
	defer s.observe("set_order_status", time.Now(), &err)
	span := s.tracer.StartSpanFromContext(ctx, "OrderService.SetOrderStatus")
	defer span.End()

	if status == "" {
		return newError(KindInvalidStatus, "Status is required")
	}
	next := models.OrderStatus(status)
	if !next.Valid() {
		return newError(KindInvalidStatus, "Invalid status")
	}

	var from []models.OrderStatus
	if s.policy.StrictTransitions {
		from = predecessors(next)
	}

	err = s.store.Transact(ctx, func(tx *repositories.Store) error {
		applied, err := tx.Orders.UpdateStatus(ctx, id, next, from)
		if err != nil {
			return err
		}
		if !applied {
			current, err := tx.Orders.GetByID(ctx, id)
			if err != nil {
				return notFoundOr(err, "Order not found", "failed to get order")
			}
			if current.BillGenerated {
				return newError(KindAlreadyBilled, "Cannot update status after bill is generated")
			}
			if s.policy.StrictTransitions && !canTransition(current.Status, next) {
				return newError(KindInvalidState, "Cannot change order status from %s to %s", current.Status, next)
			}
			if current.Status != next {
				return errors.Errorf("status update for order %d matched no row", id)
			}
			// The row already holds the requested status.
			return nil
		}

		order, err := tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return writeEvent(ctx, tx, models.EventOrderStatusChanged, order)
	})
	if err != nil {
		return asServiceError(err, "failed to update order status")
	}

	s.metrics.IncrementCounter(metrics.OrderStatusSet)
	log.Info().Uint("order_id", id).Str("status", status).Msg("Order status updated")
	return nil
}

// UpdateOrder replaces the line set of an open, unbilled order and recomputes
// its totals from fresh catalog prices.
func (s *OrderService) UpdateOrder(ctx context.Context, id uint, lines []LineRequest, discount decimal.Decimal) (err error) {
	defer s.observe("update_order", time.Now(), &err)
	span := s.tracer.StartSpanFromContext(ctx, "OrderService.UpdateOrder")
	defer span.End()

	current, err := s.store.Orders.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Order not found", "failed to get order")
	}
	if err := checkEditable(current); err != nil {
		return err
	}

	items, subtotal, err := s.resolveLines(ctx, lines)
	if err != nil {
		return err
	}
	if err := checkDiscount(discount, subtotal); err != nil {
		return err
	}
	total := subtotal.Sub(discount)

	err = s.store.Transact(ctx, func(tx *repositories.Store) error {
		applied, err := tx.Orders.UpdateTotals(ctx, id, subtotal, discount, total)
		if err != nil {
			return err
		}
		if !applied {
			// Either the order changed since it was read or the driver
			// reports only changed rows; the latest row decides.
			latest, err := tx.Orders.GetByID(ctx, id)
			if err != nil {
				return notFoundOr(err, "Order not found", "failed to get order")
			}
			if err := checkEditable(latest); err != nil {
				return err
			}
		}

		if err := tx.Orders.ReplaceItems(ctx, id, items); err != nil {
			return err
		}

		order, err := tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return writeEvent(ctx, tx, models.EventOrderUpdated, order)
	})
	if err != nil {
		return asServiceError(err, "failed to update order")
	}

	s.metrics.IncrementCounter(metrics.OrdersUpdated)
	log.Info().
		Uint("order_id", id).
		Int("lines", len(items)).
		Str("total_amount", total.StringFixed(2)).
		Msg("Order updated")
	return nil
}

// GenerateBill applies discount, settles payment and sets the billing latch in
// one guarded update, then returns the refreshed order.
func (s *OrderService) GenerateBill(ctx context.Context, id uint, discount decimal.Decimal) (billed *models.Order, err error) {
	defer s.observe("generate_bill", time.Now(), &err)
	span := s.tracer.StartSpanFromContext(ctx, "OrderService.GenerateBill")
	defer span.End()

	if err := validDiscount(discount); err != nil {
		return nil, err
	}

	opts := repositories.BillOptions{ForbidCancelled: s.policy.ForbidCancelledBilling}
	err = s.store.Transact(ctx, func(tx *repositories.Store) error {
		applied, err := tx.Orders.Bill(ctx, id, discount, opts)
		if err != nil {
			return err
		}
		if !applied {
			current, err := tx.Orders.GetByID(ctx, id)
			if err != nil {
				return notFoundOr(err, "Order not found", "failed to get order")
			}
			switch {
			case current.BillGenerated:
				return newError(KindAlreadyBilled, "Bill already generated")
			case opts.ForbidCancelled && current.Status == models.OrderStatusCancelled:
				return newError(KindInvalidState, "Cannot generate bill for %s order", current.Status)
			case current.Subtotal.LessThan(discount):
				return newError(KindValidation, "Discount cannot exceed subtotal")
			default:
				return errors.Errorf("bill update for order %d matched no row", id)
			}
		}

		billed, err = tx.Orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return writeEvent(ctx, tx, models.EventOrderBilled, billed)
	})
	if err != nil {
		return nil, asServiceError(err, "failed to generate bill")
	}

	s.metrics.IncrementCounter(metrics.OrdersBilled)
	log.Info().
		Uint("order_id", billed.ID).
		Str("order_number", billed.OrderNumber).
		Str("total_amount", billed.TotalAmount.StringFixed(2)).
		Msg("Bill generated")
	return billed, nil
}

// resolveLines prices each request left to right; repeated items stay separate lines
func (s *OrderService) resolveLines(ctx context.Context, lines []LineRequest) ([]models.OrderItem, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, newError(KindValidation, "Order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(lines))
	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, decimal.Zero, newError(KindValidation, "Quantity for item %d must be positive", l.ItemID)
		}

		item, err := s.catalog.Get(ctx, l.ItemID)
		if err != nil {
			if IsKind(err, KindNotFound) {
				return nil, decimal.Zero, newError(KindItemNotFound, "Item with ID %d not found", l.ItemID)
			}
			return nil, decimal.Zero, asServiceError(err, "failed to look up item")
		}

		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		items = append(items, models.OrderItem{
			ItemID:   item.ID,
			ItemName: item.Name,
			Quantity: l.Quantity,
			Price:    item.Price,
			Subtotal: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

func (s *OrderService) observe(op string, start time.Time, err *error) {
	s.metrics.Since(op, start)
	s.metrics.RecordResult(op, *err)
	var e *Error
	if errors.As(*err, &e) && e.Kind == KindStorage {
		log.Error().Err(e.cause).Str("operation", op).Msg("order operation failed")
	}
}

// validDiscount rejects negative discounts and fractions of a cent; the money
// columns hold two decimal places.
func validDiscount(discount decimal.Decimal) error {
	if discount.IsNegative() {
		return newError(KindValidation, "Discount cannot be negative")
	}
	if !discount.Equal(discount.Round(2)) {
		return newError(KindValidation, "Discount must have at most 2 decimal places")
	}
	return nil
}

func checkDiscount(discount, subtotal decimal.Decimal) error {
	if err := validDiscount(discount); err != nil {
		return err
	}
	if discount.GreaterThan(subtotal) {
		return newError(KindValidation, "Discount cannot exceed subtotal")
	}
	return nil
}

func checkEditable(order *models.Order) error {
	if order.BillGenerated {
		return newError(KindAlreadyBilled, "Cannot update order after bill is generated")
	}
	if order.Status.Terminal() {
		return newError(KindInvalidState, "Cannot update %s order", order.Status)
	}
	return nil
}

// canTransition is the forward-only machine used when StrictTransitions is on.
// Staying in the same state is always allowed.
func canTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.OrderStatusPending:
		return to == models.OrderStatusPreparing || to == models.OrderStatusCancelled
	case models.OrderStatusPreparing:
		return to == models.OrderStatusCompleted || to == models.OrderStatusCancelled
	}
	return false
}

func predecessors(to models.OrderStatus) []models.OrderStatus {
	var from []models.OrderStatus
	for _, st := range []models.OrderStatus{
		models.OrderStatusPending,
		models.OrderStatusPreparing,
		models.OrderStatusCompleted,
		models.OrderStatusCancelled,
	} {
		if canTransition(st, to) {
			from = append(from, st)
		}
	}
	return from
}

func notFoundOr(err error, notFoundMsg, storageMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(KindNotFound, "%s", notFoundMsg)
	}
	return storageError(err, storageMsg)
}

func writeEvent(ctx context.Context, tx *repositories.Store, eventType string, order *models.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order event")
	}
	return tx.Outbox.Create(ctx, &models.OrderOutbox{
		EventType: eventType,
		OrderID:   order.ID,
		Payload:   string(payload),
	})
}

func resetIDs(order *models.Order) {
	order.ID = 0
	for i := range order.Items {
		order.Items[i].ID = 0
		order.Items[i].OrderID = 0
	}
}
