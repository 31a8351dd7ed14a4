package repositories

import (
	"context"
	"testing"
	"time"

	"example.com/restaurant-pos/internal/database/dbtest"
	"example.com/restaurant-pos/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(number string, lines ...models.OrderItem) *models.Order {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal)
	}
	return &models.Order{
		OrderNumber:   number,
		CustomerName:  "Walk-in Customer",
		Status:        models.OrderStatusPending,
		Subtotal:      subtotal,
		Discount:      decimal.Zero,
		TotalAmount:   subtotal,
		PaymentStatus: models.PaymentStatusPending,
		Items:         lines,
	}
}

func line(itemID uint, name string, qty int, price string) models.OrderItem {
	p := decimal.RequireFromString(price)
	return models.OrderItem{
		ItemID:   itemID,
		ItemName: name,
		Quantity: qty,
		Price:    p,
		Subtotal: p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	order := newOrder("ORD1", line(1, "Tea", 3, "10.00"), line(2, "Samosa", 1, "4.50"))
	require.NoError(t, store.Orders.Create(ctx, order))
	require.NotZero(t, order.ID)

	got, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD1", got.OrderNumber)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Tea", got.Items[0].ItemName)
	assert.Equal(t, "34.50", got.Subtotal.StringFixed(2))
	assert.False(t, got.BillGenerated)
}

func TestOrderRepository_GetMissing(t *testing.T) {
	store := NewStore(dbtest.New(t))

	_, err := store.Orders.GetByID(context.Background(), 42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOrderRepository_ListOrdering(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	first := newOrder("ORD1", line(1, "Tea", 1, "10.00"))
	second := newOrder("ORD2", line(1, "Tea", 1, "10.00"))
	third := newOrder("ORD3", line(1, "Tea", 1, "10.00"))
	for _, o := range []*models.Order{first, second, third} {
		require.NoError(t, store.Orders.Create(ctx, o))
	}
	_, err := store.Orders.UpdateStatus(ctx, second.ID, models.OrderStatusCompleted, nil)
	require.NoError(t, err)

	all, err := store.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "ORD3", all[0].OrderNumber)
	assert.Equal(t, "ORD1", all[2].OrderNumber)

	open, err := store.Orders.ListByStatus(ctx, models.OpenStatuses)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "ORD1", open[0].OrderNumber)
	assert.Equal(t, "ORD3", open[1].OrderNumber)
	assert.Len(t, open[0].Items, 1)
}

func TestOrderRepository_UpdateStatusGuards(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	order := newOrder("ORD1", line(1, "Tea", 1, "10.00"))
	require.NoError(t, store.Orders.Create(ctx, order))

	ok, err := store.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusPreparing,
		[]models.OrderStatus{models.OrderStatusCompleted})
	require.NoError(t, err)
	assert.False(t, ok, "from-status guard should reject")

	ok, err = store.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusPreparing, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Orders.Bill(ctx, order.ID, decimal.Zero, BillOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusCompleted, nil)
	require.NoError(t, err)
	assert.False(t, ok, "billed order must not change status")

	got, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPreparing, got.Status)
}

func TestOrderRepository_BillComputesTotalFromRow(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	order := newOrder("ORD1", line(1, "Tea", 3, "10.00"))
	require.NoError(t, store.Orders.Create(ctx, order))

	ok, err := store.Orders.Bill(ctx, order.ID, decimal.RequireFromString("31"), BillOptions{})
	require.NoError(t, err)
	assert.False(t, ok, "discount above subtotal must not match")

	ok, err = store.Orders.Bill(ctx, order.ID, decimal.RequireFromString("5"), BillOptions{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Orders.Bill(ctx, order.ID, decimal.RequireFromString("1"), BillOptions{})
	require.NoError(t, err)
	assert.False(t, ok, "latch is one-way")

	got, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", got.TotalAmount.StringFixed(2))
	assert.Equal(t, "5.00", got.Discount.StringFixed(2))
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)
	assert.True(t, got.BillGenerated)
}

func TestOrderRepository_BillForbidCancelled(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	order := newOrder("ORD1", line(1, "Tea", 1, "10.00"))
	require.NoError(t, store.Orders.Create(ctx, order))
	_, err := store.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled, nil)
	require.NoError(t, err)

	ok, err := store.Orders.Bill(ctx, order.ID, decimal.Zero, BillOptions{ForbidCancelled: true})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Orders.Bill(ctx, order.ID, decimal.Zero, BillOptions{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOrderRepository_ReplaceItemsInTransaction(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	order := newOrder("ORD1", line(1, "Tea", 1, "10.00"))
	require.NoError(t, store.Orders.Create(ctx, order))

	lines := []models.OrderItem{line(2, "Coffee", 2, "12.00")}
	err := store.Transact(ctx, func(tx *Store) error {
		ok, err := tx.Orders.UpdateTotals(ctx, order.ID,
			decimal.RequireFromString("24"), decimal.RequireFromString("4"), decimal.RequireFromString("20"))
		if err != nil {
			return err
		}
		require.True(t, ok)
		return tx.Orders.ReplaceItems(ctx, order.ID, lines)
	})
	require.NoError(t, err)

	got, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Coffee", got.Items[0].ItemName)
	assert.Equal(t, "20.00", got.TotalAmount.StringFixed(2))
}

func TestOrderRepository_TransactRollsBack(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	order := newOrder("ORD1", line(1, "Tea", 1, "10.00"))
	require.NoError(t, store.Orders.Create(ctx, order))

	boom := errors.New("boom")
	err := store.Transact(ctx, func(tx *Store) error {
		if err := tx.Orders.ReplaceItems(ctx, order.ID, []models.OrderItem{line(9, "Cake", 1, "3.00")}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Tea", got.Items[0].ItemName)
}

func TestOrderRepository_UpdateTotalsRejectsTerminal(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	order := newOrder("ORD1", line(1, "Tea", 1, "10.00"))
	require.NoError(t, store.Orders.Create(ctx, order))
	_, err := store.Orders.UpdateStatus(ctx, order.ID, models.OrderStatusCompleted, nil)
	require.NoError(t, err)

	ok, err := store.Orders.UpdateTotals(ctx, order.ID, decimal.NewFromInt(1), decimal.Zero, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepository_Summaries(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	empty, err := store.Orders.SummarizeSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Orders)
	assert.True(t, empty.Revenue.IsZero())

	paid := newOrder("ORD1", line(1, "Tea", 2, "10.00"))
	require.NoError(t, store.Orders.Create(ctx, paid))
	require.NoError(t, store.Orders.Create(ctx, newOrder("ORD2", line(1, "Tea", 1, "5.50"))))
	ok, err := store.Orders.Bill(ctx, paid.ID, decimal.RequireFromString("2.50"), BillOptions{})
	require.NoError(t, err)
	require.True(t, ok)

	summary, err := store.Orders.SummarizeSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Orders)
	assert.Equal(t, "17.50", summary.Revenue.StringFixed(2))

	n, err := store.Orders.CountByStatus(ctx, models.OpenStatuses)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
