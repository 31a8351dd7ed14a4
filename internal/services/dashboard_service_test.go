package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	h := newHarness(t, OrderPolicy{})
	ctx := context.Background()
	tea := h.item(t, "Tea", "10.00")
	h.item(t, "Coffee", "20.00")

	first, err := h.orders.CreateOrder(ctx, "", []LineRequest{{tea.ID, 3}}, decimal.Zero)
	require.NoError(t, err)
	second, err := h.orders.CreateOrder(ctx, "", []LineRequest{{tea.ID, 1}}, decimal.Zero)
	require.NoError(t, err)
	_, err = h.orders.CreateOrder(ctx, "", []LineRequest{{tea.ID, 1}}, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, h.orders.SetOrderStatus(ctx, second.OrderID, "completed"))
	_, err = h.orders.GenerateBill(ctx, first.OrderID, dec("5"))
	require.NoError(t, err)

	stats, err := NewDashboardService(h.store).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.TotalItems)
	assert.Equal(t, int64(2), stats.PendingOrders)
	assert.Equal(t, int64(3), stats.TodayOrders)
	assert.Equal(t, "25.00", stats.TodayRevenue.StringFixed(2))
}
