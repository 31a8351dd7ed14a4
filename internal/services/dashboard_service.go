package services

import (
	"context"
	"time"

	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/repositories"

	"github.com/shopspring/decimal"
)

// DashboardStats summarizes the ledger for the admin home page
type DashboardStats struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalItems    int64           `json:"total_items"`
	PendingOrders int64           `json:"pending_orders"`
	TodayOrders   int64           `json:"today_orders"`
	TodayRevenue  decimal.Decimal `json:"today_revenue"`
}

// DashboardService computes dashboard figures
type DashboardService struct {
	store *repositories.Store
	now   func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store *repositories.Store) *DashboardService {
	return &DashboardService{store: store, now: time.Now}
}

// Stats returns totals plus the orders and paid revenue since local midnight
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	totalOrders, err := s.store.Orders.Count(ctx)
	if err != nil {
		return nil, storageError(err, "failed to load dashboard")
	}
	totalItems, err := s.store.Items.Count(ctx)
	if err != nil {
		return nil, storageError(err, "failed to load dashboard")
	}
	pending, err := s.store.Orders.CountByStatus(ctx, models.OpenStatuses)
	if err != nil {
		return nil, storageError(err, "failed to load dashboard")
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.store.Orders.SummarizeSince(ctx, midnight)
	if err != nil {
		return nil, storageError(err, "failed to load dashboard")
	}

	return &DashboardStats{
		TotalOrders:   totalOrders,
		TotalItems:    totalItems,
		PendingOrders: pending,
		TodayOrders:   today.Orders,
		TodayRevenue:  today.Revenue,
	}, nil
}
