package services

import (
	"context"
	"testing"

	"example.com/restaurant-pos/internal/database/dbtest"
	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type harness struct {
	db      *gorm.DB
	store   *repositories.Store
	catalog *CatalogService
	orders  *OrderService
}

func newHarness(t *testing.T, policy OrderPolicy) *harness {
	t.Helper()
	db := dbtest.New(t)
	store := repositories.NewStore(db)
	collector := metrics.NewMetrics()
	catalog := NewCatalogService(store, nil, nil, collector, nil)

	return &harness{
		db:      db,
		store:   store,
		catalog: catalog,
		orders:  NewOrderService(store, catalog.Pricing(), policy, collector, nil),
	}
}

func (h *harness) item(t *testing.T, name, price string) *models.Item {
	t.Helper()
	item := &models.Item{
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Type:   models.ItemTypeVeg,
		Status: models.ItemStatusAvailable,
	}
	require.NoError(t, h.store.Items.Create(context.Background(), item))
	return item
}

func (h *harness) count(t *testing.T, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Count(&n).Error)
	return n
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
