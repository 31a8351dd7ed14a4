package repositories

import (
	"context"
	"testing"

	"example.com/restaurant-pos/internal/database/dbtest"
	"example.com/restaurant-pos/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRepository_CRUD(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	image := "/uploads/item-1.png"
	tea := &models.Item{Name: "Tea", Price: decimal.RequireFromString("10.00"), Type: models.ItemTypeVeg, Status: models.ItemStatusAvailable, Image: &image}
	soup := &models.Item{Name: "Chicken Soup", Price: decimal.RequireFromString("45.25"), Type: models.ItemTypeNonVeg, Status: models.ItemStatusAvailable}
	require.NoError(t, store.Items.Create(ctx, tea))
	require.NoError(t, store.Items.Create(ctx, soup))

	items, err := store.Items.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Chicken Soup", items[0].Name)

	tea.Price = decimal.RequireFromString("12.50")
	tea.Image = nil
	require.NoError(t, store.Items.Update(ctx, tea))

	got, err := store.Items.GetByID(ctx, tea.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.50", got.Price.StringFixed(2))
	assert.Nil(t, got.Image)

	require.NoError(t, store.Items.Delete(ctx, tea.ID))
	_, err = store.Items.GetByID(ctx, tea.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(store.Items.Delete(ctx, tea.ID), ErrNotFound))

	n, err := store.Items.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOutboxRepository_PendingAndDone(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	for i := uint(1); i <= 3; i++ {
		require.NoError(t, store.Outbox.Create(ctx, &models.OrderOutbox{
			EventType: models.EventOrderCreated,
			OrderID:   i,
			Payload:   `{}`,
		}))
	}

	pending, err := store.Outbox.ListPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, uint(1), pending[0].OrderID)

	require.NoError(t, store.Outbox.MarkDone(ctx, []uint{pending[0].ID, pending[1].ID}))

	n, err := store.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestAdminRepository(t *testing.T) {
	store := NewStore(dbtest.New(t))
	ctx := context.Background()

	require.NoError(t, store.Admins.Create(ctx, &models.Admin{Username: "admin", Password: "hash"}))
	require.NoError(t, store.Admins.UpdatePassword(ctx, "admin", "hash2"))

	admin, err := store.Admins.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "hash2", admin.Password)

	assert.True(t, errors.Is(store.Admins.UpdatePassword(ctx, "ghost", "x"), ErrNotFound))
	_, err = store.Admins.GetByUsername(ctx, "ghost")
	assert.True(t, errors.Is(err, ErrNotFound))
}
