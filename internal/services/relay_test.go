package services

import (
	"context"
	"testing"

	"example.com/restaurant-pos/internal/messaging"
	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, msg messaging.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

type MockIndexer struct {
	mock.Mock
}

func (m *MockIndexer) IndexOrder(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func eventOf(eventType string) interface{} {
	return mock.MatchedBy(func(msg messaging.Message) bool { return msg.EventType == eventType })
}

func TestRelayPending_DeliversInOrder(t *testing.T) {
	h := newHarness(t, OrderPolicy{})
	ctx := context.Background()
	tea := h.item(t, "Tea", "10.00")

	created, err := h.orders.CreateOrder(ctx, "Asha", []LineRequest{{tea.ID, 2}}, decimal.Zero)
	require.NoError(t, err)
	_, err = h.orders.GenerateBill(ctx, created.OrderID, decimal.Zero)
	require.NoError(t, err)

	var seen []string
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { seen = append(seen, args.Get(1).(messaging.Message).EventType) }).
		Return(nil)

	indexer := new(MockIndexer)
	indexer.On("IndexOrder", mock.Anything, mock.MatchedBy(func(o *models.Order) bool {
		return o.ID == created.OrderID && o.OrderNumber == created.OrderNumber && len(o.Items) == 1
	})).Return(nil).Times(2)

	collector := metrics.NewMetrics()
	relay := NewOutboxRelay(h.store, publisher, indexer, 10, collector)

	n, err := relay.RelayPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{models.EventOrderCreated, models.EventOrderBilled}, seen)
	assert.Equal(t, int64(2), collector.GetCounters()[metrics.OutboxRelayed])

	pending, err := h.store.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)

	n, err = relay.RelayPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	publisher.AssertExpectations(t)
	indexer.AssertExpectations(t)
}

func TestRelayPending_StopsAtFirstFailure(t *testing.T) {
	h := newHarness(t, OrderPolicy{})
	ctx := context.Background()
	tea := h.item(t, "Tea", "10.00")

	created, err := h.orders.CreateOrder(ctx, "", []LineRequest{{tea.ID, 1}}, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, h.orders.SetOrderStatus(ctx, created.OrderID, "preparing"))
	_, err = h.orders.GenerateBill(ctx, created.OrderID, decimal.Zero)
	require.NoError(t, err)

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, eventOf(models.EventOrderCreated)).Return(nil).Once()
	publisher.On("Publish", mock.Anything, eventOf(models.EventOrderStatusChanged)).Return(errors.New("broker down")).Once()

	collector := metrics.NewMetrics()
	relay := NewOutboxRelay(h.store, publisher, nil, 10, collector)

	n, err := relay.RelayPending(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(1), collector.GetCounters()[metrics.OutboxRelayFailed])
	publisher.AssertNotCalled(t, "Publish", mock.Anything, eventOf(models.EventOrderBilled))

	pending, err := h.store.Outbox.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, models.EventOrderStatusChanged, pending[0].EventType)

	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	n, err = relay.RelayPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRelayPending_IndexFailureKeepsEventPending(t *testing.T) {
	h := newHarness(t, OrderPolicy{})
	ctx := context.Background()
	tea := h.item(t, "Tea", "10.00")

	_, err := h.orders.CreateOrder(ctx, "", []LineRequest{{tea.ID, 1}}, decimal.Zero)
	require.NoError(t, err)

	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	indexer := new(MockIndexer)
	indexer.On("IndexOrder", mock.Anything, mock.Anything).Return(errors.New("cluster red"))

	relay := NewOutboxRelay(h.store, publisher, indexer, 0, nil)
	n, err := relay.RelayPending(ctx)
	assert.Error(t, err)
	assert.Zero(t, n)

	pending, err := h.store.Outbox.CountPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}
