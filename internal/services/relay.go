package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"example.com/restaurant-pos/internal/messaging"
	"example.com/restaurant-pos/internal/metrics"
	"example.com/restaurant-pos/internal/models"
	"example.com/restaurant-pos/internal/repositories"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Indexer keeps the order search index current
type Indexer interface {
	IndexOrder(ctx context.Context, order *models.Order) error
}

// OutboxRelay delivers committed order events to the broker and the search index.
// Delivery is at least once; an event is marked done only after every sink took it.
type OutboxRelay struct {
	store     *repositories.Store
	publisher messaging.Publisher
	indexer   Indexer
	batchSize int
	metrics   *metrics.Metrics
}

// NewOutboxRelay creates a relay. indexer may be nil when search is not configured.
func NewOutboxRelay(store *repositories.Store, publisher messaging.Publisher, indexer Indexer, batchSize int, metricsCollector *metrics.Metrics) *OutboxRelay {
	if publisher == nil {
		publisher = messaging.NoopPublisher{}
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxRelay{
		store:     store,
		publisher: publisher,
		indexer:   indexer,
		batchSize: batchSize,
		metrics:   metricsCollector,
	}
}

// RelayPending delivers one batch in insertion order and stops at the first
// failure so later events for the same order never overtake earlier ones.
// It returns the number of events marked done.
func (r *OutboxRelay) RelayPending(ctx context.Context) (int, error) {
	start := time.Now()
	defer r.metrics.Since("outbox_relay", start)

	events, err := r.store.Outbox.ListPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	var (
		done     []uint
		deliverr error
	)
	for _, ev := range events {
		if err := r.deliver(ctx, ev); err != nil {
			deliverr = errors.Wrapf(err, "failed to relay outbox event %d", ev.ID)
			r.metrics.IncrementCounter(metrics.OutboxRelayFailed)
			break
		}
		done = append(done, ev.ID)
	}

	if err := r.store.Outbox.MarkDone(ctx, done); err != nil {
		return 0, err
	}
	r.metrics.IncrementCounterBy(metrics.OutboxRelayed, int64(len(done)))

	if pending, err := r.store.Outbox.CountPending(ctx); err == nil {
		r.metrics.SetGauge("outbox_pending", pending)
	}

	if len(done) > 0 {
		log.Info().Int("relayed", len(done)).Int("batch", len(events)).Msg("Outbox events relayed")
	}
	return len(done), deliverr
}

func (r *OutboxRelay) deliver(ctx context.Context, ev models.OrderOutbox) error {
	msg := messaging.Message{
		Key:       strconv.FormatUint(uint64(ev.OrderID), 10),
		EventType: ev.EventType,
		Body:      []byte(ev.Payload),
	}
	if err := r.publisher.Publish(ctx, msg); err != nil {
		return err
	}

	if r.indexer == nil {
		return nil
	}

	var order models.Order
	if err := json.Unmarshal([]byte(ev.Payload), &order); err != nil {
		return errors.Wrap(err, "failed to decode order snapshot")
	}
	return r.indexer.IndexOrder(ctx, &order)
}
