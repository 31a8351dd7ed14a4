package messaging

import (
	"context"
	"testing"

	"example.com/restaurant-pos/config"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherSelectsProvider(t *testing.T) {
	p, err := NewPublisher(config.MessagingConfig{Provider: ProviderNone})
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), Message{Key: "1", EventType: "order.created"}))

	_, err = NewPublisher(config.MessagingConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)

	_, err = NewPublisher(config.MessagingConfig{Provider: ProviderAzure})
	assert.Error(t, err, "missing connection string must be rejected")

	_, err = NewPublisher(config.MessagingConfig{Provider: ProviderKafka})
	assert.Error(t, err, "missing brokers must be rejected")
}

func TestKafkaPublisher(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		assert.JSONEq(t, `{"id":1}`, string(val))
		return nil
	})
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewKafkaPublisherFromProducer(producer, "order-events")
	msg := Message{Key: "1", EventType: "order.created", Body: []byte(`{"id":1}`)}

	require.NoError(t, p.Publish(context.Background(), msg))
	assert.Error(t, p.Publish(context.Background(), msg))
	require.NoError(t, p.Close())
}

func TestToKafkaMessage(t *testing.T) {
	m := toKafkaMessage(Message{Key: "42", EventType: "order.billed", Body: []byte("{}")}, "orders")

	assert.Equal(t, "orders", m.Topic)
	assert.Equal(t, sarama.StringEncoder("42"), m.Key)
	require.Len(t, m.Headers, 1)
	assert.Equal(t, "order.billed", string(m.Headers[0].Value))
}
