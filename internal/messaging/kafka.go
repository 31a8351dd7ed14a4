package messaging

import (
	"context"

	"example.com/restaurant-pos/config"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
)

// kafkaPublisher sends order events to a Kafka topic keyed by order
type kafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher connects a synchronous producer to cfg.KafkaBrokers
func NewKafkaPublisher(cfg config.MessagingConfig) (Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("no Kafka brokers configured")
	}

	saramaConf := sarama.NewConfig()
	saramaConf.Producer.Return.Successes = true
	saramaConf.Producer.Return.Errors = true
	saramaConf.Producer.RequiredAcks = sarama.WaitForAll
	saramaConf.Producer.Idempotent = true
	saramaConf.Net.MaxOpenRequests = 1
	saramaConf.Version = sarama.V2_1_0_0

	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, saramaConf)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Kafka producer")
	}

	return NewKafkaPublisherFromProducer(producer, cfg.KafkaTopic), nil
}

// NewKafkaPublisherFromProducer wraps an existing producer
func NewKafkaPublisherFromProducer(producer sarama.SyncProducer, topic string) Publisher {
	return &kafkaPublisher{producer: producer, topic: topic}
}

// Publish sends msg; events of one order share a key and so a partition
func (k *kafkaPublisher) Publish(_ context.Context, msg Message) error {
	_, _, err := k.producer.SendMessage(toKafkaMessage(msg, k.topic))
	if err != nil {
		return errors.Wrapf(err, "failed to publish to topic %s", k.topic)
	}
	return nil
}

// Close flushes and closes the producer
func (k *kafkaPublisher) Close() error {
	return k.producer.Close()
}

func toKafkaMessage(msg Message, topic string) *sarama.ProducerMessage {
	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Body),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(msg.EventType)},
		},
	}
}
