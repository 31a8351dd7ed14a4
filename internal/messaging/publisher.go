package messaging

import (
	"context"

	"example.com/restaurant-pos/config"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Broker providers accepted in messaging.provider
const (
	ProviderAzure = "azure"
	ProviderKafka = "kafka"
	ProviderNone  = "none"
)

// Message is one order event on its way to the broker
type Message struct {
	Key       string
	EventType string
	Body      []byte
}

// Publisher delivers order events to a broker
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// NewPublisher builds the publisher selected by cfg.Provider
func NewPublisher(cfg config.MessagingConfig) (Publisher, error) {
	switch cfg.Provider {
	case ProviderAzure:
		return NewServiceBusPublisher(cfg)
	case ProviderKafka:
		return NewKafkaPublisher(cfg)
	case ProviderNone, "":
		return NoopPublisher{}, nil
	default:
		return nil, errors.Errorf("unknown messaging provider %q", cfg.Provider)
	}
}

// NoopPublisher drops every message after logging it
type NoopPublisher struct{}

// Publish logs the message at debug level
func (NoopPublisher) Publish(_ context.Context, msg Message) error {
	log.Debug().Str("event_type", msg.EventType).Str("key", msg.Key).Msg("no broker configured, dropping order event")
	return nil
}

// Close does nothing
func (NoopPublisher) Close() error { return nil }
