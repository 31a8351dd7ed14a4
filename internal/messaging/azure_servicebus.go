package messaging

import (
	"context"
	"time"

	"example.com/restaurant-pos/config"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
)

// serviceBusPublisher sends order events to an Azure Service Bus queue
type serviceBusPublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewServiceBusPublisher creates a publisher for cfg.QueueName
func NewServiceBusPublisher(cfg config.MessagingConfig) (Publisher, error) {
	if cfg.QueueConnStr == "" {
		return nil, errors.New("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.QueueConnStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Service Bus client")
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		_ = client.Close(context.Background())
		return nil, errors.Wrap(err, "failed to create Service Bus sender")
	}

	return &serviceBusPublisher{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// Publish sends msg with its event type and key as application properties
func (s *serviceBusPublisher) Publish(ctx context.Context, msg Message) error {
	contentType := "application/json"
	key := msg.Key
	sbMsg := &azservicebus.Message{
		Body:        msg.Body,
		ContentType: &contentType,
		MessageID:   &key,
		ApplicationProperties: map[string]interface{}{
			"source":     "restaurant-pos",
			"event_type": msg.EventType,
			"time":       time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := s.sender.SendMessage(ctx, sbMsg, nil); err != nil {
		return errors.Wrapf(err, "failed to send message to queue %s", s.queueName)
	}
	return nil
}

// Close closes the sender and the client
func (s *serviceBusPublisher) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}
	if s.client != nil {
		return s.client.Close(context.Background())
	}
	return nil
}
