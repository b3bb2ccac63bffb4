package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventHandler processes one consumed lifecycle event.
type EventHandler func(ctx context.Context, event *Event) error

// Consumer dispatches lifecycle events from a Watermill subscriber to
// registered handlers. Events without a handler are acked and dropped.
type Consumer struct {
	subscriber message.Subscriber
	logger     *slog.Logger
	topicName  string
	handlers   map[EventType][]EventHandler
}

// ConsumerConfig holds configuration for the Kafka event consumer.
type ConsumerConfig struct {
	KafkaBrokers  []string
	ConsumerGroup string
	TopicName     string
	Logger        *slog.Logger
}

// NewKafkaEventConsumer creates a Kafka-backed consumer using Watermill.
func NewKafkaEventConsumer(config ConsumerConfig) (*Consumer, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	subscriberConfig := kafka.SubscriberConfig{
		Brokers:       config.KafkaBrokers,
		ConsumerGroup: config.ConsumerGroup,
		Unmarshaler:   kafka.DefaultMarshaler{},
	}

	subscriber, err := kafka.NewSubscriber(subscriberConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka subscriber: %w", err)
	}

	return NewConsumer(subscriber, config.TopicName, config.Logger), nil
}

// NewConsumer wraps any Watermill subscriber. Useful with the in-memory
// pub/sub in tests.
func NewConsumer(subscriber message.Subscriber, topicName string, logger *slog.Logger) *Consumer {
	return &Consumer{
		subscriber: subscriber,
		logger:     logger,
		topicName:  topicName,
		handlers:   make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type. Multiple handlers per type
// run in registration order.
func (c *Consumer) On(eventType EventType, handler EventHandler) {
	c.handlers[eventType] = append(c.handlers[eventType], handler)
}

// Run consumes events until the context is cancelled or the
// subscription closes. A handler error nacks the message for redelivery.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topicName)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", c.topicName, err)
	}

	for msg := range messages {
		if err := c.handleMessage(ctx, msg); err != nil {
			c.logger.Error("Event handling failed",
				"message_id", msg.UUID,
				"error", err)
			msg.Nack()
			continue
		}
		msg.Ack()
	}

	return nil
}

func (c *Consumer) handleMessage(ctx context.Context, msg *message.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Malformed payloads are logged and dropped rather than
		// redelivered forever.
		c.logger.Warn("Dropping malformed event payload",
			"message_id", msg.UUID,
			"error", err)
		return nil
	}

	handlers := c.handlers[event.Type]
	if len(handlers) == 0 {
		c.logger.Debug("No handler for event type", "event_type", event.Type)
		return nil
	}

	for _, handler := range handlers {
		if err := handler(ctx, &event); err != nil {
			return fmt.Errorf("handler for %s: %w", event.Type, err)
		}
	}

	c.logger.Info("Consumed event",
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

// Close closes the underlying subscriber.
func (c *Consumer) Close() error {
	return c.subscriber.Close()
}
