package events

import (
	"context"
	"encoding/json"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/chennai-transit/service-pass/internal/pkg/kafka"
)

// PaymentVerifiedHandler reacts to a verified payment.
type PaymentVerifiedHandler interface {
	HandlePaymentVerified(ctx context.Context, evt PaymentVerifiedEvent) error
}

// PaymentEventConsumer listens to payment events and applies verified
// payments: activating a pass or extending it through a renewal.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	handler  PaymentVerifiedHandler
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	handler PaymentVerifiedHandler,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	var cloudEvent kafka.CloudEvent
	if err := json.Unmarshal(msg.Value, &cloudEvent); err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentVerified:
		return c.handlePaymentVerified(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentVerified(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt PaymentVerifiedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentVerifiedEvent data",
			zap.Error(err),
		)
		return nil // Don't retry malformed data
	}

	c.logger.Info("processing verified payment",
		zap.String("order_id", evt.OrderID),
		zap.String("payment_id", evt.PaymentID),
	)

	if err := c.handler.HandlePaymentVerified(ctx, evt); err != nil {
		c.logger.Error("failed to apply verified payment",
			zap.String("order_id", evt.OrderID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
