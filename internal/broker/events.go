package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"stationery-store/internal/models"
	"stationery-store/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher publishes booking lifecycle events. The Kafka-backed
// EventPublisher implements it in live mode; NoopPublisher stands in when
// the service runs in demo mode.
type Publisher interface {
	PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error
	PublishBookingConfirmed(ctx context.Context, event *models.BookingConfirmedEvent) error
	PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error
	PublishPaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error
	PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

// EventPublisher publishes domain events to Kafka
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBookingCreated publishes a BookingCreated event
func (ep *EventPublisher) PublishBookingCreated(ctx context.Context, event *models.BookingCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderNumber, event)
}

// PublishBookingConfirmed publishes a BookingConfirmed event
func (ep *EventPublisher) PublishBookingConfirmed(ctx context.Context, event *models.BookingConfirmedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderNumber, event)
}

// PublishStockAdjusted publishes a StockAdjusted event
func (ep *EventPublisher) PublishStockAdjusted(ctx context.Context, event *models.StockAdjustedEvent) error {
	return ep.producer.PublishEvent(ctx, fmt.Sprintf("booking-%d", event.BookingID), event)
}

// PublishPaymentCaptured publishes a PaymentCaptured event
func (ep *EventPublisher) PublishPaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderNumber, event)
}

// PublishPaymentFailed publishes a PaymentFailed event
func (ep *EventPublisher) PublishPaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	return ep.producer.PublishEvent(ctx, "order-"+event.OrderNumber, event)
}

// NoopPublisher drops all events. Used in demo mode, where nothing
// durable exists for a consumer to act on.
type NoopPublisher struct{}

func (NoopPublisher) PublishBookingCreated(context.Context, *models.BookingCreatedEvent) error {
	return nil
}
func (NoopPublisher) PublishBookingConfirmed(context.Context, *models.BookingConfirmedEvent) error {
	return nil
}
func (NoopPublisher) PublishStockAdjusted(context.Context, *models.StockAdjustedEvent) error {
	return nil
}
func (NoopPublisher) PublishPaymentCaptured(context.Context, *models.PaymentCapturedEvent) error {
	return nil
}
func (NoopPublisher) PublishPaymentFailed(context.Context, *models.PaymentFailedEvent) error {
	return nil
}

// EventHandler routes incoming payment events to registered callbacks
type EventHandler struct {
	onPaymentCaptured func(context.Context, *models.PaymentCapturedEvent) error
	onPaymentFailed   func(context.Context, *models.PaymentFailedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPaymentCaptured registers a handler for PaymentCaptured events
func (eh *EventHandler) OnPaymentCaptured(handler func(context.Context, *models.PaymentCapturedEvent) error) {
	eh.onPaymentCaptured = handler
}

// OnPaymentFailed registers a handler for PaymentFailed events
func (eh *EventHandler) OnPaymentFailed(handler func(context.Context, *models.PaymentFailedEvent) error) {
	eh.onPaymentFailed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	util.GetLogger().Debug("Handling event",
		zap.String("type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID))

	switch baseEvent.EventType {
	case models.EventTypePaymentCaptured:
		if eh.onPaymentCaptured != nil {
			var event models.PaymentCapturedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentCaptured event: %w", err)
			}
			return eh.onPaymentCaptured(ctx, &event)
		}

	case models.EventTypePaymentFailed:
		if eh.onPaymentFailed != nil {
			var event models.PaymentFailedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentFailed event: %w", err)
			}
			return eh.onPaymentFailed(ctx, &event)
		}
	}

	return nil
}
