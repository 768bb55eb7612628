package worker

import (
	"context"

	"stationery-store/internal/broker"
	"stationery-store/internal/service"
	"stationery-store/internal/util"
)

// PaymentWorker applies provider payment callbacks to persisted bookings.
// Webhook ingestion publishes the events; this worker consumes them so a
// burst of callbacks never blocks the HTTP path.
type PaymentWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer *broker.Consumer, bookings *service.BookingService) *PaymentWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnPaymentCaptured(bookings.HandlePaymentCaptured)
	eventHandler.OnPaymentFailed(bookings.HandlePaymentFailed)

	return &PaymentWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
	}
}

// Start starts the worker and blocks until the context is cancelled.
func (pw *PaymentWorker) Start(ctx context.Context) error {
	util.GetLogger().Info("Starting payment worker")
	return pw.consumer.StartConsuming(ctx, pw.eventHandler.HandleMessage)
}

// Stop stops the worker
func (pw *PaymentWorker) Stop() error {
	util.GetLogger().Info("Stopping payment worker")
	return pw.consumer.Close()
}
