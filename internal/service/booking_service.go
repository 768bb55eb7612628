package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stationery-store/internal/broker"
	"stationery-store/internal/models"
	"stationery-store/internal/ordernumber"
	"stationery-store/internal/schedule"
	"stationery-store/internal/store"
	"stationery-store/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PreconditionError reports a checkout request rejected before any I/O:
// the attempt never leaves the idle state.
type PreconditionError struct {
	Msg string
}

func (e *PreconditionError) Error() string { return e.Msg }

// StockError reports a failed availability check, one detail per
// offending line.
type StockError struct {
	Result ValidationResult
}

func (e *StockError) Error() string {
	if len(e.Result.Details) > 0 {
		return e.Result.Message + ": " + strings.Join(e.Result.Details, "; ")
	}
	return e.Result.Message
}

// PersistenceError reports a failed booking write. The caller may retry,
// or opt into the non-durable demo confirmation.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return "failed to persist booking: " + e.Err.Error() }
func (e *PersistenceError) Unwrap() error { return e.Err }

// BookingService sequences the checkout flow: preconditions, stock
// validation, payment, persistence, stock decrement, confirmation. Each
// step awaits the previous one; concurrent booking attempts are not
// coordinated beyond the ledger's per-item clamped decrement.
type BookingService struct {
	bookings  store.BookingStore
	events    store.EventLog
	stock     *StockService
	payments  *PaymentService
	generator ordernumber.Generator
	publisher broker.Publisher
	currency  string
	logger    *zap.Logger
}

// NewBookingService creates the booking orchestrator.
func NewBookingService(
	bookings store.BookingStore,
	events store.EventLog,
	stock *StockService,
	payments *PaymentService,
	generator ordernumber.Generator,
	publisher broker.Publisher,
	currency string,
) *BookingService {
	return &BookingService{
		bookings:  bookings,
		events:    events,
		stock:     stock,
		payments:  payments,
		generator: generator,
		publisher: publisher,
		currency:  currency,
		logger:    util.GetLogger(),
	}
}

// BookingLineRequest is one requested item at checkout. Name is the
// display name shown to the customer; validation messages fall back to it
// when the item no longer exists in the catalog.
type BookingLineRequest struct {
	ItemID   int64  `json:"item_id"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name,omitempty"`
}

// CreateBookingRequest represents a checkout attempt.
type CreateBookingRequest struct {
	CustomerName      string               `json:"customer_name"`
	Date              string               `json:"date"`
	TimeSlot          string               `json:"time_slot"`
	Items             []BookingLineRequest `json:"items"`
	PaymentMethod     string               `json:"payment_method"`
	AllowDemoFallback bool                 `json:"allow_demo_fallback,omitempty"`
}

// BookingConfirmation is the customer-facing result of a completed
// checkout.
type BookingConfirmation struct {
	OrderNumber   string  `json:"order_number"`
	CustomerName  string  `json:"customer_name"`
	Date          string  `json:"date"`
	TimeSlot      string  `json:"time_slot"`
	TotalCost     float64 `json:"total_cost"`
	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	PaymentID     string  `json:"payment_id,omitempty"`
	Demo          bool    `json:"demo,omitempty"`
}

// CreateBooking runs the checkout flow end to end. The booking, once
// persisted, is never reverted: a failed stock decrement afterwards is
// logged and reported through events only.
func (s *BookingService) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*BookingConfirmation, error) {
	ctx, span := util.StartSpan(ctx, "BookingService.CreateBooking")
	defer span.End()

	if err := s.checkPreconditions(req); err != nil {
		util.BookingsFailedTotal.WithLabelValues("precondition").Inc()
		return nil, err
	}

	lines, total, err := s.resolveLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	stockLines := make([]StockLine, len(lines))
	for i, line := range lines {
		stockLines[i] = line.StockLine
	}

	validation, err := s.stock.Validate(ctx, stockLines)
	if err != nil {
		util.BookingsFailedTotal.WithLabelValues("validation_error").Inc()
		return nil, fmt.Errorf("failed to validate stock: %w", err)
	}
	if !validation.Valid {
		util.BookingsFailedTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, &StockError{Result: validation}
	}

	description := fmt.Sprintf("Booking for %s", req.CustomerName)
	payment, err := s.payments.Collect(ctx, req.PaymentMethod, total, description)
	if err != nil {
		util.BookingsFailedTotal.WithLabelValues("payment").Inc()
		return nil, err
	}

	orderNumber, err := s.generator.Next(ctx, time.Now())
	if err != nil {
		// The generator falls back to the random strategy internally, so
		// this only fires on a misconfigured generator.
		util.BookingsFailedTotal.WithLabelValues("order_number").Inc()
		return nil, fmt.Errorf("failed to generate order number: %w", err)
	}

	booking := &models.Booking{
		OrderNumber:        orderNumber,
		CustomerName:       strings.TrimSpace(req.CustomerName),
		Date:               req.Date,
		TimeSlot:           req.TimeSlot,
		TotalCost:          total,
		OrderStatus:        models.OrderStatusPending,
		PaymentMethod:      payment.Method,
		PaymentStatus:      payment.Status,
		PaymentID:          payment.PaymentID,
		PaymentAmount:      payment.Amount,
		PaymentCurrency:    payment.Currency,
		PaymentCompletedAt: payment.CompletedAt,
	}

	items := make([]models.BookingItem, len(lines))
	for i, line := range lines {
		items[i] = models.BookingItem{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.unitPrice,
		}
	}

	if err := s.bookings.CreateBooking(ctx, booking, items); err != nil {
		util.BookingsFailedTotal.WithLabelValues("db_error").Inc()
		s.logger.Error("Failed to persist booking",
			zap.String("order_number", orderNumber),
			zap.Error(err))

		if req.AllowDemoFallback {
			// Explicit, user-visible degradation: a confirmation without
			// a durable record.
			util.BookingsDemoFallbackTotal.Inc()
			s.logger.Warn("Completing booking via demo fallback",
				zap.String("order_number", orderNumber))
			return s.confirmation(booking, true), nil
		}
		return nil, &PersistenceError{Err: err}
	}

	util.BookingsCreatedTotal.Inc()
	s.logger.Info("Booking created",
		zap.Int64("booking_id", booking.ID),
		zap.String("order_number", orderNumber),
		zap.Float64("total_cost", total))

	s.publishBookingCreated(ctx, booking, items)

	// Post-commit stock adjustment. Failures here never revert the
	// booking; the order is already durable.
	decrement := s.stock.Decrement(ctx, stockLines)
	if !decrement.Success {
		s.logger.Error("Stock decrement incomplete after booking",
			zap.Int64("booking_id", booking.ID),
			zap.Strings("failed", decrement.Failed))
	}
	s.publishStockAdjusted(ctx, booking, items, !decrement.Success)
	s.publishBookingConfirmed(ctx, booking)

	return s.confirmation(booking, false), nil
}

func (s *BookingService) checkPreconditions(req *CreateBookingRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return &PreconditionError{Msg: "Please enter your name"}
	}
	if req.TimeSlot == "" {
		return &PreconditionError{Msg: "Please select a time slot"}
	}
	if !schedule.IsSlot(req.TimeSlot) {
		return &PreconditionError{Msg: fmt.Sprintf("Unknown time slot %q", req.TimeSlot)}
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return &PreconditionError{Msg: "Please select a valid date"}
	}
	if schedule.IsPast(req.Date, req.TimeSlot, time.Now()) {
		return &PreconditionError{Msg: "The selected time slot has already passed"}
	}

	selected := 0
	for _, line := range req.Items {
		if line.Quantity > 0 {
			selected++
		}
	}
	if selected == 0 {
		return &PreconditionError{Msg: "Please select at least one item"}
	}

	switch req.PaymentMethod {
	case models.PaymentMethodOnline, models.PaymentMethodCashOnDelivery:
		return nil
	default:
		return &PreconditionError{Msg: "Please choose a payment method"}
	}
}

// resolvedLine is a StockLine enriched with the unit-price snapshot.
type resolvedLine struct {
	StockLine
	unitPrice float64
}

// resolveLines looks up the catalog records for the requested items,
// keeping quantity>0 lines only. Unknown items keep the display name
// from the request so validation can still report them by name.
func (s *BookingService) resolveLines(ctx context.Context, reqItems []BookingLineRequest) ([]resolvedLine, float64, error) {
	var lines []resolvedLine
	var total float64

	for _, reqItem := range reqItems {
		if reqItem.Quantity <= 0 {
			continue
		}

		line := resolvedLine{StockLine: StockLine{
			ItemID:   reqItem.ItemID,
			Quantity: reqItem.Quantity,
			Name:     reqItem.Name,
		}}

		item, err := s.stock.Item(ctx, reqItem.ItemID)
		switch {
		case err == nil:
			line.Name = item.Name
			line.unitPrice = item.Price
		case errors.Is(err, store.ErrNotFound):
			if line.Name == "" {
				line.Name = fmt.Sprintf("item %d", reqItem.ItemID)
			}
		default:
			return nil, 0, fmt.Errorf("failed to load item %d: %w", reqItem.ItemID, err)
		}

		// Total cost is a snapshot: unit price times quantity at
		// creation time, never recomputed later.
		total += line.unitPrice * float64(reqItem.Quantity)
		lines = append(lines, line)
	}

	return lines, total, nil
}

func (s *BookingService) confirmation(b *models.Booking, demo bool) *BookingConfirmation {
	return &BookingConfirmation{
		OrderNumber:   ordernumber.Format(b.OrderNumber),
		CustomerName:  b.CustomerName,
		Date:          b.Date,
		TimeSlot:      b.TimeSlot,
		TotalCost:     b.TotalCost,
		PaymentMethod: b.PaymentMethod,
		PaymentStatus: b.PaymentStatus,
		PaymentID:     b.PaymentID,
		Demo:          demo,
	}
}

// GetOrderStatus looks up a booking by its human-facing order number.
func (s *BookingService) GetOrderStatus(ctx context.Context, orderNumber string) (*models.Booking, []models.BookingItem, error) {
	normalized := ordernumber.Normalize(orderNumber)
	if !ordernumber.IsValid(normalized) {
		return nil, nil, &PreconditionError{Msg: "Order number must look like 05_2025_001"}
	}
	return s.bookings.GetBookingByOrderNumber(ctx, normalized)
}

// ListFilter narrows the admin booking list.
type ListFilter struct {
	Search        string
	Date          string
	OrderStatus   string
	PaymentStatus string
}

// BookingWithItems pairs a booking with its line items for the admin list.
type BookingWithItems struct {
	models.Booking
	Items []models.BookingItem `json:"items"`
}

// ListBookings returns bookings matching the filter, newest first.
func (s *BookingService) ListBookings(ctx context.Context, filter ListFilter) ([]BookingWithItems, error) {
	bookings, err := s.bookings.ListBookings(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]BookingWithItems, 0, len(bookings))
	for _, b := range bookings {
		if !ordernumber.Matches(filter.Search, b.OrderNumber, b.CustomerName, b.ID) {
			continue
		}
		if filter.Date != "" && b.Date != filter.Date {
			continue
		}
		if filter.OrderStatus != "" && filter.OrderStatus != "all" && b.OrderStatus != filter.OrderStatus {
			continue
		}
		if filter.PaymentStatus != "" && filter.PaymentStatus != "all" && b.PaymentStatus != filter.PaymentStatus {
			continue
		}

		items, err := s.bookings.GetBookingItems(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, BookingWithItems{Booking: b, Items: items})
	}
	return result, nil
}

// UpdateOrderStatus applies an admin pickup-status change.
func (s *BookingService) UpdateOrderStatus(ctx context.Context, bookingID int64, status string) error {
	if !models.IsValidOrderStatus(status) {
		return &PreconditionError{Msg: fmt.Sprintf("Unknown order status %q", status)}
	}
	return s.bookings.UpdateBookingStatus(ctx, bookingID, status)
}

// DeleteBooking removes a booking entirely.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID int64) error {
	return s.bookings.DeleteBooking(ctx, bookingID)
}

// HandlePaymentCaptured applies a late payment capture reported by the
// provider to a persisted booking. Idempotent per event id.
func (s *BookingService) HandlePaymentCaptured(ctx context.Context, event *models.PaymentCapturedEvent) error {
	ctx, span := util.StartSpan(ctx, "BookingService.HandlePaymentCaptured")
	defer span.End()

	processed, err := s.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	completedAt := event.Timestamp
	if err := s.bookings.ApplyPayment(ctx, event.OrderNumber,
		models.PaymentStatusCompleted, event.TxID, &completedAt); err != nil {
		return fmt.Errorf("failed to apply payment capture: %w", err)
	}

	if err := s.events.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	s.logger.Info("Payment capture applied",
		zap.String("order_number", event.OrderNumber),
		zap.String("tx_id", event.TxID))
	return nil
}

// HandlePaymentFailed applies a failed capture to a persisted booking.
// The booking itself stands; only the payment fields change.
func (s *BookingService) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "BookingService.HandlePaymentFailed")
	defer span.End()

	processed, err := s.events.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := s.bookings.ApplyPayment(ctx, event.OrderNumber,
		models.PaymentStatusFailed, "", nil); err != nil {
		return fmt.Errorf("failed to apply payment failure: %w", err)
	}

	if err := s.events.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	s.logger.Warn("Payment failure applied",
		zap.String("order_number", event.OrderNumber),
		zap.String("reason", event.Reason))
	return nil
}

func (s *BookingService) publishBookingCreated(ctx context.Context, b *models.Booking, items []models.BookingItem) {
	event := &models.BookingCreatedEvent{
		BaseEvent:    s.baseEvent(models.EventTypeBookingCreated),
		BookingID:    b.ID,
		OrderNumber:  b.OrderNumber,
		CustomerName: b.CustomerName,
		Date:         b.Date,
		TimeSlot:     b.TimeSlot,
		TotalCost:    b.TotalCost,
		Items:        toEventItems(items),
	}
	if err := s.publisher.PublishBookingCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingCreated event", zap.Error(err))
	}
}

func (s *BookingService) publishStockAdjusted(ctx context.Context, b *models.Booking, items []models.BookingItem, partial bool) {
	event := &models.StockAdjustedEvent{
		BaseEvent: s.baseEvent(models.EventTypeStockAdjusted),
		BookingID: b.ID,
		Items:     toEventItems(items),
		Partial:   partial,
	}
	if err := s.publisher.PublishStockAdjusted(ctx, event); err != nil {
		s.logger.Error("Failed to publish StockAdjusted event", zap.Error(err))
	}
}

func (s *BookingService) publishBookingConfirmed(ctx context.Context, b *models.Booking) {
	event := &models.BookingConfirmedEvent{
		BaseEvent:   s.baseEvent(models.EventTypeBookingConfirmed),
		BookingID:   b.ID,
		OrderNumber: b.OrderNumber,
	}
	if err := s.publisher.PublishBookingConfirmed(ctx, event); err != nil {
		s.logger.Error("Failed to publish BookingConfirmed event", zap.Error(err))
	}
}

func (s *BookingService) baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func toEventItems(items []models.BookingItem) []models.BookingItemData {
	data := make([]models.BookingItemData, len(items))
	for i, item := range items {
		data[i] = models.BookingItemData{
			ItemID:    item.ItemID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}
	return data
}
