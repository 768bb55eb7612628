package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stationery-store/internal/models"
	"stationery-store/internal/ordernumber"
	"stationery-store/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider charges deterministically.
type stubProvider struct {
	paymentID string
	err       error
}

func (p *stubProvider) Charge(ctx context.Context, amount float64, currency, description string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return p.paymentID, nil
}

// recordingPublisher counts published events per type.
type recordingPublisher struct {
	mu        sync.Mutex
	created   []*models.BookingCreatedEvent
	confirmed []*models.BookingConfirmedEvent
	adjusted  []*models.StockAdjustedEvent
}

func (p *recordingPublisher) PublishBookingCreated(ctx context.Context, e *models.BookingCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return nil
}

func (p *recordingPublisher) PublishBookingConfirmed(ctx context.Context, e *models.BookingConfirmedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirmed = append(p.confirmed, e)
	return nil
}

func (p *recordingPublisher) PublishStockAdjusted(ctx context.Context, e *models.StockAdjustedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.adjusted = append(p.adjusted, e)
	return nil
}

func (p *recordingPublisher) PublishPaymentCaptured(ctx context.Context, e *models.PaymentCapturedEvent) error {
	return nil
}

func (p *recordingPublisher) PublishPaymentFailed(ctx context.Context, e *models.PaymentFailedEvent) error {
	return nil
}

// failingBookingStore rejects every write, standing in for a broken
// database connection.
type failingBookingStore struct {
	*store.DemoStore
}

func (f *failingBookingStore) CreateBooking(ctx context.Context, b *models.Booking, items []models.BookingItem) error {
	return errors.New("connection refused")
}

func newTestService(provider PaymentProvider) (*BookingService, *store.DemoStore, *recordingPublisher) {
	demo := store.NewDemoStore()
	publisher := &recordingPublisher{}
	svc := NewBookingService(
		demo, demo,
		NewStockService(demo, nil),
		NewPaymentService(provider, "INR"),
		ordernumber.NewCounterGenerator(demo),
		publisher,
		"INR",
	)
	return svc, demo, publisher
}

func tomorrow() string {
	return time.Now().AddDate(0, 0, 1).Format("2006-01-02")
}

func validRequest() *CreateBookingRequest {
	return &CreateBookingRequest{
		CustomerName:  "John Doe",
		Date:          tomorrow(),
		TimeSlot:      "10:00 AM",
		Items:         []BookingLineRequest{{ItemID: 1, Quantity: 1}},
		PaymentMethod: models.PaymentMethodCashOnDelivery,
	}
}

func TestCreateBookingCashOnDelivery(t *testing.T) {
	svc, demo, publisher := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	conf, err := svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	assert.True(t, ordernumber.IsValid(conf.OrderNumber))
	assert.Equal(t, "John Doe", conf.CustomerName)
	assert.Equal(t, models.PaymentStatusNotRequired, conf.PaymentStatus)
	assert.Empty(t, conf.PaymentID)
	assert.InDelta(t, 25.99, conf.TotalCost, 0.001)
	assert.False(t, conf.Demo)

	booking, items, err := demo.GetBookingByOrderNumber(ctx, conf.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, booking.OrderStatus)
	require.Len(t, items, 1)
	assert.Equal(t, "Notebook", items[0].Name)
	assert.InDelta(t, 25.99, items[0].UnitPrice, 0.001)

	// Notebook fixture starts at 50.
	item, err := demo.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 49, item.StockQuantity)

	assert.Len(t, publisher.created, 1)
	assert.Len(t, publisher.adjusted, 1)
	assert.Len(t, publisher.confirmed, 1)
	assert.False(t, publisher.adjusted[0].Partial)
}

func TestCreateBookingInsufficientStock(t *testing.T) {
	svc, demo, publisher := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	req := validRequest()
	// Stapler fixture has zero stock.
	req.Items = []BookingLineRequest{
		{ItemID: 1, Quantity: 2},
		{ItemID: 5, Quantity: 1},
	}

	_, err := svc.CreateBooking(ctx, req)
	require.Error(t, err)

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Contains(t, stockErr.Result.Details, "Stapler: Requested 1, only 0 available")

	// Nothing persisted, nothing decremented, nothing published.
	bookings, err := demo.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)

	item, err := demo.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 50, item.StockQuantity)

	assert.Empty(t, publisher.created)
}

func TestCreateBookingPreconditions(t *testing.T) {
	svc, _, _ := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateBookingRequest)
	}{
		{"blank name", func(r *CreateBookingRequest) { r.CustomerName = "   " }},
		{"missing slot", func(r *CreateBookingRequest) { r.TimeSlot = "" }},
		{"unknown slot", func(r *CreateBookingRequest) { r.TimeSlot = "1:00 PM" }},
		{"bad date", func(r *CreateBookingRequest) { r.Date = "23-05-2025" }},
		{"no items", func(r *CreateBookingRequest) { r.Items = []BookingLineRequest{{ItemID: 1, Quantity: 0}} }},
		{"no payment method", func(r *CreateBookingRequest) { r.PaymentMethod = "" }},
		{"past slot", func(r *CreateBookingRequest) { r.Date = "2020-01-01" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			_, err := svc.CreateBooking(ctx, req)
			var preErr *PreconditionError
			assert.ErrorAs(t, err, &preErr)
		})
	}
}

func TestCreateBookingOnlinePayment(t *testing.T) {
	svc, _, _ := newTestService(&stubProvider{paymentID: "pay_abc123"})
	ctx := context.Background()

	req := validRequest()
	req.PaymentMethod = models.PaymentMethodOnline

	conf, err := svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, conf.PaymentStatus)
	assert.Equal(t, "pay_abc123", conf.PaymentID)
}

func TestCreateBookingPaymentDeclined(t *testing.T) {
	svc, demo, _ := newTestService(&stubProvider{err: ErrPaymentDeclined})
	ctx := context.Background()

	req := validRequest()
	req.PaymentMethod = models.PaymentMethodOnline

	_, err := svc.CreateBooking(ctx, req)
	require.ErrorIs(t, err, ErrPaymentDeclined)

	bookings, err := demo.ListBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestCreateBookingPersistenceFailure(t *testing.T) {
	demo := store.NewDemoStore()
	failing := &failingBookingStore{DemoStore: demo}
	publisher := &recordingPublisher{}
	svc := NewBookingService(
		failing, demo,
		NewStockService(demo, nil),
		NewPaymentService(&stubProvider{paymentID: "pay_stub"}, "INR"),
		ordernumber.NewCounterGenerator(demo),
		publisher,
		"INR",
	)
	ctx := context.Background()

	_, err := svc.CreateBooking(ctx, validRequest())
	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Empty(t, publisher.created)

	// Opting in trades durability for a confirmation.
	req := validRequest()
	req.AllowDemoFallback = true
	conf, err := svc.CreateBooking(ctx, req)
	require.NoError(t, err)
	assert.True(t, conf.Demo)
	assert.True(t, ordernumber.IsValid(conf.OrderNumber))
}

func TestGetOrderStatus(t *testing.T) {
	svc, _, _ := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	conf, err := svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	booking, items, err := svc.GetOrderStatus(ctx, "  "+conf.OrderNumber+"  ")
	require.NoError(t, err)
	assert.Equal(t, conf.OrderNumber, booking.OrderNumber)
	assert.Len(t, items, 1)

	_, _, err = svc.GetOrderStatus(ctx, "not-an-order")
	var preErr *PreconditionError
	assert.ErrorAs(t, err, &preErr)

	_, _, err = svc.GetOrderStatus(ctx, "99_2099_999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListBookingsFilters(t *testing.T) {
	svc, _, _ := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	first := validRequest()
	_, err := svc.CreateBooking(ctx, first)
	require.NoError(t, err)

	second := validRequest()
	second.CustomerName = "Jane Smith"
	second.TimeSlot = "11:30 AM"
	second.PaymentMethod = models.PaymentMethodOnline
	_, err = svc.CreateBooking(ctx, second)
	require.NoError(t, err)

	all, err := svc.ListBookings(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	require.Len(t, all[0].Items, 1)

	byName, err := svc.ListBookings(ctx, ListFilter{Search: "jane"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Jane Smith", byName[0].CustomerName)

	byPayment, err := svc.ListBookings(ctx, ListFilter{PaymentStatus: models.PaymentStatusCompleted})
	require.NoError(t, err)
	require.Len(t, byPayment, 1)
	assert.Equal(t, "Jane Smith", byPayment[0].CustomerName)

	none, err := svc.ListBookings(ctx, ListFilter{Date: "1999-01-01"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateOrderStatus(t *testing.T) {
	svc, demo, _ := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	conf, err := svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	booking, _, err := demo.GetBookingByOrderNumber(ctx, conf.OrderNumber)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateOrderStatus(ctx, booking.ID, models.OrderStatusTaken))

	updated, _, err := demo.GetBookingByOrderNumber(ctx, conf.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusTaken, updated.OrderStatus)

	var preErr *PreconditionError
	assert.ErrorAs(t, svc.UpdateOrderStatus(ctx, booking.ID, "shipped"), &preErr)
}

func TestHandlePaymentCapturedIdempotent(t *testing.T) {
	svc, demo, _ := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	conf, err := svc.CreateBooking(ctx, validRequest())
	require.NoError(t, err)

	event := &models.PaymentCapturedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-1",
			EventType: models.EventTypePaymentCaptured,
			Timestamp: time.Now(),
		},
		OrderNumber: conf.OrderNumber,
		TxID:        "tx_789",
	}

	require.NoError(t, svc.HandlePaymentCaptured(ctx, event))

	booking, _, err := demo.GetBookingByOrderNumber(ctx, conf.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, booking.PaymentStatus)
	assert.Equal(t, "tx_789", booking.PaymentID)

	// Redelivery is a no-op.
	require.NoError(t, svc.HandlePaymentCaptured(ctx, event))
}

func TestHandlePaymentFailed(t *testing.T) {
	svc, demo, _ := newTestService(&stubProvider{paymentID: "pay_stub"})
	ctx := context.Background()

	req := validRequest()
	req.PaymentMethod = models.PaymentMethodOnline
	conf, err := svc.CreateBooking(ctx, req)
	require.NoError(t, err)

	event := &models.PaymentFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   "evt-2",
			EventType: models.EventTypePaymentFailed,
			Timestamp: time.Now(),
		},
		OrderNumber: conf.OrderNumber,
		Reason:      "card expired",
	}

	require.NoError(t, svc.HandlePaymentFailed(ctx, event))

	booking, _, err := demo.GetBookingByOrderNumber(ctx, conf.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, booking.PaymentStatus)
	assert.Equal(t, models.OrderStatusPending, booking.OrderStatus)
}
