package store

import (
	"context"
	"testing"
	"time"

	"stationery-store/internal/models"
	"stationery-store/internal/rush"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemoStoreDecrementClampsAtZero(t *testing.T) {
	d := NewDemoStore()
	ctx := context.Background()

	items, err := d.GetItems(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, items)

	var highlighters models.Item
	for _, item := range items {
		if item.Name == "Highlighters" {
			highlighters = item
		}
	}
	require.Equal(t, 3, highlighters.StockQuantity)

	// Requesting far more than available must floor at zero, never go negative.
	err = d.DecrementStock(ctx, highlighters.ID, 10)
	require.NoError(t, err)

	levels, err := d.GetStockLevels(ctx, []int64{highlighters.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, levels[highlighters.ID])
}

func TestDemoStoreDecrementUnknownItem(t *testing.T) {
	d := NewDemoStore()

	err := d.DecrementStock(context.Background(), 9999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDemoStoreSetStockFloorsAtZero(t *testing.T) {
	d := NewDemoStore()
	ctx := context.Background()

	require.NoError(t, d.SetStock(ctx, 1, -5))

	item, err := d.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, item.StockQuantity)
}

func TestDemoStoreStockLevelsOmitUnknownIDs(t *testing.T) {
	d := NewDemoStore()

	levels, err := d.GetStockLevels(context.Background(), []int64{1, 9999})
	require.NoError(t, err)
	assert.Contains(t, levels, int64(1))
	assert.NotContains(t, levels, int64(9999))
}

func TestDemoStoreBookingRoundTrip(t *testing.T) {
	d := NewDemoStore()
	ctx := context.Background()

	booking := &models.Booking{
		OrderNumber:     "05_2025_001",
		CustomerName:    "John Doe",
		Date:            "2025-05-23",
		TimeSlot:        "10:00 AM",
		TotalCost:       67.48,
		OrderStatus:     models.OrderStatusPending,
		PaymentMethod:   models.PaymentMethodOnline,
		PaymentStatus:   models.PaymentStatusCompleted,
		PaymentAmount:   67.48,
		PaymentCurrency: "INR",
	}
	items := []models.BookingItem{
		{ItemID: 1, Name: "Notebook", Quantity: 2, UnitPrice: 25.99},
		{ItemID: 2, Name: "Pen Set", Quantity: 1, UnitPrice: 15.50},
	}

	require.NoError(t, d.CreateBooking(ctx, booking, items))
	assert.NotZero(t, booking.ID)

	got, gotItems, err := d.GetBookingByOrderNumber(ctx, "05_2025_001")
	require.NoError(t, err)
	assert.Equal(t, booking.CustomerName, got.CustomerName)
	assert.Len(t, gotItems, 2)

	require.NoError(t, d.UpdateBookingStatus(ctx, booking.ID, models.OrderStatusTaken))
	got, _, err = d.GetBookingByOrderNumber(ctx, "05_2025_001")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusTaken, got.OrderStatus)

	require.NoError(t, d.DeleteBooking(ctx, booking.ID))
	_, _, err = d.GetBookingByOrderNumber(ctx, "05_2025_001")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDemoStoreApplyPayment(t *testing.T) {
	d := NewDemoStore()
	ctx := context.Background()

	booking := &models.Booking{
		OrderNumber:   "05_2025_002",
		CustomerName:  "Jane Smith",
		Date:          "2025-05-23",
		TimeSlot:      "2:00 PM",
		OrderStatus:   models.OrderStatusPending,
		PaymentMethod: models.PaymentMethodOnline,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, d.CreateBooking(ctx, booking, nil))

	completedAt := time.Now()
	require.NoError(t, d.ApplyPayment(ctx, "05_2025_002", models.PaymentStatusCompleted, "pay_123", &completedAt))

	got, _, err := d.GetBookingByOrderNumber(ctx, "05_2025_002")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, got.PaymentStatus)
	assert.Equal(t, "pay_123", got.PaymentID)
	require.NotNil(t, got.PaymentCompletedAt)
}

func TestDemoStoreRushUpsertAndFetch(t *testing.T) {
	d := NewDemoStore()
	ctx := context.Background()

	require.NoError(t, d.UpsertRushStatus(ctx, "2025-05-23", "9:30 AM", rush.Low))
	require.NoError(t, d.UpsertRushStatus(ctx, "2025-05-23", "9:30 AM", rush.Medium))
	require.NoError(t, d.UpsertRushStatus(ctx, "2025-05-24", "9:30 AM", rush.High))

	statuses, err := d.GetRushStatuses(ctx, "2025-05-23")
	require.NoError(t, err)
	assert.Equal(t, map[string]rush.Status{"9:30 AM": rush.Medium}, statuses)
}

func TestDemoStoreSequence(t *testing.T) {
	d := NewDemoStore()

	first, err := d.Next(context.Background())
	require.NoError(t, err)
	second, err := d.Next(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)
}

func TestDemoStoreEventLog(t *testing.T) {
	d := NewDemoStore()
	ctx := context.Background()

	processed, err := d.IsEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, d.MarkEventProcessed(ctx, "evt-1", models.EventTypePaymentCaptured))

	processed, err = d.IsEventProcessed(ctx, "evt-1")
	require.NoError(t, err)
	assert.True(t, processed)
}
