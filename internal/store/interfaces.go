package store

import (
	"context"
	"errors"
	"time"

	"stationery-store/internal/models"
	"stationery-store/internal/rush"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// StockLedger is the per-item stock capability. Implementations must keep
// the stock-never-negative invariant: DecrementStock clamps at zero in a
// single storage-level expression rather than read-modify-write in the
// application.
type StockLedger interface {
	GetItems(ctx context.Context) ([]models.Item, error)
	GetItem(ctx context.Context, id int64) (*models.Item, error)
	GetStockLevels(ctx context.Context, ids []int64) (map[int64]int, error)
	DecrementStock(ctx context.Context, itemID int64, quantity int) error
	SetStock(ctx context.Context, itemID int64, quantity int) error
	CreateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id int64) error
}

// BookingStore persists bookings and their line items.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking, items []models.BookingItem) error
	GetBookingByOrderNumber(ctx context.Context, orderNumber string) (*models.Booking, []models.BookingItem, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetBookingItems(ctx context.Context, bookingID int64) ([]models.BookingItem, error)
	UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error
	ApplyPayment(ctx context.Context, orderNumber, paymentStatus, paymentID string, completedAt *time.Time) error
	DeleteBooking(ctx context.Context, bookingID int64) error
}

// RushStore persists explicit rush-status overrides. Entries are sparse:
// absent slots fall back to the computed default.
type RushStore interface {
	GetRushStatuses(ctx context.Context, date string) (map[string]rush.Status, error)
	UpsertRushStatus(ctx context.Context, date, timeSlot string, status rush.Status) error
}

// EventLog records processed event ids for consumer idempotency.
type EventLog interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}
