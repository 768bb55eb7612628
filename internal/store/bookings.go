package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stationery-store/internal/models"
	"stationery-store/internal/rush"
)

// CreateBooking creates a booking and its line items in one transaction.
// Line-item names and unit prices are snapshots: they are written once
// here and never recomputed from the catalog.
func (s *Store) CreateBooking(ctx context.Context, booking *models.Booking, items []models.BookingItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO bookings (
			order_number, customer_name, date, time_slot, total_cost,
			order_status, payment_method, payment_status, payment_id,
			payment_amount, payment_currency, payment_completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err = tx.GetContext(ctx, booking, query,
		booking.OrderNumber, booking.CustomerName, booking.Date, booking.TimeSlot,
		booking.TotalCost, booking.OrderStatus, booking.PaymentMethod,
		booking.PaymentStatus, booking.PaymentID, booking.PaymentAmount,
		booking.PaymentCurrency, booking.PaymentCompletedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	for i := range items {
		items[i].BookingID = booking.ID
		err = tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO booking_items (booking_id, item_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].BookingID, items[i].ItemID, items[i].Name,
			items[i].Quantity, items[i].UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to create booking item: %w", err)
		}
	}

	return tx.Commit()
}

// GetBookingByOrderNumber retrieves a booking and its items by order number
func (s *Store) GetBookingByOrderNumber(ctx context.Context, orderNumber string) (*models.Booking, []models.BookingItem, error) {
	var booking models.Booking
	err := s.db.GetContext(ctx, &booking,
		"SELECT * FROM bookings WHERE order_number = $1", orderNumber)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	items, err := s.GetBookingItems(ctx, booking.ID)
	if err != nil {
		return nil, nil, err
	}
	return &booking, items, nil
}

// ListBookings retrieves all bookings, newest first
func (s *Store) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.SelectContext(ctx, &bookings,
		"SELECT * FROM bookings ORDER BY created_at DESC")
	return bookings, err
}

// GetBookingItems retrieves all line items for a booking
func (s *Store) GetBookingItems(ctx context.Context, bookingID int64) ([]models.BookingItem, error) {
	var items []models.BookingItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM booking_items WHERE booking_id = $1 ORDER BY id", bookingID)
	return items, err
}

// UpdateBookingStatus updates a booking's order status
func (s *Store) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE bookings SET order_status = $1 WHERE id = $2", status, bookingID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
	}
	return nil
}

// ApplyPayment updates the payment fields of a booking identified by its
// order number. These are the only booking fields mutated after creation
// apart from the order status.
func (s *Store) ApplyPayment(ctx context.Context, orderNumber, paymentStatus, paymentID string, completedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET payment_status = $1, payment_id = $2, payment_completed_at = $3
		WHERE order_number = $4`,
		paymentStatus, paymentID, completedAt, orderNumber)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
	}
	return nil
}

// DeleteBooking deletes a booking and its line items
func (s *Store) DeleteBooking(ctx context.Context, bookingID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM booking_items WHERE booking_id = $1", bookingID); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM bookings WHERE id = $1", bookingID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
	}

	return tx.Commit()
}

// GetRushStatuses retrieves the explicit rush entries for a date as a
// time-slot to status map. The map is sparse.
func (s *Store) GetRushStatuses(ctx context.Context, date string) (map[string]rush.Status, error) {
	var rows []models.RushStatus
	err := s.db.SelectContext(ctx, &rows,
		"SELECT * FROM rush_status WHERE date = $1", date)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]rush.Status, len(rows))
	for _, r := range rows {
		statuses[r.TimeSlot] = rush.Status(r.Status)
	}
	return statuses, nil
}

// UpsertRushStatus creates or overwrites the entry for a (date, slot) pair
func (s *Store) UpsertRushStatus(ctx context.Context, date, timeSlot string, status rush.Status) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rush_status (date, time_slot, status, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (date, time_slot) DO UPDATE SET status = $3, updated_at = NOW()`,
		date, timeSlot, string(status))
	return err
}
