package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stationery-store/internal/models"
	"stationery-store/internal/rush"
)

// DemoStore is an in-memory implementation of the storage capabilities,
// seeded with fixture data. It backs demo mode (no database configured)
// and the unit tests.
type DemoStore struct {
	mu sync.Mutex

	items     map[int64]*models.Item
	bookings  map[int64]*models.Booking
	lineItems map[int64][]models.BookingItem
	rush      map[string]rush.Status // keyed date + "_" + slot
	processed map[string]string
	seq       int64
	nextID    int64
}

// NewDemoStore creates a demo store seeded with the stock fixtures.
func NewDemoStore() *DemoStore {
	d := &DemoStore{
		items:     make(map[int64]*models.Item),
		bookings:  make(map[int64]*models.Booking),
		lineItems: make(map[int64][]models.BookingItem),
		rush:      make(map[string]rush.Status),
		processed: make(map[string]string),
		nextID:    1,
	}

	fixtures := []models.Item{
		{Name: "Notebook", Price: 25.99, StockQuantity: 50},
		{Name: "Pen Set", Price: 15.50, StockQuantity: 30},
		{Name: "Highlighters", Price: 12.00, StockQuantity: 3},
		{Name: "Sticky Notes", Price: 8.75, StockQuantity: 100},
		{Name: "Stapler", Price: 22.00, StockQuantity: 0},
		{Name: "Paper Clips", Price: 5.25, StockQuantity: 200},
		{Name: "Ruler", Price: 7.50, StockQuantity: 40},
		{Name: "Eraser", Price: 3.00, StockQuantity: 75},
	}
	for i := range fixtures {
		item := fixtures[i]
		item.ID = d.nextID
		item.CreatedAt = time.Now()
		d.items[item.ID] = &item
		d.nextID++
	}
	return d
}

// GetItems returns all items ordered by name
func (d *DemoStore) GetItems(ctx context.Context) ([]models.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	items := make([]models.Item, 0, len(d.items))
	for _, item := range d.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

// GetItem returns an item by ID
func (d *DemoStore) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	item, ok := d.items[id]
	if !ok {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	copied := *item
	return &copied, nil
}

// GetStockLevels returns stock for the given ids; unknown ids are omitted
func (d *DemoStore) GetStockLevels(ctx context.Context, ids []int64) (map[int64]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	levels := make(map[int64]int, len(ids))
	for _, id := range ids {
		if item, ok := d.items[id]; ok {
			levels[id] = item.StockQuantity
		}
	}
	return levels, nil
}

// DecrementStock reduces stock clamped at zero
func (d *DemoStore) DecrementStock(ctx context.Context, itemID int64, quantity int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	item, ok := d.items[itemID]
	if !ok {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	item.StockQuantity -= quantity
	if item.StockQuantity < 0 {
		item.StockQuantity = 0
	}
	return nil
}

// SetStock sets stock to an absolute value floored at zero
func (d *DemoStore) SetStock(ctx context.Context, itemID int64, quantity int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	item, ok := d.items[itemID]
	if !ok {
		return fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if quantity < 0 {
		quantity = 0
	}
	item.StockQuantity = quantity
	return nil
}

// CreateItem adds a new item
func (d *DemoStore) CreateItem(ctx context.Context, item *models.Item) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if item.StockQuantity < 0 {
		item.StockQuantity = 0
	}
	item.ID = d.nextID
	item.CreatedAt = time.Now()
	d.nextID++

	copied := *item
	d.items[item.ID] = &copied
	return nil
}

// DeleteItem removes an item
func (d *DemoStore) DeleteItem(ctx context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	delete(d.items, id)
	return nil
}

// CreateBooking stores a booking and its line items
func (d *DemoStore) CreateBooking(ctx context.Context, booking *models.Booking, items []models.BookingItem) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	booking.ID = d.nextID
	booking.CreatedAt = time.Now()
	d.nextID++

	stored := make([]models.BookingItem, len(items))
	for i := range items {
		items[i].BookingID = booking.ID
		items[i].ID = d.nextID
		d.nextID++
		stored[i] = items[i]
	}

	copied := *booking
	d.bookings[booking.ID] = &copied
	d.lineItems[booking.ID] = stored
	return nil
}

// GetBookingByOrderNumber looks up a booking by its order number
func (d *DemoStore) GetBookingByOrderNumber(ctx context.Context, orderNumber string) (*models.Booking, []models.BookingItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, b := range d.bookings {
		if b.OrderNumber == orderNumber {
			copied := *b
			items := append([]models.BookingItem(nil), d.lineItems[b.ID]...)
			return &copied, items, nil
		}
	}
	return nil, nil, fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
}

// ListBookings returns all bookings, newest first
func (d *DemoStore) ListBookings(ctx context.Context) ([]models.Booking, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	bookings := make([]models.Booking, 0, len(d.bookings))
	for _, b := range d.bookings {
		bookings = append(bookings, *b)
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

// GetBookingItems returns the line items for a booking
func (d *DemoStore) GetBookingItems(ctx context.Context, bookingID int64) ([]models.BookingItem, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.BookingItem(nil), d.lineItems[bookingID]...), nil
}

// UpdateBookingStatus updates a booking's order status
func (d *DemoStore) UpdateBookingStatus(ctx context.Context, bookingID int64, status string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.bookings[bookingID]
	if !ok {
		return fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
	}
	b.OrderStatus = status
	return nil
}

// ApplyPayment updates a booking's payment fields
func (d *DemoStore) ApplyPayment(ctx context.Context, orderNumber, paymentStatus, paymentID string, completedAt *time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, b := range d.bookings {
		if b.OrderNumber == orderNumber {
			b.PaymentStatus = paymentStatus
			b.PaymentID = paymentID
			b.PaymentCompletedAt = completedAt
			return nil
		}
	}
	return fmt.Errorf("order %s: %w", orderNumber, ErrNotFound)
}

// DeleteBooking removes a booking and its line items
func (d *DemoStore) DeleteBooking(ctx context.Context, bookingID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.bookings[bookingID]; !ok {
		return fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
	}
	delete(d.bookings, bookingID)
	delete(d.lineItems, bookingID)
	return nil
}

// GetRushStatuses returns the explicit rush entries for a date
func (d *DemoStore) GetRushStatuses(ctx context.Context, date string) (map[string]rush.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	statuses := make(map[string]rush.Status)
	prefix := date + "_"
	for key, status := range d.rush {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			statuses[key[len(prefix):]] = status
		}
	}
	return statuses, nil
}

// UpsertRushStatus creates or overwrites a rush entry
func (d *DemoStore) UpsertRushStatus(ctx context.Context, date, timeSlot string, status rush.Status) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rush[date+"_"+timeSlot] = status
	return nil
}

// Next implements ordernumber.Sequence over an in-memory counter
func (d *DemoStore) Next(ctx context.Context) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	return d.seq, nil
}

// IsEventProcessed checks the in-memory processed-event set
func (d *DemoStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.processed[eventID]
	return ok, nil
}

// MarkEventProcessed records an event id
func (d *DemoStore) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed[eventID] = eventType
	return nil
}
