package models

import "time"

// Item represents a stationery item in the catalog
type Item struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Price         float64   `db:"price" json:"price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Booking represents a customer booking (order)
type Booking struct {
	ID                 int64      `db:"id" json:"id"`
	OrderNumber        string     `db:"order_number" json:"order_number"`
	CustomerName       string     `db:"customer_name" json:"customer_name"`
	Date               string     `db:"date" json:"date"`
	TimeSlot           string     `db:"time_slot" json:"time_slot"`
	TotalCost          float64    `db:"total_cost" json:"total_cost"`
	OrderStatus        string     `db:"order_status" json:"order_status"`
	PaymentMethod      string     `db:"payment_method" json:"payment_method"`
	PaymentStatus      string     `db:"payment_status" json:"payment_status"`
	PaymentID          string     `db:"payment_id" json:"payment_id,omitempty"`
	PaymentAmount      float64    `db:"payment_amount" json:"payment_amount"`
	PaymentCurrency    string     `db:"payment_currency" json:"payment_currency"`
	PaymentCompletedAt *time.Time `db:"payment_completed_at" json:"payment_completed_at,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// BookingItem represents a line item in a booking.
// Name and UnitPrice are snapshots taken at checkout time.
type BookingItem struct {
	ID        int64   `db:"id" json:"id"`
	BookingID int64   `db:"booking_id" json:"booking_id"`
	ItemID    int64   `db:"item_id" json:"item_id"`
	Name      string  `db:"name" json:"name"`
	Quantity  int     `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
}

// RushStatus represents an explicit congestion entry for a (date, slot) pair
type RushStatus struct {
	ID        int64     `db:"id" json:"id"`
	Date      string    `db:"date" json:"date"`
	TimeSlot  string    `db:"time_slot" json:"time_slot"`
	Status    string    `db:"status" json:"status"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusPending  = "pending"
	OrderStatusTaken    = "taken"
	OrderStatusNotTaken = "not_taken"
)

// Payment methods
const (
	PaymentMethodOnline         = "online"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

// Payment statuses
const (
	PaymentStatusCompleted   = "completed"
	PaymentStatusPending     = "pending"
	PaymentStatusFailed      = "failed"
	PaymentStatusNotRequired = "not_required"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// IsValidOrderStatus reports whether s is one of the known order statuses.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusTaken, OrderStatusNotTaken:
		return true
	}
	return false
}

// OrderStatusText returns the display text for an order status.
func OrderStatusText(status string) string {
	switch status {
	case OrderStatusTaken:
		return "Order Taken"
	case OrderStatusNotTaken:
		return "Order Not Taken"
	default:
		return "Pending Pickup"
	}
}
