package models

import "time"

// Event types
const (
	EventTypeBookingCreated   = "BOOKING_CREATED"
	EventTypeBookingConfirmed = "BOOKING_CONFIRMED"
	EventTypeStockAdjusted    = "STOCK_ADJUSTED"
	EventTypePaymentCaptured  = "PAYMENT_CAPTURED"
	EventTypePaymentFailed    = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BookingCreatedEvent published when a booking is persisted
type BookingCreatedEvent struct {
	BaseEvent
	BookingID    int64             `json:"booking_id"`
	OrderNumber  string            `json:"order_number"`
	CustomerName string            `json:"customer_name"`
	Date         string            `json:"date"`
	TimeSlot     string            `json:"time_slot"`
	TotalCost    float64           `json:"total_cost"`
	Items        []BookingItemData `json:"items"`
}

// BookingConfirmedEvent published once the stock adjustment step has run
type BookingConfirmedEvent struct {
	BaseEvent
	BookingID   int64  `json:"booking_id"`
	OrderNumber string `json:"order_number"`
}

// StockAdjustedEvent published after the post-checkout decrement
type StockAdjustedEvent struct {
	BaseEvent
	BookingID int64             `json:"booking_id"`
	Items     []BookingItemData `json:"items"`
	Partial   bool              `json:"partial"`
}

// PaymentCapturedEvent published when the payment provider reports a
// late capture for a booking that was persisted with a pending payment
type PaymentCapturedEvent struct {
	BaseEvent
	OrderNumber string  `json:"order_number"`
	TxID        string  `json:"tx_id"`
	Amount      float64 `json:"amount"`
}

// PaymentFailedEvent published when the provider reports a failed capture
type PaymentFailedEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// BookingItemData represents line item data in events
type BookingItemData struct {
	ItemID    int64   `json:"item_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}
