package orders

import (
	"errors"
	"time"
)

// DeliveryStatus describes an order's fulfillment lifecycle stage.
// No status is terminal; any status may follow any other.
type DeliveryStatus string

const (
	StatusPending     DeliveryStatus = "PENDING"
	StatusInTransit   DeliveryStatus = "IN_TRANSIT"
	StatusDelivered   DeliveryStatus = "DELIVERED"
	StatusReturned    DeliveryStatus = "RETURNED"
	StatusFailed      DeliveryStatus = "FAILED"
	StatusCancelled   DeliveryStatus = "CANCELLED"
	StatusRescheduled DeliveryStatus = "RESCHEDULED"
)

// Valid reports whether the status is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInTransit, StatusDelivered, StatusReturned,
		StatusFailed, StatusCancelled, StatusRescheduled:
		return true
	default:
		return false
	}
}

// PaymentStatus describes whether an order has been paid.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// OrderItem is a line captured at creation time. Price and cost are
// snapshots; later catalog changes never affect existing orders.
type OrderItem struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Qty         int64  `json:"qty"`
	UnitPrice   int64  `json:"unit_price"`
	UnitCost    int64  `json:"unit_cost"`
}

// LineTotal returns the item's contribution to the order total.
func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * i.Qty
}

// TotalAmount computes an order total from its lines. The result is stored
// at creation and never recomputed afterwards.
func TotalAmount(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// Order is a customer order assigned to a region hub.
type Order struct {
	ID              int64          `json:"id"`
	TrackingCode    string         `json:"tracking_code"`
	CustomerName    string         `json:"customer_name"`
	CustomerPhone   string         `json:"customer_phone"`
	CustomerAddress string         `json:"customer_address"`
	RegionCode      string         `json:"region_code"`
	Items           []OrderItem    `json:"items"`
	TotalAmount     int64          `json:"total_amount"`
	LogisticsCost   *int64         `json:"logistics_cost,omitempty"`
	PaymentStatus   PaymentStatus  `json:"payment_status"`
	DeliveryStatus  DeliveryStatus `json:"delivery_status"`
	CreatedBy       int64          `json:"created_by"`
	AgentName       string         `json:"agent_name"`
	RescheduledDate *time.Time     `json:"rescheduled_date,omitempty"`
	RescheduleNotes string         `json:"reschedule_notes,omitempty"`
	ReminderSet     bool           `json:"reminder_set"`
	CancelReason    string         `json:"cancel_reason,omitempty"`
	LeadID          *int64         `json:"lead_id,omitempty"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status     DeliveryStatus
	RegionCode string
	From       time.Time
	To         time.Time
	Page       int
	PerPage    int
}

// ErrNoItems indicates an order without line items.
var ErrNoItems = errors.New("orders: at least one item required")

// ErrInvalidItem indicates a line with a non-positive quantity.
var ErrInvalidItem = errors.New("orders: item quantity must be positive")

// ErrCustomerRequired indicates missing customer contact fields.
var ErrCustomerRequired = errors.New("orders: customer name and phone required")
