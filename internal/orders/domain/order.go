package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// PaymentStatus mirrors the payment gateway's view of a checkout session.
type PaymentStatus string

const (
	PaymentUnset   PaymentStatus = "unset"
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// OrderStatus captures the fulfillment lifecycle of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusFulfilled  OrderStatus = "fulfilled"
	StatusCancelled  OrderStatus = "cancelled"
)

// Rank orders statuses so transitions can be checked for regression.
// Fulfilled and cancelled share the highest rank.
func (s OrderStatus) Rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusFulfilled, StatusCancelled:
		return 2
	default:
		return -1
	}
}

// Customer holds the contact details captured at checkout.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// FullName joins first and last name, skipping empty parts.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Address is the shipping destination.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
}

// Order represents one customer purchase attempt.
type Order struct {
	ID              string        `json:"id"`
	Customer        Customer      `json:"customer"`
	Shipping        Address       `json:"shipping"`
	TotalCents      int64         `json:"total_cents"`
	Currency        string        `json:"currency"`
	SessionID       string        `json:"session_id,omitempty"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	Status          OrderStatus   `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.Customer.Email) == "" {
		return NewValidationError("email", "customer email is required")
	}
	if !strings.Contains(o.Customer.Email, "@") {
		return NewValidationError("email", "customer email must be valid")
	}
	if o.TotalCents < 0 {
		return NewValidationError("totalAmount", "total amount must not be negative")
	}
	return nil
}

// IsTerminal indicates whether the order left the payment-driven part of its lifecycle.
func (o Order) IsTerminal() bool {
	switch o.Status {
	case StatusFulfilled, StatusCancelled:
		return true
	default:
		return false
	}
}

// ConfirmPayment moves a pending order to (paid, processing). It reports
// whether anything changed; repeating it on a confirmed order is a no-op.
func (o *Order) ConfirmPayment(at time.Time) bool {
	if o.Status != StatusPending {
		return false
	}
	o.PaymentStatus = PaymentPaid
	o.Status = StatusProcessing
	o.UpdatedAt = at
	return true
}

// FailPayment records a failed payment attempt. A paid order is never downgraded.
func (o *Order) FailPayment(at time.Time) bool {
	if o.Status != StatusPending || o.PaymentStatus == PaymentPaid || o.PaymentStatus == PaymentFailed {
		return false
	}
	o.PaymentStatus = PaymentFailed
	o.UpdatedAt = at
	return true
}

// OrderItem is one purchased line, snapshotting name and price at purchase time.
type OrderItem struct {
	OrderID        string `json:"order_id"`
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// LineTotal returns quantity times unit price. Validate rejects lines where this overflows.
func (i OrderItem) LineTotal() int64 {
	return i.Quantity * i.UnitPriceCents
}

// Validate checks a single line.
func (i OrderItem) Validate() error {
	if strings.TrimSpace(i.ProductName) == "" {
		return NewValidationError("items.name", "item name is required")
	}
	if i.Quantity <= 0 {
		return NewValidationError("items.quantity", "item quantity must be positive")
	}
	if i.UnitPriceCents < 0 {
		return NewValidationError("items.price", "item price must not be negative")
	}
	if i.UnitPriceCents > 0 && i.Quantity > math.MaxInt64/i.UnitPriceCents {
		return NewValidationError("items.quantity", "item line total is too large")
	}
	return nil
}

// ValidateItems rejects an empty item list, any invalid line and a subtotal
// that does not fit in int64.
func ValidateItems(items []OrderItem) error {
	if len(items) == 0 {
		return NewValidationError("items", "No items in order.")
	}
	var total int64
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return err
		}
		line := item.LineTotal()
		if total > math.MaxInt64-line {
			return NewValidationError("items", "order total is too large")
		}
		total += line
	}
	return nil
}

// SumItems returns the order subtotal in minor units.
func SumItems(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// ShipmentStatus tracks the parcel once an order is paid.
type ShipmentStatus string

const (
	ShipmentLabelPending ShipmentStatus = "label_pending"
	ShipmentInTransit    ShipmentStatus = "in_transit"
	ShipmentDelivered    ShipmentStatus = "delivered"
)

// TrackingRecord holds shipment tracking metadata. There is at most one per order.
type TrackingRecord struct {
	OrderID        string         `json:"order_id"`
	TrackingNumber string         `json:"tracking_number"`
	Status         ShipmentStatus `json:"status"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// OrderDetails is an order together with its lines and tracking record.
type OrderDetails struct {
	Order    Order           `json:"order"`
	Items    []OrderItem     `json:"items"`
	Tracking *TrackingRecord `json:"tracking,omitempty"`
}

// Validate checks the aggregate as a whole, including the item/total invariant.
func (d OrderDetails) Validate() error {
	if err := d.Order.Validate(); err != nil {
		return err
	}
	if err := ValidateItems(d.Items); err != nil {
		return err
	}
	if sum := SumItems(d.Items); sum != d.Order.TotalCents {
		return NewValidationError("totalAmount", "total amount does not match order items")
	}
	if d.Tracking == nil || d.Tracking.TrackingNumber == "" {
		return errors.New("tracking record is required")
	}
	return nil
}
