package commands

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/skinstore/internal/orders/domain"
)

// ItemInput is one line as submitted by the client.
type ItemInput struct {
	ProductID      int64
	Name           string
	UnitPriceCents int64
	Quantity       int64
}

// OrderInput is the customer, shipping and cart payload shared by order
// creation and checkout.
type OrderInput struct {
	Customer   domain.Customer
	Shipping   domain.Address
	Items      []ItemInput
	TotalCents int64
}

// Validate checks the payload shape. Items are checked first so an empty cart
// always reports "No items in order.".
func (in OrderInput) Validate() error {
	if err := domain.ValidateItems(in.orderItems("")); err != nil {
		return err
	}
	if strings.TrimSpace(in.Customer.FirstName) == "" {
		return domain.NewValidationError("firstName", "first name is required")
	}
	if strings.TrimSpace(in.Customer.Email) == "" {
		return domain.NewValidationError("email", "customer email is required")
	}
	if !strings.Contains(in.Customer.Email, "@") {
		return domain.NewValidationError("email", "customer email must be valid")
	}
	if in.TotalCents < 0 {
		return domain.NewValidationError("totalAmount", "total amount must not be negative")
	}
	return nil
}

// Metadata is attached to the checkout session so a webhook can rebuild the
// order if the local insert never happened.
func (in OrderInput) Metadata() domain.EventMetadata {
	return domain.EventMetadata{
		FirstName: in.Customer.FirstName,
		LastName:  in.Customer.LastName,
		Email:     in.Customer.Email,
		Phone:     in.Customer.Phone,
		Address:   in.Shipping.Street,
		City:      in.Shipping.City,
		State:     in.Shipping.Region,
		ZipCode:   in.Shipping.PostalCode,
	}
}

func (in OrderInput) orderItems(orderID string) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, domain.OrderItem{
			OrderID:        orderID,
			ProductID:      item.ProductID,
			ProductName:    item.Name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return items
}

func newOrderID() string {
	return uuid.NewString()
}

// newTrackingNumber returns an identifier such as SKN-3F2A9C1B7D4E.
func newTrackingNumber() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "SKN-" + strings.ToUpper(raw[:12])
}

// newOrderDetails builds a pending order with its lines and a fresh tracking record.
func newOrderDetails(
	customer domain.Customer,
	shipping domain.Address,
	items []domain.OrderItem,
	totalCents int64,
	currency string,
	sessionID string,
	now time.Time,
) domain.OrderDetails {
	orderID := newOrderID()

	lines := make([]domain.OrderItem, len(items))
	for i, item := range items {
		item.OrderID = orderID
		lines[i] = item
	}

	return domain.OrderDetails{
		Order: domain.Order{
			ID:            orderID,
			Customer:      customer,
			Shipping:      shipping,
			TotalCents:    totalCents,
			Currency:      currency,
			SessionID:     sessionID,
			PaymentStatus: domain.PaymentUnset,
			Status:        domain.StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		Items: lines,
		Tracking: &domain.TrackingRecord{
			OrderID:        orderID,
			TrackingNumber: newTrackingNumber(),
			Status:         domain.ShipmentLabelPending,
			UpdatedAt:      now,
		},
	}
}
