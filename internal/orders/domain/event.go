package domain

import "strings"

// EventKind is the closed set of payment events the coordinator acts on.
type EventKind string

const (
	EventCheckoutCompleted  EventKind = "checkout_completed"
	EventAsyncPaymentFailed EventKind = "async_payment_failed"
	EventIgnored            EventKind = "ignored"
)

// PaymentEvent is a verified notification from the payment gateway. It is never persisted.
type PaymentEvent struct {
	ID              string
	Type            string
	Kind            EventKind
	SessionID       string
	PaymentIntentID string
	PaymentStatus   PaymentStatus
	AmountTotal     int64
	Currency        string
	Metadata        EventMetadata
}

// EventMetadata carries the customer fields attached to a checkout session.
type EventMetadata struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
}

// Validate requires the fields needed to synthesize an order from the event alone.
func (m EventMetadata) Validate() error {
	if strings.TrimSpace(m.FirstName) == "" {
		return NewValidationError("metadata.firstName", "event metadata is missing firstName")
	}
	if !strings.Contains(m.Email, "@") {
		return NewValidationError("metadata.email", "event metadata is missing a valid email")
	}
	return nil
}

// Map flattens the metadata for the gateway's string-keyed metadata field.
func (m EventMetadata) Map() map[string]string {
	return map[string]string{
		"firstName": m.FirstName,
		"lastName":  m.LastName,
		"email":     m.Email,
		"phone":     m.Phone,
		"address":   m.Address,
		"city":      m.City,
		"state":     m.State,
		"zipCode":   m.ZipCode,
	}
}

// MetadataFromMap is the inverse of EventMetadata.Map.
func MetadataFromMap(values map[string]string) EventMetadata {
	return EventMetadata{
		FirstName: values["firstName"],
		LastName:  values["lastName"],
		Email:     values["email"],
		Phone:     values["phone"],
		Address:   values["address"],
		City:      values["city"],
		State:     values["state"],
		ZipCode:   values["zipCode"],
	}
}

// Customer and ShippingAddress project the metadata onto order fields.
func (m EventMetadata) Customer() Customer {
	return Customer{FirstName: m.FirstName, LastName: m.LastName, Email: m.Email, Phone: m.Phone}
}

func (m EventMetadata) ShippingAddress() Address {
	return Address{Street: m.Address, City: m.City, Region: m.State, PostalCode: m.ZipCode}
}

// ParseGatewayPaymentStatus maps the gateway's session payment status.
// Sessions that need no payment count as paid.
func ParseGatewayPaymentStatus(status string) PaymentStatus {
	switch status {
	case "paid", "no_payment_required":
		return PaymentPaid
	case "unpaid":
		return PaymentPending
	case "failed":
		return PaymentFailed
	default:
		return PaymentUnset
	}
}
