package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry. The coordinator reads prices from here instead of trusting clients.
type Product struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name", "product name is required")
	}
	if p.PriceCents <= 0 {
		return NewValidationError("price", "product price must be positive")
	}
	if len(p.Currency) != 3 {
		return NewValidationError("currency", "currency must be a 3-letter ISO code")
	}
	return nil
}
