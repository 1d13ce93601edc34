package http

import (
	"strings"

	"github.com/dejobratic/skinstore/internal/orders/app/commands"
	"github.com/dejobratic/skinstore/internal/orders/domain"
)

// itemRequest is one cart line. Price is in minor currency units.
type itemRequest struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

// orderRequest is the body shared by POST /orders and POST /checkout/sessions.
type orderRequest struct {
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone"`
	Address     string        `json:"address"`
	City        string        `json:"city"`
	State       string        `json:"state"`
	ZipCode     string        `json:"zipCode"`
	Items       []itemRequest `json:"items"`
	TotalAmount int64         `json:"totalAmount"`
}

func (r orderRequest) toInput() commands.OrderInput {
	items := make([]commands.ItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, commands.ItemInput{
			ProductID:      item.ID,
			Name:           strings.TrimSpace(item.Name),
			UnitPriceCents: item.Price,
			Quantity:       item.Quantity,
		})
	}

	return commands.OrderInput{
		Customer: domain.Customer{
			FirstName: strings.TrimSpace(r.FirstName),
			LastName:  strings.TrimSpace(r.LastName),
			Email:     strings.TrimSpace(r.Email),
			Phone:     strings.TrimSpace(r.Phone),
		},
		Shipping: domain.Address{
			Street:     strings.TrimSpace(r.Address),
			City:       strings.TrimSpace(r.City),
			Region:     strings.TrimSpace(r.State),
			PostalCode: strings.TrimSpace(r.ZipCode),
		},
		Items:      items,
		TotalCents: r.TotalAmount,
	}
}

type createOrderResponse struct {
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}
