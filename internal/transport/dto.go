package transport

import "github.com/Skotchmaster/shopcart/internal/models"

type AddItemRequest struct {
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
	// omitted means 1
	Quantity *int `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type PlaceOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type PayRequest struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	UpdateTime string `json:"update_time"`
	Payer      struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

// ErrorResponse carries the saved cart when the request removed a line before failing.
type ErrorResponse struct {
	Msg  string       `json:"msg"`
	Code string       `json:"code"`
	Cart *models.Cart `json:"cart,omitempty"`
}
