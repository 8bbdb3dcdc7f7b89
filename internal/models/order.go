package models

import "time"

type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type ShippingAddress struct {
	Address    string `bson:"address"    json:"address"`
	City       string `bson:"city"       json:"city"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country"    json:"country"`
}

type PaymentResult struct {
	ID           string `bson:"id"           json:"id"`
	Status       string `bson:"status"       json:"status"`
	UpdateTime   string `bson:"updateTime"   json:"update_time"`
	EmailAddress string `bson:"emailAddress" json:"email_address"`
}

type Order struct {
	ID              string          `bson:"_id"             json:"_id"`
	UserID          string          `bson:"userId"          json:"user"`
	Lines           []Line          `bson:"orderItems"      json:"orderItems"`
	ShippingAddress ShippingAddress `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod   string          `bson:"paymentMethod"   json:"paymentMethod"`
	PaymentResult   *PaymentResult  `bson:"paymentResult"   json:"paymentResult,omitempty"`
	ItemsPrice      float64         `bson:"itemsPrice"      json:"itemsPrice"`
	TaxPrice        float64         `bson:"taxPrice"        json:"taxPrice"`
	ShippingPrice   float64         `bson:"shippingPrice"   json:"shippingPrice"`
	TotalPrice      float64         `bson:"totalPrice"      json:"totalPrice"`
	Status          OrderStatus     `bson:"orderStatus"     json:"orderStatus"`
	IsPaid          bool            `bson:"isPaid"          json:"isPaid"`
	PaidAt          *time.Time      `bson:"paidAt"          json:"paidAt,omitempty"`
	IsDelivered     bool            `bson:"isDelivered"     json:"isDelivered"`
	DeliveredAt     *time.Time      `bson:"deliveredAt"     json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `bson:"createdAt"       json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt"       json:"updatedAt"`
}
