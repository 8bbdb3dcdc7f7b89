package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/mykafka"
)

const (
	TopicCartEvents  = "cart_events"
	TopicOrderEvents = "order_events"

	EventItemAdded   = "cart_item_added"
	EventLineUpdated = "cart_line_updated"
	EventLineRemoved = "cart_line_removed"
	EventCartCleared = "cart_cleared"
	EventCartDrained = "cart_drained"
	EventOrderPlaced = "order_created"
)

type CartEvent struct {
	Type       string          `json:"type"`
	UserID     string          `json:"userId"`
	CartID     string          `json:"cartId"`
	LineID     string          `json:"lineId,omitempty"`
	ItemID     string          `json:"itemId,omitempty"`
	ItemType   models.ItemType `json:"itemType,omitempty"`
	Quantity   int             `json:"quantity,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	TotalPrice float64         `json:"totalPrice"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type OrderEvent struct {
	Type       string        `json:"type"`
	OrderID    string        `json:"orderId"`
	UserID     string        `json:"userId"`
	Lines      []models.Line `json:"orderItems"`
	TotalPrice float64       `json:"totalPrice"`
	OccurredAt time.Time     `json:"occurredAt"`
}

// publish is best-effort: a failed publish never fails the operation that triggered it.
func publish(ctx context.Context, p mykafka.Publisher, topic, key string, ev any) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, topic, key, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_error", "topic", topic, "key", key, "error", err)
	}
}
