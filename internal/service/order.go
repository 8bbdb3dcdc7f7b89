package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopcart/internal/catalog"
	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/mykafka"
	"github.com/Skotchmaster/shopcart/internal/repo"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, error)
	SaveOrder(ctx context.Context, o *models.Order) error
}

type CartDrainer interface {
	DrainCartForOrder(ctx context.Context, userID string, place PlaceFunc) (models.CartSnapshot, error)
}

type OrderService struct {
	Repo  OrderStore
	Carts CartDrainer
	// Stock is optional; without it placed orders leave catalog stock as is.
	Stock   catalog.StockAdjuster
	Events  mykafka.Publisher
	Pricing *Pricing
	Now     func() time.Time
}

type PlaceOrderInput struct {
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
}

func (in *PlaceOrderInput) normalize() error {
	a := &in.ShippingAddress
	a.Address = strings.TrimSpace(a.Address)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.TrimSpace(a.Country)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)

	var missing []string
	for _, f := range []struct{ name, v string }{
		{"shippingAddress.address", a.Address},
		{"shippingAddress.city", a.City},
		{"shippingAddress.postalCode", a.PostalCode},
		{"shippingAddress.country", a.Country},
		{"paymentMethod", in.PaymentMethod},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return invalid("missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *OrderService) pricing() Pricing {
	if s.Pricing != nil {
		return *s.Pricing
	}
	return DefaultPricing
}

func (s *OrderService) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*models.Order, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}
	l := logging.FromContext(ctx).With("user_id", userID)

	var order *models.Order
	_, err := s.Carts.DrainCartForOrder(ctx, userID, func(ctx context.Context, snap models.CartSnapshot) error {
		q := s.pricing().Quote(snap.TotalPrice)
		now := s.now()
		o := &models.Order{
			ID:              uuid.NewString(),
			UserID:          userID,
			Lines:           snap.Lines,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			ItemsPrice:      q.Items,
			TaxPrice:        q.Tax,
			ShippingPrice:   q.Shipping,
			TotalPrice:      q.Total,
			Status:          models.OrderStatusProcessing,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.Repo.CreateOrder(ctx, o); err != nil {
			return transient("create order", err)
		}
		order = o
		s.decrementStock(ctx, o)
		return nil
	})
	if order == nil {
		return nil, err
	}
	if err != nil {
		// the order is stored; only emptying the cart failed
		l.Error("place_order_drain_error", "order_id", order.ID, "error", err)
	}

	l.Info("order_placed", "order_id", order.ID, "total", order.TotalPrice, "lines", len(order.Lines))
	publish(ctx, s.Events, TopicOrderEvents, userID, OrderEvent{
		Type:       EventOrderPlaced,
		OrderID:    order.ID,
		UserID:     userID,
		Lines:      order.Lines,
		TotalPrice: order.TotalPrice,
		OccurredAt: order.CreatedAt,
	})
	return order, nil
}

func (s *OrderService) decrementStock(ctx context.Context, o *models.Order) {
	if s.Stock == nil {
		return
	}
	l := logging.FromContext(ctx)
	for _, line := range o.Lines {
		if err := s.Stock.DecrementStock(ctx, line.ItemType, line.ItemID, line.Quantity); err != nil {
			l.Warn("decrement_stock_error", "order_id", o.ID, "item_id", line.ItemID, "item_type", line.ItemType, "error", err)
		}
	}
}

// ListOrders returns the user's orders newest first. A limit of zero lists
// them all.
func (s *OrderService) ListOrders(ctx context.Context, userID string, offset, limit int) ([]models.Order, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	if offset < 0 || limit < 0 {
		return nil, invalid("offset and limit must not be negative")
	}
	orders, err := s.Repo.ListOrdersByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, transient("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) load(ctx context.Context, orderID string) (*models.Order, error) {
	if orderID == "" {
		return nil, invalid("order id is required")
	}
	o, err := s.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, transient("load order", err)
	}
	return o, nil
}

func (s *OrderService) loadOwned(ctx context.Context, userID, orderID string) (*models.Order, error) {
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return o, nil
}

func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*models.Order, error) {
	return s.loadOwned(ctx, userID, orderID)
}

func (s *OrderService) MarkPaid(ctx context.Context, userID, orderID string, result *models.PaymentResult) (*models.Order, error) {
	o, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o.IsPaid = true
	o.PaidAt = &now
	o.PaymentResult = result
	o.UpdatedAt = now

	if err := s.Repo.SaveOrder(ctx, o); err != nil {
		return nil, transient("save order", err)
	}
	return o, nil
}

// UpdateStatus is an admin operation; callers enforce the role.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, invalid("unknown order status %q", status)
	}
	o, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o.Status = status
	o.UpdatedAt = now
	if status == models.OrderStatusDelivered && !o.IsDelivered {
		o.IsDelivered = true
		o.DeliveredAt = &now
	}

	if err := s.Repo.SaveOrder(ctx, o); err != nil {
		return nil, transient("save order", err)
	}
	return o, nil
}
