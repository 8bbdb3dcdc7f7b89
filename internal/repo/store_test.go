package repo

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopcart/internal/models"
)

type store interface {
	GetByUser(ctx context.Context, userID string) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	Save(ctx context.Context, c *models.Cart) error
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, error)
	SaveOrder(ctx context.Context, o *models.Order) error
}

var (
	_ store = (*GormRepo)(nil)
	_ store = (*MongoRepo)(nil)
)

func newCart(userID string, now time.Time) *models.Cart {
	return &models.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Lines:     []models.Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func line(itemID string, t models.ItemType, price float64, qty int) models.Line {
	return models.Line{ID: uuid.NewString(), ItemID: itemID, ItemType: t, Name: "n-" + itemID, Price: price, ImageURL: itemID + ".png", Quantity: qty}
}

func runCartStoreSuite(t *testing.T, s store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	user := "user-" + uuid.NewString()

	_, err := s.GetByUser(ctx, user)
	require.ErrorIs(t, err, ErrNotFound)

	cart := newCart(user, now)
	require.NoError(t, s.Create(ctx, cart))

	dup := newCart(user, now)
	require.ErrorIs(t, s.Create(ctx, dup), ErrDuplicate, "one cart per user")

	got, err := s.GetByUser(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, cart.ID, got.ID)
	assert.Empty(t, got.Lines)

	cart.Lines = []models.Line{
		line("b", models.ItemTypeFood, 2.5, 2),
		line("a", models.ItemTypeProduct, 10, 1),
		line("c", models.ItemTypeProduct, 1.25, 4),
	}
	cart.TotalPrice = models.RecomputeTotal(cart.Lines)
	cart.UpdatedAt = now.Add(time.Second)
	require.NoError(t, s.Save(ctx, cart))

	got, err = s.GetByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, got.Lines, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{got.Lines[0].ItemID, got.Lines[1].ItemID, got.Lines[2].ItemID}, "line order survives")
	assert.Equal(t, cart.Lines[0], got.Lines[0])
	assert.InDelta(t, 20.0, got.TotalPrice, 1e-9)
	assert.True(t, cart.UpdatedAt.Equal(got.UpdatedAt))

	got.RemoveLine(1)
	got.TotalPrice = models.RecomputeTotal(got.Lines)
	require.NoError(t, s.Save(ctx, got))

	again, err := s.GetByUser(ctx, user)
	require.NoError(t, err)
	require.Len(t, again.Lines, 2)
	assert.InDelta(t, 10.0, again.TotalPrice, 1e-9)

	again.Lines = []models.Line{}
	again.TotalPrice = 0
	require.NoError(t, s.Save(ctx, again))
	cleared, err := s.GetByUser(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cleared.Lines)
	assert.Equal(t, cart.ID, cleared.ID, "clearing keeps the cart")

	require.ErrorIs(t, s.Save(ctx, newCart("ghost-"+uuid.NewString(), now)), ErrNotFound)
}

func runOrderStoreSuite(t *testing.T, s store) {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	user := "user-" + uuid.NewString()

	_, err := s.GetOrder(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListOrdersByUser(ctx, user, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	mk := func(offset time.Duration) *models.Order {
		return &models.Order{
			ID:              uuid.NewString(),
			UserID:          user,
			Lines:           []models.Line{line("x", models.ItemTypeProduct, 50, 1), line("y", models.ItemTypeFood, 5, 2)},
			ShippingAddress: models.ShippingAddress{Address: "1 Main", City: "Town", PostalCode: "123", Country: "NZ"},
			PaymentMethod:   "PayPal",
			ItemsPrice:      60,
			TaxPrice:        9,
			ShippingPrice:   10,
			TotalPrice:      79,
			Status:          models.OrderStatusProcessing,
			CreatedAt:       base.Add(offset),
			UpdatedAt:       base.Add(offset),
		}
	}
	first, second := mk(0), mk(time.Minute)
	require.NoError(t, s.CreateOrder(ctx, first))
	require.NoError(t, s.CreateOrder(ctx, second))

	got, err := s.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ShippingAddress, got.ShippingAddress)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, "x", got.Lines[0].ItemID)
	assert.Nil(t, got.PaymentResult)
	assert.False(t, got.IsPaid)

	list, err = s.ListOrdersByUser(ctx, user, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	page, err := s.ListOrdersByUser(ctx, user, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	page, err = s.ListOrdersByUser(ctx, user, math.MaxInt, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	paidAt := base.Add(2 * time.Minute)
	got.IsPaid = true
	got.PaidAt = &paidAt
	got.PaymentResult = &models.PaymentResult{ID: "pay-1", Status: "COMPLETED", EmailAddress: "a@b.c"}
	got.Status = models.OrderStatusShipped
	got.UpdatedAt = paidAt
	require.NoError(t, s.SaveOrder(ctx, got))

	reread, err := s.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, reread.IsPaid)
	require.NotNil(t, reread.PaidAt)
	assert.True(t, paidAt.Equal(*reread.PaidAt))
	require.NotNil(t, reread.PaymentResult)
	assert.Equal(t, "pay-1", reread.PaymentResult.ID)
	assert.Equal(t, models.OrderStatusShipped, reread.Status)
	assert.Len(t, reread.Lines, 2)

	missing := mk(0)
	require.ErrorIs(t, s.SaveOrder(ctx, missing), ErrNotFound)
}
