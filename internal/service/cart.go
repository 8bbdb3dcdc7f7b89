package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/shopcart/internal/catalog"
	"github.com/Skotchmaster/shopcart/internal/logging"
	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/mykafka"
	"github.com/Skotchmaster/shopcart/internal/repo"
)

const DefaultLookupTimeout = 3 * time.Second

type CartStore interface {
	GetByUser(ctx context.Context, userID string) (*models.Cart, error)
	Create(ctx context.Context, c *models.Cart) error
	Save(ctx context.Context, c *models.Cart) error
}

// PlaceFunc receives the cart contents and must return nil only once the order is durable.
type PlaceFunc func(ctx context.Context, snap models.CartSnapshot) error

type UpdateOptions struct {
	SkipValidation bool
}

// CartService owns every cart mutation. Calls for the same user run one at a time.
type CartService struct {
	Repo          CartStore
	Catalog       catalog.Lookup
	Events        mykafka.Publisher
	LookupTimeout time.Duration
	Now           func() time.Time

	locks keyedMutex
}

func (s *CartService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *CartService) lookup(ctx context.Context, t models.ItemType, id string) (*models.CatalogItem, error) {
	timeout := s.LookupTimeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	item, err := s.Catalog.Lookup(ctx, t, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, catalog.ErrNotFound
	}
	return item, nil
}

func (s *CartService) load(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := s.Repo.GetByUser(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, transient("load cart", err)
	}
	if c.Lines == nil {
		c.Lines = []models.Line{}
	}
	c.TotalPrice = models.RecomputeTotal(c.Lines)
	return c, nil
}

func (s *CartService) getOrCreate(ctx context.Context, userID string) (*models.Cart, error) {
	c, err := s.load(ctx, userID)
	if !errors.Is(err, ErrCartNotFound) {
		return c, err
	}

	now := s.now()
	c = &models.Cart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Lines:     []models.Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.Repo.Create(ctx, c)
	if errors.Is(err, repo.ErrDuplicate) {
		// another instance created it first
		return s.load(ctx, userID)
	}
	if err != nil {
		return nil, transient("create cart", err)
	}
	logging.FromContext(ctx).Info("cart_created", "user_id", userID, "cart_id", c.ID)
	return c, nil
}

func (s *CartService) persist(ctx context.Context, c *models.Cart) error {
	c.TotalPrice = models.RecomputeTotal(c.Lines)
	c.UpdatedAt = s.now()
	if err := s.Repo.Save(ctx, c); err != nil {
		return transient("save cart", err)
	}
	return nil
}

func (s *CartService) event(typ string, c *models.Cart, line *models.Line, reason string) CartEvent {
	ev := CartEvent{
		Type:       typ,
		UserID:     c.UserID,
		CartID:     c.ID,
		Reason:     reason,
		TotalPrice: c.TotalPrice,
		OccurredAt: c.UpdatedAt,
	}
	if line != nil {
		ev.LineID = line.ID
		ev.ItemID = line.ItemID
		ev.ItemType = line.ItemType
		ev.Quantity = line.Quantity
	}
	return ev
}

func (s *CartService) GetOrCreateCart(ctx context.Context, userID string) (*models.Cart, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.getOrCreate(ctx, userID)
}

func (s *CartService) AddItem(ctx context.Context, userID, itemID string, itemType models.ItemType, quantity int) (*models.Cart, error) {
	itemID = strings.TrimSpace(itemID)
	switch {
	case userID == "":
		return nil, invalid("user id is required")
	case itemID == "":
		return nil, invalid("itemId is required")
	case !itemType.Valid():
		return nil, invalid("itemType must be %q or %q, got %q", models.ItemTypeProduct, models.ItemTypeFood, itemType)
	case quantity < 1:
		return nil, invalid("quantity must be at least 1, got %d", quantity)
	}
	l := logging.FromContext(ctx).With("user_id", userID, "item_id", itemID, "item_type", itemType)

	unlock := s.locks.Lock(userID)
	defer unlock()

	item, err := s.lookup(ctx, itemType, itemID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return nil, fmt.Errorf("%w: %s %s", ErrItemNotFound, itemType, itemID)
	case err != nil:
		l.Warn("catalog_lookup_error", "error", err)
		return nil, transient("catalog lookup", err)
	case !item.InStock:
		return nil, fmt.Errorf("%w: %s %s", ErrOutOfStock, itemType, itemID)
	}

	c, err := s.getOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	var line models.Line
	if i := c.ItemIndex(itemID, itemType); i >= 0 {
		if quantity > math.MaxInt-c.Lines[i].Quantity {
			return nil, invalid("quantity for %s %s would exceed %d", itemType, itemID, math.MaxInt)
		}
		c.Lines[i].Quantity += quantity
		line = c.Lines[i]
	} else {
		line = item.NewLine(uuid.NewString(), quantity)
		line.ItemID, line.ItemType = itemID, itemType
		c.Lines = append(c.Lines, line)
	}

	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, TopicCartEvents, userID, s.event(EventItemAdded, c, &line, ""))
	return c, nil
}

// UpdateLineQuantity sets a line's quantity after re-checking the catalog.
// A line the catalog can no longer honour is removed and the saved cart is
// returned together with the error explaining why.
func (s *CartService) UpdateLineQuantity(ctx context.Context, userID, lineID string, quantity int, opts UpdateOptions) (*models.Cart, error) {
	switch {
	case userID == "":
		return nil, invalid("user id is required")
	case lineID == "":
		return nil, invalid("line id is required")
	case quantity < 1:
		return nil, invalid("quantity must be at least 1, got %d", quantity)
	}
	l := logging.FromContext(ctx).With("user_id", userID, "line_id", lineID)

	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.LineIndex(lineID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	line := c.Lines[i]

	if !opts.SkipValidation {
		if line.ItemID == "" || !line.ItemType.Valid() {
			return s.removeWithReason(ctx, c, i, "invalid_line", ErrInvalidLine)
		}

		item, err := s.lookup(ctx, line.ItemType, line.ItemID)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			return s.removeWithReason(ctx, c, i, "no_longer_in_catalog", ErrNoLongerInCatalog)
		case err != nil:
			l.Warn("catalog_lookup_error", "item_id", line.ItemID, "error", err)
			return nil, transient("catalog lookup", err)
		case !item.CanSupply(quantity):
			return s.removeWithReason(ctx, c, i, "insufficient_stock", ErrInsufficientStock)
		}

		fresh := item.NewLine(line.ID, quantity)
		c.Lines[i].Name = fresh.Name
		c.Lines[i].Price = fresh.Price
		c.Lines[i].ImageURL = fresh.ImageURL
	}
	c.Lines[i].Quantity = quantity

	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	updated := c.Lines[i]
	publish(ctx, s.Events, TopicCartEvents, userID, s.event(EventLineUpdated, c, &updated, ""))
	return c, nil
}

func (s *CartService) removeWithReason(ctx context.Context, c *models.Cart, i int, reason string, cause error) (*models.Cart, error) {
	removed := c.Lines[i]
	c.RemoveLine(i)
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Warn("cart_line_removed",
		"user_id", c.UserID, "line_id", removed.ID, "item_id", removed.ItemID, "reason", reason)
	publish(ctx, s.Events, TopicCartEvents, c.UserID, s.event(EventLineRemoved, c, &removed, reason))
	return c, fmt.Errorf("%w: line %s", cause, removed.ID)
}

func (s *CartService) RemoveLine(ctx context.Context, userID, lineID string) (*models.Cart, error) {
	if userID == "" || lineID == "" {
		return nil, invalid("user id and line id are required")
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := c.LineIndex(lineID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrLineNotFound, lineID)
	}
	removed := c.Lines[i]
	c.RemoveLine(i)

	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, TopicCartEvents, userID, s.event(EventLineRemoved, c, &removed, ""))
	return c, nil
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*models.Cart, error) {
	if userID == "" {
		return nil, invalid("user id is required")
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Lines = []models.Line{}
	if err := s.persist(ctx, c); err != nil {
		return nil, err
	}
	publish(ctx, s.Events, TopicCartEvents, userID, s.event(EventCartCleared, c, nil, ""))
	return c, nil
}

// DrainCartForOrder hands a snapshot of the cart to place and empties the cart
// only if place succeeds. The user's cart stays locked until then.
// When place succeeds but the cart cannot be emptied, the snapshot is returned
// with a Transient error.
func (s *CartService) DrainCartForOrder(ctx context.Context, userID string, place PlaceFunc) (models.CartSnapshot, error) {
	if userID == "" {
		return models.CartSnapshot{}, invalid("user id is required")
	}
	if place == nil {
		return models.CartSnapshot{}, invalid("place callback is required")
	}
	unlock := s.locks.Lock(userID)
	defer unlock()

	c, err := s.load(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return models.CartSnapshot{}, ErrEmptyCart
	}
	if err != nil {
		return models.CartSnapshot{}, err
	}
	if len(c.Lines) == 0 {
		return models.CartSnapshot{}, ErrEmptyCart
	}

	snap := c.Snapshot()
	if err := place(ctx, snap); err != nil {
		return models.CartSnapshot{}, err
	}

	c.Lines = []models.Line{}
	if err := s.persist(ctx, c); err != nil {
		logging.FromContext(ctx).Error("drain_cart_error", "user_id", userID, "cart_id", c.ID, "error", err)
		return snap, err
	}
	publish(ctx, s.Events, TopicCartEvents, userID, s.event(EventCartDrained, c, nil, ""))
	return snap, nil
}
