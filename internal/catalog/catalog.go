package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shopcart/internal/models"
)

// ErrNotFound means the backend answered and the item does not exist.
// Any other error means the lookup could not complete.
var ErrNotFound = errors.New("catalog item not found")

type Lookup interface {
	Lookup(ctx context.Context, itemType models.ItemType, itemID string) (*models.CatalogItem, error)
}

type StockAdjuster interface {
	DecrementStock(ctx context.Context, itemType models.ItemType, itemID string, qty int) error
}

// Catalog is what the service layer consumes: lookups always, stock changes when the backend supports them.
type Catalog interface {
	Lookup
	StockAdjuster
}

var errReadOnly = errors.New("catalog backend is read-only")

func unknownType(t models.ItemType) error {
	return fmt.Errorf("unknown item type %q", t)
}

// stockDoc carries the availability fields shared by every backend's document.
type stockDoc struct {
	InStock  *bool
	Quantity *int
}

func (s stockDoc) apply(item *models.CatalogItem) {
	item.InStock = s.InStock == nil || *s.InStock
	item.AvailableQuantity = s.Quantity
}
