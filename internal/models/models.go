package models

import (
	"math"
	"time"
)

type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeFood    ItemType = "food"
)

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeProduct, ItemTypeFood:
		return true
	}
	return false
}

const (
	UnknownItemName = "Unknown Item"
)

type Line struct {
	ID       string   `bson:"_id"      json:"_id"`
	ItemID   string   `bson:"itemId"   json:"itemId"`
	ItemType ItemType `bson:"itemType" json:"itemType"`
	Name     string   `bson:"name"     json:"name"`
	Price    float64  `bson:"price"    json:"price"`
	ImageURL string   `bson:"imageUrl" json:"imageUrl"`
	Quantity int      `bson:"quantity" json:"quantity"`
}

type Cart struct {
	ID         string    `bson:"_id"        json:"_id"`
	UserID     string    `bson:"userId"     json:"user"`
	Lines      []Line    `bson:"items"      json:"items"`
	TotalPrice float64   `bson:"totalPrice" json:"totalPrice"`
	CreatedAt  time.Time `bson:"createdAt"  json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"  json:"updatedAt"`
}

// LineIndex returns the position of the line with the given surrogate id, or -1.
func (c *Cart) LineIndex(lineID string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// ItemIndex returns the position of the line holding (itemID, itemType), or -1.
func (c *Cart) ItemIndex(itemID string, itemType ItemType) int {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID && c.Lines[i].ItemType == itemType {
			return i
		}
	}
	return -1
}

func (c *Cart) RemoveLine(i int) {
	c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
}

// RecomputeTotal is the only place the cart total is derived.
// Lines with a non-finite price or a non-positive quantity add nothing.
func RecomputeTotal(lines []Line) float64 {
	var total float64
	for _, l := range lines {
		if l.Quantity <= 0 || math.IsNaN(l.Price) || math.IsInf(l.Price, 0) {
			continue
		}
		total += l.Price * float64(l.Quantity)
	}
	return total
}

type CartSnapshot struct {
	CartID     string  `json:"cartId"`
	UserID     string  `json:"user"`
	Lines      []Line  `json:"items"`
	TotalPrice float64 `json:"totalPrice"`
}

// Snapshot copies the cart lines so later cart mutations do not leak into it.
func (c *Cart) Snapshot() CartSnapshot {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return CartSnapshot{
		CartID:     c.ID,
		UserID:     c.UserID,
		Lines:      lines,
		TotalPrice: RecomputeTotal(lines),
	}
}

type CatalogItem struct {
	ID       string   `json:"id"`
	Type     ItemType `json:"type"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	ImageURL string   `json:"imageUrl"`
	InStock  bool     `json:"inStock"`
	// nil means unbounded
	AvailableQuantity *int `json:"availableQuantity,omitempty"`
}

func (i *CatalogItem) CanSupply(quantity int) bool {
	if !i.InStock {
		return false
	}
	return i.AvailableQuantity == nil || *i.AvailableQuantity >= quantity
}

// NewLine builds a line snapshot, defaulting the fields the catalog left empty.
func (i *CatalogItem) NewLine(id string, quantity int) Line {
	name := i.Name
	if name == "" {
		name = UnknownItemName
	}
	price := i.Price
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		price = 0
	}
	return Line{
		ID:       id,
		ItemID:   i.ID,
		ItemType: i.Type,
		Name:     name,
		Price:    price,
		ImageURL: i.ImageURL,
		Quantity: quantity,
	}
}
