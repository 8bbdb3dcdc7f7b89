package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/shopcart/internal/models"
)

const (
	productsTable = "products"
	foodsTable    = "foods"
)

// ItemRecord is the row shape of the products and foods tables.
type ItemRecord struct {
	ID       string `gorm:"primaryKey"`
	Name     string
	Price    float64
	ImageURL string
	InStock  *bool
	Quantity *int
}

type GormCatalog struct {
	DB *gorm.DB
}

func tableFor(t models.ItemType) (string, error) {
	switch t {
	case models.ItemTypeProduct:
		return productsTable, nil
	case models.ItemTypeFood:
		return foodsTable, nil
	}
	return "", unknownType(t)
}

func (g *GormCatalog) Migrate() error {
	for _, table := range []string{productsTable, foodsTable} {
		if err := g.DB.Table(table).AutoMigrate(&ItemRecord{}); err != nil {
			return fmt.Errorf("migrate %s: %w", table, err)
		}
	}
	return nil
}

// Put upserts a catalog row; used by seeding and tests.
func (g *GormCatalog) Put(ctx context.Context, itemType models.ItemType, rec ItemRecord) error {
	table, err := tableFor(itemType)
	if err != nil {
		return err
	}
	return g.DB.WithContext(ctx).Table(table).Save(&rec).Error
}

func (g *GormCatalog) Lookup(ctx context.Context, itemType models.ItemType, itemID string) (*models.CatalogItem, error) {
	table, err := tableFor(itemType)
	if err != nil {
		return nil, err
	}

	var rec ItemRecord
	err = g.DB.WithContext(ctx).Table(table).Where("id = ?", itemID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s %s: %w", table, itemID, err)
	}

	item := &models.CatalogItem{
		ID:       rec.ID,
		Type:     itemType,
		Name:     rec.Name,
		Price:    rec.Price,
		ImageURL: rec.ImageURL,
	}
	stockDoc{InStock: rec.InStock, Quantity: rec.Quantity}.apply(item)
	return item, nil
}

func (g *GormCatalog) DecrementStock(ctx context.Context, itemType models.ItemType, itemID string, qty int) error {
	table, err := tableFor(itemType)
	if err != nil {
		return err
	}

	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(table).
			Where("id = ? AND quantity IS NOT NULL", itemID).
			Update("quantity", gorm.Expr("quantity - ?", qty))
		if res.Error != nil {
			return fmt.Errorf("decrement %s %s: %w", table, itemID, res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		err := tx.Table(table).
			Where("id = ? AND quantity <= 0", itemID).
			Updates(map[string]any{"quantity": 0, "in_stock": false}).Error
		if err != nil {
			return fmt.Errorf("mark %s %s out of stock: %w", table, itemID, err)
		}
		return nil
	})
}
