package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/mongodb"
)

type MongoCatalog struct {
	DB *mongo.Database
}

type mongoItem struct {
	ID       bson.ObjectID `bson:"_id"`
	Name     string        `bson:"name"`
	Price    float64       `bson:"price"`
	ImageURL string        `bson:"imageUrl"`
	InStock  *bool         `bson:"inStock"`
	Quantity *int          `bson:"quantity"`
}

func (m *MongoCatalog) collection(t models.ItemType) (*mongo.Collection, error) {
	switch t {
	case models.ItemTypeProduct:
		return m.DB.Collection(mongodb.ProductsCollection), nil
	case models.ItemTypeFood:
		return m.DB.Collection(mongodb.FoodsCollection), nil
	}
	return nil, unknownType(t)
}

func (m *MongoCatalog) Lookup(ctx context.Context, itemType models.ItemType, itemID string) (*models.CatalogItem, error) {
	coll, err := m.collection(itemType)
	if err != nil {
		return nil, err
	}
	oid, err := bson.ObjectIDFromHex(itemID)
	if err != nil {
		// not an id this store could ever hold
		return nil, ErrNotFound
	}

	var doc mongoItem
	err = coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", itemType, itemID, err)
	}

	item := &models.CatalogItem{
		ID:       itemID,
		Type:     itemType,
		Name:     doc.Name,
		Price:    doc.Price,
		ImageURL: doc.ImageURL,
	}
	stockDoc{InStock: doc.InStock, Quantity: doc.Quantity}.apply(item)
	return item, nil
}

func (m *MongoCatalog) DecrementStock(ctx context.Context, itemType models.ItemType, itemID string, qty int) error {
	coll, err := m.collection(itemType)
	if err != nil {
		return err
	}
	oid, err := bson.ObjectIDFromHex(itemID)
	if err != nil {
		return ErrNotFound
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid, "quantity": bson.M{"$type": "number"}},
		bson.M{"$inc": bson.M{"quantity": -qty}},
	)
	if err != nil {
		return fmt.Errorf("decrement %s %s: %w", itemType, itemID, err)
	}
	if res.MatchedCount == 0 {
		return nil
	}

	_, err = coll.UpdateOne(ctx,
		bson.M{"_id": oid, "quantity": bson.M{"$lte": 0}},
		bson.M{"$set": bson.M{"inStock": false, "quantity": 0}},
	)
	if err != nil {
		return fmt.Errorf("mark %s %s out of stock: %w", itemType, itemID, err)
	}
	return nil
}
