package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type IndexConfig struct {
	CollectionName string
	IndexModel     mongo.IndexModel
}

var requiredIndexes = []IndexConfig{
	{
		// one cart per user
		CollectionName: CartsCollection,
		IndexModel: mongo.IndexModel{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_cart_user_unique"),
		},
	},
	{
		CollectionName: OrdersCollection,
		IndexModel: mongo.IndexModel{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "createdAt", Value: -1},
			},
			Options: options.Index().SetName("idx_order_user_created"),
		},
	},
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, idx := range requiredIndexes {
		if _, err := db.Collection(idx.CollectionName).Indexes().CreateOne(ctx, idx.IndexModel); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.CollectionName, err)
		}
	}
	return nil
}
