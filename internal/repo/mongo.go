package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Skotchmaster/shopcart/internal/models"
	"github.com/Skotchmaster/shopcart/internal/mongodb"
)

type MongoRepo struct {
	DB *mongo.Database
}

func (r *MongoRepo) carts() *mongo.Collection  { return r.DB.Collection(mongodb.CartsCollection) }
func (r *MongoRepo) orders() *mongo.Collection { return r.DB.Collection(mongodb.OrdersCollection) }

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func (r *MongoRepo) GetByUser(ctx context.Context, userID string) (*models.Cart, error) {
	var c models.Cart
	if err := r.carts().FindOne(ctx, bson.M{"userId": userID}).Decode(&c); err != nil {
		return nil, mongoErr(err)
	}
	return &c, nil
}

func (r *MongoRepo) Create(ctx context.Context, c *models.Cart) error {
	_, err := r.carts().InsertOne(ctx, c)
	return mongoErr(err)
}

func (r *MongoRepo) Save(ctx context.Context, c *models.Cart) error {
	res, err := r.carts().ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	_, err := r.orders().InsertOne(ctx, o)
	return mongoErr(err)
}

func (r *MongoRepo) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	if err := r.orders().FindOne(ctx, bson.M{"_id": orderID}).Decode(&o); err != nil {
		return nil, mongoErr(err)
	}
	return &o, nil
}

func (r *MongoRepo) ListOrdersByUser(ctx context.Context, userID string, offset, limit int) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetSkip(int64(offset)).SetLimit(int64(limit))
	}
	cur, err := r.orders().Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	out := []models.Order{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *MongoRepo) SaveOrder(ctx context.Context, o *models.Order) error {
	res, err := r.orders().ReplaceOne(ctx, bson.M{"_id": o.ID}, o)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
