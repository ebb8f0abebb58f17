package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-service/database"
	"storefront-service/models"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Clear(ctx context.Context, userID string) error
}

type MongoCartRepository struct {
	collection *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection(database.CartsCollection)}
}

func (r *MongoCartRepository) FindByUserID(ctx context.Context, userID string) (*models.Cart, error) {
	var cart models.Cart
	if err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
		return nil, notFound(err)
	}
	return &cart, nil
}

// Save upserts the cart keyed by its user, creating the document on first use
func (r *MongoCartRepository) Save(ctx context.Context, cart *models.Cart) error {
	now := time.Now().UTC()
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	update := bson.M{
		"$set":         bson.M{"items": cart.Items, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"userId": cart.UserID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok && cart.ID.IsZero() {
		cart.ID = oid
	}
	return nil
}

// Clear empties the cart but keeps the document
func (r *MongoCartRepository) Clear(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{"items": []models.CartItem{}, "updatedAt": time.Now().UTC()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update)
	return err
}
