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

// PaymentRepository is an append-only log of payment attempts
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindLatestByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error)
}

type MongoPaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	return &MongoPaymentRepository{collection: db.Collection(database.PaymentsCollection)}
}

func (r *MongoPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID.IsZero() {
		payment.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, payment)
	return err
}

func (r *MongoPaymentRepository) FindLatestByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Payment, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	var payment models.Payment
	if err := r.collection.FindOne(ctx, bson.M{"orderId": orderID}, opts).Decode(&payment); err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}
