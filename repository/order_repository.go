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

// OrderUpdate lists the order fields to overwrite. Empty fields are left as they are.
type OrderUpdate struct {
	Status        models.OrderStatus
	PaymentStatus models.PaymentStatus
	PaymentMethod models.PaymentMethod
	TransactionID string
}

func (u OrderUpdate) set(now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if u.Status != "" {
		set["status"] = u.Status
	}
	if u.PaymentStatus != "" {
		set["paymentStatus"] = u.PaymentStatus
	}
	if u.PaymentMethod != "" {
		set["paymentMethod"] = u.PaymentMethod
	}
	if u.TransactionID != "" {
		set["transactionId"] = u.TransactionID
	}
	return set
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int64, error)
	// Update applies upd and returns the updated order. When fromStatuses is
	// non-empty the order must currently be in one of them, otherwise
	// ErrNotFound is returned and nothing changes.
	Update(ctx context.Context, id primitive.ObjectID, upd OrderUpdate, fromStatuses ...models.OrderStatus) (*models.Order, error)
}

type MongoOrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{collection: db.Collection(database.OrdersCollection)}
}

func (r *MongoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, order)
	return err
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindByUserID retrieves orders for a specific user with pagination
func (r *MongoOrderRepository) FindByUserID(ctx context.Context, userID string, page, limit int) ([]models.Order, int64, error) {
	return r.find(ctx, bson.M{"userId": userID}, page, limit)
}

// FindAll retrieves all orders with pagination, optionally narrowed to one status
func (r *MongoOrderRepository) FindAll(ctx context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter, page, limit)
}

func (r *MongoOrderRepository) find(ctx context.Context, filter bson.M, page, limit int) ([]models.Order, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, filter, pageOptions(page, limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *MongoOrderRepository) Update(ctx context.Context, id primitive.ObjectID, upd OrderUpdate, fromStatuses ...models.OrderStatus) (*models.Order, error) {
	filter := bson.M{"_id": id}
	if len(fromStatuses) > 0 {
		filter["status"] = bson.M{"$in": fromStatuses}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var order models.Order
	err := r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": upd.set(time.Now().UTC())}, opts).Decode(&order)
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}
