package repository

import (
	"context"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront-service/database"
	"storefront-service/models"
)

type ProductFilter struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// ProductRepository is read-only: catalog writes belong to the admin tooling
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
}

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection(database.ProductsCollection)}
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// List returns active products newest first along with the total match count
func (r *MongoProductRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error) {
	query := bson.M{"isActive": true}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"code": pattern},
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	cursor, err := r.collection.Find(ctx, query, pageOptions(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func containsPattern(s string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
}
