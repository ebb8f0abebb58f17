package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CartItem struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id"`
	ProductID primitive.ObjectID `json:"productId" bson:"productId"`
	VariantID string             `json:"variantId" bson:"variantId"`
	Quantity  int                `json:"quantity" bson:"quantity"`
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
}

// Cart is a per-user convenience copy of what the shopper intends to buy.
// Orders never read prices from it.
type Cart struct {
	ID        primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID    string             `json:"userId" bson:"userId"`
	Items     []CartItem         `json:"items" bson:"items"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}
