package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Variant is a purchasable color/size combination of a product with its own stock
type Variant struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id"`
	Color    string             `json:"color" bson:"color"`
	Size     string             `json:"size" bson:"size"`
	Quantity int                `json:"quantity" bson:"quantity"`
	SKU      string             `json:"sku" bson:"sku"`
}

type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Code        string             `json:"code" bson:"code"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Category    string             `json:"category" bson:"category"`
	Price       float64            `json:"price" bson:"price"`
	SalePrice   *float64           `json:"salePrice,omitempty" bson:"salePrice,omitempty"`
	Images      []string           `json:"images" bson:"images"`
	Variants    []Variant          `json:"variants" bson:"variants"`
	IsActive    bool               `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// EffectivePrice is the sale price when one is set and lower than the list price
func (p *Product) EffectivePrice() float64 {
	if p.SalePrice != nil && *p.SalePrice > 0 && *p.SalePrice < p.Price {
		return *p.SalePrice
	}
	return p.Price
}

// FindVariant looks a variant up by SKU or by its id
func (p *Product) FindVariant(id string) *Variant {
	if id == "" {
		return nil
	}
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.SKU == id || (!v.ID.IsZero() && v.ID.Hex() == id) {
			return v
		}
	}
	return nil
}
