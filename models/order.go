package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusPaid       OrderStatus = "PAID"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusFailed     OrderStatus = "FAILED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "COD"
	PaymentMethodPayHere PaymentMethod = "PAYHERE"
	PaymentMethodStripe  PaymentMethod = "STRIPE"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCOD, PaymentMethodPayHere, PaymentMethodStripe:
		return true
	}
	return false
}

type ShippingAddress struct {
	AddressLine1 string `json:"addressLine1" bson:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty" bson:"addressLine2,omitempty"`
	City         string `json:"city" bson:"city"`
	PostalCode   string `json:"postalCode" bson:"postalCode"`
	Country      string `json:"country,omitempty" bson:"country,omitempty"`
}

// OrderItem is an immutable snapshot of a product line at purchase time
type OrderItem struct {
	ProductID       primitive.ObjectID `json:"productId" bson:"productId"`
	ProductName     string             `json:"productName" bson:"productName"`
	ProductCode     string             `json:"productCode" bson:"productCode"`
	VariantID       string             `json:"variantId" bson:"variantId"`
	Color           string             `json:"color" bson:"color"`
	Size            string             `json:"size" bson:"size"`
	Quantity        int                `json:"quantity" bson:"quantity"`
	PriceAtPurchase float64            `json:"priceAtPurchase" bson:"priceAtPurchase"`
}

type Order struct {
	ID              primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	UserID          string             `json:"userId,omitempty" bson:"userId,omitempty"` // empty for guest checkout
	Email           string             `json:"email" bson:"email"`
	FirstName       string             `json:"firstName" bson:"firstName"`
	LastName        string             `json:"lastName" bson:"lastName"`
	Phone           string             `json:"phone" bson:"phone"`
	ShippingAddress ShippingAddress    `json:"shippingAddress" bson:"shippingAddress"`
	Items           []OrderItem        `json:"items" bson:"items"`
	TotalAmount     float64            `json:"totalAmount" bson:"totalAmount"`
	Status          OrderStatus        `json:"status" bson:"status"`
	PaymentMethod   PaymentMethod      `json:"paymentMethod" bson:"paymentMethod"`
	PaymentStatus   PaymentStatus      `json:"paymentStatus" bson:"paymentStatus"`
	TransactionID   string             `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	CreatedAt       time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// IsGuest reports whether the order was placed without a signed-in user
func (o *Order) IsGuest() bool {
	return o.UserID == ""
}
