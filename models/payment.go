package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment records one payment attempt for an order
type Payment struct {
	ID             primitive.ObjectID     `json:"_id" bson:"_id,omitempty"`
	OrderID        primitive.ObjectID     `json:"orderId" bson:"orderId"`
	Method         PaymentMethod          `json:"method" bson:"method"`
	Amount         float64                `json:"amount" bson:"amount"`
	Currency       string                 `json:"currency" bson:"currency"`
	Status         PaymentStatus          `json:"status" bson:"status"`
	TransactionID  string                 `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	FailureReason  string                 `json:"failureReason,omitempty" bson:"failureReason,omitempty"`
	GatewayPayload map[string]interface{} `json:"gatewayPayload,omitempty" bson:"gatewayPayload,omitempty"`
	CreatedAt      time.Time              `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt" bson:"updatedAt"`
}

// PaymentEvent is published to SNS whenever a payment outcome is recorded
type PaymentEvent struct {
	Type          string        `json:"type"` // payment.completed | payment.failed | payment.cod_selected
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id,omitempty"`
	Method        PaymentMethod `json:"method"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Timestamp     time.Time     `json:"timestamp"`
}

// OrderEvent is published to SNS when an order is placed
type OrderEvent struct {
	Type          string        `json:"type"` // order.created
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id,omitempty"`
	Email         string        `json:"email"`
	TotalAmount   float64       `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	ItemCount     int           `json:"item_count"`
	Timestamp     time.Time     `json:"timestamp"`
}
