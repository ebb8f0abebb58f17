package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/models"
	"storefront-service/repository"
	aws_pkg "storefront-service/pkg/aws"
)

type PaymentConfig struct {
	Currency string // ISO code the store charges in
	PayHere  PayHereConfig
}

type PayHereConfig struct {
	MerchantID     string
	MerchantSecret string
	ReturnURL      string
	CancelURL      string
	NotifyURL      string
	Sandbox        bool
}

func (c PayHereConfig) CheckoutURL() string {
	if c.Sandbox {
		return "https://sandbox.payhere.lk/pay/checkout"
	}
	return "https://www.payhere.lk/pay/checkout"
}

// PayHereCheckout carries the fields the storefront posts to PayHere's checkout page
type PayHereCheckout struct {
	CheckoutURL string `json:"checkoutUrl"`
	MerchantID  string `json:"merchant_id"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
	NotifyURL   string `json:"notify_url"`
	OrderID     string `json:"order_id"`
	Items       string `json:"items"`
	Currency    string `json:"currency"`
	Amount      string `json:"amount"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Hash        string `json:"hash"`
}

type StripeIntent struct {
	OrderID         string `json:"orderId"`
	PaymentIntentID string `json:"paymentIntentId"`
	ClientSecret    string `json:"clientSecret"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type PaymentStatusResponse struct {
	OrderID       string               `json:"orderId"`
	Status        models.OrderStatus   `json:"status"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	TransactionID string               `json:"transactionId,omitempty"`
	Payment       *models.Payment      `json:"payment"`
}

type PaymentService interface {
	HandlePayHereNotification(ctx context.Context, n PayHereNotification) error
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error
	ConfirmCOD(ctx context.Context, orderID string) (*models.Order, error)
	GetPaymentStatus(ctx context.Context, orderID string) (*PaymentStatusResponse, error)
	PayHereCheckout(ctx context.Context, orderID string) (*PayHereCheckout, error)
	CreateStripeIntent(ctx context.Context, orderID string) (*StripeIntent, error)
}

type paymentServiceImpl struct {
	orders   repository.OrderRepository
	payments repository.PaymentRepository
	signer   *PayHereSigner
	payhere  PayHereConfig
	currency string
	stripe   StripeGateway
	events   publisher
	topicArn string
	metrics  aws_pkg.MetricsRecorder
	logger   *zap.Logger
}

// NewPaymentService wires the payment flows. stripeGateway may be nil, in
// which case the Stripe endpoints answer 503.
func NewPaymentService(
	orders repository.OrderRepository,
	payments repository.PaymentRepository,
	cfg PaymentConfig,
	stripeGateway StripeGateway,
	snsClient aws_pkg.SNSPublisher,
	paymentTopicArn string,
	metrics aws_pkg.MetricsRecorder,
	log *zap.Logger,
) PaymentService {
	if cfg.Currency == "" {
		cfg.Currency = "LKR"
	}
	return &paymentServiceImpl{
		orders:   orders,
		payments: payments,
		signer:   NewPayHereSigner(cfg.PayHere.MerchantID, cfg.PayHere.MerchantSecret),
		payhere:  cfg.PayHere,
		currency: strings.ToUpper(cfg.Currency),
		stripe:   stripeGateway,
		events:   publisher{sns: snsClient, logger: log},
		topicArn: paymentTopicArn,
		metrics:  metrics,
		logger:   log,
	}
}

// gatewayOutcome is a verified payment result from either gateway
type gatewayOutcome struct {
	OrderID       string
	Method        models.PaymentMethod
	Succeeded     bool
	TransactionID string
	Amount        float64
	Currency      string
	FailureReason string
	Payload       map[string]interface{}
}

// HandlePayHereNotification verifies and applies a PayHere notification. Only a
// signature mismatch is reported back; once verified, persistence problems are
// logged so the gateway gets its OK and does not retry.
func (s *paymentServiceImpl) HandlePayHereNotification(ctx context.Context, n PayHereNotification) error {
	if !s.signer.Verify(n) {
		recordCount(s.metrics, aws_pkg.MetricWebhookRejected, map[string]string{"Gateway": "payhere"})
		s.logger.Warn("PayHere signature mismatch",
			zap.String("order_id", n.OrderID),
			zap.String("status_code", n.StatusCode),
			logger.RequestField(ctx),
		)
		return apperrors.BadRequest("Invalid signature")
	}

	outcome := gatewayOutcome{
		OrderID:       n.OrderID,
		Method:        models.PaymentMethodPayHere,
		TransactionID: n.PaymentID,
		Currency:      n.Currency,
		Payload: map[string]interface{}{
			"merchant_id":      n.MerchantID,
			"order_id":         n.OrderID,
			"payment_id":       n.PaymentID,
			"payhere_amount":   n.Amount,
			"payhere_currency": n.Currency,
			"status_code":      n.StatusCode,
			"status_message":   n.StatusMessage,
			"method":           n.Method,
		},
	}
	if amount, err := decimal.NewFromString(n.Amount); err == nil {
		outcome.Amount = amount.InexactFloat64()
	}

	switch n.StatusCode {
	case PayHereStatusSuccess:
		outcome.Succeeded = true
	case PayHereStatusFailed:
		outcome.FailureReason = n.StatusMessage
		if outcome.FailureReason == "" {
			outcome.FailureReason = "Payment failed"
		}
	default:
		s.logger.Info("Ignoring PayHere notification status",
			zap.String("order_id", n.OrderID),
			zap.String("status_code", n.StatusCode),
			logger.RequestField(ctx),
		)
		return nil
	}

	s.applyOutcome(ctx, outcome)
	return nil
}

// HandleStripeWebhook verifies a Stripe event and applies payment intent outcomes
func (s *paymentServiceImpl) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.stripe == nil {
		return apperrors.New(http.StatusServiceUnavailable, "Stripe payments are not configured", nil)
	}
	event, err := s.stripe.ConstructEvent(payload, signature)
	if err != nil {
		recordCount(s.metrics, aws_pkg.MetricWebhookRejected, map[string]string{"Gateway": "stripe"})
		s.logger.Warn("Stripe webhook signature verification failed", zap.Error(err), logger.RequestField(ctx))
		return apperrors.BadRequest("Invalid signature")
	}

	var succeeded bool
	switch event.Type {
	case "payment_intent.succeeded":
		succeeded = true
	case "payment_intent.payment_failed":
	default:
		s.logger.Info("Unhandled Stripe event type", zap.String("event_type", string(event.Type)), logger.RequestField(ctx))
		return nil
	}

	var pi stripe.PaymentIntent
	if event.Data == nil {
		s.logger.Warn("Stripe event without data", zap.String("event_id", event.ID), logger.RequestField(ctx))
		return nil
	}
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		s.logger.Error("Failed to unmarshal payment intent", zap.String("event_id", event.ID), zap.Error(err), logger.RequestField(ctx))
		return nil
	}
	orderID := pi.Metadata["order_id"]
	if orderID == "" {
		s.logger.Warn("Payment intent without order_id metadata", zap.String("payment_intent_id", pi.ID), logger.RequestField(ctx))
		return nil
	}

	outcome := gatewayOutcome{
		OrderID:       orderID,
		Method:        models.PaymentMethodStripe,
		Succeeded:     succeeded,
		TransactionID: pi.ID,
		Amount:        decimal.New(pi.Amount, -2).InexactFloat64(),
		Currency:      strings.ToUpper(string(pi.Currency)),
		Payload: map[string]interface{}{
			"event_id":          event.ID,
			"event_type":        string(event.Type),
			"payment_intent_id": pi.ID,
			"status":            string(pi.Status),
		},
	}
	if !succeeded {
		outcome.FailureReason = "Payment failed"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			outcome.FailureReason = pi.LastPaymentError.Msg
		}
	}

	s.applyOutcome(ctx, outcome)
	return nil
}

// applyOutcome moves the order to PAID or FAILED and appends a payment record.
// Only a PENDING order (or one already in the target state) changes status;
// the payment record is written either way. Errors are logged, not returned.
func (s *paymentServiceImpl) applyOutcome(ctx context.Context, o gatewayOutcome) {
	fields := []zap.Field{
		zap.String("order_id", o.OrderID),
		zap.String("method", string(o.Method)),
		zap.String("transaction_id", o.TransactionID),
		logger.RequestField(ctx),
	}

	order, err := s.orders.FindByID(ctx, o.OrderID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Payment notification for unknown order", fields...)
		} else {
			s.logger.Error("Failed to load order for payment notification", append(fields, zap.Error(err))...)
		}
		return
	}

	target := models.OrderStatusFailed
	paymentStatus := models.PaymentStatusFailed
	update := repository.OrderUpdate{PaymentMethod: o.Method}
	if o.Succeeded {
		target = models.OrderStatusPaid
		paymentStatus = models.PaymentStatusCompleted
		update.TransactionID = o.TransactionID
	}
	update.Status = target
	update.PaymentStatus = paymentStatus

	if _, err := s.orders.Update(ctx, order.ID, update, models.OrderStatusPending, target); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Order not awaiting payment, status kept",
				append(fields, zap.String("current_status", string(order.Status)), zap.String("target_status", string(target)))...)
		} else {
			s.logger.Error("Failed to update order payment status", append(fields, zap.Error(err))...)
		}
	}

	amount := o.Amount
	if amount == 0 {
		amount = order.TotalAmount
	}
	currency := o.Currency
	if currency == "" {
		currency = s.currency
	}
	payment := &models.Payment{
		OrderID:        order.ID,
		Method:         o.Method,
		Amount:         amount,
		Currency:       currency,
		Status:         paymentStatus,
		TransactionID:  o.TransactionID,
		FailureReason:  o.FailureReason,
		GatewayPayload: o.Payload,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Error("Failed to record payment", append(fields, zap.Error(err))...)
	}

	eventType := EventPaymentFailed
	metric := aws_pkg.MetricPaymentFailed
	if o.Succeeded {
		eventType = EventPaymentCompleted
		metric = aws_pkg.MetricPaymentSucceeded
	}
	s.events.publish(ctx, s.topicArn, eventType, models.PaymentEvent{
		Type:          eventType,
		OrderID:       order.ID.Hex(),
		UserID:        order.UserID,
		Method:        o.Method,
		TransactionID: o.TransactionID,
		Amount:        amount,
		Currency:      currency,
		Timestamp:     time.Now().UTC(),
	})
	recordCount(s.metrics, metric, map[string]string{"Method": string(o.Method)})

	s.logger.Info("Payment outcome recorded", append(fields, zap.String("payment_status", string(paymentStatus)))...)
}

// ConfirmCOD switches an unpaid order to cash on delivery
func (s *paymentServiceImpl) ConfirmCOD(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.payableOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := s.orders.Update(ctx, order.ID, repository.OrderUpdate{
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: models.PaymentMethodCOD,
	}, models.OrderStatusPending, models.OrderStatusFailed)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Conflict("Order is no longer awaiting payment")
		}
		return nil, apperrors.Internal("Failed to update order", err)
	}

	payment := &models.Payment{
		OrderID:  updated.ID,
		Method:   models.PaymentMethodCOD,
		Amount:   updated.TotalAmount,
		Currency: s.currency,
		Status:   models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, apperrors.Internal("Failed to record payment", err)
	}

	s.events.publish(ctx, s.topicArn, EventPaymentCODSelected, models.PaymentEvent{
		Type:      EventPaymentCODSelected,
		OrderID:   updated.ID.Hex(),
		UserID:    updated.UserID,
		Method:    models.PaymentMethodCOD,
		Amount:    updated.TotalAmount,
		Currency:  s.currency,
		Timestamp: time.Now().UTC(),
	})
	recordCount(s.metrics, aws_pkg.MetricCODOrders, nil)

	s.logger.Info("Cash on delivery confirmed", zap.String("order_id", orderID), logger.RequestField(ctx))
	return updated, nil
}

// GetPaymentStatus returns the order's payment fields and its latest payment record, if any
func (s *paymentServiceImpl) GetPaymentStatus(ctx context.Context, orderID string) (*PaymentStatusResponse, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	latest, err := s.payments.FindLatestByOrderID(ctx, order.ID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to fetch payment", err)
	}

	return &PaymentStatusResponse{
		OrderID:       order.ID.Hex(),
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		PaymentMethod: order.PaymentMethod,
		TransactionID: order.TransactionID,
		Payment:       latest,
	}, nil
}

// PayHereCheckout prepares the signed fields for PayHere's hosted checkout
func (s *paymentServiceImpl) PayHereCheckout(ctx context.Context, orderID string) (*PayHereCheckout, error) {
	order, err := s.payableOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if s.payhere.MerchantID == "" || s.payhere.MerchantSecret == "" {
		return nil, apperrors.New(http.StatusServiceUnavailable, "PayHere payments are not configured", nil)
	}

	if err := s.startAttempt(ctx, order, models.PaymentMethodPayHere); err != nil {
		return nil, err
	}

	amount := decimal.NewFromFloat(order.TotalAmount)
	id := order.ID.Hex()
	return &PayHereCheckout{
		CheckoutURL: s.payhere.CheckoutURL(),
		MerchantID:  s.payhere.MerchantID,
		ReturnURL:   s.payhere.ReturnURL,
		CancelURL:   s.payhere.CancelURL,
		NotifyURL:   s.payhere.NotifyURL,
		OrderID:     id,
		Items:       checkoutDescription(order),
		Currency:    s.currency,
		Amount:      FormatAmount(amount),
		FirstName:   order.FirstName,
		LastName:    order.LastName,
		Email:       order.Email,
		Phone:       order.Phone,
		Address:     order.ShippingAddress.AddressLine1,
		City:        order.ShippingAddress.City,
		Country:     order.ShippingAddress.Country,
		Hash:        s.signer.CheckoutHash(id, amount, s.currency),
	}, nil
}

// CreateStripeIntent opens a PaymentIntent for the order total
func (s *paymentServiceImpl) CreateStripeIntent(ctx context.Context, orderID string) (*StripeIntent, error) {
	if s.stripe == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, "Stripe payments are not configured", nil)
	}
	order, err := s.payableOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	amount := decimal.NewFromFloat(order.TotalAmount).Shift(2).Round(0).IntPart()
	currency := strings.ToLower(s.currency)
	pi, err := s.stripe.CreatePaymentIntent(ctx, amount, currency, map[string]string{
		"order_id": order.ID.Hex(),
		"user_id":  order.UserID,
	})
	if err != nil {
		return nil, apperrors.New(http.StatusBadGateway, "Failed to create payment intent", err)
	}

	if err := s.startAttempt(ctx, order, models.PaymentMethodStripe); err != nil {
		return nil, err
	}
	payment := &models.Payment{
		OrderID:       order.ID,
		Method:        models.PaymentMethodStripe,
		Amount:        order.TotalAmount,
		Currency:      strings.ToUpper(currency),
		Status:        models.PaymentStatusPending,
		TransactionID: pi.ID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.logger.Error("Failed to record pending stripe payment", zap.String("order_id", orderID), zap.Error(err), logger.RequestField(ctx))
	}

	return &StripeIntent{
		OrderID:         order.ID.Hex(),
		PaymentIntentID: pi.ID,
		ClientSecret:    pi.ClientSecret,
		Amount:          amount,
		Currency:        currency,
	}, nil
}

func (s *paymentServiceImpl) findOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	return order, nil
}

// payableOrder loads an order that can still start a payment: PENDING, or
// FAILED after an earlier declined attempt.
func (s *paymentServiceImpl) payableOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusFailed {
		return nil, apperrors.Conflict("Order is no longer awaiting payment").
			WithDetails(map[string]interface{}{"status": order.Status})
	}
	return order, nil
}

// startAttempt records the gateway chosen for a new payment attempt. A FAILED
// order goes back to PENDING so the gateway's notification can settle it.
func (s *paymentServiceImpl) startAttempt(ctx context.Context, order *models.Order, method models.PaymentMethod) error {
	if order.Status == models.OrderStatusPending && order.PaymentMethod == method {
		return nil
	}
	_, err := s.orders.Update(ctx, order.ID, repository.OrderUpdate{
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: method,
	}, models.OrderStatusPending, models.OrderStatusFailed)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return apperrors.Conflict("Order is no longer awaiting payment")
		}
		return apperrors.Internal("Failed to update order", err)
	}
	order.Status = models.OrderStatusPending
	order.PaymentStatus = models.PaymentStatusPending
	order.PaymentMethod = method
	return nil
}

func checkoutDescription(order *models.Order) string {
	names := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		names = append(names, item.ProductName)
	}
	desc := strings.Join(names, ", ")
	if desc == "" {
		desc = "Order " + order.ID.Hex()
	}
	return desc
}
