package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/models"
	"storefront-service/repository"
	aws_pkg "storefront-service/pkg/aws"
)

type CreateOrderItem struct {
	ProductID string `json:"productId"`
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	Email           string                  `json:"email"`
	FirstName       string                  `json:"firstName"`
	LastName        string                  `json:"lastName"`
	Phone           string                  `json:"phone"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	Items           []CreateOrderItem       `json:"items"`
	PaymentMethod   models.PaymentMethod    `json:"paymentMethod"`
}

type OrderList struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

// OrderService defines order placement, history and the admin order desk
type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req *CreateOrderRequest) (*models.Order, error)
	GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderList, error)
	GetOrderByID(ctx context.Context, userID string, isAdmin bool, orderID string) (*models.Order, error)
	ListOrders(ctx context.Context, status models.OrderStatus, page, limit int) (*OrderList, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error)
}

type orderServiceImpl struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	carts    repository.CartRepository
	events   publisher
	topicArn string
	metrics  aws_pkg.MetricsRecorder
	logger   *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	carts repository.CartRepository,
	snsClient aws_pkg.SNSPublisher,
	orderTopicArn string,
	metrics aws_pkg.MetricsRecorder,
	log *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		orders:   orders,
		products: products,
		carts:    carts,
		events:   publisher{sns: snsClient, logger: log},
		topicArn: orderTopicArn,
		metrics:  metrics,
		logger:   log,
	}
}

// orderLine is one requested line before it is checked against the catalog
type orderLine struct {
	ProductID string
	VariantID string
	Quantity  int
}

// CreateOrder validates the request, resolves its items, checks stock and
// persists a PENDING order. Nothing is written unless every line passes.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, userID string, req *CreateOrderRequest) (*models.Order, error) {
	if err := validateCreateOrder(req); err != nil {
		s.rejected("validation")
		return nil, err
	}

	lines, fromCart, err := s.resolveLines(ctx, userID, req)
	if err != nil {
		s.rejected("items")
		return nil, err
	}

	items, total, err := s.assemble(ctx, lines)
	if err != nil {
		s.rejected("assembly")
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = models.PaymentMethodCOD
	}

	order := &models.Order{
		UserID:          userID,
		Email:           strings.TrimSpace(req.Email),
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		Phone:           strings.TrimSpace(req.Phone),
		ShippingAddress: *req.ShippingAddress,
		Items:           items,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentMethod:   method,
		PaymentStatus:   models.PaymentStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.Internal("Failed to create order", err)
	}

	if fromCart {
		if err := s.carts.Clear(ctx, userID); err != nil {
			s.logger.Error("Failed to clear cart after order",
				zap.String("user_id", userID),
				zap.String("order_id", order.ID.Hex()),
				zap.Error(err),
				logger.RequestField(ctx),
			)
		}
	}

	s.events.publish(ctx, s.topicArn, EventOrderCreated, models.OrderEvent{
		Type:          EventOrderCreated,
		OrderID:       order.ID.Hex(),
		UserID:        userID,
		Email:         order.Email,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		ItemCount:     len(order.Items),
		Timestamp:     order.CreatedAt,
	})
	recordCount(s.metrics, aws_pkg.MetricOrdersCreated, map[string]string{"PaymentMethod": string(method)})

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.Hex()),
		zap.Bool("guest", order.IsGuest()),
		zap.Bool("from_cart", fromCart),
		zap.Float64("total", order.TotalAmount),
		logger.RequestField(ctx),
	)
	return order, nil
}

func (s *orderServiceImpl) rejected(reason string) {
	recordCount(s.metrics, aws_pkg.MetricOrdersRejected, map[string]string{"Reason": reason})
}

func validateCreateOrder(req *CreateOrderRequest) error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"email", req.Email},
		{"firstName", req.FirstName},
		{"lastName", req.LastName},
		{"phone", req.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if req.ShippingAddress == nil {
		missing = append(missing, "shippingAddress")
	} else {
		addr := req.ShippingAddress
		if strings.TrimSpace(addr.AddressLine1) == "" {
			missing = append(missing, "shippingAddress.addressLine1")
		}
		if strings.TrimSpace(addr.City) == "" {
			missing = append(missing, "shippingAddress.city")
		}
		if strings.TrimSpace(addr.PostalCode) == "" {
			missing = append(missing, "shippingAddress.postalCode")
		}
	}
	if len(missing) > 0 {
		return apperrors.BadRequest("Missing required fields").WithDetails(map[string]interface{}{"missingFields": missing})
	}

	for i, item := range req.Items {
		var field string
		switch {
		case strings.TrimSpace(item.ProductID) == "":
			field = "productId"
		case strings.TrimSpace(item.VariantID) == "":
			field = "variantId"
		case item.Quantity < 1:
			field = "quantity"
		default:
			continue
		}
		return apperrors.BadRequest(fmt.Sprintf("Invalid item at index %d", i)).
			WithDetails(map[string]interface{}{"index": i, "field": field})
	}

	if req.PaymentMethod != "" && !req.PaymentMethod.Valid() {
		return apperrors.BadRequest("Invalid payment method").
			WithDetails(map[string]interface{}{"paymentMethod": req.PaymentMethod})
	}
	return nil
}

// resolveLines picks the item source. Items in the body win over a stored
// cart; the stored cart is only used, and later cleared, when the body has none.
func (s *orderServiceImpl) resolveLines(ctx context.Context, userID string, req *CreateOrderRequest) ([]orderLine, bool, error) {
	if len(req.Items) > 0 {
		lines := make([]orderLine, 0, len(req.Items))
		for _, item := range req.Items {
			lines = append(lines, orderLine{
				ProductID: strings.TrimSpace(item.ProductID),
				VariantID: strings.TrimSpace(item.VariantID),
				Quantity:  item.Quantity,
			})
		}
		return lines, false, nil
	}

	if userID == "" {
		return nil, false, apperrors.BadRequest("No items provided")
	}

	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		return nil, false, apperrors.Internal("Failed to load cart", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, false, apperrors.BadRequest("Cart is empty")
	}

	lines := make([]orderLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, orderLine{
			ProductID: item.ProductID.Hex(),
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	return lines, true, nil
}

// assemble snapshots every line against the current catalog. The stock check
// is advisory: variant quantities are read, never decremented or reserved.
func (s *orderServiceImpl) assemble(ctx context.Context, lines []orderLine) ([]models.OrderItem, float64, error) {
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		product, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return nil, 0, apperrors.NotFound("Product not found: " + line.ProductID)
			}
			return nil, 0, apperrors.Internal("Failed to load product", err)
		}

		variant := product.FindVariant(line.VariantID)
		if variant == nil {
			return nil, 0, apperrors.NotFound("Variant not found").
				WithDetails(map[string]interface{}{"productId": line.ProductID, "variantId": line.VariantID})
		}

		if line.Quantity > variant.Quantity {
			return nil, 0, insufficientStock(product, variant, line.Quantity)
		}

		unit := decimal.NewFromFloat(product.EffectivePrice())
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(line.Quantity))))

		items = append(items, models.OrderItem{
			ProductID:       product.ID,
			ProductName:     product.Name,
			ProductCode:     product.Code,
			VariantID:       line.VariantID,
			Color:           variant.Color,
			Size:            variant.Size,
			Quantity:        line.Quantity,
			PriceAtPurchase: unit.InexactFloat64(),
		})
	}

	return items, total.Round(2).InexactFloat64(), nil
}

// GetUserOrders retrieves paginated orders for a specific user
func (s *orderServiceImpl) GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderList, error) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return &OrderList{Orders: orders, Meta: newMeta(page, limit, total)}, nil
}

// GetOrderByID returns an order to its owner or to an admin
func (s *orderServiceImpl) GetOrderByID(ctx context.Context, userID string, isAdmin bool, orderID string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to fetch order", err)
	}
	if !isAdmin && order.UserID != userID {
		s.logger.Warn("Order access denied",
			zap.String("order_id", orderID),
			zap.String("user_id", userID),
			logger.RequestField(ctx),
		)
		return nil, apperrors.Forbidden("Access denied")
	}
	return order, nil
}

// ListOrders retrieves paginated orders for all users (admin only)
func (s *orderServiceImpl) ListOrders(ctx context.Context, status models.OrderStatus, page, limit int) (*OrderList, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.BadRequest("Invalid order status")
	}
	orders, total, err := s.orders.FindAll(ctx, status, page, limit)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch orders", err)
	}
	return &OrderList{Orders: orders, Meta: newMeta(page, limit, total)}, nil
}

// UpdateOrderStatus is the admin override. Payment fields are left alone.
func (s *orderServiceImpl) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperrors.BadRequest("Invalid order status").
			WithDetails(map[string]interface{}{"status": status})
	}
	oid, err := primitive.ObjectIDFromHex(orderID)
	if err != nil {
		return nil, apperrors.NotFound("Order not found")
	}

	order, err := s.orders.Update(ctx, oid, repository.OrderUpdate{Status: status})
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Order not found")
		}
		return nil, apperrors.Internal("Failed to update order", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID),
		zap.String("status", string(status)),
		logger.RequestField(ctx),
	)
	return order, nil
}
