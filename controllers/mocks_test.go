package controllers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storefront-service/models"
	"storefront-service/repository"
	"storefront-service/services"
)

// --- Order service ---

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) CreateOrder(ctx context.Context, userID string, req *services.CreateOrderRequest) (*models.Order, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) GetUserOrders(ctx context.Context, userID string, page, limit int) (*services.OrderList, error) {
	args := m.Called(ctx, userID, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OrderList), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, userID string, isAdmin bool, orderID string) (*models.Order, error) {
	args := m.Called(ctx, userID, isAdmin, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, status models.OrderStatus, page, limit int) (*services.OrderList, error) {
	args := m.Called(ctx, status, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.OrderList), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	args := m.Called(ctx, orderID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

// --- Payment service ---

type MockPaymentService struct{ mock.Mock }

func (m *MockPaymentService) HandlePayHereNotification(ctx context.Context, n services.PayHereNotification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockPaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *MockPaymentService) ConfirmCOD(ctx context.Context, orderID string) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockPaymentService) GetPaymentStatus(ctx context.Context, orderID string) (*services.PaymentStatusResponse, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PaymentStatusResponse), args.Error(1)
}

func (m *MockPaymentService) PayHereCheckout(ctx context.Context, orderID string) (*services.PayHereCheckout, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PayHereCheckout), args.Error(1)
}

func (m *MockPaymentService) CreateStripeIntent(ctx context.Context, orderID string) (*services.StripeIntent, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.StripeIntent), args.Error(1)
}

// --- Cart service ---

type MockCartService struct{ mock.Mock }

func (m *MockCartService) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, userID string, req *services.AddCartItemRequest) (*models.Cart, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartService) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	args := m.Called(ctx, userID, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}

func (m *MockCartService) ClearCart(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// --- Product service ---

type MockProductService struct{ mock.Mock }

func (m *MockProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) (*services.ProductList, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProductList), args.Error(1)
}

func (m *MockProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) InvalidateCache(ctx context.Context, productID string) error {
	return m.Called(ctx, productID).Error(0)
}
