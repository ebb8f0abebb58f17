package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/models"
	"storefront-service/repository"
)

type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	VariantID string `json:"variantId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	AddItem(ctx context.Context, userID string, req *AddCartItemRequest) (*models.Cart, error)
	UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type cartServiceImpl struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *zap.Logger
}

func NewCartService(carts repository.CartRepository, products repository.ProductRepository, log *zap.Logger) CartService {
	return &cartServiceImpl{carts: carts, products: products, logger: log}
}

// GetCart returns the user's cart, or an empty one when none has been created yet
func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return s.load(ctx, userID)
}

// AddItem adds a line or tops up the existing line for the same product and variant
func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, req *AddCartItemRequest) (*models.Cart, error) {
	if req.Quantity < 1 {
		return nil, apperrors.BadRequest("Quantity must be at least 1")
	}
	product, variant, err := s.lookup(ctx, strings.TrimSpace(req.ProductID), strings.TrimSpace(req.VariantID))
	if err != nil {
		return nil, err
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	var line *models.CartItem
	for i := range cart.Items {
		if cart.Items[i].ProductID == product.ID && product.FindVariant(cart.Items[i].VariantID) == variant {
			line = &cart.Items[i]
			break
		}
	}

	wanted := req.Quantity
	if line != nil {
		wanted += line.Quantity
	}
	if wanted > variant.Quantity {
		return nil, insufficientStock(product, variant, wanted)
	}

	if line != nil {
		line.Quantity = wanted
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			ID:        primitive.NewObjectID(),
			ProductID: product.ID,
			VariantID: strings.TrimSpace(req.VariantID),
			Quantity:  req.Quantity,
			AddedAt:   time.Now().UTC(),
		})
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	s.logger.Info("Cart item added",
		zap.String("user_id", userID),
		zap.String("product_id", product.ID.Hex()),
		zap.Int("quantity", wanted),
		logger.RequestField(ctx),
	)
	return cart, nil
}

func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 1 {
		return nil, apperrors.BadRequest("Quantity must be at least 1")
	}
	cart, idx, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	item := &cart.Items[idx]
	product, variant, err := s.lookup(ctx, item.ProductID.Hex(), item.VariantID)
	if err != nil {
		return nil, err
	}
	if quantity > variant.Quantity {
		return nil, insufficientStock(product, variant, quantity)
	}

	item.Quantity = quantity
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID, itemID string) (*models.Cart, error) {
	cart, idx, err := s.findItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, apperrors.Internal("Failed to update cart", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, userID string) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return apperrors.Internal("Failed to clear cart", err)
	}
	return nil
}

func (s *cartServiceImpl) load(ctx context.Context, userID string) (*models.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return &models.Cart{UserID: userID, Items: []models.CartItem{}}, nil
		}
		return nil, apperrors.Internal("Failed to load cart", err)
	}
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func (s *cartServiceImpl) findItem(ctx context.Context, userID, itemID string) (*models.Cart, int, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	for i, item := range cart.Items {
		if item.ID.Hex() == itemID {
			return cart, i, nil
		}
	}
	return nil, 0, apperrors.NotFound("Cart item not found")
}

func (s *cartServiceImpl) lookup(ctx context.Context, productID, variantID string) (*models.Product, *models.Variant, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound("Product not found: " + productID)
		}
		return nil, nil, apperrors.Internal("Failed to load product", err)
	}
	variant := product.FindVariant(variantID)
	if variant == nil {
		return nil, nil, apperrors.NotFound("Variant not found")
	}
	return product, variant, nil
}

func insufficientStock(product *models.Product, variant *models.Variant, requested int) error {
	return apperrors.BadRequest("Insufficient stock for " + product.Name).
		WithDetails(map[string]interface{}{
			"productName": product.Name,
			"variantId":   variant.SKU,
			"requested":   requested,
			"available":   variant.Quantity,
		})
}
