package services

import (
	"context"
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/models"
	"storefront-service/repository"
	aws_pkg "storefront-service/pkg/aws"
)

type ProductList struct {
	Products []models.Product `json:"products"`
	Meta     MetaData         `json:"meta"`
}

// ProductService serves the catalog through the Redis cache. Order placement
// does not use it and always reads MongoDB.
type ProductService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) (*ProductList, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	InvalidateCache(ctx context.Context, productID string) error
}

type productServiceImpl struct {
	products repository.ProductRepository
	cache    *CacheManager
	metrics  aws_pkg.MetricsRecorder
	logger   *zap.Logger
}

// NewProductService builds the catalog service. cache may be nil.
func NewProductService(products repository.ProductRepository, cache *CacheManager, metrics aws_pkg.MetricsRecorder, log *zap.Logger) ProductService {
	return &productServiceImpl{products: products, cache: cache, metrics: metrics, logger: log}
}

func (s *productServiceImpl) ListProducts(ctx context.Context, filter repository.ProductFilter) (*ProductList, error) {
	if s.cache != nil {
		if list, ok := s.cache.GetProductList(ctx, filter); ok {
			recordCount(s.metrics, aws_pkg.MetricProductCacheHit, map[string]string{"Kind": "list"})
			return list, nil
		}
		recordCount(s.metrics, aws_pkg.MetricProductCacheMiss, map[string]string{"Kind": "list"})
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal("Failed to fetch products", err)
	}
	list := &ProductList{Products: products, Meta: newMeta(filter.Page, filter.Limit, total)}

	if s.cache != nil {
		s.cache.SetProductListAsync(filter, list)
	}
	return list, nil
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if s.cache != nil {
		if product, ok := s.cache.GetProduct(ctx, id); ok {
			recordCount(s.metrics, aws_pkg.MetricProductCacheHit, map[string]string{"Kind": "detail"})
			return product, nil
		}
		recordCount(s.metrics, aws_pkg.MetricProductCacheMiss, map[string]string{"Kind": "detail"})
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Internal("Failed to fetch product", err)
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("Product not found")
	}

	if s.cache != nil {
		s.cache.SetProductAsync(id, product)
	}
	return product, nil
}

// InvalidateCache drops cached catalog pages, and the product's own entry when
// productID is set. Used after catalog edits made outside this service.
func (s *productServiceImpl) InvalidateCache(ctx context.Context, productID string) error {
	if s.cache == nil {
		return nil
	}
	var err error
	if productID != "" {
		err = s.cache.InvalidateProduct(ctx, productID)
	} else {
		_, err = s.cache.Invalidate(ctx)
	}
	if err != nil {
		return apperrors.New(http.StatusServiceUnavailable, "Product cache unavailable", err)
	}
	s.logger.Info("Product cache invalidated", zap.String("product_id", productID), logger.RequestField(ctx))
	return nil
}
