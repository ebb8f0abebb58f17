package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"storefront-service/models"
	"storefront-service/repository"
)

const (
	ProductCachePrefix     = "product:detail:"
	ProductListCachePrefix = "products:v:"
	CacheVersionKey        = "products:version"

	DefaultCacheTTL = 10 * time.Minute
)

// CacheManager keeps product pages and product details in Redis. List keys
// embed a version number, so bumping the version retires every cached page at once.
type CacheManager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheManager(client *redis.Client, ttl time.Duration, log *zap.Logger) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{redis: client, ttl: ttl, logger: log}
}

// GetProductList retrieves a cached product page
func (cm *CacheManager) GetProductList(ctx context.Context, filter repository.ProductFilter) (*ProductList, bool) {
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}

	cached, err := cm.redis.Get(ctx, listCacheKey(version, filter)).Bytes()
	if err != nil {
		return nil, false
	}

	var list ProductList
	if err := json.Unmarshal(cached, &list); err != nil {
		cm.logger.Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, false
	}
	return &list, true
}

// SetProductListAsync caches a product page without holding up the request
func (cm *CacheManager) SetProductListAsync(filter repository.ProductFilter, list *ProductList) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil {
			return
		}
		body, err := json.Marshal(list)
		if err != nil {
			cm.logger.Warn("Failed to marshal product list for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(bgCtx, listCacheKey(version, filter), body, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache product list", zap.Error(err))
		}
	}()
}

func (cm *CacheManager) GetProduct(ctx context.Context, productID string) (*models.Product, bool) {
	cached, err := cm.redis.Get(ctx, ProductCachePrefix+productID).Bytes()
	if err != nil {
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal(cached, &product); err != nil {
		cm.logger.Warn("Failed to unmarshal cached product", zap.Error(err), zap.String("product_id", productID))
		return nil, false
	}
	return &product, true
}

// SetProductAsync caches a single product asynchronously
func (cm *CacheManager) SetProductAsync(productID string, product *models.Product) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		body, err := json.Marshal(product)
		if err != nil {
			cm.logger.Warn("Failed to marshal product for cache", zap.Error(err), zap.String("product_id", productID))
			return
		}
		if err := cm.redis.Set(bgCtx, ProductCachePrefix+productID, body, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache product", zap.Error(err), zap.String("product_id", productID))
		}
	}()
}

// Invalidate retires all cached product pages by bumping the version
func (cm *CacheManager) Invalidate(ctx context.Context) (int64, error) {
	version, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cache: %w", err)
	}
	cm.logger.Info("Product cache invalidated", zap.Int64("new_version", version))
	return version, nil
}

// InvalidateProduct retires the list pages and the detail entry of one product
func (cm *CacheManager) InvalidateProduct(ctx context.Context, productID string) error {
	if _, err := cm.Invalidate(ctx); err != nil {
		return err
	}
	if err := cm.redis.Del(ctx, ProductCachePrefix+productID).Err(); err != nil {
		return fmt.Errorf("failed to delete product cache: %w", err)
	}
	return nil
}

// getCacheVersion reads the list cache version, initialising it on first use
func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 2

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		if errors.Is(err, redis.Nil) {
			if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err == nil {
				continue
			}
		}
		lastErr = err
		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries: %v", maxRetries, lastErr)
}

func listCacheKey(version int64, filter repository.ProductFilter) string {
	return fmt.Sprintf("%s%d:p:%d:l:%d:c:%s:s:%s",
		ProductListCachePrefix,
		version,
		filter.Page,
		filter.Limit,
		filter.Category,
		strings.ToLower(filter.Search),
	)
}
