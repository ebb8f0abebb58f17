package services_test

import (
	"context"
	"net"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"storefront-service/repository"
	"storefront-service/services"
)

func TestProductService_WithoutCache(t *testing.T) {
	tee := noirTee()
	retired := noirTee()
	retired.IsActive = false
	products := newFakeProducts(tee, retired)
	svc := services.NewProductService(products, nil, nil, zap.NewNop())
	ctx := context.Background()

	list, err := svc.ListProducts(ctx, repository.ProductFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list.Products, 1)
	assert.Equal(t, int64(1), list.Meta.Total)
	assert.Equal(t, int64(1), list.Meta.TotalPages)
	assert.False(t, list.Meta.HasMore)

	got, err := svc.GetProduct(ctx, tee.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Noir Tee", got.Name)

	_, err = svc.GetProduct(ctx, retired.ID.Hex())
	requireAppError(t, err, http.StatusNotFound)

	_, err = svc.GetProduct(ctx, "64b7f0c2a1b2c3d4e5f60718")
	requireAppError(t, err, http.StatusNotFound)

	assert.NoError(t, svc.InvalidateCache(ctx, ""))

	products.err = errBoom
	_, err = svc.ListProducts(ctx, repository.ProductFilter{Page: 1, Limit: 10})
	requireAppError(t, err, http.StatusInternalServerError)
}

// unreachableRedis fails every dial, so each command errors immediately
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: "127.0.0.1:6379",
		Dialer: func(context.Context, string, string) (net.Conn, error) {
			return nil, errBoom
		},
		MaxRetries: -1,
	})
}

func TestProductService_RedisDownFallsBackToMongo(t *testing.T) {
	tee := noirTee()
	client := unreachableRedis()
	defer client.Close()
	cache := services.NewCacheManager(client, time.Minute, zap.NewNop())
	svc := services.NewProductService(newFakeProducts(tee), cache, nil, zap.NewNop())
	ctx := context.Background()

	list, err := svc.ListProducts(ctx, repository.ProductFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list.Products, 1)

	got, err := svc.GetProduct(ctx, tee.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, tee.ID, got.ID)

	err = svc.InvalidateCache(ctx, tee.ID.Hex())
	requireAppError(t, err, http.StatusServiceUnavailable)
}

func TestProductService_RedisCache(t *testing.T) {
	if os.Getenv("RUN_REDIS_INTEGRATION") != "true" {
		t.Skip("set RUN_REDIS_INTEGRATION=true to run against a redis container")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	defer func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}()

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	defer client.Close()

	tee := noirTee()
	products := newFakeProducts(tee)
	svc := services.NewProductService(products, services.NewCacheManager(client, time.Minute, zap.NewNop()), nil, zap.NewNop())
	filter := repository.ProductFilter{Page: 1, Limit: 10}

	_, err = svc.ListProducts(ctx, filter)
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, tee.ID.Hex())
	require.NoError(t, err)

	// with Mongo failing, only cached pages can answer
	products.err = errBoom
	require.Eventually(t, func() bool {
		_, listErr := svc.ListProducts(ctx, filter)
		_, getErr := svc.GetProduct(ctx, tee.ID.Hex())
		return listErr == nil && getErr == nil
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, svc.InvalidateCache(ctx, tee.ID.Hex()))
	_, err = svc.ListProducts(ctx, filter)
	requireAppError(t, err, http.StatusInternalServerError)
	_, err = svc.GetProduct(ctx, tee.ID.Hex())
	requireAppError(t, err, http.StatusInternalServerError)

	version, err := client.Get(ctx, services.CacheVersionKey).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
}
