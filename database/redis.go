package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient builds a client from a redis:// URL. An unparsable URL falls
// back to localhost. A failed ping is only logged: the product cache degrades
// to MongoDB reads when Redis is away.
func NewRedisClient(redisURL string, log *zap.Logger) *redis.Client {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn("Invalid REDIS_URL, falling back to localhost:6379", zap.Error(err))
		opts = &redis.Options{Addr: "localhost:6379", DB: 0}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis not reachable, product cache disabled until it recovers", zap.Error(err))
	} else {
		log.Info("Connected to Redis", zap.String("addr", opts.Addr))
	}
	return client
}
