package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/retailpos/backend/internal/application/pos"
	"github.com/retailpos/backend/internal/domain/pricing"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

const scanBatchSize = 100

// absentMarker is the stored value for a resolved "no control exists" answer
const absentMarker = "absent"

// RedisControlCache implements pos.ControlCache on Redis, shared across POS
// nodes. Cache failures degrade to misses; the till never fails a sale
// because Redis is down.
type RedisControlCache struct {
	client     *redis.Client
	ownsClient bool
	ttl        time.Duration
	logger     *zap.Logger
}

// RedisControlCacheOption is a functional option for configuring the cache
type RedisControlCacheOption func(*RedisControlCache)

// WithControlTTL sets the entry TTL
func WithControlTTL(ttl time.Duration) RedisControlCacheOption {
	return func(c *RedisControlCache) {
		c.ttl = ttl
	}
}

// WithControlCacheLogger sets the logger for the cache
func WithControlCacheLogger(logger *zap.Logger) RedisControlCacheOption {
	return func(c *RedisControlCache) {
		c.logger = logger
	}
}

// NewRedisControlCache creates a Redis-backed pricing control cache
func NewRedisControlCache(cfg config.RedisConfig, opts ...RedisControlCacheOption) (*RedisControlCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisControlCache{
		client:     client,
		ownsClient: true,
		ttl:        5 * time.Minute,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisControlCacheWithClient creates a cache with an existing Redis
// client. The caller retains ownership of the client.
func NewRedisControlCacheWithClient(client *redis.Client, opts ...RedisControlCacheOption) *RedisControlCache {
	cache := &RedisControlCache{
		client:     client,
		ownsClient: false,
		ttl:        5 * time.Minute,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

var _ pos.ControlCache = (*RedisControlCache)(nil)

func (c *RedisControlCache) cacheKey(productID, branchID uuid.UUID) string {
	return fmt.Sprintf("pricing_control:%s:%s", productID.String(), branchID.String())
}

// Get returns the cached resolution for a product at a branch
func (c *RedisControlCache) Get(ctx context.Context, productID, branchID uuid.UUID) (*pricing.PricingControl, bool) {
	data, err := c.client.Get(ctx, c.cacheKey(productID, branchID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("Failed to read pricing control from cache",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		return nil, false
	}

	if string(data) == absentMarker {
		return nil, true
	}

	var control pricing.PricingControl
	if err := json.Unmarshal(data, &control); err != nil {
		c.logger.Warn("Failed to unmarshal cached pricing control",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		_ = c.client.Del(ctx, c.cacheKey(productID, branchID))
		return nil, false
	}
	return &control, true
}

// Set caches the resolved control; nil caches the absence of a control
func (c *RedisControlCache) Set(ctx context.Context, productID, branchID uuid.UUID, control *pricing.PricingControl) {
	var payload []byte
	if control == nil {
		payload = []byte(absentMarker)
	} else {
		data, err := json.Marshal(control)
		if err != nil {
			c.logger.Warn("Failed to marshal pricing control",
				zap.String("product_id", productID.String()),
				zap.Error(err))
			return
		}
		payload = data
	}

	if err := c.client.Set(ctx, c.cacheKey(productID, branchID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache pricing control",
			zap.String("product_id", productID.String()),
			zap.Error(err))
	}
}

// Invalidate drops every cached resolution for a product across branches
func (c *RedisControlCache) Invalidate(ctx context.Context, productID uuid.UUID) {
	pattern := fmt.Sprintf("pricing_control:%s:*", productID.String())

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			c.logger.Warn("Failed to scan pricing control keys",
				zap.String("product_id", productID.String()),
				zap.Error(err))
			return
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("Failed to delete pricing control keys",
					zap.String("product_id", productID.String()),
					zap.Error(err))
				return
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}

// Close releases the Redis client when the cache owns it
func (c *RedisControlCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
