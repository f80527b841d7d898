package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const (
	// Redis key prefix for raw dataset text
	cacheKeyPrefix = "civiclens:csv:"
	// DefaultCacheTTL bounds how stale a cached file may be.
	DefaultCacheTTL = time.Hour
)

// ============================================================================
// REDIS CLIENT
// ============================================================================

// Client wraps the go-redis client with health checking capabilities.
type Client struct {
	*redis.Client
}

// NewRedisClient connects to url. Returns nil if url is empty (Redis not configured).
func NewRedisClient(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}

// ============================================================================
// READ-THROUGH CACHE
// ============================================================================

// KV is the subset of the Redis command set the cache needs.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisCache serves raw CSV text from Redis and falls through to Next on a
// miss. Redis errors degrade to Next; they never fail a fetch.
type RedisCache struct {
	kv      KV
	next    Fetcher
	ttl     time.Duration
	logger  *slog.Logger
	lookups *prometheus.CounterVec
}

// RedisCacheOption configures a RedisCache instance.
type RedisCacheOption func(*RedisCache)

// WithCacheTTL overrides DefaultCacheTTL. Non-positive values are ignored.
func WithCacheTTL(ttl time.Duration) RedisCacheOption {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger routes cache warnings to logger.
func WithCacheLogger(logger *slog.Logger) RedisCacheOption {
	return func(c *RedisCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheMetrics registers the lookup counter
// (civiclens_csv_cache_lookups_total by result: hit, miss, error) with reg.
func WithCacheMetrics(reg prometheus.Registerer) RedisCacheOption {
	return func(c *RedisCache) {
		if reg == nil {
			return
		}
		c.lookups = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "civiclens_csv_cache_lookups_total",
			Help: "Raw CSV cache lookups by result (hit, miss, error)",
		}, []string{"result"})
	}
}

// NewRedisCache wraps next with a Redis read-through cache.
func NewRedisCache(kv KV, next Fetcher, opts ...RedisCacheOption) *RedisCache {
	c := &RedisCache{
		kv:     kv,
		next:   next,
		ttl:    DefaultCacheTTL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Fetch returns the cached text of name or fetches and stores it.
func (c *RedisCache) Fetch(ctx context.Context, name string) ([]byte, error) {
	key := cacheKeyPrefix + name

	data, err := c.kv.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		c.count("hit")
		return data, nil
	case errors.Is(err, redis.Nil):
		c.count("miss")
	default:
		c.count("error")
		c.logger.Warn("csv cache read failed", "key", key, "error", err)
	}

	data, err = c.next.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := c.kv.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("csv cache write failed", "key", key, "error", err)
	}
	return data, nil
}

func (c *RedisCache) count(result string) {
	if c.lookups != nil {
		c.lookups.WithLabelValues(result).Inc()
	}
}
