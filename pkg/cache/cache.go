// Package cache provides a Redis-backed cache for analysis verdicts keyed by
// content fingerprint. A cache outage is never an error for callers: lookups
// degrade to misses and writes are dropped.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tarunvipparti/DFS/pkg/lifecycle"
)

// ErrMiss indicates the key is not present in the cache.
var ErrMiss = errors.New("cache miss")

// System manages verdict cache operations and lifecycle coordination.
type System interface {
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
	// Get returns the cached value for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key with the configured TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key from the cache.
	Delete(ctx context.Context, key string) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cache system from the given configuration.
// When no address is configured, a disabled no-op system is returned.
func New(cfg *Config, logger *slog.Logger) System {
	logger = logger.With("system", "cache")

	if !cfg.Enabled() {
		logger.Info("verdict cache disabled, no address configured")
		return &noopCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &redisCache{
		client: client,
		ttl:    cfg.TTLDuration(),
		logger: logger,
	}
}

func (c *redisCache) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting verdict cache")

	lc.OnStartup(func() {
		if err := c.client.Ping(lc.Context()).Err(); err != nil {
			c.logger.Warn("cache ping failed, operating degraded", "error", err)
			return
		}
		c.logger.Info("cache connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := c.client.Close(); err != nil {
			c.logger.Error("cache close failed", "error", err)
		}
	})

	return nil
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		// treat outages as misses so analysis proceeds without the cache
		c.logger.Warn("cache get failed", "key", key, "error", err)
		return nil, ErrMiss
	}
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}

type noopCache struct{}

func (n *noopCache) Start(*lifecycle.Coordinator) error          { return nil }
func (n *noopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }
func (n *noopCache) Set(context.Context, string, []byte) error   { return nil }
func (n *noopCache) Delete(context.Context, string) error        { return nil }
