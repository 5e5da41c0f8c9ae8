// Package redis wraps the go-redis client with the caches the API
// needs: the plan catalog cache, account detail cache and the
// recently-visited repo store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/pkg/logger"
)

// Client wraps redis.Client with additional functionality.
type Client struct {
	client *redis.Client
	logger *logger.Logger
	cfg    *config.RedisConfig
}

// New creates a new Redis client and verifies the connection.
func New(cfg *config.RedisConfig, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("redis config is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected", "addr", cfg.Addr(), "pool_size", cfg.PoolSize)

	return &Client{
		client: client,
		logger: log,
		cfg:    cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	c.logger.Info("closing redis connection")
	return c.client.Close()
}

// Ping checks if Redis is available.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Client returns the underlying redis.Client for advanced operations.
func (c *Client) Client() *redis.Client {
	return c.client
}

// Get retrieves a string value by key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", errors.New("key is required")
	}

	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return val, nil
}

// Set stores a string value with optional TTL.
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return errors.New("key is required")
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Del deletes one or more keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Logger returns the client's logger for use by other redis components.
func (c *Client) Logger() *logger.Logger {
	return c.logger
}
