package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-mirror/internal/models"

	"github.com/go-redis/redis/v8"
)

const exportKeyPrefix = "catalog:export:"

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewClient creates a new Redis client. ttl bounds how long an export
// survives without an invalidating sync.
func NewClient(addr, password string, db int, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb, ttl: ttl}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// GetExport returns a cached export. A miss is not an error.
func (c *Client) GetExport(ctx context.Context, resource string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, exportKey(resource)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get export %s: %w", resource, err)
	}
	return data, true, nil
}

// SetExport caches a serialized export
func (c *Client) SetExport(ctx context.Context, resource string, data []byte) error {
	if err := c.rdb.Set(ctx, exportKey(resource), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set export %s: %w", resource, err)
	}
	return nil
}

// InvalidateExports drops every cached export. Both resources go together
// since the order export embeds product ids.
func (c *Client) InvalidateExports(ctx context.Context) error {
	keys := []string{exportKey(models.ResourceProducts), exportKey(models.ResourceOrders)}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate exports: %w", err)
	}
	return nil
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, lockName(lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, lockName(lockKey)).Err()
}

func exportKey(resource string) string {
	return exportKeyPrefix + resource
}

func lockName(key string) string {
	return fmt.Sprintf("lock:%s", key)
}
