package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"stationery-store/internal/rush"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/decrement_stock.lua
var decrementStockScript string

// Client is a thin cache over Redis for stock levels and rush maps.
type Client struct {
	rdb             *redis.Client
	decrementScript *redis.Script
}

// NewClient creates a new Redis client with the decrement script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:             rdb,
		decrementScript: redis.NewScript(decrementStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(itemID int64) string {
	return fmt.Sprintf("stock:%d", itemID)
}

// SetStock writes an item's cached stock level
func (c *Client) SetStock(ctx context.Context, itemID int64, quantity int) error {
	return c.rdb.Set(ctx, stockKey(itemID), quantity, 0).Err()
}

// GetStock reads an item's cached stock level
func (c *Client) GetStock(ctx context.Context, itemID int64) (int, error) {
	val, err := c.rdb.Get(ctx, stockKey(itemID)).Int()
	if err == redis.Nil {
		return 0, fmt.Errorf("stock not cached for item %d", itemID)
	}
	return val, err
}

// DecrementStock atomically reduces the cached stock level, clamped at
// zero, and returns the new level.
func (c *Client) DecrementStock(ctx context.Context, itemID int64, quantity int) (int, error) {
	result, err := c.decrementScript.Run(ctx, c.rdb, []string{stockKey(itemID)}, quantity).Result()
	if err != nil {
		return 0, fmt.Errorf("decrement stock script failed: %w", err)
	}

	level, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type")
	}
	return int(level), nil
}

// DeleteStock drops an item's cached level (used when an item is deleted)
func (c *Client) DeleteStock(ctx context.Context, itemID int64) error {
	return c.rdb.Del(ctx, stockKey(itemID)).Err()
}

func rushKey(date string) string {
	return "rush:" + date
}

// SetRushMap caches the resolved rush map for a date
func (c *Client) SetRushMap(ctx context.Context, date string, statuses map[string]rush.Status, ttl time.Duration) error {
	payload, err := json.Marshal(statuses)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, rushKey(date), payload, ttl).Err()
}

// GetRushMap reads the cached rush map for a date. The boolean reports a
// cache hit.
func (c *Client) GetRushMap(ctx context.Context, date string) (map[string]rush.Status, bool, error) {
	payload, err := c.rdb.Get(ctx, rushKey(date)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	statuses := make(map[string]rush.Status)
	if err := json.Unmarshal(payload, &statuses); err != nil {
		return nil, false, err
	}
	return statuses, true, nil
}

// InvalidateRushMap drops the cached map for a date after an admin edit
func (c *Client) InvalidateRushMap(ctx context.Context, date string) error {
	return c.rdb.Del(ctx, rushKey(date)).Err()
}
