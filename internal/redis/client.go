package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/saviobatista/eco-flight/internal/types"
)

// SnapshotKey holds the serialized reference data
const SnapshotKey = "refdata:snapshot"

// RedisClientInterface is the go-redis surface the snapshot store needs
type RedisClientInterface interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// Client caches reference data snapshots in Redis
type Client struct {
	client RedisClientInterface
}

// New creates a new Redis client
func New(addr string) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{client: client}, nil
}

// NewWithClient wraps an existing RedisClientInterface
func NewWithClient(client RedisClientInterface) *Client {
	return &Client{client: client}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// StoreReferenceData writes the snapshot without expiry
func (c *Client) StoreReferenceData(ctx context.Context, data *types.ReferenceData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal reference data: %w", err)
	}
	if err := c.client.Set(ctx, SnapshotKey, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to store reference data: %w", err)
	}
	return nil
}

// GetReferenceData reads the snapshot. It returns nil without error when no snapshot exists.
func (c *Client) GetReferenceData(ctx context.Context) (*types.ReferenceData, error) {
	payload, err := c.client.Get(ctx, SnapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reference data: %w", err)
	}

	var data types.ReferenceData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reference data: %w", err)
	}
	return &data, nil
}

// DeleteReferenceData removes the snapshot
func (c *Client) DeleteReferenceData(ctx context.Context) error {
	return c.client.Del(ctx, SnapshotKey).Err()
}
