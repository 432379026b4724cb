package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistKeyPrefix = "booking:revoked:"

// RedisDenylist stores revoked token ids as expiring Redis keys shared by
// every API replica.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist connects to redisURL and verifies the connection.
func NewRedisDenylist(ctx context.Context, redisURL string) (*RedisDenylist, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("auth: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("auth: connect to redis: %w", err)
	}
	return &RedisDenylist{client: client}, nil
}

// NewRedisDenylistFromClient wraps an existing client.
func NewRedisDenylistFromClient(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func (d *RedisDenylist) Add(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := d.client.Set(ctx, denylistKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("auth: denylist add: %w", err)
	}
	return nil
}

func (d *RedisDenylist) Contains(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("auth: denylist lookup: %w", err)
	}
	return n > 0, nil
}

// Ping checks the Redis connection.
func (d *RedisDenylist) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

// Close releases the client.
func (d *RedisDenylist) Close() error {
	return d.client.Close()
}
