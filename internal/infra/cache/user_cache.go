package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xavierca1/leadflow/internal/entity"
)

const userKeyPrefix = "leadflow:user:"

type Client struct {
	Redis *redis.Client
}

func NewClient(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	return &Client{Redis: client}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Redis.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.Redis.Close()
}

// UserCache stores user profiles as JSON under leadflow:user:{id}.
type UserCache struct {
	client *Client
}

func NewUserCache(client *Client) *UserCache {
	return &UserCache{client: client}
}

// Get returns (nil, nil) when the user is not cached.
func (c *UserCache) Get(ctx context.Context, id string) (*entity.User, error) {
	raw, err := c.client.Redis.Get(ctx, userKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}

	var u entity.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &u, nil
}

func (c *UserCache) Set(ctx context.Context, u *entity.User, ttl time.Duration) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return c.client.Redis.Set(ctx, userKeyPrefix+u.ID, raw, ttl).Err()
}

func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Redis.Del(ctx, userKeyPrefix+id).Err()
}
