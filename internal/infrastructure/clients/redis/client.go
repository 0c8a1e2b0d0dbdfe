package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/glowtrip/procedure-recommender/pkg/config"
	"github.com/glowtrip/procedure-recommender/pkg/retry"
)

// Client represents a Redis client
type Client struct {
	client *redis.Client
}

// NewClient creates a new Redis client
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	logger := log.With().Str("component", "redis").Logger()
	err := retry.DoWithLog(
		context.Background(),
		retry.DefaultConfig(),
		"Redis",
		func() error {
			return client.Ping(context.Background()).Err()
		},
		&logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis after retries: %w", err)
	}

	logger.Info().Msg("connected to Redis")
	return &Client{client: client}, nil
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
