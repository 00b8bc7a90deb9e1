package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates a Redis client
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// Cooldown limits how often a user may run a command.
type Cooldown struct {
	client *redis.Client
	window time.Duration
}

// NewCooldown creates a limiter allowing one invocation per user and command per window.
func NewCooldown(client *redis.Client, window time.Duration) *Cooldown {
	return &Cooldown{client: client, window: window}
}

// Allow reports whether userID may run command now, and starts the window if so.
func (c *Cooldown) Allow(ctx context.Context, command, userID string) (bool, error) {
	if c.window <= 0 {
		return true, nil
	}
	key := fmt.Sprintf("cooldown:%s:%s", command, userID)
	return c.client.SetNX(ctx, key, 1, c.window).Result()
}
