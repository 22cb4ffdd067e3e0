package health

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisChecker pings the draft cache
type RedisChecker struct {
	BaseChecker
	client *redis.Client
}

// NewRedisChecker wraps an existing client
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{
		BaseChecker: BaseChecker{checkType: "redis"},
		client:      client,
	}
}

// HealthCheck verifies Redis connectivity
func (p *RedisChecker) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
