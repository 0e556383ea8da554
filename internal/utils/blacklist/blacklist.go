package blacklist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultTokenPrefix = "token_blacklist:"

// Blacklist tracks revoked token ids until they would have expired anyway.
type Blacklist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RedisBlacklist struct {
	client      *redis.Client
	tokenPrefix string
}

func NewRedisBlacklist(client *redis.Client, tokenPrefix string) *RedisBlacklist {
	if tokenPrefix == "" {
		tokenPrefix = DefaultTokenPrefix
	}
	return &RedisBlacklist{
		client:      client,
		tokenPrefix: tokenPrefix,
	}
}

func (b *RedisBlacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := b.tokenPrefix + tokenID
	if err := b.client.Set(ctx, key, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := b.tokenPrefix + tokenID
	n, err := b.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return n > 0, nil
}

// Noop is used when no Redis is configured; nothing is ever revoked.
type Noop struct{}

func (Noop) Revoke(context.Context, string, time.Duration) error { return nil }

func (Noop) IsRevoked(context.Context, string) (bool, error) { return false, nil }
