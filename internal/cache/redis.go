package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oxygen78/BOT.github.io/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, userID int64) ([]domain.CartLine, error) {
	key := cacheKey(userID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var lines []domain.CartLine
	if e2 := json.Unmarshal(data, &lines); e2 != nil {
		return nil, fmt.Errorf("unmarshal cart view failed: %w", e2)
	}

	return lines, nil
}

func (r RedisCache) Set(ctx context.Context, userID int64, lines []domain.CartLine) error {
	key := cacheKey(userID)
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal cart view failed: %w", err)
	}

	// jitter spreads expiry so a burst of carts does not fall out at once
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	ret := r.client.Set(ctx, key, data, ttl)
	if ret.Err() != nil {
		return fmt.Errorf("redis set failed: %w", ret.Err())
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, userID int64) error {
	ret := r.client.Del(ctx, cacheKey(userID))
	if ret.Err() != nil {
		return fmt.Errorf("redis del failed: %w", ret.Err())
	}
	return nil
}

func cacheKey(userID int64) string {
	return fmt.Sprintf("cart:view:%d", userID)
}
