package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/redis/go-redis/v9"
)

func NewRedisCache(client *redis.Client, appID string) *RedisCache {
	return &RedisCache{
		client:  client,
		appID:   appID,
		baseTTL: 15 * time.Minute,
	}
}

// RedisCache keeps cart snapshots keyed by app and user. Entries expire after
// baseTTL plus up to four minutes of jitter so a burst of carts does not
// expire together.
type RedisCache struct {
	client  *redis.Client
	appID   string
	baseTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.CartSnapshot
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return &cart, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, cart *domain.CartSnapshot) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	ttl := r.baseTTL + time.Duration(rand.Intn(5))*time.Minute
	if err := r.client.Set(ctx, r.key(userID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache) key(userID string) string {
	return fmt.Sprintf("storefront:%s:cart:%s", r.appID, userID)
}
