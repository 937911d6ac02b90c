// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/scholaris/internal/platform/constants"
)

// RedisCountCache implements [CountCache] using Redis.
type RedisCountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCountCache creates a Redis-backed unread count cache.
func NewRedisCountCache(client *redis.Client) *RedisCountCache {
	return &RedisCountCache{client: client, ttl: constants.UnreadCountTTL}
}

func unreadKey(recipientID string) string {
	return constants.RedisPrefixUnreadCount + recipientID
}

/*
Get returns the cached count for a recipient.

Returns:
  - int: Cached count
  - bool: false on a cache miss
  - error: Connectivity errors
*/
func (cache *RedisCountCache) Get(context context.Context, recipientID string) (int, bool, error) {
	count, err := cache.client.Get(context, unreadKey(recipientID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("redis_unread_count_get_failed: %w", err)
	}
	return count, true, nil
}

// Set stores a count with the cache TTL.
func (cache *RedisCountCache) Set(context context.Context, recipientID string, count int) error {
	if err := cache.client.Set(context, unreadKey(recipientID), count, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis_unread_count_set_failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached count so the next read recomputes it.
func (cache *RedisCountCache) Invalidate(context context.Context, recipientID string) error {
	if err := cache.client.Del(context, unreadKey(recipientID)).Err(); err != nil {
		return fmt.Errorf("redis_unread_count_delete_failed: %w", err)
	}
	return nil
}
