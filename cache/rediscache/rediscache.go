// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package rediscache implements the cache.Cache contract against Redis.
package rediscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a cache.Cache backed by a Redis client.
type Cache struct {
	client *redis.Client
}

// New wraps an existing Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Open connects to the Redis instance at addr using password (empty for
// none) and database index db.
func Open(addr, password string, db int) *Cache {
	return New(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

// Load returns the value stored under key, if present and unexpired. ttl is
// ignored here: Redis keys carry their own expiration set at Save time; ttl
// is accepted to satisfy the cache.Cache contract for adapters that don't
// support per-key TTL natively.
func (c *Cache) Load(ctx context.Context, key string, ttlSeconds int) (string, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Save stores value under key with the default document TTL.
func (c *Cache) Save(ctx context.Context, key string, value string) error {
	return c.client.Set(ctx, key, value, defaultTTL).Err()
}

const defaultTTL = 24 * time.Hour

// Purge deletes every key matching keyPattern, which may end in "*" as a
// wildcard. Redis has no native pattern-delete, so this scans in batches
// and deletes each match; safe to call with a pattern matching zero keys.
func (c *Cache) Purge(ctx context.Context, keyPattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, keyPattern, 256).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}
