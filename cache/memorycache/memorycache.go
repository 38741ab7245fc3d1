// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package memorycache implements the cache.Cache contract in-process, for
// tests and single-instance deployments that do not need a shared cache.
package memorycache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value   string
	savedAt time.Time
}

// Cache is an in-memory cache.Cache implementation.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Load returns the value stored under key if it was saved within the last
// ttlSeconds (a ttlSeconds of 0 means no expiry).
func (c *Cache) Load(ctx context.Context, key string, ttlSeconds int) (string, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if ttlSeconds > 0 && time.Since(e.savedAt) > time.Duration(ttlSeconds)*time.Second {
		return "", false, nil
	}
	return e.value, true, nil
}

// Save stores value under key.
func (c *Cache) Save(ctx context.Context, key string, value string) error {
	c.mu.Lock()
	c.entries[key] = entry{value: value, savedAt: time.Now()}
	c.mu.Unlock()
	return nil
}

// Purge deletes every key matching keyPattern, which may end in "*" as a
// wildcard matching any suffix.
func (c *Cache) Purge(ctx context.Context, keyPattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !strings.HasSuffix(keyPattern, "*") {
		delete(c.entries, keyPattern)
		return nil
	}
	prefix := strings.TrimSuffix(keyPattern, "*")
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}
