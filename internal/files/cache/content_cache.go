// Package cache holds a redis-backed cache of fetched file content. It is
// strictly a read accelerator: misses and redis failures both fall through
// to the blob store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codecove/codecove-backend/internal/storage/blob"
)

const (
	contentKeyPrefix = "files:content:" // files:content:{file_id}
	defaultTTL       = 10 * time.Minute
)

type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// Get returns the cached content for a file, or (nil, false) on a miss or
// any redis error.
func (c *ContentCache) Get(ctx context.Context, fileID string) (*blob.Content, bool) {
	data, err := c.client.Get(ctx, contentKeyPrefix+fileID).Bytes()
	if err != nil {
		return nil, false
	}

	var content blob.Content
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, false
	}
	return &content, true
}

// Set stores content with the configured TTL. Errors are dropped: the cache
// never makes a request fail.
func (c *ContentCache) Set(ctx context.Context, fileID string, content *blob.Content) {
	data, err := json.Marshal(content)
	if err != nil {
		return
	}
	c.client.Set(ctx, contentKeyPrefix+fileID, data, c.ttl)
}

// Invalidate drops the cached content for a file. Called on every content
// or metadata change and on delete.
func (c *ContentCache) Invalidate(ctx context.Context, fileID string) {
	c.client.Del(ctx, contentKeyPrefix+fileID)
}
