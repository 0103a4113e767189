package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ContentCache = (*ContentCache)(nil)

const contentPrefix = "parsed:"

// DefaultContentTTL is used when a cache is created with a zero TTL
const DefaultContentTTL = time.Hour

// ContentCache implements driven.ContentCache as JSON values with a fixed TTL
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContentCache creates a Redis-backed parsed content cache
func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// Get returns the cached content or domain.ErrNotFound
func (c *ContentCache) Get(ctx context.Context, fileID string) (*domain.ParsedContent, error) {
	data, err := c.client.Get(ctx, contentPrefix+fileID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached content: %w", err)
	}

	var content domain.ParsedContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached content: %w", err)
	}
	return &content, nil
}

// Set stores content under its file ID
func (c *ContentCache) Set(ctx context.Context, content *domain.ParsedContent) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	if err := c.client.Set(ctx, contentPrefix+content.FileID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache content: %w", err)
	}
	return nil
}

// Delete evicts a file's entry
func (c *ContentCache) Delete(ctx context.Context, fileID string) error {
	return c.client.Del(ctx, contentPrefix+fileID).Err()
}

// Ping checks if the Redis backend is healthy
func (c *ContentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
