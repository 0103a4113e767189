// Package memory provides in-process adapters used when Redis is not configured.
package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/quizforge/quizforge-core/internal/core/domain"
	"github.com/quizforge/quizforge-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ContentCache = (*ContentCache)(nil)

// Cache defaults
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = time.Hour
)

// ContentCache is a bounded LRU of parsed content with per-entry expiry.
// Entries are shared; callers must not mutate returned content.
type ContentCache struct {
	lru *expirable.LRU[string, *domain.ParsedContent]
}

// NewContentCache creates a cache holding at most size entries for ttl each
func NewContentCache(size int, ttl time.Duration) *ContentCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ContentCache{lru: expirable.NewLRU[string, *domain.ParsedContent](size, nil, ttl)}
}

// Get returns the cached content or domain.ErrNotFound
func (c *ContentCache) Get(_ context.Context, fileID string) (*domain.ParsedContent, error) {
	content, ok := c.lru.Get(fileID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return content, nil
}

// Set stores content under its file ID
func (c *ContentCache) Set(_ context.Context, content *domain.ParsedContent) error {
	c.lru.Add(content.FileID, content)
	return nil
}

// Delete evicts a file's entry
func (c *ContentCache) Delete(_ context.Context, fileID string) error {
	c.lru.Remove(fileID)
	return nil
}

// Ping always succeeds
func (c *ContentCache) Ping(context.Context) error {
	return nil
}

// Len returns the number of live entries
func (c *ContentCache) Len() int {
	return c.lru.Len()
}
