package interfaces

import (
	"context"

	"github.com/ternarybob/kabegami/internal/models"
)

// CacheUsage summarises the cache root
type CacheUsage struct {
	Root  string `json:"root"`
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
}

// CacheManager materialises catalog items as local files under a byte budget
type CacheManager interface {
	// EnsureLocal returns the local path for item, downloading it when absent,
	// then evicts unprotected files oldest-first until usage fits maxBytes
	EnsureLocal(ctx context.Context, item models.CatalogItem, maxBytes int64, protectedPaths []string) (string, error)

	// PathForKey derives the deterministic cache path for a key
	PathForKey(key string) (string, error)

	// Evict runs an eviction pass without downloading anything
	Evict(maxBytes int64, protectedPaths []string) (int, error)

	// Usage reports file count and total bytes under the cache root
	Usage() (CacheUsage, error)

	// Root returns the cache root directory
	Root() string
}
