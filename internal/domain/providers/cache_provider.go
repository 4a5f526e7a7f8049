package providers

import (
	"context"
	"fmt"
)

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// SetIfAbsent stores value only when key is missing; reports whether it was stored
	SetIfAbsent(ctx context.Context, key string, value []byte, expirationSeconds int) (bool, error)

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// ListingCacheKey is the cache key of one city listing page.
func ListingCacheKey(cityID int64, practiceArea string, limit, offset int) string {
	return fmt.Sprintf("listing:%d:%s:%d:%d", cityID, practiceArea, limit, offset)
}

// ListingCachePattern matches every cached listing page of a city.
func ListingCachePattern(cityID int64) string {
	return fmt.Sprintf("listing:%d:*", cityID)
}

// ResponseCachePrefix namespaces cached HTTP responses.
const ResponseCachePrefix = "http:cache:"

// ResponseCachePattern matches every cached HTTP response.
const ResponseCachePattern = ResponseCachePrefix + "*"
