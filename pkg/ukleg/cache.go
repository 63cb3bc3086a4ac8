package ukleg

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultCacheTTL is the default time-to-live for cached validation results.
const DefaultCacheTTL = 1 * time.Hour

// DefaultCacheSize bounds the number of cached validation results.
const DefaultCacheSize = 1024

// ValidationCache is a thread-safe, size-bounded TTL cache for URI validation
// results. Expired entries are never returned.
type ValidationCache struct {
	entries *expirable.LRU[string, ValidationResult]
}

// NewValidationCache creates a cache with the given TTL and the default size.
func NewValidationCache(defaultTTL time.Duration) *ValidationCache {
	return NewValidationCacheWithSize(DefaultCacheSize, defaultTTL)
}

// NewValidationCacheWithSize creates a cache holding at most size entries.
func NewValidationCacheWithSize(size int, defaultTTL time.Duration) *ValidationCache {
	return &ValidationCache{
		entries: expirable.NewLRU[string, ValidationResult](size, nil, defaultTTL),
	}
}

// Get retrieves a cached validation result by key.
func (validationCache *ValidationCache) Get(key string) (ValidationResult, bool) {
	return validationCache.entries.Get(key)
}

// Set stores a validation result with the cache TTL.
func (validationCache *ValidationCache) Set(key string, result ValidationResult) {
	validationCache.entries.Add(key, result)
}

// Invalidate removes a specific entry from the cache.
func (validationCache *ValidationCache) Invalidate(key string) {
	validationCache.entries.Remove(key)
}

// Len returns the number of entries currently in the cache.
func (validationCache *ValidationCache) Len() int {
	return validationCache.entries.Len()
}
