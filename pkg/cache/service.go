package cache

import "time"

// CacheService defines the behavior for caching mechanisms
type CacheService interface {
	// Get returns the cached value and whether it was present and unexpired
	Get(key string) (interface{}, bool)

	// Set stores value under key for duration; 0 means the service default
	Set(key string, value interface{}, duration time.Duration)

	Delete(key string)

	// Flush removes all items
	Flush()
}
