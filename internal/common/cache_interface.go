package common

import "time"

// CacheInterface defines the contract for cache implementations.
// Values are stored as JSON so both backends return the same shapes.
type CacheInterface interface {
	// Set stores a value in cache with the given key and duration
	Set(key string, value interface{}, duration time.Duration)

	// Get decodes the cached value into dest.
	// Returns false on a miss or when the entry cannot be decoded.
	Get(key string, dest interface{}) bool

	// Delete removes a value from cache by key
	Delete(key string)

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}

// GetOrSet returns the cached value for key, or loads and stores it.
// The boolean reports whether the value came from the cache.
func GetOrSet[T any](c CacheInterface, key string, duration time.Duration, loader func() (T, error)) (T, bool, error) {
	var val T
	if c.Get(key, &val) {
		return val, true, nil
	}

	val, err := loader()
	if err != nil {
		return val, false, err
	}

	c.Set(key, val, duration)
	return val, false, nil
}
