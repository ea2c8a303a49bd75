// Package cache stores rendered export artifacts so that re-exporting the same
// codes with the same options is free.
//
// Three backends are provided: [FileCache] for the CLI, [RedisCache] for a
// shared server deployment, and [NullCache] when caching is disabled. Keys are
// built by a [Keyer] from a content hash of the codes and the export options.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is reported as hit == false with a
	// nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)
	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases resources held by the cache.
	Close() error
}

// TTLArtifact is how long rendered artifacts are kept.
const TTLArtifact = 7 * 24 * time.Hour
