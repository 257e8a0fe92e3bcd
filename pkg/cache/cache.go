// Package cache stores computed layouts and rendered artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// deployments that share results between server instances, [MongoCache] for
// a persistent layout archive and [NullCache] when caching is disabled.
// [Open] picks one from the configuration file.
//
// Keys are built by a [Keyer]. Layout keys combine the hash of the input
// graph document with every option that influences the result, so a cached
// layout is only reused for an identical request.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/graphlayout/pkg/config"
	"github.com/matzehuels/graphlayout/pkg/errors"
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored value and whether it was found. A missing or
	// expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero keeps the entry forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend connections.
	Close() error
}

// Open creates the cache backend selected by cfg.Cache.Backend.
func Open(ctx context.Context, cfg config.Config) (Cache, error) {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return NewNullCache(), nil
	case config.BackendFile, "":
		dir, err := cfg.CacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache dir: %w", err)
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendRedis:
		c, err := NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendMongo:
		c, err := NewMongoCache(ctx, cfg.Cache.MongoURI, cfg.Cache.MongoDatabase, cfg.Cache.MongoCollection)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q", cfg.Cache.Backend)
	}
}
