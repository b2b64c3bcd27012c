// Package cache memoises catalog listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Catalog cache keys.
const (
	KeyDepartments = "catalog:departments"
	KeyRoles       = "catalog:roles"
)

var (
	// ErrMiss reports that a key is absent or caching is disabled.
	ErrMiss = errors.New("cache miss")
	// ErrStale reports that a key was invalidated after its value was read
	// from the store, so the value was not cached.
	ErrStale = errors.New("cache entry is stale")
)

// Backend is the key-value store behind CatalogCache. Every key carries a
// version that Invalidate bumps.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Version(ctx context.Context, key string) (int64, error)
	// SetIfVersion stores value only while key is still at version.
	SetIfVersion(ctx context.Context, key string, value []byte, ttl time.Duration, version int64) error
	Invalidate(ctx context.Context, key string) error
}

// CatalogCache stores name lists as JSON. A nil backend disables it.
//
// Readers take Version before loading from the store and write back with
// SetIfVersion, so a load that raced with an insert is never cached.
type CatalogCache struct {
	backend Backend
	ttl     time.Duration
}

// NewCatalogCache wraps client. client may be nil.
func NewCatalogCache(client *redis.Client, ttl time.Duration) *CatalogCache {
	if client == nil {
		return NewBackendCache(nil, ttl)
	}
	return NewBackendCache(redisBackend{client: client}, ttl)
}

// NewBackendCache builds a cache over any backend.
func NewBackendCache(backend Backend, ttl time.Duration) *CatalogCache {
	return &CatalogCache{backend: backend, ttl: ttl}
}

// Enabled reports whether a backend is configured.
func (c *CatalogCache) Enabled() bool {
	return c != nil && c.backend != nil
}

// Get decodes the names stored under key.
func (c *CatalogCache) Get(ctx context.Context, key string) ([]string, error) {
	if !c.Enabled() {
		return nil, ErrMiss
	}
	raw, err := c.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, err
	}
	return names, nil
}

// Version returns the invalidation counter for key.
func (c *CatalogCache) Version(ctx context.Context, key string) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	return c.backend.Version(ctx, key)
}

// SetIfVersion stores names under key unless key was invalidated since
// version was read.
func (c *CatalogCache) SetIfVersion(ctx context.Context, key string, names []string, version int64) error {
	if !c.Enabled() {
		return nil
	}
	raw, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return c.backend.SetIfVersion(ctx, key, raw, c.ttl, version)
}

// Invalidate drops key and bumps its version.
func (c *CatalogCache) Invalidate(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.backend.Invalidate(ctx, key)
}

type redisBackend struct {
	client *redis.Client
}

func versionKey(key string) string { return key + ":version" }

func (b redisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return raw, err
}

func (b redisBackend) Version(ctx context.Context, key string) (int64, error) {
	return readVersion(ctx, b.client, key)
}

func (b redisBackend) SetIfVersion(ctx context.Context, key string, value []byte, ttl time.Duration, version int64) error {
	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != version {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		})
		return err
	}, versionKey(key))
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStale
	}
	return err
}

func (b redisBackend) Invalidate(ctx context.Context, key string) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(key))
		pipe.Del(ctx, key)
		return nil
	})
	return err
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readVersion(ctx context.Context, c getter, key string) (int64, error) {
	v, err := c.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}
