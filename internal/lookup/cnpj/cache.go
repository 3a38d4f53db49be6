package cnpj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"credencia/pkg/requestcontext"
)

// Cache keeps definitive validation results so repeated checks of the same
// CNPJ skip the upstream call.
type Cache interface {
	Get(ctx context.Context, cnpj string) (Result, bool, error)
	Set(ctx context.Context, cnpj string, result Result, ttl time.Duration) error
}

// MemoryCache is the fallback when redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	result    Result
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryCacheEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, cnpj string) (Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cnpj]
	if !ok || requestcontext.Now(ctx).After(e.expiresAt) {
		return Result{}, false, nil
	}
	return e.result, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, cnpj string, result Result, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cnpj] = memoryCacheEntry{result: result, expiresAt: requestcontext.Now(ctx).Add(ttl)}
	return nil
}

// RedisCache shares validation results across instances.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) key(cnpj string) string {
	return "cnpj:validation:" + cnpj
}

func (c *RedisCache) Get(ctx context.Context, cnpj string) (Result, bool, error) {
	raw, err := c.client.Get(ctx, c.key(cnpj)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("cache get: %w", err)
	}
	var r Result
	if err := json.Unmarshal(raw, &r); err != nil {
		return Result{}, false, fmt.Errorf("cache decode: %w", err)
	}
	return r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, cnpj string, result Result, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(cnpj), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}
