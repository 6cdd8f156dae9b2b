package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/juju/errors"

	gocache "github.com/patrickmn/go-cache"
)

type memoryCache struct {
	store *gocache.Cache
}

// NewMemory keeps entries in process. The janitor sweeps expired entries
// every two TTLs.
func NewMemory(defaultTTL time.Duration) Cache {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	return &memoryCache{store: gocache.New(defaultTTL, 2*defaultTTL)}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	raw, ok := c.store.Get(key)
	if !ok {
		return false
	}
	b, ok := raw.([]byte)
	if !ok {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) {
	b, err := json.Marshal(value)
	if err != nil {
		logger.Warningf("marshal cache value for %q: %v", key, err)
		return
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, b, ttl)
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		c.store.Delete(k)
	}
}

func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) {
	for k := range c.store.Items() {
		if strings.HasPrefix(k, prefix) {
			c.store.Delete(k)
		}
	}
}

// Generation counters never expire; the janitor would otherwise reset them.
func (c *memoryCache) Generation(_ context.Context, scope string) (int64, error) {
	raw, ok := c.store.Get(GenerationKey(scope))
	if !ok {
		return 0, nil
	}
	gen, ok := raw.(int64)
	if !ok {
		return 0, errors.Errorf("generation of %q holds %T", scope, raw)
	}
	return gen, nil
}

func (c *memoryCache) Bump(_ context.Context, scope string) error {
	key := GenerationKey(scope)
	// Add only seeds a missing counter
	_ = c.store.Add(key, int64(0), gocache.NoExpiration)
	_, err := c.store.IncrementInt64(key, 1)
	return errors.Trace(err)
}
