package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"feedback-api/src/cache"
)

// MapCache is a cache.Cache without a janitor goroutine, so tests running
// under goleak can use it.
type MapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gens map[string]int64
}

var _ cache.Cache = (*MapCache)(nil)

func NewMapCache() *MapCache {
	return &MapCache{data: map[string][]byte{}, gens: map[string]int64{}}
}

func (c *MapCache) Get(_ context.Context, key string, dest interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	return ok && json.Unmarshal(b, dest) == nil
}

func (c *MapCache) Set(_ context.Context, key string, v interface{}, _ time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
}

func (c *MapCache) Delete(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
}

func (c *MapCache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
}

func (c *MapCache) Generation(_ context.Context, scope string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[scope], nil
}

func (c *MapCache) Bump(_ context.Context, scope string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[scope]++
	return nil
}

// Has reports whether key is cached.
func (c *MapCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
