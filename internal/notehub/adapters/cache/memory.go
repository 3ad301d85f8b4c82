package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"notehub/internal/notehub/ports/cache"
)

type memoryItem struct {
	value     string
	expiresAt time.Time
}

// MemoryCache - процессный Cache на map с истечением по TTL.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]memoryItem
	defaultTTL time.Duration
	now        func() time.Time
}

// NewMemoryCache создает MemoryCache. Нулевой defaultTTL означает хранение без срока.
func NewMemoryCache(defaultTTL time.Duration) cache.Cache {
	return &MemoryCache{
		items:      make(map[string]memoryItem),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return "", nil
	}
	if !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return "", nil
	}
	return item.value, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.defaultTTL
	}

	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	clear(c.items)
	c.mu.Unlock()
	return nil
}
