// Package memory provides in-process implementations of the outbound ports, used in
// development, in local mode and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

const defaultTTL = 24 * time.Hour

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// CacheRepository implements outbound.CacheRepository over a map with per-key TTL
type CacheRepository struct {
	mu   sync.Mutex
	data map[string]cacheItem
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewCacheRepository creates a cache and starts its expiry sweeper
func NewCacheRepository() *CacheRepository {
	r := &CacheRepository{
		data: make(map[string]cacheItem),
		now:  time.Now,
		stop: make(chan struct{}),
	}
	go r.cleanup(time.Minute)
	return r
}

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(key)
}

// GetDel retrieves a value and removes it under the same lock
func (r *CacheRepository) GetDel(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, err := r.getLocked(key)
	delete(r.data, key)
	return v, err
}

func (r *CacheRepository) getLocked(key string) ([]byte, error) {
	item, ok := r.data[key]
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	if r.now().After(item.expiresAt) {
		delete(r.data, key)
		return nil, outbound.ErrCacheMiss
	}
	return append([]byte(nil), item.value...), nil
}

// Set stores a value in cache with TTL, 24h when ttl is zero
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[key] = cacheItem{value: append([]byte(nil), value...), expiresAt: r.now().Add(ttl)}
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, key)
	return nil
}

// Exists checks if a live key exists
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.getLocked(key)
	return err == nil, nil
}

// Close stops the sweeper
func (r *CacheRepository) Close() error {
	r.once.Do(func() { close(r.stop) })
	return nil
}

func (r *CacheRepository) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for k, item := range r.data {
				if now.After(item.expiresAt) {
					delete(r.data, k)
				}
			}
			r.mu.Unlock()
		}
	}
}
