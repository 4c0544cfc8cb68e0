package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	domsvc "StockPilot/internal/domain/service"
)

type entry[V any] struct {
	v   V
	exp time.Time
}

// TTLCache is an in-process map with per-entry expiry. A zero ttl never expires.
type TTLCache[V any] struct {
	mu sync.RWMutex
	m  map[string]entry[V]
}

func NewTTLCache[V any]() *TTLCache[V] {
	return &TTLCache[V]{m: make(map[string]entry[V])}
}

func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		var zero V
		return zero, false
	}
	return e.v, true
}

func (c *TTLCache[V]) Set(key string, v V, ttl time.Duration) {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = entry[V]{v: v, exp: exp}
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with prefix.
func (c *TTLCache[V]) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// ModelCache keeps loaded models in memory in front of a ModelStore.
// Concurrent misses for one model share a single load. Failed loads are
// not cached.
type ModelCache struct {
	store  domrepo.ModelStore
	ttl    time.Duration
	cache  *TTLCache[domsvc.FittedModel]
	flight singleflight.Group
}

func NewModelCache(store domrepo.ModelStore, ttl time.Duration) *ModelCache {
	return &ModelCache{store: store, ttl: ttl, cache: NewTTLCache[domsvc.FittedModel]()}
}

func modelKey(ticker string, kind models.ModelKind) string {
	return fmt.Sprintf("%s:%s", ticker, kind)
}

func (c *ModelCache) LoadModel(ctx context.Context, ticker string, kind models.ModelKind) (domsvc.FittedModel, error) {
	key := modelKey(ticker, kind)
	if m, ok := c.cache.Get(key); ok {
		return m, nil
	}
	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		m, err := c.store.LoadModel(ctx, ticker, kind)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, m, c.ttl)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domsvc.FittedModel), nil
}

// Invalidate drops the cached models of a ticker, or all of them when ticker is empty.
func (c *ModelCache) Invalidate(ticker string) {
	if ticker == "" {
		c.cache.DeletePrefix("")
		return
	}
	c.cache.DeletePrefix(ticker + ":")
}

var _ domrepo.ModelStore = (*ModelCache)(nil)
