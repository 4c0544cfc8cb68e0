package cache

import (
	"context"
	"errors"
	"time"

	"StockPilot/internal/domain/models"
	pkgcache "StockPilot/pkg/cache"
	applogger "StockPilot/pkg/logger"
)

// StoreFeatureCache keeps feature tables as JSON in a pkg/cache store
// (memory, Redis or layered).
type StoreFeatureCache struct {
	store pkgcache.Store
	ttl   time.Duration
	l     *applogger.Logger
}

func NewStoreFeatureCache(store pkgcache.Store, ttl time.Duration) *StoreFeatureCache {
	return &StoreFeatureCache{store: store, ttl: ttl}
}

// SetLogger injects a structured logger.
func (c *StoreFeatureCache) SetLogger(l *applogger.Logger) { c.l = l }

func (c *StoreFeatureCache) Get(ctx context.Context, key FeatureKey) (*models.FeatureTable, bool) {
	t, err := pkgcache.GetJSON[models.FeatureTable](ctx, c.store, key.String())
	if err != nil {
		if !errors.Is(err, pkgcache.ErrMiss) && c.l != nil {
			c.l.Warn("feature cache get failed", applogger.String("key", key.String()), applogger.Error(err))
		}
		return nil, false
	}
	return &t, true
}

func (c *StoreFeatureCache) Put(ctx context.Context, key FeatureKey, table *models.FeatureTable) error {
	if table == nil {
		return nil
	}
	return pkgcache.SetJSON(ctx, c.store, key.String(), table, c.ttl)
}

// Invalidate drops every cached table of ticker, whatever its parameters.
func (c *StoreFeatureCache) Invalidate(ctx context.Context, ticker string) error {
	n, err := c.store.DeletePrefix(ctx, pkgcache.Key(featurePrefix, ticker)+":")
	if err == nil && n > 0 && c.l != nil {
		c.l.Debug("feature cache invalidated", applogger.String("ticker", ticker), applogger.Int("keys", n))
	}
	return err
}

var _ FeatureCache = (*StoreFeatureCache)(nil)
