package cache

import (
	"context"
	"time"
)

// Layered reads through a small in-process LRU in front of a shared store.
// Writes go to both levels; the near copy lives at most nearTTL.
type Layered struct {
	near    *Memory
	far     Store
	nearTTL time.Duration
}

// NewLayered puts a Memory of nearEntries keys in front of far. nearTTL caps
// how stale a near copy may get (one minute when <= 0).
func NewLayered(far Store, nearEntries int, nearTTL time.Duration) *Layered {
	if nearTTL <= 0 {
		nearTTL = time.Minute
	}
	return &Layered{near: NewMemory(nearEntries, 0), far: far, nearTTL: nearTTL}
}

func (l *Layered) capTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > l.nearTTL {
		return l.nearTTL
	}
	return ttl
}

func (l *Layered) Get(ctx context.Context, key string) ([]byte, error) {
	if v, err := l.near.Get(ctx, key); err == nil {
		return v, nil
	}
	v, err := l.far.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = l.near.Set(ctx, key, v, l.nearTTL)
	return v, nil
}

func (l *Layered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := l.far.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	return l.near.Set(ctx, key, value, l.capTTL(ttl))
}

func (l *Layered) Delete(ctx context.Context, keys ...string) error {
	_ = l.near.Delete(ctx, keys...)
	return l.far.Delete(ctx, keys...)
}

func (l *Layered) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	_, _ = l.near.DeletePrefix(ctx, prefix)
	return l.far.DeletePrefix(ctx, prefix)
}

// Close stops the near level only; the far store is owned by its creator.
func (l *Layered) Close() error {
	return l.near.Close()
}
