package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockPilot/internal/domain/models"
	domsvc "StockPilot/internal/domain/service"
	"StockPilot/internal/testutil"
	pkgcache "StockPilot/pkg/cache"
)

func TestFeatureCacheInvalidateByTicker(t *testing.T) {
	mem := pkgcache.NewMemory(64, 0)
	defer mem.Close()
	fc := NewStoreFeatureCache(mem, time.Minute)
	ctx := context.Background()

	table := &models.FeatureTable{
		Ticker: "BBCA.JK",
		Params: models.DefaultParameters(),
		Rows:   []models.FeatureRow{{Date: testutil.Start, Close: 9000}},
	}
	k1 := KeyFor("BBCA.JK", models.DefaultParameters())
	k2 := FeatureKey{Ticker: "BBCA.JK", Timeframe: models.Daily, RSILength: 21, BBandsLength: 30}
	other := KeyFor("BBC.JK", models.DefaultParameters())
	require.NoError(t, fc.Put(ctx, k1, table))
	require.NoError(t, fc.Put(ctx, k2, table))
	require.NoError(t, fc.Put(ctx, other, table))

	got, ok := fc.Get(ctx, k1)
	require.True(t, ok)
	assert.Equal(t, "BBCA.JK", got.Ticker)
	assert.Equal(t, 9000.0, got.Rows[0].Close)

	require.NoError(t, fc.Invalidate(ctx, "BBCA.JK"))
	_, ok = fc.Get(ctx, k1)
	assert.False(t, ok)
	_, ok = fc.Get(ctx, k2)
	assert.False(t, ok)
	_, ok = fc.Get(ctx, other)
	assert.True(t, ok, "prefix match must not cross ticker boundaries")
}

func TestFeatureKeyString(t *testing.T) {
	assert.Equal(t, "features:TLKM.JK:daily:rsi14:bb20", KeyFor("TLKM.JK", models.DefaultParameters()).String())
}

type countingStore struct {
	calls int
	err   error
}

func (s *countingStore) LoadModel(_ context.Context, ticker string, kind models.ModelKind) (domsvc.FittedModel, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &testutil.ConstantModel{Names: []string{models.ColClose}, Value: 1}, nil
}

func TestModelCacheLoadsOnce(t *testing.T) {
	store := &countingStore{}
	mc := NewModelCache(store, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := mc.LoadModel(ctx, "BBCA.JK", models.KindDirection)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.calls)

	mc.Invalidate("BBCA.JK")
	_, err := mc.LoadModel(ctx, "BBCA.JK", models.KindDirection)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestModelCacheDoesNotCacheFailures(t *testing.T) {
	store := &countingStore{err: models.ErrModelNotFound}
	mc := NewModelCache(store, time.Minute)

	for i := 0; i < 2; i++ {
		_, err := mc.LoadModel(context.Background(), "X.JK", models.KindStopLoss)
		assert.ErrorIs(t, err, models.ErrModelNotFound)
	}
	assert.Equal(t, 2, store.calls)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[int]()
	c.Set("a", 1, time.Millisecond)
	c.Set("b", 2, 0)
	time.Sleep(5 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

type gatedStore struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (s *gatedStore) LoadModel(context.Context, string, models.ModelKind) (domsvc.FittedModel, error) {
	s.calls.Add(1)
	<-s.gate
	return &testutil.ConstantModel{Names: []string{models.ColClose}, Value: 1}, nil
}

func TestModelCacheSharesConcurrentLoads(t *testing.T) {
	store := &gatedStore{gate: make(chan struct{})}
	mc := NewModelCache(store, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := mc.LoadModel(context.Background(), "TLKM.JK", models.KindDirection)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return store.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	close(store.gate)
	wg.Wait()
	assert.Equal(t, int32(1), store.calls.Load())
}
