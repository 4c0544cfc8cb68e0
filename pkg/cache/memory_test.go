package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Ticker string  `json:"ticker"`
	Close  float64 `json:"close"`
}

func TestKeySkipsEmptyParts(t *testing.T) {
	assert.Equal(t, "features:BBCA.JK:daily", Key("features", "BBCA.JK", "", "daily"))
	assert.Equal(t, "", Key())
}

func TestJSONRoundTrip(t *testing.T) {
	m := NewMemory(8, 0)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, m, "p", payload{Ticker: "BBCA.JK", Close: 9100}, time.Minute))
	got, err := GetJSON[payload](ctx, m, "p")
	require.NoError(t, err)
	assert.Equal(t, payload{Ticker: "BBCA.JK", Close: 9100}, got)

	_, err = GetJSON[payload](ctx, m, "absent")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "junk", []byte("{"), 0))
	_, err = GetJSON[payload](ctx, m, "junk")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(8, 0)
	defer m.Close()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, m.Set(ctx, "forever", []byte("b"), 0))

	now = now.Add(2 * time.Second)
	_, err := m.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrMiss)
	v, err := m.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), v)
}

func TestMemorySweepDropsExpired(t *testing.T) {
	m := NewMemory(8, 0)
	defer m.Close()
	now := time.Now()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Second))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Hour))
	now = now.Add(time.Minute)
	m.sweep()
	assert.Equal(t, 1, m.Len())
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	m := NewMemory(2, 0)
	defer m.Close()
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), 0))
	_, err := m.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, m.Set(ctx, "c", []byte("3"), 0))

	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrMiss)
	_, err = m.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestMemoryCopiesValues(t *testing.T) {
	m := NewMemory(2, 0)
	defer m.Close()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", buf, 0))
	buf[0] = 'z'
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), v)
}

func TestMemoryDeletePrefix(t *testing.T) {
	m := NewMemory(16, 0)
	defer m.Close()
	ctx := context.Background()

	for _, k := range []string{"features:BBCA.JK:daily", "features:BBCA.JK:weekly", "features:BBC.JK:daily", "other"} {
		require.NoError(t, m.Set(ctx, k, []byte("x"), 0))
	}
	n, err := m.DeletePrefix(ctx, "features:BBCA.JK:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Delete(ctx, "other", "missing"))
	assert.Equal(t, 1, m.Len())
}

func TestLayeredReadsThroughAndInvalidates(t *testing.T) {
	far := NewMemory(16, 0)
	l := NewLayered(far, 4, time.Minute)
	defer l.Close()
	ctx := context.Background()

	require.NoError(t, far.Set(ctx, "features:TLKM.JK:daily", []byte("v1"), 0))
	v, err := l.Get(ctx, "features:TLKM.JK:daily")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), v)
	assert.Equal(t, 1, l.near.Len())

	require.NoError(t, l.Set(ctx, "features:TLKM.JK:weekly", []byte("v2"), time.Hour))
	v, err = far.Get(ctx, "features:TLKM.JK:weekly")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)

	n, err := l.DeletePrefix(ctx, "features:TLKM.JK:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, l.near.Len())
	_, err = l.Get(ctx, "features:TLKM.JK:daily")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, `features:\[x\]\*\?`, escapeGlob("features:[x]*?"))
	assert.Equal(t, "features:^JKSE:", escapeGlob("features:^JKSE:"))
}
