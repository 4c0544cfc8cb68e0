package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

const defaultMemoryEntries = 1024

type memEntry struct {
	key     string
	value   []byte
	expires time.Time
}

func (e *memEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Memory is a bounded LRU store. Expired entries are dropped on access and
// by an optional background sweep.
type Memory struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[string]*list.Element
	now     func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemory keeps at most maxEntries keys (1024 when <= 0). A positive sweep
// interval starts a goroutine that evicts expired keys until Close.
func NewMemory(maxEntries int, sweep time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = defaultMemoryEntries
	}
	m := &Memory{
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[string]*list.Element),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if sweep > 0 {
		go m.sweepLoop(sweep)
	}
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	e := el.Value.(*memEntry)
	if e.expired(m.now()) {
		m.remove(el)
		return nil, ErrMiss
	}
	m.order.MoveToFront(el)
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = m.now().Add(ttl)
	}
	buf := append([]byte(nil), value...)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.entries[key]; ok {
		e := el.Value.(*memEntry)
		e.value, e.expires = buf, exp
		m.order.MoveToFront(el)
		return nil
	}
	m.entries[key] = m.order.PushFront(&memEntry{key: key, value: buf, expires: exp})
	for m.order.Len() > m.max {
		m.remove(m.order.Back())
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if el, ok := m.entries[k]; ok {
			m.remove(el)
		}
	}
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, el := range m.entries {
		if strings.HasPrefix(k, prefix) {
			m.remove(el)
			n++
		}
	}
	return n, nil
}

// Len reports the number of live and not yet swept keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

// remove expects m.mu held.
func (m *Memory) remove(el *list.Element) {
	e := m.order.Remove(el).(*memEntry)
	delete(m.entries, e.key)
}

func (m *Memory) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		if el.Value.(*memEntry).expired(now) {
			m.remove(el)
		}
		el = prev
	}
}
