package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleAfter is how long a client keeps its bucket without requests.
const idleAfter = 10 * time.Minute

type client struct {
	lim  *rate.Limiter
	seen time.Time
}

// Limiter keeps one token bucket per key, typically the client IP.
type Limiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	limit     rate.Limit
	burst     int
	lastPrune time.Time
	now       func() time.Time
}

// New allows bursts of capacity requests refilled at refillPerSec.
func New(capacity, refillPerSec float64) *Limiter {
	burst := int(math.Floor(capacity))
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		clients: make(map[string]*client),
		limit:   rate.Limit(refillPerSec),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow consumes one token of key's bucket.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastPrune) > idleAfter {
		l.prune(now.Add(-idleAfter))
		l.lastPrune = now
	}
	c, ok := l.clients[key]
	if !ok {
		c = &client{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.seen = now
	return c.lim.AllowN(now, 1)
}

// Prune drops buckets idle for longer than maxIdle.
func (l *Limiter) Prune(maxIdle time.Duration) {
	l.mu.Lock()
	l.prune(l.now().Add(-maxIdle))
	l.mu.Unlock()
}

func (l *Limiter) prune(cutoff time.Time) {
	for k, c := range l.clients {
		if c.seen.Before(cutoff) {
			delete(l.clients, k)
		}
	}
}
