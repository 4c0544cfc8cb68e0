// Package queue is a Redis list backed job queue with delayed retries and a
// dead letter list.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrQueueFull is returned by Enqueue when MaxPending messages are waiting.
var ErrQueueFull = errors.New("queue: full")

// ErrUnknownType is returned by Enqueue for a type no job handles.
var ErrUnknownType = errors.New("queue: unknown message type")

// Enqueuer adds jobs and reports the id they were queued under.
type Enqueuer interface {
	EnqueueWithID(ctx context.Context, msgType string, payload interface{}) (string, error)
}

// JobObserver receives the outcome of every handled message.
type JobObserver interface {
	ObserveJob(jobType string, seconds float64, err error)
}

type Config struct {
	Workers int
	// MaxPending bounds the pending list; zero means unbounded.
	MaxPending int64
	// RetryLimit is how many times a failed message is retried before it is
	// moved to the dead letter list.
	RetryLimit int
	// RetryDelay is the first retry delay; it doubles on every attempt.
	RetryDelay time.Duration
	// PollTimeout bounds one blocking pop so Stop is noticed.
	PollTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 10 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = time.Second
	}
	return c
}

// backoff is the delay before retry number attempt (1-based).
func (c Config) backoff(attempt int) time.Duration {
	d := c.RetryDelay
	for i := 1; i < attempt && d < time.Hour; i++ {
		d *= 2
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

// Message is the unit stored in Redis.
type Message struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Attempts   int             `json:"attempts"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	LastError  string          `json:"last_error,omitempty"`
}

// Stats are the list sizes at one instant.
type Stats struct {
	Pending  int64 `json:"pending"`
	Retrying int64 `json:"retrying"`
	Dead     int64 `json:"dead"`
}

type messageIDKey struct{}

// WithMessageID stores the id of the message being handled.
func WithMessageID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, messageIDKey{}, id)
}

// MessageID returns the id of the message being handled, if any.
func MessageID(ctx context.Context) string {
	id, _ := ctx.Value(messageIDKey{}).(string)
	return id
}
