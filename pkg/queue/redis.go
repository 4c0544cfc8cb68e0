package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"StockPilot/pkg/logger"
)

// promoteBatch bounds how many due retries are moved per tick.
const promoteBatch = 100

// RedisQueue keeps pending messages in a list, scheduled retries in a sorted
// set scored by due time (unix ms) and exhausted messages in a dead list.
// Any process can enqueue; workers run only after Start.
type RedisQueue struct {
	client   *redis.Client
	cfg      Config
	l        *logger.Logger
	prefix   string
	observer JobObserver

	mu      sync.RWMutex
	jobs    map[string]Job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	now     func() time.Time
}

type Option func(*RedisQueue)

// WithKeyPrefix namespaces the Redis keys; "stockpilot:queue" by default.
func WithKeyPrefix(prefix string) Option {
	return func(q *RedisQueue) {
		if prefix != "" {
			q.prefix = prefix
		}
	}
}

// WithObserver reports job outcomes, typically to a metrics recorder.
func WithObserver(o JobObserver) Option {
	return func(q *RedisQueue) { q.observer = o }
}

func NewRedisQueue(client *redis.Client, cfg Config, l *logger.Logger, opts ...Option) *RedisQueue {
	if l == nil {
		l = logger.Nop()
	}
	q := &RedisQueue{
		client: client,
		cfg:    cfg.withDefaults(),
		l:      l,
		prefix: "stockpilot:queue",
		jobs:   make(map[string]Job),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Register adds jobs. A second job for the same type replaces the first.
func (q *RedisQueue) Register(jobs ...Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, j := range jobs {
		q.jobs[j.Type()] = j
	}
}

func (q *RedisQueue) job(msgType string) (Job, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	j, ok := q.jobs[msgType]
	return j, ok
}

func (q *RedisQueue) pendingKey() string { return q.prefix + ":pending" }
func (q *RedisQueue) retryKey() string   { return q.prefix + ":retry" }
func (q *RedisQueue) deadKey() string    { return q.prefix + ":dead" }

// EnqueueWithID encodes payload and pushes it for the workers.
func (q *RedisQueue) EnqueueWithID(ctx context.Context, msgType string, payload interface{}) (string, error) {
	if _, ok := q.job(msgType); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownType, msgType)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	if q.cfg.MaxPending > 0 {
		n, err := q.client.LLen(ctx, q.pendingKey()).Result()
		if err != nil {
			return "", fmt.Errorf("queue length: %w", err)
		}
		if n >= q.cfg.MaxPending {
			return "", ErrQueueFull
		}
	}
	msg := Message{ID: uuid.NewString(), Type: msgType, Payload: raw, EnqueuedAt: q.now().UTC()}
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	if err := q.client.LPush(ctx, q.pendingKey(), data).Err(); err != nil {
		return "", fmt.Errorf("lpush: %w", err)
	}
	return msg.ID, nil
}

// Start launches the workers and the retry promoter.
func (q *RedisQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return errors.New("queue already running")
	}
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := q.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.cancel = cancel
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(ctx)
	}
	q.wg.Add(1)
	go q.promote(ctx)

	q.l.Info("job queue started",
		logger.Int("workers", q.cfg.Workers),
		logger.String("prefix", q.prefix),
		logger.Int("job_types", len(q.jobs)))
	return nil
}

// Stop cancels the workers and waits for in-flight jobs until ctx ends.
func (q *RedisQueue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		q.l.Info("job queue stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop job queue: %w", ctx.Err())
	}
}

// Stats reads the current list sizes.
func (q *RedisQueue) Stats(ctx context.Context) (Stats, error) {
	pipe := q.client.Pipeline()
	pending := pipe.LLen(ctx, q.pendingKey())
	retrying := pipe.ZCard(ctx, q.retryKey())
	dead := pipe.LLen(ctx, q.deadKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	return Stats{Pending: pending.Val(), Retrying: retrying.Val(), Dead: dead.Val()}, nil
}

func (q *RedisQueue) work(ctx context.Context) {
	defer q.wg.Done()
	for ctx.Err() == nil {
		res, err := q.client.BRPop(ctx, q.cfg.PollTimeout, q.pendingKey()).Result()
		switch {
		case errors.Is(err, redis.Nil), ctx.Err() != nil:
			continue
		case err != nil:
			q.l.Error("job queue pop failed", logger.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		// BRPOP replies with [key, value]
		if len(res) == 2 {
			q.handle(ctx, res[1])
		}
	}
}

func (q *RedisQueue) handle(ctx context.Context, data string) {
	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		q.l.Error("job queue dropped undecodable message", logger.Error(err))
		return
	}
	job, ok := q.job(msg.Type)
	if !ok {
		msg.LastError = ErrUnknownType.Error()
		q.bury(msg)
		return
	}

	start := q.now()
	err := job.Handle(WithMessageID(ctx, msg.ID), msg.Payload)
	if q.observer != nil {
		q.observer.ObserveJob(msg.Type, time.Since(start).Seconds(), err)
	}
	if err == nil {
		return
	}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		// interrupted by Stop; put it back untouched
		q.push(q.pendingKey(), msg)
		return
	}

	msg.Attempts++
	msg.LastError = err.Error()
	fields := []logger.Field{
		logger.String("id", msg.ID),
		logger.String("type", msg.Type),
		logger.Int("attempt", msg.Attempts),
		logger.Error(err),
	}
	if msg.Attempts > q.cfg.RetryLimit {
		q.l.Error("job failed permanently", fields...)
		q.bury(msg)
		return
	}
	due := q.now().Add(q.cfg.backoff(msg.Attempts))
	q.l.Warn("job failed, retry scheduled", append(fields, logger.String("due", due.Format(time.RFC3339)))...)
	q.schedule(msg, due)
}

func (q *RedisQueue) encode(msg Message) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		q.l.Error("job queue encode failed", logger.String("id", msg.ID), logger.Error(err))
		return nil, false
	}
	return data, true
}

// push, schedule and bury run with a fresh context so a message survives Stop.
func (q *RedisQueue) push(key string, msg Message) {
	data, ok := q.encode(msg)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.client.LPush(ctx, key, data).Err(); err != nil {
		q.l.Error("job queue push failed", logger.String("key", key), logger.Error(err))
	}
}

func (q *RedisQueue) bury(msg Message) { q.push(q.deadKey(), msg) }

func (q *RedisQueue) schedule(msg Message, due time.Time) {
	data, ok := q.encode(msg)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	z := redis.Z{Score: float64(due.UnixMilli()), Member: data}
	if err := q.client.ZAdd(ctx, q.retryKey(), z).Err(); err != nil {
		q.l.Error("job queue schedule failed", logger.String("id", msg.ID), logger.Error(err))
	}
}

// promote moves due retries back to the pending list. A member is pushed only
// by the process whose ZREM removed it, so concurrent promoters never
// duplicate a message.
func (q *RedisQueue) promote(ctx context.Context) {
	defer q.wg.Done()
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		due, err := q.client.ZRangeByScore(ctx, q.retryKey(), &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(q.now().UnixMilli(), 10),
			Count: promoteBatch,
		}).Result()
		if err != nil {
			if ctx.Err() == nil {
				q.l.Error("job queue retry scan failed", logger.Error(err))
			}
			continue
		}
		for _, member := range due {
			removed, err := q.client.ZRem(ctx, q.retryKey(), member).Result()
			if err != nil || removed == 0 {
				continue
			}
			if err := q.client.LPush(ctx, q.pendingKey(), member).Err(); err != nil {
				q.l.Error("job queue promote failed", logger.Error(err))
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

var _ Enqueuer = (*RedisQueue)(nil)
