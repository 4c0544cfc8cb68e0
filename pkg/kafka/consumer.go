package kafka

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	applogger "StockPilot/pkg/logger"
)

// MessageHandler consumes the payloads of one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerConfig configures a consumer group reader set.
type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Workers    int
	BufferSize int
	RetryMax   int
	BackoffMin time.Duration
	BackoffMax time.Duration
	// DLQTopic receives messages that still fail after RetryMax retries.
	// Without it such messages are committed and dropped.
	DLQTopic string
	MinBytes int
	MaxBytes int
}

func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.GroupID == "" {
		c.GroupID = "stockpilot"
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 64
	}
	if c.RetryMax < 0 {
		c.RetryMax = 0
	}
	if c.BackoffMin <= 0 {
		c.BackoffMin = 50 * time.Millisecond
	}
	if c.BackoffMax < c.BackoffMin {
		c.BackoffMax = c.BackoffMin
	}
	if c.MinBytes <= 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	return c
}

type fetched struct {
	reader *kafka.Reader
	msg    kafka.Message
}

// Consumer reads every registered topic with one reader per topic and fans
// messages out to a fixed set of workers. A (topic, partition) always maps to
// the same worker, so a partition is handled in order. Offsets are committed
// only after the handler succeeded or the message was dead-lettered.
type Consumer struct {
	cfg      ConsumerConfig
	handlers map[string]MessageHandler
	readers  []*kafka.Reader
	shards   []chan fetched
	dlq      *kafka.Writer
	hook     ConsumerHook
	log      *applogger.Logger

	cancel   context.CancelFunc
	readWG   sync.WaitGroup
	workWG   sync.WaitGroup
	started  bool
	stopOnce sync.Once
}

// NewConsumer validates cfg. Readers are created by Start.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	cfg = cfg.withDefaults()
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka consumer: brokers are required")
	}
	c := &Consumer{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
		hook:     NoopHook{},
		log:      applogger.Nop(),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		}
	}
	initConsumerMetrics()
	return c, nil
}

func (c *Consumer) SetLogger(l *applogger.Logger) {
	if l != nil {
		c.log = l
	}
}

func (c *Consumer) SetHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Register adds handlers before Start. A second handler for a topic is ignored.
func (c *Consumer) Register(handlers ...MessageHandler) {
	for _, h := range handlers {
		topic := h.Topic()
		if _, dup := c.handlers[topic]; dup {
			c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
			continue
		}
		c.handlers[topic] = h
	}
}

// Topics lists the registered topics in sorted order.
func (c *Consumer) Topics() []string {
	out := make([]string, 0, len(c.handlers))
	for t := range c.handlers {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Start launches the workers and one fetch loop per registered topic.
func (c *Consumer) Start() error {
	if c.started {
		return errors.New("kafka consumer: already started")
	}
	if len(c.handlers) == 0 {
		return errors.New("kafka consumer: no handlers registered")
	}
	c.started = true

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel

	c.shards = make([]chan fetched, c.cfg.Workers)
	per := c.cfg.BufferSize / c.cfg.Workers
	if per < 1 {
		per = 1
	}
	for i := range c.shards {
		c.shards[i] = make(chan fetched, per)
		c.workWG.Add(1)
		go c.work(ctx, c.shards[i])
	}

	for _, topic := range c.Topics() {
		r := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			GroupID:  c.cfg.GroupID,
			Topic:    topic,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
		c.readers = append(c.readers, r)
		c.readWG.Add(1)
		go c.fetch(ctx, r)
	}
	c.log.Info("kafka consumer running",
		applogger.String("group", c.cfg.GroupID),
		applogger.Int("workers", c.cfg.Workers),
		applogger.Strings("topics", c.Topics()))
	return nil
}

// Stop cancels fetching, lets workers finish the message in hand and closes
// the readers. Uncommitted messages are redelivered to the group later.
func (c *Consumer) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}
	var err error
	c.stopOnce.Do(func() {
		c.cancel()
		c.readWG.Wait()
		for _, ch := range c.shards {
			close(ch)
		}

		done := make(chan struct{})
		go func() {
			c.workWG.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer: stop: %w", ctx.Err())
		}

		var closeErrs []error
		for _, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				closeErrs = append(closeErrs, cerr)
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				closeErrs = append(closeErrs, cerr)
			}
		}
		err = errors.Join(append([]error{err}, closeErrs...)...)
		c.log.Info("kafka consumer stopped")
	})
	return err
}

func (c *Consumer) fetch(ctx context.Context, r *kafka.Reader) {
	defer c.readWG.Done()
	topic := r.Config().Topic
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("kafka fetch failed", applogger.String("topic", topic), applogger.Error(err))
			if !sleepCtx(ctx, c.cfg.BackoffMin) {
				return
			}
			continue
		}
		shard := c.shards[shardOf(msg.Topic, msg.Partition, len(c.shards))]
		select {
		case shard <- fetched{reader: r, msg: msg}:
			consumerBacklog.WithLabelValues(topic).Set(float64(len(shard)))
		case <-ctx.Done():
			return
		}
	}
}

func (c *Consumer) work(ctx context.Context, in <-chan fetched) {
	defer c.workWG.Done()
	for f := range in {
		if ctx.Err() != nil {
			continue
		}
		c.process(ctx, f)
	}
}

func (c *Consumer) process(ctx context.Context, f fetched) {
	h, ok := c.handlers[f.msg.Topic]
	if !ok {
		return
	}
	start := time.Now()
	attempts, err := c.attempt(ctx, h, f.msg)
	consumerHandleSeconds.WithLabelValues(f.msg.Topic).Observe(time.Since(start).Seconds())
	if ctx.Err() != nil {
		// Interrupted by Stop; leave the offset for redelivery.
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "failed"
		c.log.Error("kafka message failed",
			applogger.String("topic", f.msg.Topic),
			applogger.Int("partition", f.msg.Partition),
			applogger.Int64("offset", f.msg.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err))
		if c.dlq != nil {
			if derr := c.deadLetter(ctx, f.msg, attempts, err); derr != nil {
				// Not committing keeps the message for the next consumer.
				c.log.Error("kafka dlq write failed", applogger.String("topic", c.cfg.DLQTopic), applogger.Error(derr))
				consumerMessages.WithLabelValues(f.msg.Topic, "dlq_failed").Inc()
				return
			}
			outcome = "dead_lettered"
		}
	}
	consumerMessages.WithLabelValues(f.msg.Topic, outcome).Inc()
	c.commit(ctx, f)
}

// attempt runs the hooks and the handler up to RetryMax+1 times.
func (c *Consumer) attempt(ctx context.Context, h MessageHandler, km kafka.Message) (int, error) {
	var err error
	n := 0
	for n <= c.cfg.RetryMax {
		n++
		hctx, hmsg, data, berr := c.hook.BeforeHandle(ctx, km.Topic, km, km.Value)
		if berr != nil {
			return n, berr
		}
		err = safeHandle(hctx, h, data)
		c.hook.AfterHandle(hctx, km.Topic, hmsg, data, err)
		if err == nil {
			return n, nil
		}
		c.hook.OnError(hctx, km.Topic, hmsg, data, err)
		if n > c.cfg.RetryMax || !sleepCtx(ctx, backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, n)) {
			break
		}
	}
	return n, err
}

func (c *Consumer) deadLetter(ctx context.Context, km kafka.Message, attempts int, cause error) error {
	headers := append([]kafka.Header(nil), km.Headers...)
	headers = append(headers,
		kafka.Header{Key: "source_topic", Value: []byte(km.Topic)},
		kafka.Header{Key: "source_partition", Value: []byte(strconv.Itoa(km.Partition))},
		kafka.Header{Key: "source_offset", Value: []byte(strconv.FormatInt(km.Offset, 10))},
		kafka.Header{Key: "attempts", Value: []byte(strconv.Itoa(attempts))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
	)
	wctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return c.dlq.WriteMessages(wctx, kafka.Message{Key: km.Key, Value: km.Value, Headers: headers, Time: time.Now()})
}

func (c *Consumer) commit(ctx context.Context, f fetched) {
	var err error
	for i := 1; i <= 3; i++ {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = f.reader.CommitMessages(cctx, f.msg)
		cancel()
		if err == nil {
			return
		}
		if !sleepCtx(ctx, backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, i)) {
			break
		}
	}
	c.log.Warn("kafka commit failed", applogger.String("topic", f.msg.Topic), applogger.Int64("offset", f.msg.Offset), applogger.Error(err))
}

func safeHandle(ctx context.Context, h MessageHandler, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("handler panic: %v", r)}
		}
	}()
	return h.Handle(ctx, data)
}

func shardOf(topic string, partition, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(topic))
	_, _ = h.Write([]byte{byte(partition >> 24), byte(partition >> 16), byte(partition >> 8), byte(partition)})
	return int(h.Sum32() % uint32(n))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// backoffWithJitter doubles min per attempt up to max and removes up to half
// of it at random.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	d := max
	if attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}

var (
	consumerMetricsOnce   sync.Once
	consumerBacklog       *prometheus.GaugeVec
	consumerHandleSeconds *prometheus.HistogramVec
	consumerMessages      *prometheus.CounterVec
)

func initConsumerMetrics() {
	consumerMetricsOnce.Do(func() {
		consumerBacklog = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stockpilot_kafka_consumer_backlog",
			Help: "Messages fetched and waiting for a worker.",
		}, []string{"topic"})
		consumerHandleSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stockpilot_kafka_consumer_handle_seconds",
			Help:    "Time spent handling one message, retries included.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})
		consumerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stockpilot_kafka_consumer_messages_total",
			Help: "Handled messages by outcome.",
		}, []string{"topic", "outcome"})
	})
}
