package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"
)

// Message is one record to publish. Value is sent as is when it is []byte or
// string and JSON-encoded otherwise.
type Message struct {
	Key     []byte
	Value   interface{}
	Headers map[string]string
}

// Producer writes JSON records to Kafka.
type Producer struct {
	writer *kafka.Writer
	comp   string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka producer: brokers are required")
	}
	cfg = cfg.withDefaults()
	comp, err := parseCompression(cfg.Compression)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	var bal kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		bal = &kafka.Hash{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     bal,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  comp,
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.Linger,
		Async:        cfg.Async,
	}
	producerMetricsOnce.Do(registerProducerMetrics)
	return &Producer{writer: w, comp: cfg.Compression}, nil
}

// Publish writes msgs to topic in one batch. The trace id of ctx, if any,
// travels in the trace_id header so consumers can correlate.
func (p *Producer) Publish(ctx context.Context, topic string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	start := time.Now()
	out, size, err := encodeMessages(ctx, topic, msgs)
	if err != nil {
		return err
	}
	err = p.writer.WriteMessages(ctx, out...)
	observePublish(topic, p.comp, size, len(out), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("write %s: %w", topic, err)
	}
	return nil
}

// PublishJSON publishes a single value under key; an empty key lets the
// balancer pick the partition.
func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v interface{}) error {
	m := Message{Value: v}
	if key != "" {
		m.Key = []byte(key)
	}
	return p.Publish(ctx, topic, m)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

const traceHeader = "trace_id"

func encodeMessages(ctx context.Context, topic string, msgs []Message) ([]kafka.Message, int64, error) {
	var traceID []byte
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		traceID = []byte(sc.TraceID().String())
	}
	now := time.Now()
	out := make([]kafka.Message, 0, len(msgs))
	var size int64
	for i, m := range msgs {
		v, err := encodeValue(m.Value)
		if err != nil {
			return nil, 0, fmt.Errorf("encode %s message %d: %w", topic, i, err)
		}
		km := kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: now}
		for k, hv := range m.Headers {
			km.Headers = append(km.Headers, kafka.Header{Key: k, Value: []byte(hv)})
		}
		if traceID != nil && m.Headers[traceHeader] == "" {
			km.Headers = append(km.Headers, kafka.Header{Key: traceHeader, Value: traceID})
		}
		out = append(out, km)
		size += int64(len(v))
	}
	return out, size, nil
}

func encodeValue(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		return json.Marshal(v)
	}
}

var (
	producerMetricsOnce sync.Once
	producerMessages    *prometheus.CounterVec
	producerBytes       *prometheus.CounterVec
	producerLatency     *prometheus.HistogramVec
)

func registerProducerMetrics() {
	producerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_kafka_producer_messages_total",
		Help: "Messages published to Kafka by result",
	}, []string{"topic", "result"})
	producerBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stockpilot_kafka_producer_bytes_total",
		Help: "Payload bytes published to Kafka",
	}, []string{"topic", "compression"})
	producerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockpilot_kafka_producer_publish_seconds",
		Help:    "Latency of one Publish call",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
}

func observePublish(topic, comp string, size int64, n int, d time.Duration, err error) {
	if producerMessages == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	producerMessages.WithLabelValues(topic, result).Add(float64(n))
	if err == nil {
		producerBytes.WithLabelValues(topic, comp).Add(float64(size))
	}
	producerLatency.WithLabelValues(topic).Observe(d.Seconds())
}
