package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	applogger "StockPilot/pkg/logger"
)

type spanKey struct{}

// TracingHook opens one span per handled message. The trace_id header, when
// present, is kept as an attribute so producers without otel stay correlated.
type TracingHook struct {
	tracer trace.Tracer
}

func NewTracingHook(name string) *TracingHook {
	return &TracingHook{tracer: otel.Tracer(name)}
}

func (h *TracingHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	ctx = WithStartTime(ctx, time.Now())
	traceID := ExtractTraceID(km)
	ctx = WithTraceID(ctx, traceID)
	ctx, span := h.tracer.Start(ctx, "kafka.consume "+topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination", topic),
			attribute.Int("messaging.kafka.partition", km.Partition),
			attribute.Int64("messaging.kafka.offset", km.Offset),
			attribute.String("messaging.key", string(km.Key)),
		),
	)
	if traceID != "" {
		span.SetAttributes(attribute.String("upstream.trace_id", traceID))
	}
	return context.WithValue(ctx, spanKey{}, span), km, data, nil
}

func (h *TracingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	span, ok := ctx.Value(spanKey{}).(trace.Span)
	if !ok {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (h *TracingHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

// LoggingHook logs failed attempts with the handling latency.
type LoggingHook struct {
	log *applogger.Logger
}

func NewLoggingHook(l *applogger.Logger) *LoggingHook {
	return &LoggingHook{log: l}
}

func (h *LoggingHook) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if _, ok := StartTime(ctx); !ok {
		ctx = WithStartTime(ctx, time.Now())
	}
	return ctx, km, data, nil
}

func (h *LoggingHook) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {}

func (h *LoggingHook) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.log == nil {
		return
	}
	fields := []applogger.Field{
		applogger.String("topic", topic),
		applogger.Int("partition", km.Partition),
		applogger.Int64("offset", km.Offset),
		applogger.Error(err),
	}
	if start, ok := StartTime(ctx); ok {
		fields = append(fields, applogger.Duration("elapsed_ms", time.Since(start)))
	}
	if id := TraceID(ctx); id != "" {
		fields = append(fields, applogger.String("trace_id", id))
	}
	h.log.Warn("kafka message attempt failed", fields...)
}

var (
	_ ConsumerHook = (*TracingHook)(nil)
	_ ConsumerHook = (*LoggingHook)(nil)
)
