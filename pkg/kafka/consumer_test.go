package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	topic string
	fails int
	calls int
	panic bool
}

func (h *flakyHandler) Topic() string { return h.topic }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.panic {
		panic("bad payload")
	}
	if h.calls <= h.fails {
		return errors.New("transient")
	}
	return nil
}

func newTestConsumer(t *testing.T, retries int) *Consumer {
	t.Helper()
	c, err := NewConsumer(ConsumerConfig{
		Brokers:    []string{"localhost:9092"},
		RetryMax:   retries,
		BackoffMin: time.Millisecond,
		BackoffMax: 2 * time.Millisecond,
	})
	require.NoError(t, err)
	return c
}

func TestConsumerConfigDefaults(t *testing.T) {
	_, err := NewConsumer(ConsumerConfig{})
	assert.Error(t, err)

	c := ConsumerConfig{BackoffMin: time.Second, BackoffMax: time.Millisecond}.withDefaults()
	assert.Equal(t, "stockpilot", c.GroupID)
	assert.Equal(t, 1, c.Workers)
	assert.Equal(t, time.Second, c.BackoffMax)
	assert.Equal(t, 10<<20, c.MaxBytes)
}

func TestConsumerRegisterAndLifecycle(t *testing.T) {
	c := newTestConsumer(t, 0)
	assert.NoError(t, c.Stop(context.Background()))
	assert.Error(t, c.Start())

	c.Register(&flakyHandler{topic: "bars"}, &flakyHandler{topic: "headlines"}, &flakyHandler{topic: "bars"})
	assert.Equal(t, []string{"bars", "headlines"}, c.Topics())
}

func TestAttemptRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	var failures int
	c.SetHook(HookFuncs{Err: func(context.Context, string, kafka.Message, []byte, error) { failures++ }})

	h := &flakyHandler{topic: "bars", fails: 2}
	n, err := c.attempt(context.Background(), h, kafka.Message{Topic: "bars", Value: []byte("{}")})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, failures)
}

func TestAttemptGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t, 1)
	h := &flakyHandler{topic: "bars", fails: 10}
	n, err := c.attempt(context.Background(), h, kafka.Message{Topic: "bars"})
	assert.EqualError(t, err, "transient")
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, h.calls)
}

func TestAttemptStopsOnHookErrorAndPanics(t *testing.T) {
	c := newTestConsumer(t, 3)
	c.SetHook(HookFuncs{Before: func(ctx context.Context, _ string, km kafka.Message, d []byte) (context.Context, kafka.Message, []byte, error) {
		return ctx, km, d, &HookError{Code: "ERR_VALIDATION"}
	}})
	h := &flakyHandler{topic: "bars"}
	n, err := c.attempt(context.Background(), h, kafka.Message{Topic: "bars"})
	assert.Equal(t, 1, n)
	assert.EqualError(t, err, "ERR_VALIDATION")
	assert.Zero(t, h.calls)

	c = newTestConsumer(t, 0)
	_, err = c.attempt(context.Background(), &flakyHandler{topic: "bars", panic: true}, kafka.Message{Topic: "bars"})
	var he *HookError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "ERR_PANIC", he.Code)
}

func TestShardOfIsStable(t *testing.T) {
	for p := 0; p < 16; p++ {
		s := shardOf("bars", p, 4)
		assert.GreaterOrEqual(t, s, 0)
		assert.Less(t, s, 4)
		assert.Equal(t, s, shardOf("bars", p, 4))
	}
	assert.Equal(t, 0, shardOf("headlines", 7, 1))
}
