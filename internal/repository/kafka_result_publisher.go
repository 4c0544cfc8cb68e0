package repository

import (
	"context"
	"fmt"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	pkgkafka "StockPilot/pkg/kafka"
)

// Publisher is the subset of the Kafka producer used for results.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...pkgkafka.Message) error
}

// KafkaResultPublisher publishes screen results keyed by run id and backtest
// reports keyed by ticker.
type KafkaResultPublisher struct {
	producer      Publisher
	screenTopic   string
	backtestTopic string
}

func NewKafkaResultPublisher(p Publisher, screenTopic, backtestTopic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: p, screenTopic: screenTopic, backtestTopic: backtestTopic}
}

func (p *KafkaResultPublisher) PublishScreen(ctx context.Context, res *models.ScreenResult) error {
	if res == nil {
		return nil
	}
	if err := p.producer.Publish(ctx, p.screenTopic, pkgkafka.Message{Key: []byte(res.RunID), Value: res}); err != nil {
		return fmt.Errorf("publish screen %s: %w", res.RunID, err)
	}
	return nil
}

func (p *KafkaResultPublisher) PublishBacktests(ctx context.Context, res *models.BatchBacktestResult) error {
	if res == nil || len(res.Reports) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(res.Reports))
	for i := range res.Reports {
		r := res.Reports[i]
		// curves stay out of the topic, the summary is what consumers need
		r.Curve = nil
		msgs = append(msgs, pkgkafka.Message{Key: []byte(r.Ticker), Value: r})
	}
	if err := p.producer.Publish(ctx, p.backtestTopic, msgs...); err != nil {
		return fmt.Errorf("publish backtests: %w", err)
	}
	return nil
}

// NopResultPublisher drops results, used when Kafka is disabled.
type NopResultPublisher struct{}

func (NopResultPublisher) PublishScreen(context.Context, *models.ScreenResult) error { return nil }
func (NopResultPublisher) PublishBacktests(context.Context, *models.BatchBacktestResult) error {
	return nil
}

var (
	_ domrepo.ResultPublisher = (*KafkaResultPublisher)(nil)
	_ domrepo.ResultPublisher = NopResultPublisher{}
)
