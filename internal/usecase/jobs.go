package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	applogger "StockPilot/pkg/logger"
	"StockPilot/pkg/queue"
)

// Queue message types.
const (
	JobTypeScreen        = "screen.run"
	JobTypeBatchBacktest = "backtest.batch"
)

// ScreenJob runs a queued screen and publishes its result.
type ScreenJob struct {
	pipeline  *PipelineService
	publisher domrepo.ResultPublisher
	l         *applogger.Logger
}

func NewScreenJob(pipeline *PipelineService, publisher domrepo.ResultPublisher, l *applogger.Logger) *ScreenJob {
	if l == nil {
		l = applogger.Nop()
	}
	return &ScreenJob{pipeline: pipeline, publisher: publisher, l: l}
}

func (j *ScreenJob) Type() string { return JobTypeScreen }

// Handle uses the queue message id as the screen run id.
func (j *ScreenJob) Handle(ctx context.Context, payload json.RawMessage) error {
	req, err := queue.Decode[models.ScreenRequest](payload)
	if err != nil {
		return fmt.Errorf("screen job payload: %w", err)
	}
	runID := queue.MessageID(ctx)
	ctx, span := j.pipeline.tracer.Start(ctx, "job.screen", trace.WithAttributes(attribute.String("run_id", runID)))
	defer span.End()

	start := time.Now()
	res, err := j.pipeline.RunScreen(ctx, req.Tickers, req.RiskParams, WithRunID(runID))
	if err != nil {
		return j.pipeline.fail(span, fmt.Errorf("screen job: %w", err))
	}
	if err := j.publisher.PublishScreen(ctx, res); err != nil {
		return j.pipeline.fail(span, fmt.Errorf("publish screen %s: %w", res.RunID, err))
	}
	j.l.Info("screen job done",
		applogger.String("run_id", res.RunID),
		applogger.Int("short_term", len(res.ShortTerm)),
		applogger.Int("long_term", len(res.LongTerm)),
		applogger.Duration("elapsed", time.Since(start)))
	return nil
}

// BatchBacktestJob runs a queued batch backtest and publishes the summaries.
type BatchBacktestJob struct {
	pipeline  *PipelineService
	publisher domrepo.ResultPublisher
	l         *applogger.Logger
}

func NewBatchBacktestJob(pipeline *PipelineService, publisher domrepo.ResultPublisher, l *applogger.Logger) *BatchBacktestJob {
	if l == nil {
		l = applogger.Nop()
	}
	return &BatchBacktestJob{pipeline: pipeline, publisher: publisher, l: l}
}

func (j *BatchBacktestJob) Type() string { return JobTypeBatchBacktest }

func (j *BatchBacktestJob) Handle(ctx context.Context, payload json.RawMessage) error {
	req, err := queue.Decode[models.BatchBacktestHTTPRequest](payload)
	if err != nil {
		return fmt.Errorf("backtest job payload: %w", err)
	}
	ctx, span := j.pipeline.tracer.Start(ctx, "job.backtest_batch", trace.WithAttributes(
		attribute.String("job_id", queue.MessageID(ctx))))
	defer span.End()

	res, err := j.pipeline.RunBatchBacktest(ctx, req.Tickers, req.BacktestRequest)
	if err != nil {
		return j.pipeline.fail(span, fmt.Errorf("backtest job: %w", err))
	}
	if err := j.publisher.PublishBacktests(ctx, res); err != nil {
		return j.pipeline.fail(span, fmt.Errorf("publish backtests: %w", err))
	}
	j.l.Info("batch backtest job done",
		applogger.Int("reports", len(res.Reports)),
		applogger.Int("failed", res.Summary.Failed))
	return nil
}

var (
	_ queue.Job = (*ScreenJob)(nil)
	_ queue.Job = (*BatchBacktestJob)(nil)
)
