package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	icache "StockPilot/internal/service/cache"
	"StockPilot/internal/services/sentiment"
	pkgkafka "StockPilot/pkg/kafka"
	applogger "StockPilot/pkg/logger"
)

// BarsIngestHandler consumes bar events, stores them and drops cached
// feature tables of the ticker.
type BarsIngestHandler struct {
	topic   string
	writer  domrepo.IngestWriter
	cache   icache.FeatureCache
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewBarsIngestHandler(topic string, writer domrepo.IngestWriter, cache icache.FeatureCache, metrics domrepo.Metrics) *BarsIngestHandler {
	if cache == nil {
		cache = icache.NopFeatureCache{}
	}
	return &BarsIngestHandler{topic: topic, writer: writer, cache: cache, metrics: metrics, l: applogger.Nop()}
}

func (h *BarsIngestHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *BarsIngestHandler) Topic() string { return h.topic }

// incoming message schema: a single BarEvent or an array of them
func (h *BarsIngestHandler) Handle(ctx context.Context, b []byte) error {
	events, err := decodeMany[models.BarEvent](b)
	if err != nil {
		h.metrics.RecordError("ingest_bars_unmarshal")
		return err
	}

	type series struct {
		ticker string
		tf     models.Timeframe
	}
	grouped := make(map[series][]models.PriceBar)
	var order []series
	for _, e := range events {
		key := series{ticker: strings.TrimSpace(e.Ticker), tf: domrepo.NormalizeTimeframe(string(e.Timeframe))}
		if key.ticker == "" || e.Date.IsZero() {
			h.metrics.RecordError("ingest_bars_invalid")
			continue
		}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], e.Bar())
	}

	start := time.Now()
	for _, key := range order {
		bars := grouped[key]
		if err := h.writer.WriteBars(ctx, key.ticker, key.tf, bars); err != nil {
			h.metrics.RecordError("ingest_bars_store")
			return fmt.Errorf("write bars %s: %w", key.ticker, err)
		}
		h.metrics.RecordIngest("bars", len(bars))
		if err := h.cache.Invalidate(ctx, key.ticker); err != nil {
			h.l.Warn("feature cache invalidation failed", applogger.String("ticker", key.ticker), applogger.Error(err))
		}
	}
	h.metrics.RecordStage("ingest_bars", time.Since(start).Seconds())
	return nil
}

// HeadlinesIngestHandler consumes headline events. Unscored headlines are
// scored with the lexicon before they are stored.
type HeadlinesIngestHandler struct {
	topic   string
	writer  domrepo.IngestWriter
	cache   icache.FeatureCache
	metrics domrepo.Metrics
	lexicon sentiment.Lexicon
	l       *applogger.Logger
}

func NewHeadlinesIngestHandler(topic string, writer domrepo.IngestWriter, cache icache.FeatureCache, metrics domrepo.Metrics, lexicon sentiment.Lexicon) *HeadlinesIngestHandler {
	if cache == nil {
		cache = icache.NopFeatureCache{}
	}
	return &HeadlinesIngestHandler{topic: topic, writer: writer, cache: cache, metrics: metrics, lexicon: lexicon, l: applogger.Nop()}
}

func (h *HeadlinesIngestHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *HeadlinesIngestHandler) Topic() string { return h.topic }

func (h *HeadlinesIngestHandler) Handle(ctx context.Context, b []byte) error {
	events, err := decodeMany[models.HeadlineEvent](b)
	if err != nil {
		h.metrics.RecordError("ingest_headlines_unmarshal")
		return err
	}

	records := make([]models.SentimentRecord, 0, len(events))
	tickers := make(map[string]struct{})
	for _, e := range events {
		ticker := strings.TrimSpace(e.Ticker)
		headline := strings.TrimSpace(e.Headline)
		if ticker == "" || headline == "" || e.Date.IsZero() {
			h.metrics.RecordError("ingest_headlines_invalid")
			continue
		}
		score := h.lexicon.Score(headline)
		if e.Score != nil {
			score = *e.Score
		}
		records = append(records, models.SentimentRecord{Date: e.Date, Ticker: ticker, Headline: headline, Score: score})
		tickers[ticker] = struct{}{}
	}
	if len(records) == 0 {
		return nil
	}

	if err := h.writer.WriteSentiment(ctx, records); err != nil {
		h.metrics.RecordError("ingest_headlines_store")
		return fmt.Errorf("write sentiment: %w", err)
	}
	h.metrics.RecordIngest("headlines", len(records))
	for t := range tickers {
		if err := h.cache.Invalidate(ctx, t); err != nil {
			h.l.Warn("feature cache invalidation failed", applogger.String("ticker", t), applogger.Error(err))
		}
	}
	return nil
}

func decodeMany[T any](b []byte) ([]T, error) {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		var many []T
		if err := json.Unmarshal(b, &many); err != nil {
			return nil, err
		}
		return many, nil
	}
	var one T
	if err := json.Unmarshal(b, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

var (
	_ pkgkafka.MessageHandler = (*BarsIngestHandler)(nil)
	_ pkgkafka.MessageHandler = (*HeadlinesIngestHandler)(nil)
)
