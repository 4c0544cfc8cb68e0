package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"StockPilot/internal/domain/models"
	"StockPilot/internal/domain/service"
	icache "StockPilot/internal/service/cache"
	"StockPilot/internal/testutil"
)

type fakePrices struct {
	mu        sync.Mutex
	daily     map[string][]models.PriceBar
	weekly    map[string][]models.PriceBar
	dailyHits int
	err       error
}

func newFakePrices() *fakePrices {
	return &fakePrices{daily: map[string][]models.PriceBar{}, weekly: map[string][]models.PriceBar{}}
}

// add stores n daily bars for ticker, with weekly bars when withWeekly is set.
func (f *fakePrices) add(ticker string, n int, withWeekly bool) {
	d := testutil.DailyBars(n)
	f.daily[ticker] = d
	if withWeekly {
		f.weekly[ticker] = testutil.WeeklyBars(d)
	}
}

func (f *fakePrices) DailyBars(_ context.Context, ticker string) ([]models.PriceBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyHits++
	if f.err != nil {
		return nil, f.err
	}
	bars, ok := f.daily[ticker]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ticker, models.ErrNotFound)
	}
	return bars, nil
}

func (f *fakePrices) WeeklyBars(_ context.Context, ticker string) ([]models.PriceBar, error) {
	bars, ok := f.weekly[ticker]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ticker, models.ErrNotFound)
	}
	return bars, nil
}

func (f *fakePrices) Tickers(context.Context) ([]string, error) {
	var out []string
	for t := range f.daily {
		out = append(out, t)
	}
	return out, nil
}

type fakeSentiment struct {
	records []models.SentimentRecord
	err     error
}

func (f *fakeSentiment) Sentiment(context.Context, string) ([]models.SentimentRecord, error) {
	return f.records, f.err
}

type fakeParams struct {
	params map[string]models.ModelParameterSet
	err    error
}

func (f *fakeParams) LoadParameters(context.Context) (map[string]models.ModelParameterSet, error) {
	return f.params, f.err
}

type mockModelStore struct {
	mock.Mock
}

func (m *mockModelStore) LoadModel(ctx context.Context, ticker string, kind models.ModelKind) (service.FittedModel, error) {
	args := m.Called(ctx, ticker, kind)
	fm, _ := args.Get(0).(service.FittedModel)
	return fm, args.Error(1)
}

// expect registers a model for ticker and kind.
func (m *mockModelStore) expect(ticker string, kind models.ModelKind, fm service.FittedModel) {
	m.On("LoadModel", mock.Anything, ticker, kind).Return(fm, nil)
}

// missing makes every other lookup fail with ErrModelNotFound.
func (m *mockModelStore) missing() {
	m.On("LoadModel", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("artifact: %w", models.ErrModelNotFound))
}

type memFeatureCache struct {
	mu          sync.Mutex
	tables      map[string]*models.FeatureTable
	invalidated []string
}

func newMemFeatureCache() *memFeatureCache {
	return &memFeatureCache{tables: map[string]*models.FeatureTable{}}
}

func (c *memFeatureCache) Get(_ context.Context, key icache.FeatureKey) (*models.FeatureTable, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tables[key.String()]
	return t, ok
}

func (c *memFeatureCache) Put(_ context.Context, key icache.FeatureKey, t *models.FeatureTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[key.String()] = t
	return nil
}

func (c *memFeatureCache) Invalidate(_ context.Context, ticker string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, ticker)
	return nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[models.FailureReason]int
	ingested map[string]int
	errors   []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{outcomes: map[models.FailureReason]int{}, ingested: map[string]int{}}
}

func (m *recordingMetrics) RecordStage(string, float64) {}

func (m *recordingMetrics) RecordOutcome(_ string, reason models.FailureReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[reason]++
}

func (m *recordingMetrics) RecordIngest(kind string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested[kind] += n
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

type fakeWriter struct {
	mu        sync.Mutex
	bars      map[string][]models.PriceBar
	sentiment []models.SentimentRecord
	err       error
}

func newFakeWriter() *fakeWriter { return &fakeWriter{bars: map[string][]models.PriceBar{}} }

func (w *fakeWriter) WriteBars(_ context.Context, ticker string, tf models.Timeframe, bars []models.PriceBar) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	key := ticker + "/" + string(tf)
	w.bars[key] = append(w.bars[key], bars...)
	return nil
}

func (w *fakeWriter) WriteSentiment(_ context.Context, records []models.SentimentRecord) error {
	if w.err != nil {
		return w.err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sentiment = append(w.sentiment, records...)
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishScreen(ctx context.Context, res *models.ScreenResult) error {
	return m.Called(ctx, res).Error(0)
}

func (m *mockPublisher) PublishBacktests(ctx context.Context, res *models.BatchBacktestResult) error {
	return m.Called(ctx, res).Error(0)
}

var directionFeatures = []string{models.ColClose, models.RSIColumn(14), models.ColADX, "not_a_column"}

func longModel() *testutil.ConstantModel {
	return &testutil.ConstantModel{Names: directionFeatures, Value: 1}
}

func flatModel() *testutil.ConstantModel {
	return &testutil.ConstantModel{Names: directionFeatures, Value: 0}
}

type fixture struct {
	prices  *fakePrices
	models  *mockModelStore
	cache   *memFeatureCache
	metrics *recordingMetrics
	svc     *PipelineService
}

func newFixture() *fixture {
	f := &fixture{
		prices:  newFakePrices(),
		models:  &mockModelStore{},
		cache:   newMemFeatureCache(),
		metrics: newRecordingMetrics(),
	}
	f.svc = NewPipelineService(f.prices, &fakeSentiment{}, f.models, &fakeParams{}, f.cache, f.metrics, PipelineConfig{Workers: 4})
	return f
}
