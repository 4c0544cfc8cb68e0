package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	models "StockPilot/internal/domain/models"
	"StockPilot/internal/service/ratelimit"
	"StockPilot/internal/testutil"
	"StockPilot/internal/usecase"
	"StockPilot/pkg/queue"
)

type stubPipeline struct {
	mu        sync.Mutex
	err       error
	universe  []string
	risk      models.RiskParams
	params    *models.ModelParameterSet
	lastRunID string
}

func (s *stubPipeline) RunPipeline(_ context.Context, ticker string, params *models.ModelParameterSet) (*models.SignalTable, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.params = params
	table := &models.FeatureTable{Ticker: ticker, Params: models.DefaultParameters()}
	for _, b := range testutil.DailyBars(40) {
		table.Rows = append(table.Rows, models.FeatureRow{Date: b.Date, Close: b.Close})
	}
	sigs := make([]models.TradeSignal, len(table.Rows))
	for i := range sigs {
		sigs[i] = models.TradeSignal{Date: table.Rows[i].Date, Direction: models.Direction(i % 2)}
	}
	return &models.SignalTable{Features: table, Signals: sigs}, nil
}

func (s *stubPipeline) GetTradePlan(_ context.Context, ticker string, risk models.RiskParams) (*models.TradePlanReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.risk = risk
	return &models.TradePlanReport{Ticker: ticker, Close: 100, Plan: models.TradePlan{Direction: models.Long, Entry: 100}}, nil
}

func (s *stubPipeline) RunBacktest(_ context.Context, ticker string, req models.BacktestRequest) (*models.BacktestReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.BacktestReport{
		Ticker:   ticker,
		Strategy: req.Strategy,
		Curve:    []models.EquityPoint{{Value: req.InitialCash}},
		Summary:  models.BacktestSummary{InitialCash: req.InitialCash},
	}, nil
}

func (s *stubPipeline) RunBatchBacktest(_ context.Context, universe []string, _ models.BacktestRequest) (*models.BatchBacktestResult, error) {
	s.universe = universe
	return &models.BatchBacktestResult{Summary: models.BatchSummary{Total: len(universe)}}, s.err
}

func (s *stubPipeline) RunScreen(_ context.Context, universe []string, risk models.RiskParams, opts ...usecase.ScreenOption) (*models.ScreenResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.mu.Lock()
	s.universe, s.risk = universe, risk
	s.mu.Unlock()

	var o usecase.ScreenOptions
	for _, opt := range opts {
		opt(&o)
	}
	s.lastRunID = o.RunID
	res := &models.ScreenResult{RunID: o.RunID, ShortTerm: []models.ShortTermPick{}, LongTerm: []models.LongTermPick{}}
	for _, t := range universe {
		out := models.TickerOutcome{Ticker: t, OK: true}
		if o.Progress != nil {
			o.Progress(out)
		}
		res.Summary.Add(out)
	}
	return res, nil
}

type stubBars struct {
	err error
}

func (s *stubBars) GetBars(_ context.Context, p usecase.GetBarsParams) (*usecase.GetBarsResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	bars := testutil.DailyBars(p.Limit)
	return &usecase.GetBarsResult{Ticker: p.Ticker, Timeframe: string(p.Timeframe), Count: len(bars), Bars: bars}, nil
}

func (s *stubBars) Tickers(context.Context) ([]string, error) {
	return []string{"BBCA.JK", "TLKM.JK"}, s.err
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueWithID(ctx context.Context, msgType string, payload interface{}) (string, error) {
	args := m.Called(ctx, msgType, payload)
	return args.String(0), args.Error(1)
}

var _ queue.Enqueuer = (*mockEnqueuer)(nil)

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func newAnalysisServer(p Pipeline, b Bars, jobs queue.Enqueuer, l *ratelimit.Limiter) *echo.Echo {
	e := echo.New()
	NewAnalysisEchoHandler(nil, p, b, jobs, l).RegisterRoutes(e)
	return e
}

func TestTickersAndBars(t *testing.T) {
	e := newAnalysisServer(&stubPipeline{}, &stubBars{}, nil, nil)

	rec, env := do(t, e, http.MethodGet, "/api/tickers", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Rows  []string `json:"rows"`
		Total int64    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(2), list.Total)

	rec, env = do(t, e, http.MethodGet, "/api/bars/bbca.jk?tf=weekly&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var bars usecase.GetBarsResult
	require.NoError(t, json.Unmarshal(env.Data, &bars))
	assert.Equal(t, "BBCA.JK", bars.Ticker)
	assert.Equal(t, "weekly", bars.Timeframe)
	assert.Equal(t, 5, bars.Count)

	rec, _ = do(t, e, http.MethodGet, "/api/bars/BBCA.JK?tf=hourly", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodGet, "/api/bars/BB$CA", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPipelineTail(t *testing.T) {
	p := &stubPipeline{}
	e := newAnalysisServer(p, &stubBars{}, nil, nil)

	rec, env := do(t, e, http.MethodGet, "/api/pipeline/BBCA.JK?tail=5&rsi_length=21", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view PipelineView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 40, view.Total)
	require.Len(t, view.Rows, 5)
	assert.Equal(t, models.Long, view.Rows[4].Direction)
	assert.Contains(t, view.Columns, models.ColClose)
	assert.Equal(t, view.Rows[4].Close, view.Rows[4].Features[models.ColClose])
	require.NotNil(t, p.params)
	assert.Equal(t, 21, p.params.RSILength)

	_, _ = do(t, e, http.MethodGet, "/api/pipeline/BBCA.JK", "")
	assert.Nil(t, p.params, "no override without lengths")
}

func TestPlanDefaultsAndErrors(t *testing.T) {
	p := &stubPipeline{}
	e := newAnalysisServer(p, &stubBars{}, nil, nil)

	rec, _ := do(t, e, http.MethodGet, "/api/plan/BBCA.JK", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultRiskParams(), p.risk)
	assert.Equal(t, "private, max-age=15", rec.Header().Get(echo.HeaderCacheControl))

	_, _ = do(t, e, http.MethodGet, "/api/plan/BBCA.JK?mode=regressor&atr_multiplier=3", "")
	assert.Equal(t, models.PlanModeRegressor, p.risk.Mode)
	assert.Equal(t, 3.0, p.risk.ATRMultiplier)

	rec, _ = do(t, e, http.MethodGet, "/api/plan/BBCA.JK?mode=magic", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("x: %w", models.ErrInsufficientHistory), http.StatusUnprocessableEntity},
		{fmt.Errorf("x: %w", models.ErrModelNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", models.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", models.ErrDataSourceUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		p.err = tc.err
		rec, _ := do(t, e, http.MethodGet, "/api/plan/BBCA.JK", "")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestBacktestCurveOptIn(t *testing.T) {
	e := newAnalysisServer(&stubPipeline{}, &stubBars{}, nil, nil)

	_, env := do(t, e, http.MethodGet, "/api/backtest/BBCA.JK", "")
	var rep models.BacktestReport
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Nil(t, rep.Curve)
	assert.Equal(t, models.DefaultInitialCash, rep.Summary.InitialCash)
	assert.Equal(t, models.StrategyModel, rep.Strategy)

	_, env = do(t, e, http.MethodGet, "/api/backtest/BBCA.JK?curve=true&strategy=golden_cross", "")
	require.NoError(t, json.Unmarshal(env.Data, &rep))
	assert.Len(t, rep.Curve, 1)
	assert.Equal(t, models.StrategyGoldenCross, rep.Strategy)
}

func TestScreenAndBatch(t *testing.T) {
	p := &stubPipeline{}
	e := newAnalysisServer(p, &stubBars{}, nil, nil)

	rec, env := do(t, e, http.MethodPost, "/api/screen", `{"tickers": ["bbca.jk", " tlkm.jk "], "risk_reward_ratio": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.ScreenResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, 2, res.Summary.Total)
	assert.Equal(t, []string{"BBCA.JK", "TLKM.JK"}, p.universe)
	assert.Equal(t, 2.0, p.risk.RiskRewardRatio)
	assert.Equal(t, 2.0, p.risk.ATRMultiplier)

	rec, _ = do(t, e, http.MethodPost, "/api/screen", `{"tickers": ["not a ticker"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, e, http.MethodPost, "/api/backtest/batch", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, p.universe)

	p.err = models.ErrNoPriceData
	rec, _ = do(t, e, http.MethodPost, "/api/screen", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScreenRateLimited(t *testing.T) {
	e := newAnalysisServer(&stubPipeline{}, &stubBars{}, nil, ratelimit.New(1, 0.001))

	rec, _ := do(t, e, http.MethodPost, "/api/screen", `{}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, http.MethodPost, "/api/screen", `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	// read routes are not limited
	rec, _ = do(t, e, http.MethodGet, "/api/tickers", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEnqueueScreen(t *testing.T) {
	jobs := &mockEnqueuer{}
	jobs.On("EnqueueWithID", mock.Anything, usecase.JobTypeScreen, mock.MatchedBy(func(r *models.ScreenRequest) bool {
		return len(r.Tickers) == 1 && r.Tickers[0] == "BBCA.JK"
	})).Return("job-1", nil)
	e := newAnalysisServer(&stubPipeline{}, &stubBars{}, jobs, nil)

	rec, env := do(t, e, http.MethodPost, "/api/screen/jobs", `{"tickers": ["bbca.jk"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var acc ScreenJobAccepted
	require.NoError(t, json.Unmarshal(env.Data, &acc))
	assert.Equal(t, "job-1", acc.JobID)
	jobs.AssertExpectations(t)

	rec, _ = do(t, newAnalysisServer(&stubPipeline{}, &stubBars{}, nil, nil), http.MethodPost, "/api/screen/jobs", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEnqueueScreenQueueFull(t *testing.T) {
	jobs := &mockEnqueuer{}
	jobs.On("EnqueueWithID", mock.Anything, usecase.JobTypeScreen, mock.Anything).
		Return("", fmt.Errorf("enqueue: %w", queue.ErrQueueFull))
	e := newAnalysisServer(&stubPipeline{}, &stubBars{}, jobs, nil)

	rec, _ := do(t, e, http.MethodPost, "/api/screen/jobs", `{"tickers": ["TLKM.JK"]}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")
}
