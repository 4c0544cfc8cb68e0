package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	models "StockPilot/internal/domain/models"
	domrepo "StockPilot/internal/domain/repository"
	"StockPilot/internal/service/metrics"
	"StockPilot/internal/service/ratelimit"
	"StockPilot/internal/usecase"
	xhttp "StockPilot/pkg/http"
	xlogger "StockPilot/pkg/logger"
	"StockPilot/pkg/queue"
)

// Pipeline is the analysis surface the handlers need.
type Pipeline interface {
	RunPipeline(ctx context.Context, ticker string, params *models.ModelParameterSet) (*models.SignalTable, error)
	GetTradePlan(ctx context.Context, ticker string, risk models.RiskParams) (*models.TradePlanReport, error)
	RunBacktest(ctx context.Context, ticker string, req models.BacktestRequest) (*models.BacktestReport, error)
	RunBatchBacktest(ctx context.Context, universe []string, req models.BacktestRequest) (*models.BatchBacktestResult, error)
	RunScreen(ctx context.Context, universe []string, risk models.RiskParams, opts ...usecase.ScreenOption) (*models.ScreenResult, error)
}

// Bars serves stored series.
type Bars interface {
	GetBars(ctx context.Context, p usecase.GetBarsParams) (*usecase.GetBarsResult, error)
	Tickers(ctx context.Context) ([]string, error)
}

// AnalysisEchoHandler serves the pipeline, plan, backtest and screen routes.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	pipeline Pipeline
	bars     Bars
	jobs     queue.Enqueuer
	limiter  *ratelimit.Limiter
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, pipeline Pipeline, bars Bars, jobs queue.Enqueuer, limiter *ratelimit.Limiter) *AnalysisEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &AnalysisEchoHandler{logger: logger, pipeline: pipeline, bars: bars, jobs: jobs, limiter: limiter}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/tickers", h.Tickers)
	g.GET("/bars/:ticker", h.Bars)
	g.GET("/pipeline/:ticker", h.Pipeline)
	g.GET("/plan/:ticker", h.Plan)
	g.GET("/backtest/:ticker", h.Backtest)

	heavy := []echo.MiddlewareFunc{}
	if h.limiter != nil {
		heavy = append(heavy, ratelimit.Middleware(h.limiter))
	}
	g.POST("/backtest/batch", h.BatchBacktest, heavy...)
	g.POST("/screen", h.Screen, heavy...)
	g.POST("/screen/jobs", h.EnqueueScreen, heavy...)
}

func (h *AnalysisEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := FromDomainError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
	} else {
		h.logger.Warn(endpoint+" request failed", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func (h *AnalysisEchoHandler) Tickers(c echo.Context) error {
	start := time.Now()
	tickers, err := h.bars.Tickers(c.Request().Context())
	metrics.Observe("tickers", start, err)
	if err != nil {
		return h.fail(c, "tickers", err)
	}
	return xhttp.ListResponse(c, tickers, int64(len(tickers)))
}

func (h *AnalysisEchoHandler) Bars(c echo.Context) error {
	start := time.Now()
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Ticker:    tickerParam(req.Ticker),
		Timeframe: domrepo.NormalizeTimeframe(req.Timeframe),
		Limit:     req.Limit,
	})
	metrics.Observe("bars", start, err)
	if err != nil {
		return h.fail(c, "bars", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// PipelineRow is one labeled day of the feature table.
type PipelineRow struct {
	Date      time.Time          `json:"date"`
	Close     float64            `json:"close"`
	Direction models.Direction   `json:"direction"`
	Features  map[string]float64 `json:"features"`
}

// PipelineView is the tail of a signal table.
type PipelineView struct {
	Ticker  string                   `json:"ticker"`
	Params  models.ModelParameterSet `json:"params"`
	Columns []string                 `json:"columns"`
	Total   int                      `json:"total"`
	Rows    []PipelineRow            `json:"rows"`
}

func newPipelineView(st *models.SignalTable, tail int) PipelineView {
	table := st.Features
	cols := table.Columns()
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name
	}
	from := 0
	if tail > 0 && len(table.Rows) > tail {
		from = len(table.Rows) - tail
	}
	view := PipelineView{Ticker: table.Ticker, Params: table.Params, Columns: names, Total: len(table.Rows)}
	for i := from; i < len(table.Rows); i++ {
		row := &table.Rows[i]
		values := make(map[string]float64, len(cols))
		for _, col := range cols {
			values[col.Name] = col.Value(row)
		}
		pr := PipelineRow{Date: row.Date, Close: row.Close, Features: values}
		if i < len(st.Signals) {
			pr.Direction = st.Signals[i].Direction
		}
		view.Rows = append(view.Rows, pr)
	}
	return view
}

func (h *AnalysisEchoHandler) Pipeline(c echo.Context) error {
	start := time.Now()
	req := &models.PipelineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var params *models.ModelParameterSet
	if req.RSILength > 0 || req.BBandsLength > 0 {
		p := models.ModelParameterSet{RSILength: req.RSILength, BBandsLength: req.BBandsLength}
		params = &p
	}
	st, err := h.pipeline.RunPipeline(c.Request().Context(), tickerParam(req.Ticker), params)
	metrics.Observe("pipeline", start, err)
	if err != nil {
		return h.fail(c, "pipeline", err)
	}
	return xhttp.SuccessResponse(c, newPipelineView(st, req.Tail))
}

func (h *AnalysisEchoHandler) Plan(c echo.Context) error {
	start := time.Now()
	req := &models.PlanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.pipeline.GetTradePlan(c.Request().Context(), tickerParam(req.Ticker), req.RiskParams)
	metrics.Observe("plan", start, err)
	if err != nil {
		return h.fail(c, "plan", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Backtest(c echo.Context) error {
	start := time.Now()
	req := &models.BacktestHTTPRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.pipeline.RunBacktest(c.Request().Context(), tickerParam(req.Ticker), req.BacktestRequest)
	metrics.Observe("backtest", start, err)
	if err != nil {
		return h.fail(c, "backtest", err)
	}
	if !req.WithCurve {
		res.Curve = nil
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) BatchBacktest(c echo.Context) error {
	start := time.Now()
	req := &models.BatchBacktestHTTPRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.pipeline.RunBatchBacktest(c.Request().Context(), tickerList(req.Tickers), req.BacktestRequest)
	metrics.Observe("backtest_batch", start, err)
	if err != nil {
		return h.fail(c, "backtest_batch", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Screen(c echo.Context) error {
	start := time.Now()
	req := &models.ScreenRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.pipeline.RunScreen(c.Request().Context(), tickerList(req.Tickers), req.RiskParams)
	metrics.Observe("screen", start, err)
	if err != nil {
		return h.fail(c, "screen", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// ScreenJobAccepted is returned when a screen has been queued.
type ScreenJobAccepted struct {
	JobID string `json:"job_id"`
	Type  string `json:"type"`
}

func (h *AnalysisEchoHandler) EnqueueScreen(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("job queue disabled"))
	}
	req := &models.ScreenRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Tickers = tickerList(req.Tickers)
	id, err := h.jobs.EnqueueWithID(c.Request().Context(), usecase.JobTypeScreen, req)
	if errors.Is(err, queue.ErrQueueFull) {
		h.logger.Warn("screen queue full", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("screen queue is full, retry later").WithError(err))
	}
	if err != nil {
		h.logger.Error("enqueue screen failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("could not queue screen").WithError(err))
	}
	h.logger.Info("screen queued", xlogger.String("job_id", id), xlogger.Int("tickers", len(req.Tickers)))
	return xhttp.DataResponse(c, http.StatusAccepted, ScreenJobAccepted{JobID: id, Type: usecase.JobTypeScreen})
}

func tickerParam(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

func tickerList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = tickerParam(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
