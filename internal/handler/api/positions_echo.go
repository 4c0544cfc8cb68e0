package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	models "StockPilot/internal/domain/models"
	"StockPilot/internal/service/metrics"
	xhttp "StockPilot/pkg/http"
	xlogger "StockPilot/pkg/logger"
)

// Positions manages open positions.
type Positions interface {
	List(ctx context.Context) ([]models.Position, error)
	Create(ctx context.Context, req models.CreatePositionRequest) (*models.Position, error)
	Delete(ctx context.Context, id string) error
	Advice(ctx context.Context) ([]models.PositionAdvice, error)
}

type PositionsEchoHandler struct {
	logger    *xlogger.Logger
	positions Positions
}

func NewPositionsEchoHandler(logger *xlogger.Logger, positions Positions) *PositionsEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PositionsEchoHandler{logger: logger, positions: positions}
}

func (h *PositionsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/positions")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/advice", h.Advice)
	g.DELETE("/:id", h.Delete)
}

func (h *PositionsEchoHandler) List(c echo.Context) error {
	ps, err := h.positions.List(c.Request().Context())
	if err != nil {
		h.logger.Error("positions list error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.ListResponse(c, ps, int64(len(ps)))
}

func (h *PositionsEchoHandler) Create(c echo.Context) error {
	req := &models.CreatePositionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.positions.Create(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("positions create error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, p)
}

func (h *PositionsEchoHandler) Delete(c echo.Context) error {
	req := &models.PositionIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.positions.Delete(c.Request().Context(), req.ID); err != nil {
		h.logger.Warn("positions delete error", xlogger.String("id", req.ID), xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *PositionsEchoHandler) Advice(c echo.Context) error {
	start := time.Now()
	advice, err := h.positions.Advice(c.Request().Context())
	metrics.Observe("positions_advice", start, err)
	if err != nil {
		h.logger.Error("positions advice error", xlogger.Error(err))
		return errorResponse(c, err)
	}
	return xhttp.ListResponse(c, advice, int64(len(advice)))
}
