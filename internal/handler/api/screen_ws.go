package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "StockPilot/internal/domain/models"
	"StockPilot/internal/service/metrics"
	"StockPilot/internal/usecase"
	xhttp "StockPilot/pkg/http"
	xlogger "StockPilot/pkg/logger"
)

const (
	wsWriteWait = 10 * time.Second
	wsReadWait  = 30 * time.Second
)

// ScreenEvent is one websocket frame of a streamed screen.
type ScreenEvent struct {
	Type    string                `json:"type"`
	Outcome *models.TickerOutcome `json:"outcome,omitempty"`
	Done    int                   `json:"done,omitempty"`
	Result  *models.ScreenResult  `json:"result,omitempty"`
	Error   *xhttp.AppError       `json:"error,omitempty"`
}

const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// ScreenStreamHandler runs a screen per websocket connection and streams each
// ticker outcome as it completes, then the final result.
type ScreenStreamHandler struct {
	logger   *xlogger.Logger
	pipeline Pipeline
	upgrader websocket.Upgrader
}

func NewScreenStreamHandler(logger *xlogger.Logger, pipeline Pipeline) *ScreenStreamHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &ScreenStreamHandler{
		logger:   logger,
		pipeline: pipeline,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *ScreenStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/screen", h.Stream)
}

// Stream expects one ScreenRequest JSON message from the client.
func (h *ScreenStreamHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	req := &models.ScreenRequest{}
	_ = conn.SetReadDeadline(time.Now().Add(wsReadWait))
	if err := conn.ReadJSON(req); err != nil {
		h.write(conn, ScreenEvent{Type: EventError, Error: xhttp.BadRequestError("expected a screen request")})
		return nil
	}
	if err := xhttp.Validate(req); err != nil {
		h.write(conn, ScreenEvent{Type: EventError, Error: xhttp.BadRequestError("invalid screen request").WithError(err)})
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	go h.watchClose(conn, cancel)

	var (
		mu   sync.Mutex
		done int
	)
	runID := uuid.NewString()
	defer metrics.ScreenProgress.DeleteLabelValues(runID)
	res, err := h.pipeline.RunScreen(ctx, tickerList(req.Tickers), req.RiskParams,
		usecase.WithRunID(runID),
		usecase.WithProgress(func(o models.TickerOutcome) {
			mu.Lock()
			defer mu.Unlock()
			done++
			metrics.ScreenProgress.WithLabelValues(runID).Set(float64(done))
			outcome := o
			if !h.write(conn, ScreenEvent{Type: EventProgress, Outcome: &outcome, Done: done}) {
				cancel()
			}
		}))
	if err != nil {
		h.write(conn, ScreenEvent{Type: EventError, Error: FromDomainError(err)})
		return nil
	}
	h.write(conn, ScreenEvent{Type: EventResult, Result: res})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"), time.Now().Add(wsWriteWait))
	return nil
}

// watchClose cancels the run when the client goes away.
func (h *ScreenStreamHandler) watchClose(conn *websocket.Conn, cancel context.CancelFunc) {
	_ = conn.SetReadDeadline(time.Time{})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			cancel()
			return
		}
	}
}

func (h *ScreenStreamHandler) write(conn *websocket.Conn, ev ScreenEvent) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(ev); err != nil {
		h.logger.Debug("websocket write failed", xlogger.String("type", ev.Type), xlogger.Error(err))
		return false
	}
	return true
}
