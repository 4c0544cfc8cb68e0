package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "StockPilot/internal/domain/models"
)

func dialScreen(t *testing.T, p Pipeline) *websocket.Conn {
	t.Helper()
	e := echo.New()
	NewScreenStreamHandler(nil, p).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/screen"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestScreenStream(t *testing.T) {
	p := &stubPipeline{}
	conn := dialScreen(t, p)
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"tickers": []string{"bbca.jk", "tlkm.jk"}}))

	var events []ScreenEvent
	for {
		var ev ScreenEvent
		require.NoError(t, conn.ReadJSON(&ev))
		events = append(events, ev)
		if ev.Type != EventProgress {
			break
		}
	}
	require.Len(t, events, 3)
	assert.Equal(t, "BBCA.JK", events[0].Outcome.Ticker)
	assert.Equal(t, 1, events[0].Done)
	assert.Equal(t, 2, events[1].Done)

	last := events[2]
	require.Equal(t, EventResult, last.Type)
	require.NotNil(t, last.Result)
	assert.Equal(t, 2, last.Result.Summary.Succeeded)
	assert.NotEmpty(t, last.Result.RunID)
	assert.Equal(t, p.lastRunID, last.Result.RunID)
}

func TestScreenStreamErrors(t *testing.T) {
	conn := dialScreen(t, &stubPipeline{})
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var ev ScreenEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventError, ev.Type)

	conn = dialScreen(t, &stubPipeline{err: models.ErrNoPriceData})
	require.NoError(t, conn.WriteJSON(map[string]interface{}{}))
	ev = ScreenEvent{}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventError, ev.Type)
	require.NotNil(t, ev.Error)
	assert.Equal(t, "ERR_NOT_FOUND", ev.Error.Code)
}
