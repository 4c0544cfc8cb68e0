package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockPilot/pkg/http/middleware"
	applogger "StockPilot/pkg/logger"
)

type ServerOption func(*serverOptions)

type serverOptions struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	slow         time.Duration
	cors         bool
	metrics      bool
	log          *applogger.Logger
}

// WithAddr sets the listen address. Port 0 picks a free port.
func WithAddr(host string, port int) ServerOption {
	return func(o *serverOptions) { o.addr = net.JoinHostPort(host, strconv.Itoa(port)) }
}

// WithTimeouts bounds reading a request and writing its response. Screens
// over a large universe need a generous write timeout.
func WithTimeouts(read, write time.Duration) ServerOption {
	return func(o *serverOptions) {
		if read > 0 {
			o.readTimeout = read
		}
		if write > 0 {
			o.writeTimeout = write
		}
	}
}

func WithCORS(enabled bool) ServerOption {
	return func(o *serverOptions) { o.cors = enabled }
}

// WithMetrics toggles the Prometheus middleware and the /metrics route.
func WithMetrics(enabled bool, slow time.Duration) ServerOption {
	return func(o *serverOptions) {
		o.metrics = enabled
		if slow > 0 {
			o.slow = slow
		}
	}
}

func WithLogger(l *applogger.Logger) ServerOption {
	return func(o *serverOptions) { o.log = l }
}

// Server is the echo instance behind the public API.
type Server struct {
	echo *echo.Echo
	opts serverOptions
	ln   net.Listener
}

func NewServer(handler Handler, opts ...ServerOption) *Server {
	o := serverOptions{
		addr:         ":8080",
		readTimeout:  15 * time.Second,
		writeTimeout: 2 * time.Minute,
		slow:         2 * time.Second,
		cors:         true,
		metrics:      true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = o.readTimeout
	e.Server.ReadHeaderTimeout = o.readTimeout
	e.Server.WriteTimeout = o.writeTimeout
	e.HTTPErrorHandler = errorHandler(o.log)

	e.Use(middleware.RequestLogging(o.log), middleware.Recover(o.log))
	if o.metrics {
		e.Use(middleware.Metrics(o.log, o.slow))
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	if o.cors {
		e.Use(middleware.CORS())
	}
	e.GET("/healthz", func(c echo.Context) error {
		return SuccessResponse(c, map[string]string{"status": "ok"})
	})
	if handler != nil {
		handler.RegisterRoutes(e)
	}
	return &Server{echo: e, opts: o}
}

// Start binds the listener, so a taken port fails here, then serves in the
// background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.addr, err)
	}
	s.ln = ln
	s.echo.Listener = ln
	s.logInfo("http server listening", applogger.String("addr", ln.Addr().String()))

	go func() {
		if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) && s.opts.log != nil {
			s.opts.log.Error("http server stopped unexpectedly", applogger.Error(err))
		}
	}()
	return nil
}

// Addr is the bound address once Start returned.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop drains in-flight requests until ctx ends.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logInfo("http server stopped")
	return nil
}

func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) logInfo(msg string, fields ...applogger.Field) {
	if s.opts.log != nil {
		s.opts.log.Info(msg, fields...)
	}
}

// errorHandler writes errors that escaped the handlers (unknown routes, bind
// failures, recovered panics) in the same envelope as handler responses.
func errorHandler(l *applogger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		var (
			appErr *AppError
			he     *echo.HTTPError
		)
		switch {
		case errors.As(err, &appErr):
		case errors.As(err, &he):
			err = NewAppError("ERR_HTTP", "", fmt.Sprint(he.Message), he.Code).WithError(err)
		case l != nil:
			l.Error("unhandled http error", applogger.String("route", c.Path()), applogger.Error(err))
		}
		if werr := AppErrorResponse(c, err); werr != nil && l != nil {
			l.Warn("write error response", applogger.Error(werr))
		}
	}
}
