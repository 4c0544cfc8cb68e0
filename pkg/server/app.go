package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkgch "StockPilot/pkg/clickhouse"
	"StockPilot/pkg/config"
	xhttp "StockPilot/pkg/http"
	pkgkafka "StockPilot/pkg/kafka"
	applogger "StockPilot/pkg/logger"
)

// Worker is a background component with an explicit lifecycle, such as the
// Redis queue consumer.
type Worker interface {
	Start() error
	Stop(ctx context.Context) error
}

// Watcher runs until its context ends.
type Watcher interface {
	Watch(ctx context.Context) error
}

type namedWorker struct {
	name string
	w    Worker
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	handler    xhttp.Handler
	httpServer *xhttp.Server
	chClient   *pkgch.Client
	consumer   *pkgkafka.Consumer
	ingest     []pkgkafka.MessageHandler
	workers    []namedWorker
	watchers   []Watcher
	startup    func(context.Context) error
	closers    []closer
}

// New creates a new App serving handler over HTTP.
func New(cfg *config.Config, l *applogger.Logger, handler xhttp.Handler, chClient *pkgch.Client) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, handler: handler, chClient: chClient}
}

// SetHTTPHandler replaces the HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.handler = h }

// WithConsumer attaches a Kafka consumer and the handlers it serves.
func (a *App) WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) {
	a.consumer = c
	a.ingest = handlers
}

// WithWorker attaches a background worker started after the consumer.
func (a *App) WithWorker(name string, w Worker) {
	a.workers = append(a.workers, namedWorker{name: name, w: w})
}

// WithWatcher attaches a watcher bound to the application context.
func (a *App) WithWatcher(w Watcher) { a.watchers = append(a.watchers, w) }

// WithStartupCheck runs fn before anything is started. A failure aborts Run.
func (a *App) WithStartupCheck(fn func(context.Context) error) { a.startup = fn }

// OnShutdown registers fn to run after servers and workers have stopped,
// in reverse registration order.
func (a *App) OnShutdown(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the application and blocks until ctx ends.
func (a *App) RunContext(ctx context.Context) error {
	if a.startup != nil {
		if err := a.startup(ctx); err != nil {
			return fmt.Errorf("startup check: %w", err)
		}
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithAddr(a.cfg.Server.Host, a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled, a.cfg.Metrics.SlowThreshold),
		xhttp.WithLogger(a.l),
	)

	if a.consumer != nil && len(a.ingest) > 0 {
		a.consumer.SetLogger(a.l.With(applogger.String("component", "kafka-consumer")))
		a.consumer.SetHook(pkgkafka.NewHookChain(
			pkgkafka.NewTracingHook("StockPilot/kafka"),
			pkgkafka.NewLoggingHook(a.l),
		))
		a.consumer.Register(a.ingest...)
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
	}

	for _, nw := range a.workers {
		if err := nw.w.Start(); err != nil {
			a.l.Error("worker start failed", applogger.String("worker", nw.name), applogger.Error(err))
			continue
		}
		a.l.Info("worker started", applogger.String("worker", nw.name))
	}

	for _, w := range a.watchers {
		if err := w.Watch(ctx); err != nil {
			a.l.Warn("watcher not started", applogger.Error(err))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	for i := len(a.workers) - 1; i >= 0; i-- {
		if err := a.workers[i].w.Stop(ctx); err != nil {
			a.l.Warn("worker stop error", applogger.String("worker", a.workers[i].name), applogger.Error(err))
		}
	}

	if a.consumer != nil && len(a.ingest) > 0 {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].fn(ctx); err != nil {
			a.l.Warn("close error", applogger.String("component", a.closers[i].name), applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.l.Info("shutdown complete")
	return nil
}
