package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	applogger "StockPilot/pkg/logger"
)

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
	size     *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metrics     *httpMetrics
)

func loadMetrics() *httpMetrics {
	metricsOnce.Do(func() {
		labels := []string{"route", "method", "class"}
		metrics = &httpMetrics{
			requests: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "stockpilot", Subsystem: "http", Name: "requests_total",
				Help: "Handled requests by route template and status.",
			}, []string{"route", "method", "status"}),
			duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stockpilot", Subsystem: "http", Name: "request_duration_seconds",
				Help: "Request latency. Screens and batch backtests land in the upper buckets.",
				// Batch endpoints run for tens of seconds.
				Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30, 60},
			}, labels),
			inFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "stockpilot", Subsystem: "http", Name: "in_flight_requests",
				Help: "Requests currently being served.",
			}),
			size: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "stockpilot", Subsystem: "http", Name: "response_size_bytes",
				Help:    "Response body size.",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			}, labels),
		}
	})
	return metrics
}

// Metrics records request counters labelled by route template, so path
// parameters such as the ticker do not create new series. Requests slower
// than slow are logged; 5xx responses are logged as errors.
func Metrics(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	m := loadMetrics()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			res := c.Response()
			class := statusClass(res.Status)
			elapsed := time.Since(start)

			m.requests.WithLabelValues(route, method, strconv.Itoa(res.Status)).Inc()
			m.duration.WithLabelValues(route, method, class).Observe(elapsed.Seconds())
			m.size.WithLabelValues(route, method, class).Observe(float64(res.Size))

			if l == nil {
				return nil
			}
			fields := []applogger.Field{
				applogger.String("route", route),
				applogger.String("method", method),
				applogger.Int("status", res.Status),
				applogger.Duration("duration_ms", elapsed),
			}
			if res.Status >= 500 {
				l.Error("http request failed", fields...)
			} else if slow > 0 && elapsed >= slow {
				l.Warn("http request slow", fields...)
			}
			return nil
		}
	}
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}
