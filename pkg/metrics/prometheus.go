package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"StockPilot/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	stageLatency *prometheus.HistogramVec
	outcomes     *prometheus.CounterVec
	ingested     *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	jobs         *prometheus.HistogramVec
}

// New creates a recorder registered with the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered with reg (useful for testing).
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		stageLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpilot_pipeline_stage_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpilot_ticker_outcomes_total",
				Help: "Per-ticker outcomes of batch operations",
			},
			[]string{"operation", "reason"},
		),
		ingested: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpilot_ingested_records_total",
				Help: "Records written by the ingest handlers",
			},
			[]string{"kind"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpilot_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		jobs: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpilot_queue_job_seconds",
				Help:    "Duration of queue jobs in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
			[]string{"type", "status"},
		),
	}
}

// RecordStage records the latency of one pipeline stage.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordOutcome counts a per-ticker outcome; an empty reason means success.
func (r *Recorder) RecordOutcome(op string, reason models.FailureReason) {
	label := string(reason)
	if label == "" {
		label = "ok"
	}
	r.outcomes.WithLabelValues(op, label).Inc()
}

// RecordIngest counts ingested records.
func (r *Recorder) RecordIngest(kind string, n int) {
	r.ingested.WithLabelValues(kind).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// ObserveJob implements queue.JobObserver.
func (r *Recorder) ObserveJob(jobType string, seconds float64, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.jobs.WithLabelValues(jobType, status).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordStage(string, float64) {}
func (Nop) RecordOutcome(string, models.FailureReason) {}
func (Nop) RecordIngest(string, int) {}
func (Nop) RecordError(string) {}
