package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"StockPilot/internal/domain/models"
)

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordOutcome("screen", "")
	r.RecordOutcome("screen", models.ReasonInsufficientHistory)
	r.RecordOutcome("screen", models.ReasonInsufficientHistory)
	r.RecordIngest("bars", 5)
	r.RecordError("clickhouse")
	r.ObserveJob("screen.run", 1.5, errors.New("x"))
	r.RecordStage("features", 0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.outcomes.WithLabelValues("screen", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.outcomes.WithLabelValues("screen", string(models.ReasonInsufficientHistory))))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.ingested.WithLabelValues("bars")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("clickhouse")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.jobs))
}
