package tracing

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(Config{Enabled: false}, "stockpilot", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetupStdoutToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "traces.json")
	shutdown, err := Setup(Config{Enabled: true, Exporter: "stdout", Output: out, SampleRatio: 1}, "stockpilot", "test")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "unit")
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}
