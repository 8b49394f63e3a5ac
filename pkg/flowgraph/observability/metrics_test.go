package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns its reader.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	originalProvider := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})

	return reader
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// sumFor returns the int64 sum value for the data point carrying attr=value.
func sumFor(t *testing.T, m *metricdata.Metrics, attr, value string) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "Expected Sum type")
	var total int64
	for _, dp := range sum.DataPoints {
		if attr == "" {
			total += dp.Value
			continue
		}
		if v, ok := dp.Attributes.Value(attributeKey(attr)); ok && v.Emit() == value {
			total += dp.Value
		}
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordNodeExecution(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordNodeExecution(ctx, "wake", 50*time.Millisecond, nil)
	m.RecordNodeExecution(ctx, "wake", 30*time.Millisecond, nil)
	m.RecordNodeExecution(ctx, "capture", 10*time.Millisecond, errors.New("device lost"))

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumFor(t, findMetric(rm, "flowgraph.node.executions"), "node_id", "wake"))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "flowgraph.node.errors"), "node_id", "capture"))
	assert.Equal(t, int64(0), sumFor(t, findMetric(rm, "flowgraph.node.errors"), "node_id", "wake"))

	latency := findMetric(rm, "flowgraph.node.duration")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok, "Expected Histogram type")
	assert.NotEmpty(t, hist.DataPoints)
}

func TestRecordGraphRun(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordGraphRun(ctx, true, 500*time.Millisecond)
	m.RecordGraphRun(ctx, false, 100*time.Millisecond)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumFor(t, findMetric(rm, "flowgraph.graph.runs"), "", ""))
	assert.NotNil(t, findMetric(rm, "flowgraph.graph.duration"))
}

func TestRecordTransition(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordTransition(ctx, "wake", "listen", false)
	m.RecordTransition(ctx, "wake", "listen", false)
	m.RecordTransition(ctx, "capture", "continue", true)

	rm := collectMetrics(t, reader)
	transitions := findMetric(rm, "flowgraph.transitions")
	assert.Equal(t, int64(2), sumFor(t, transitions, "action", "listen"))
	assert.Equal(t, int64(1), sumFor(t, transitions, "action", "continue"))
}

func TestAudioMetrics(t *testing.T) {
	reader := setupMetricsTest(t)
	m, err := newOtelAudioMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	m.RecordFrames(ctx, "wake", 12, 3)
	m.RecordDetection(ctx, 0.5)
	m.RecordListenTimeout(ctx)
	m.RecordSilence(ctx)
	m.RecordCapture(ctx, 3072)
	m.RecordCapture(ctx, 0)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(12), sumFor(t, findMetric(rm, "audio.frames.consumed"), "node_id", "wake"))
	assert.Equal(t, int64(3), sumFor(t, findMetric(rm, "audio.frames.dropped"), "node_id", "wake"))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "audio.wakeword.detections"), "", ""))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "audio.wakeword.timeouts"), "", ""))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "audio.wakeword.silences"), "", ""))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "audio.capture.windows"), "empty", "true"))
	assert.Equal(t, int64(1), sumFor(t, findMetric(rm, "audio.capture.windows"), "empty", "false"))
}

func TestNoopRecorders(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		var m MetricsRecorder = NoopMetrics{}
		m.RecordNodeExecution(ctx, "wake", time.Second, errors.New("x"))
		m.RecordGraphRun(ctx, true, time.Second)
		m.RecordTransition(ctx, "wake", "listen", false)

		var a AudioMetrics = NoopAudioMetrics{}
		a.RecordFrames(ctx, "wake", 1, 1)
		a.RecordDetection(ctx, 1)
		a.RecordListenTimeout(ctx)
		a.RecordSilence(ctx)
		a.RecordCapture(ctx, 1)
	})
}
