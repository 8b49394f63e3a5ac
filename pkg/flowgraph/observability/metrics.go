package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records engine metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeExecution records one node activation. err is the phase
	// error, if any.
	RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error)

	// RecordGraphRun records a finished run.
	RecordGraphRun(ctx context.Context, success bool, duration time.Duration)

	// RecordTransition records the action a node returned and whether it
	// ended the run.
	RecordTransition(ctx context.Context, nodeID, action string, terminal bool)
}

type otelMetrics struct {
	activations  metric.Int64Counter
	nodeDuration metric.Float64Histogram
	nodeErrors   metric.Int64Counter
	runs         metric.Int64Counter
	runDuration  metric.Float64Histogram
	transitions  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsErr  error
	defaultMetricsOnce sync.Once
)

// NewMetricsRecorder returns a MetricsRecorder on the global meter provider,
// or NoopMetrics if the instruments cannot be created. Instruments are
// created once per process, so install the provider first:
//
//	otel.SetMeterProvider(mp)
func NewMetricsRecorder() MetricsRecorder {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	if defaultMetricsErr != nil {
		slog.Warn("metrics initialization failed, using no-op recorder", "error", defaultMetricsErr)
		return NoopMetrics{}
	}
	return defaultMetrics
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter(instrumentationName)
	m := &otelMetrics{}
	var err error

	if m.activations, err = meter.Int64Counter("flowgraph.node.executions",
		metric.WithDescription("Node activations")); err != nil {
		return nil, err
	}
	if m.nodeDuration, err = meter.Float64Histogram("flowgraph.node.duration",
		metric.WithDescription("Time from prepare to finalize of one activation"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.nodeErrors, err = meter.Int64Counter("flowgraph.node.errors",
		metric.WithDescription("Activations that failed or panicked")); err != nil {
		return nil, err
	}
	if m.runs, err = meter.Int64Counter("flowgraph.graph.runs",
		metric.WithDescription("Finished graph runs")); err != nil {
		return nil, err
	}
	if m.runDuration, err = meter.Float64Histogram("flowgraph.graph.duration",
		metric.WithDescription("Wall time of a graph run"),
		metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.transitions, err = meter.Int64Counter("flowgraph.transitions",
		metric.WithDescription("Actions returned by nodes")); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *otelMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("node_id", nodeID))
	m.activations.Add(ctx, 1, attrs)
	m.nodeDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.nodeErrors.Add(ctx, 1, attrs)
	}
}

func (m *otelMetrics) RecordGraphRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	m.runs.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *otelMetrics) RecordTransition(ctx context.Context, nodeID, action string, terminal bool) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node_id", nodeID),
		attribute.String("action", action),
		attribute.Bool("terminal", terminal),
	))
}
