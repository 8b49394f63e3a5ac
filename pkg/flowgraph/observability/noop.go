package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics discards engine metrics. It is the default recorder.
type NoopMetrics struct{}

func (NoopMetrics) RecordNodeExecution(context.Context, string, time.Duration, error) {}
func (NoopMetrics) RecordGraphRun(context.Context, bool, time.Duration)               {}
func (NoopMetrics) RecordTransition(context.Context, string, string, bool)            {}

// NoopAudioMetrics discards audio metrics.
type NoopAudioMetrics struct{}

func (NoopAudioMetrics) RecordFrames(context.Context, string, int64, int64) {}
func (NoopAudioMetrics) RecordDetection(context.Context, float64)           {}
func (NoopAudioMetrics) RecordListenTimeout(context.Context)                {}
func (NoopAudioMetrics) RecordSilence(context.Context)                      {}
func (NoopAudioMetrics) RecordCapture(context.Context, int)                 {}

// NoopSpanManager starts no spans and leaves contexts untouched.
type NoopSpanManager struct{}

func (NoopSpanManager) StartRunSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) StartNodeSpan(ctx context.Context, _ string, _ int) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) EndSpanWithError(trace.Span, error)                          {}
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}

var (
	_ MetricsRecorder = NoopMetrics{}
	_ AudioMetrics    = NoopAudioMetrics{}
	_ SpanManager     = NoopSpanManager{}
)
