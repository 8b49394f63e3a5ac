package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AudioMetrics records audio pipeline metrics.
// Use NewAudioMetrics() for OTel metrics or NoopAudioMetrics{} when disabled.
type AudioMetrics interface {
	// RecordFrames records frames consumed and dropped during one activation.
	RecordFrames(ctx context.Context, nodeID string, consumed, dropped int64)

	// RecordDetection records a wake-word detection and the triggering energy.
	RecordDetection(ctx context.Context, energy float64)

	// RecordListenTimeout records a listening window that ended without detection.
	RecordListenTimeout(ctx context.Context)

	// RecordSilence records a silence run longer than the configured minimum.
	RecordSilence(ctx context.Context)

	// RecordCapture records a finished recording window. samples is zero
	// for an empty capture.
	RecordCapture(ctx context.Context, samples int)
}

type otelAudioMetrics struct {
	framesConsumed metric.Int64Counter
	framesDropped  metric.Int64Counter
	detections     metric.Int64Counter
	detectEnergy   metric.Float64Histogram
	timeouts       metric.Int64Counter
	silences       metric.Int64Counter
	captures       metric.Int64Counter
	captureSamples metric.Int64Histogram
}

func newOtelAudioMetrics() (*otelAudioMetrics, error) {
	meter := otel.Meter("github.com/randalmurphal/wakeflow/pkg/audioflow")
	m := &otelAudioMetrics{}
	var err error

	if m.framesConsumed, err = meter.Int64Counter("audio.frames.consumed",
		metric.WithDescription("Frames drained from a node's frame queue")); err != nil {
		return nil, err
	}
	if m.framesDropped, err = meter.Int64Counter("audio.frames.dropped",
		metric.WithDescription("Frames delivered while the node was not listening or recording")); err != nil {
		return nil, err
	}
	if m.detections, err = meter.Int64Counter("audio.wakeword.detections",
		metric.WithDescription("Wake-word detections")); err != nil {
		return nil, err
	}
	if m.detectEnergy, err = meter.Float64Histogram("audio.wakeword.energy",
		metric.WithDescription("Energy of the frame that triggered detection")); err != nil {
		return nil, err
	}
	if m.timeouts, err = meter.Int64Counter("audio.wakeword.timeouts",
		metric.WithDescription("Listening windows that ended without detection")); err != nil {
		return nil, err
	}
	if m.silences, err = meter.Int64Counter("audio.wakeword.silences",
		metric.WithDescription("Silence runs longer than the configured minimum")); err != nil {
		return nil, err
	}
	if m.captures, err = meter.Int64Counter("audio.capture.windows",
		metric.WithDescription("Finished recording windows")); err != nil {
		return nil, err
	}
	if m.captureSamples, err = meter.Int64Histogram("audio.capture.samples",
		metric.WithDescription("Samples per recording window")); err != nil {
		return nil, err
	}
	return m, nil
}

// NewAudioMetrics returns AudioMetrics backed by the global meter provider.
// If initialization fails, returns a no-op recorder.
func NewAudioMetrics() AudioMetrics {
	m, err := newOtelAudioMetrics()
	if err != nil {
		slog.Warn("audio metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopAudioMetrics{}
	}
	return m
}

func (m *otelAudioMetrics) RecordFrames(ctx context.Context, nodeID string, consumed, dropped int64) {
	attrs := metric.WithAttributes(attribute.String("node_id", nodeID))
	m.framesConsumed.Add(ctx, consumed, attrs)
	m.framesDropped.Add(ctx, dropped, attrs)
}

func (m *otelAudioMetrics) RecordDetection(ctx context.Context, energy float64) {
	m.detections.Add(ctx, 1)
	m.detectEnergy.Record(ctx, energy)
}

func (m *otelAudioMetrics) RecordListenTimeout(ctx context.Context) {
	m.timeouts.Add(ctx, 1)
}

func (m *otelAudioMetrics) RecordSilence(ctx context.Context) {
	m.silences.Add(ctx, 1)
}

func (m *otelAudioMetrics) RecordCapture(ctx context.Context, samples int) {
	m.captures.Add(ctx, 1, metric.WithAttributes(attribute.Bool("empty", samples == 0)))
	m.captureSamples.Record(ctx, int64(samples))
}
