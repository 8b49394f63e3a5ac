package audioflow

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/audio/audiotest"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const block = audio.DefaultBlockSize

// quietAmp gives frames of energy 0.0001.
const quietAmp = float32(0.01)

// loudAmp gives frames of energy 0.5.
var loudAmp = float32(math.Sqrt(0.5))

func quiet(n int) []audio.Frame { return audiotest.Repeat(audiotest.Tone(quietAmp, block), n) }
func loud(n int) []audio.Frame  { return audiotest.Repeat(audiotest.Tone(loudAmp, block), n) }

func testCtx() flowgraph.Context {
	return flowgraph.NewContext(context.Background(), flowgraph.WithLogger(slog.New(slog.DiscardHandler)))
}

// fastSettings keeps the stock thresholds and windows; the virtual clock
// makes them free.
func fastSettings() Settings {
	return DefaultSettings()
}

// runWake drives one WakeWordNode activation by hand.
func runWake(t *testing.T, n *WakeWordNode, shared *flowgraph.Shared) (flowgraph.Action, wakeResult) {
	t.Helper()
	ctx := testCtx()

	act, err := n.Prepare(ctx, shared)
	require.NoError(t, err)
	defer act.Close()

	res, err := n.Execute(ctx, act)
	require.NoError(t, err)

	action, err := n.Finalize(ctx, shared, act, res)
	require.NoError(t, err)
	return action, res
}

// runCapture drives one AudioCaptureNode activation by hand.
func runCapture(t *testing.T, n *AudioCaptureNode, shared *flowgraph.Shared) (flowgraph.Action, captureResult) {
	t.Helper()
	ctx := testCtx()

	act, err := n.Prepare(ctx, shared)
	require.NoError(t, err)
	defer act.Close()

	res, err := n.Execute(ctx, act)
	require.NoError(t, err)

	action, err := n.Finalize(ctx, shared, act, res)
	require.NoError(t, err)
	return action, res
}

// fakeAudioMetrics counts audio metric calls.
type fakeAudioMetrics struct {
	mu         sync.Mutex
	consumed   int64
	dropped    int64
	detections []float64
	timeouts   int
	silences   int
	captures   []int
}

func (m *fakeAudioMetrics) RecordFrames(_ context.Context, _ string, consumed, dropped int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumed += consumed
	m.dropped += dropped
}

func (m *fakeAudioMetrics) RecordDetection(_ context.Context, energy float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = append(m.detections, energy)
}

func (m *fakeAudioMetrics) RecordListenTimeout(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeouts++
}

func (m *fakeAudioMetrics) RecordSilence(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silences++
}

func (m *fakeAudioMetrics) RecordCapture(_ context.Context, samples int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = append(m.captures, samples)
}
