package audioflow

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/audio/audiotest"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
)

func newCapture(opener audio.Opener, clock audio.Clock, opts ...Option) *AudioCaptureNode {
	s := fastSettings()
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewAudioCaptureNode(opener, s.Format, s.Capture, opts...)
}

// ramp returns a frame whose samples are start, start+1, ... scaled down.
func ramp(start, n int) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(start+i) / 1e5
	}
	return audio.Frame{Samples: samples, Channels: 1}
}

func TestCapture_EmptyWindow(t *testing.T) {
	opener := audiotest.NewOpener(audiotest.Script{})
	clock := audiotest.NewClock(epoch)
	metrics := &fakeAudioMetrics{}
	shared := flowgraph.NewShared()

	action, res := runCapture(t, newCapture(opener, clock, WithAudioMetrics(metrics)), shared)

	assert.Equal(t, flowgraph.ActionError, action)
	assert.Empty(t, res.Frames)
	assert.False(t, clock.Now().Before(epoch.Add(5*time.Second)), "records for the whole window")

	data, ok := AudioDataKey.Get(shared)
	require.True(t, ok)
	assert.Nil(t, data.Raw)
	assert.Empty(t, data.Chunks)
	assert.Equal(t, []int{0}, metrics.captures)
}

func TestCapture_ThreeFrames(t *testing.T) {
	frames := []audio.Frame{ramp(0, block), ramp(block, block), ramp(2*block, block)}
	opener := audiotest.NewOpener(audiotest.Script{Frames: frames})
	clock := audiotest.NewClock(epoch)
	shared := flowgraph.NewShared()

	action, _ := runCapture(t, newCapture(opener, clock), shared)
	assert.Equal(t, flowgraph.ActionContinue, action)

	data, ok := AudioDataKey.Get(shared)
	require.True(t, ok)
	require.NotNil(t, data.Raw)
	assert.Equal(t, 3072, data.Raw.Len())
	assert.Len(t, data.Chunks, 3)
	assert.Equal(t, ramp(0, 3072).Samples, data.Raw.Samples(), "concatenation keeps sample order")

	assert.Equal(t, 16000, data.SampleRate)
	assert.Equal(t, 1, data.Channels)
	assert.Equal(t, audio.Float32, data.SampleFormat)
	assert.Equal(t, epoch, data.CapturedAt)
	assert.Equal(t, 192*time.Millisecond, data.Raw.Duration(data.SampleRate))
}

func TestCapture_ErrorIffNoFrames(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	for i := range 20 {
		count := rng.IntN(6)
		var frames []audio.Frame
		want := 0
		for range count {
			n := 1 + rng.IntN(block)
			frames = append(frames, ramp(want, n))
			want += n
		}
		opener := audiotest.NewOpener(audiotest.Script{Frames: frames})
		shared := flowgraph.NewShared()

		action, res := runCapture(t, newCapture(opener, audiotest.NewClock(epoch)), shared)

		if count == 0 {
			assert.Equal(t, flowgraph.ActionError, action, "case %d", i)
			continue
		}
		assert.Equal(t, flowgraph.ActionContinue, action, "case %d", i)
		require.NotNil(t, res.Buffer)
		assert.Equal(t, want, res.Buffer.Len(), "case %d", i)
		assert.Equal(t, ramp(0, want).Samples, res.Buffer.Samples(), "case %d", i)
	}
}

// A failed capture clears the old chunks but leaves the last recording.
func TestCapture_EmptyWindowKeepsPreviousRaw(t *testing.T) {
	previous := audio.Concat([]audio.Frame{ramp(0, 4)})
	shared := flowgraph.NewShared()
	require.NoError(t, AudioDataKey.Set(shared, &AudioData{
		Chunks:     []audio.Frame{ramp(0, 4)},
		Raw:        previous,
		CapturedAt: epoch.Add(-time.Hour),
	}))

	opener := audiotest.NewOpener(audiotest.Script{})
	action, _ := runCapture(t, newCapture(opener, audiotest.NewClock(epoch)), shared)
	assert.Equal(t, flowgraph.ActionError, action)

	data, _ := AudioDataKey.Get(shared)
	assert.Nil(t, data.Chunks)
	assert.Same(t, previous, data.Raw)
	assert.Equal(t, epoch, data.CapturedAt)
}

func TestCapture_StartError(t *testing.T) {
	opener := audiotest.NewOpener(audiotest.Script{StartErr: assert.AnError})
	node := newCapture(opener, audiotest.NewClock(epoch))
	ctx := testCtx()

	act, err := node.Prepare(ctx, flowgraph.NewShared())
	require.NoError(t, err)
	_, err = node.Execute(ctx, act)

	var initErr *audio.StreamInitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, "start", initErr.Op)
	require.NoError(t, act.Close())
}

func TestCapture_DropsFramesWhileInactive(t *testing.T) {
	var deliver func(audio.Frame)
	stream := &manualStream{}
	opener := audio.OpenerFunc(func(_ audio.Format, onFrame func(audio.Frame)) (audio.Stream, error) {
		deliver = onFrame
		return stream, nil
	})
	node := newCapture(opener, audiotest.NewClock(epoch))
	ctx := testCtx()
	shared := flowgraph.NewShared()

	act, err := node.Prepare(ctx, shared)
	require.NoError(t, err)
	deliver(ramp(0, 8)) // before start
	assert.Equal(t, int64(1), act.queue.Dropped())

	require.NoError(t, act.begin())
	deliver(ramp(8, 8))
	require.NoError(t, act.end())
	deliver(ramp(16, 8)) // after stop

	assert.Equal(t, 1, act.queue.Len())
	assert.Equal(t, int64(2), act.queue.Dropped())
	require.NoError(t, act.Close())
	assert.True(t, stream.closed)
}

type manualStream struct {
	closed bool
}

func (s *manualStream) Start() error { return nil }
func (s *manualStream) Stop() error  { return nil }
func (s *manualStream) Close() error { s.closed = true; return nil }
