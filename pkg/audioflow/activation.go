package audioflow

import (
	"sync/atomic"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph/observability"
)

// Option configures the audio nodes.
type Option func(*nodeOptions)

type nodeOptions struct {
	clock      audio.Clock
	classifier audio.Classifier
	metrics    observability.AudioMetrics
}

func buildOptions(opts []Option) nodeOptions {
	o := nodeOptions{
		clock:   audio.SystemClock{},
		metrics: observability.NoopAudioMetrics{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock used for windows and polling.
func WithClock(c audio.Clock) Option {
	return func(o *nodeOptions) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithClassifier replaces the energy detector used by WakeWordNode.
func WithClassifier(c audio.Classifier) Option {
	return func(o *nodeOptions) {
		o.classifier = c
	}
}

// WithAudioMetrics records frame, detection and capture metrics on m.
func WithAudioMetrics(m observability.AudioMetrics) Option {
	return func(o *nodeOptions) {
		if m != nil {
			o.metrics = m
		}
	}
}

// activation is the state of one node activation: a fresh queue and the
// stream feeding it. Frames reach the queue only while active is set.
type activation struct {
	queue  *audio.FrameQueue
	handle *audio.StreamHandle
	active atomic.Bool
}

func openActivation(opener audio.Opener, format audio.Format) (*activation, error) {
	a := &activation{queue: audio.NewFrameQueue()}
	h, err := audio.OpenHandle(opener, format, a.onFrame)
	if err != nil {
		return nil, err
	}
	a.handle = h
	return a, nil
}

// onFrame runs on the device thread and must not block.
func (a *activation) onFrame(f audio.Frame) {
	if !a.active.Load() {
		a.queue.Drop()
		return
	}
	a.queue.Push(f)
}

func (a *activation) begin() error {
	a.active.Store(true)
	if err := a.handle.Start(); err != nil {
		a.active.Store(false)
		return err
	}
	return nil
}

func (a *activation) end() error {
	a.active.Store(false)
	return a.handle.Stop()
}

// Close releases the stream. The engine calls it after Finalize.
func (a *activation) Close() error {
	if a == nil {
		return nil
	}
	a.active.Store(false)
	a.queue.Close()
	return a.handle.Close()
}
