// Package portaudio opens microphone streams through PortAudio.
//
// PortAudio runs stream callbacks on its own thread. Every callback copies
// the device buffer before handing it on, because PortAudio reuses it for
// the next block.
package portaudio

import (
	"errors"
	"fmt"
	"sync"

	pa "github.com/gordonklaus/portaudio"

	"github.com/randalmurphal/wakeflow/pkg/audio"
)

// ErrTerminated is returned by Open after the host was closed.
var ErrTerminated = errors.New("portaudio host terminated")

// Host owns the PortAudio library lifetime and implements audio.Opener
// for the default input device.
type Host struct {
	mu     sync.Mutex
	closed bool
}

// Initialize loads PortAudio. Close must be called to release it.
func Initialize() (*Host, error) {
	if err := pa.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	return &Host{}, nil
}

// DefaultInput describes the default input device.
func (h *Host) DefaultInput() (name string, maxChannels int, err error) {
	dev, err := pa.DefaultInputDevice()
	if err != nil {
		return "", 0, fmt.Errorf("default input device: %w", err)
	}
	return dev.Name, dev.MaxInputChannels, nil
}

// Open implements audio.Opener.
func (h *Host) Open(format audio.Format, onFrame func(audio.Frame)) (audio.Stream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrTerminated
	}

	channels := format.Channels
	var callback any
	switch format.SampleFormat {
	case audio.Int16:
		callback = func(in []int16) {
			onFrame(audio.FrameFromInt16(in, channels))
		}
	case audio.Float32, "":
		callback = func(in []float32) {
			onFrame(audio.NewFrame(in, channels))
		}
	default:
		return nil, fmt.Errorf("unsupported sample format %q", format.SampleFormat)
	}

	s, err := pa.OpenDefaultStream(channels, 0, float64(format.SampleRate), format.BlockSize, callback)
	if err != nil {
		return nil, fmt.Errorf("open default input stream: %w", err)
	}
	return s, nil
}

// Close terminates PortAudio. It is safe to call more than once.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	if err := pa.Terminate(); err != nil {
		return fmt.Errorf("terminate portaudio: %w", err)
	}
	return nil
}

var _ audio.Opener = (*Host)(nil)
