package audio

import (
	"errors"
	"fmt"
	"sync"
)

// Stream is an open device input stream delivering frames to the callback
// given at open time. The callback runs on the device's own thread.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Opener opens input streams. Implementations must copy device buffers
// before handing them to onFrame.
type Opener interface {
	Open(format Format, onFrame func(Frame)) (Stream, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(format Format, onFrame func(Frame)) (Stream, error)

// Open implements Opener.
func (fn OpenerFunc) Open(format Format, onFrame func(Frame)) (Stream, error) {
	return fn(format, onFrame)
}

// StreamInitError reports a device that could not be opened or started.
// It is never retried.
type StreamInitError struct {
	Format Format
	Op     string
	Err    error
}

// Error implements the error interface.
func (e *StreamInitError) Error() string {
	return fmt.Sprintf("audio stream %s (%d Hz, %d ch, %s): %v",
		e.Op, e.Format.SampleRate, e.Format.Channels, e.Format.SampleFormat, e.Err)
}

// Unwrap returns the device error.
func (e *StreamInitError) Unwrap() error {
	return e.Err
}

// StreamHandle owns one Stream for one node activation.
//
// Start and Stop are idempotent. Stop halts delivery but keeps the device
// open. Close stops if needed and releases the device exactly once, so it
// is safe to defer and to call again.
type StreamHandle struct {
	mu      sync.Mutex
	stream  Stream
	format  Format
	started bool
	closed  bool

	closeOnce sync.Once
	closeErr  error
}

// OpenHandle opens a stream through opener and wraps it in a handle.
// Failures are returned as *StreamInitError.
func OpenHandle(opener Opener, format Format, onFrame func(Frame)) (*StreamHandle, error) {
	if err := format.Validate(); err != nil {
		return nil, &StreamInitError{Format: format, Op: "open", Err: err}
	}
	s, err := opener.Open(format, onFrame)
	if err != nil {
		return nil, &StreamInitError{Format: format, Op: "open", Err: err}
	}
	return &StreamHandle{stream: s, format: format}, nil
}

// Start begins frame delivery. Starting a closed handle fails.
func (h *StreamHandle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return &StreamInitError{Format: h.format, Op: "start", Err: ErrHandleClosed}
	}
	if h.started {
		return nil
	}
	if err := h.stream.Start(); err != nil {
		return &StreamInitError{Format: h.format, Op: "start", Err: err}
	}
	h.started = true
	return nil
}

// Stop halts frame delivery.
func (h *StreamHandle) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stopLocked()
}

func (h *StreamHandle) stopLocked() error {
	if !h.started || h.closed {
		return nil
	}
	h.started = false
	if err := h.stream.Stop(); err != nil {
		return fmt.Errorf("stop audio stream: %w", err)
	}
	return nil
}

// Started reports whether frames are being delivered.
func (h *StreamHandle) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// Close stops the stream if running and closes it. Only the first call
// reaches the device; later calls return the first result.
func (h *StreamHandle) Close() error {
	if h == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		stopErr := h.stopLocked()
		h.closed = true
		if err := h.stream.Close(); err != nil {
			h.closeErr = errors.Join(stopErr, fmt.Errorf("close audio stream: %w", err))
			return
		}
		h.closeErr = stopErr
	})
	return h.closeErr
}

// ErrHandleClosed is returned when starting a handle after Close.
var ErrHandleClosed = errors.New("stream handle closed")
