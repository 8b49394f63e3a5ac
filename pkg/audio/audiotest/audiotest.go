// Package audiotest provides a scripted audio.Opener and a virtual clock so
// audio nodes can be driven without hardware.
package audiotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/wakeflow/pkg/audio"
)

// ErrNoScript is returned by Open once every script has been used.
var ErrNoScript = errors.New("audiotest: no script left for open")

// Script describes what one opened stream does.
type Script struct {
	// Frames are delivered in order once the stream starts.
	Frames []audio.Frame
	// OpenErr fails the Open call itself.
	OpenErr error
	// StartErr fails Start.
	StartErr error
	// CloseErr is returned from Close after the stream is released.
	CloseErr error
}

// Opener hands out one Script per Open call, in order.
//
// By default a stream delivers all of its frames synchronously inside
// Start, which makes runs deterministic. Set Async to deliver them from a
// separate goroutine instead, the way a device callback thread does.
type Opener struct {
	// Async delivers frames from a goroutine, pausing Interval between them.
	Async    bool
	Interval time.Duration
	// Repeat reuses the last script once the others are used up.
	Repeat bool

	mu      sync.Mutex
	scripts []Script
	next    int
	calls   int
	streams []*Stream
	events  []string
	open    int
	maxOpen int
}

// NewOpener returns an Opener that plays scripts in order.
func NewOpener(scripts ...Script) *Opener {
	return &Opener{scripts: scripts}
}

// Open implements audio.Opener.
func (o *Opener) Open(format audio.Format, onFrame func(audio.Frame)) (audio.Stream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++

	var sc Script
	switch {
	case o.next < len(o.scripts):
		sc = o.scripts[o.next]
	case o.Repeat && len(o.scripts) > 0:
		sc = o.scripts[len(o.scripts)-1]
	default:
		return nil, ErrNoScript
	}
	o.next++
	id := o.next

	if sc.OpenErr != nil {
		o.events = append(o.events, fmt.Sprintf("open-failed#%d", id))
		return nil, sc.OpenErr
	}

	s := &Stream{
		id:      id,
		opener:  o,
		script:  sc,
		format:  format,
		onFrame: onFrame,
	}
	o.streams = append(o.streams, s)
	o.events = append(o.events, fmt.Sprintf("open#%d", id))
	o.open++
	o.maxOpen = max(o.maxOpen, o.open)
	return s, nil
}

func (o *Opener) event(name string, id int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, fmt.Sprintf("%s#%d", name, id))
	if name == "close" {
		o.open--
	}
}

// Events returns the lifecycle calls seen so far, such as "open#1",
// "start#1", "stop#1", "close#1".
func (o *Opener) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.events))
	copy(out, o.events)
	return out
}

// Streams returns every stream opened successfully.
func (o *Opener) Streams() []*Stream {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*Stream, len(o.streams))
	copy(out, o.streams)
	return out
}

// Opens returns how many times Open was called, including calls that
// failed because no script was left.
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// OpenNow returns how many streams are open and not yet closed.
func (o *Opener) OpenNow() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.open
}

// MaxOpen returns the largest number of streams open at the same time.
func (o *Opener) MaxOpen() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.maxOpen
}

// Stream is a scripted audio.Stream.
type Stream struct {
	id      int
	opener  *Opener
	script  Script
	format  audio.Format
	onFrame func(audio.Frame)

	mu        sync.Mutex
	running   bool
	delivered bool
	closed    bool
	starts    int
	stops     int
	closes    int
	stop      chan struct{}
	wg        sync.WaitGroup
}

// Format returns the format the stream was opened with.
func (s *Stream) Format() audio.Format { return s.format }

// Start implements audio.Stream.
func (s *Stream) Start() error {
	s.mu.Lock()
	if s.script.StartErr != nil {
		s.mu.Unlock()
		return s.script.StartErr
	}
	if s.closed {
		s.mu.Unlock()
		return errors.New("audiotest: start on closed stream")
	}
	s.starts++
	s.running = true
	deliver := !s.delivered
	s.delivered = true
	s.mu.Unlock()

	s.opener.event("start", s.id)
	if !deliver {
		return nil
	}

	if !s.opener.Async {
		for _, f := range s.script.Frames {
			s.onFrame(f)
		}
		return nil
	}

	s.mu.Lock()
	s.stop = make(chan struct{})
	stop := s.stop
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for _, f := range s.script.Frames {
			select {
			case <-stop:
				return
			default:
			}
			s.onFrame(f)
			if s.opener.Interval > 0 {
				select {
				case <-stop:
					return
				case <-time.After(s.opener.Interval):
				}
			}
		}
	}()
	return nil
}

// Stop implements audio.Stream. It returns once no callback is running.
func (s *Stream) Stop() error {
	s.mu.Lock()
	s.stops++
	s.running = false
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.opener.event("stop", s.id)
	return nil
}

// Close implements audio.Stream.
func (s *Stream) Close() error {
	s.mu.Lock()
	s.closes++
	wasClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	if !wasClosed {
		s.opener.event("close", s.id)
	}
	return s.script.CloseErr
}

// Counts returns how many times Start, Stop and Close were called.
func (s *Stream) Counts() (starts, stops, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts, s.stops, s.closes
}

// Running reports whether the stream is between Start and Stop.
func (s *Stream) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Tone returns n mono samples at constant amplitude, whose energy is amp².
func Tone(amp float32, n int) audio.Frame {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = amp
	}
	return audio.Frame{Samples: samples, Channels: 1}
}

// Silence returns n zero samples.
func Silence(n int) audio.Frame {
	return Tone(0, n)
}

// Repeat returns count copies of f.
func Repeat(f audio.Frame, count int) []audio.Frame {
	out := make([]audio.Frame, count)
	for i := range out {
		out[i] = audio.NewFrame(f.Samples, f.Channels)
	}
	return out
}

// Clock is a virtual audio.Clock. Sleep advances it instantly.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
	// OnSleep, if set, runs after each Sleep with the new time.
	OnSleep func(now time.Time)
}

// NewClock returns a Clock starting at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now implements audio.Clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep implements audio.Clock.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps++
	now := c.now
	hook := c.OnSleep
	c.mu.Unlock()

	if hook != nil {
		hook(now)
	}
	return nil
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Sleeps returns how many times Sleep was called.
func (c *Clock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}
