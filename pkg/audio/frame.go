package audio

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// SampleFormat names the sample encoding requested from the device.
type SampleFormat string

// Supported sample formats.
const (
	Float32 SampleFormat = "float32"
	Int16   SampleFormat = "int16"
)

// Stream defaults.
const (
	DefaultSampleRate = 16000
	DefaultChannels   = 1
	DefaultBlockSize  = 1024
)

// Format describes the stream a node asks for.
type Format struct {
	SampleRate   int
	Channels     int
	SampleFormat SampleFormat
	// BlockSize is the number of samples per channel in each frame.
	BlockSize int
}

// DefaultFormat returns 16 kHz mono float32 in blocks of 1024.
func DefaultFormat() Format {
	return Format{
		SampleRate:   DefaultSampleRate,
		Channels:     DefaultChannels,
		SampleFormat: Float32,
		BlockSize:    DefaultBlockSize,
	}
}

// Validate reports every invalid field.
func (f Format) Validate() error {
	var errs []error
	if f.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %d", f.SampleRate))
	}
	if f.Channels <= 0 {
		errs = append(errs, fmt.Errorf("channels must be positive, got %d", f.Channels))
	}
	if f.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("block size must be positive, got %d", f.BlockSize))
	}
	if f.SampleFormat != Float32 && f.SampleFormat != Int16 {
		errs = append(errs, fmt.Errorf("unsupported sample format %q", f.SampleFormat))
	}
	return errors.Join(errs...)
}

// FrameDuration is the wall time covered by one block.
func (f Format) FrameDuration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(f.BlockSize) * time.Second / time.Duration(f.SampleRate)
}

// Frame is one block of interleaved samples in [-1, 1].
// A frame delivered by a stream is owned by whoever receives it.
type Frame struct {
	Samples  []float32
	Channels int
}

// NewFrame copies samples into a new Frame.
func NewFrame(samples []float32, channels int) Frame {
	out := make([]float32, len(samples))
	copy(out, samples)
	return Frame{Samples: out, Channels: channels}
}

// FrameFromInt16 converts 16-bit PCM to a float frame.
func FrameFromInt16(samples []int16, channels int) Frame {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return Frame{Samples: out, Channels: channels}
}

// Len returns the number of samples per channel.
func (f Frame) Len() int {
	if f.Channels <= 1 {
		return len(f.Samples)
	}
	return len(f.Samples) / f.Channels
}

// Buffer is a concatenation of frames. It is immutable once built.
type Buffer struct {
	samples  []float32
	channels int
	frames   int
}

// Concat joins frames in order. Channels are taken from the first frame.
func Concat(frames []Frame) *Buffer {
	n := 0
	for _, f := range frames {
		n += len(f.Samples)
	}
	b := &Buffer{samples: make([]float32, 0, n), frames: len(frames)}
	for _, f := range frames {
		b.samples = append(b.samples, f.Samples...)
	}
	if len(frames) > 0 {
		b.channels = frames[0].Channels
	}
	return b
}

// Samples returns a copy of the interleaved samples.
func (b *Buffer) Samples() []float32 {
	out := make([]float32, len(b.samples))
	copy(out, b.samples)
	return out
}

// Int16 returns the samples as 16-bit PCM, clipping out-of-range values.
func (b *Buffer) Int16() []int16 {
	out := make([]int16, len(b.samples))
	for i, s := range b.samples {
		v := math.Round(float64(s) * 32767)
		out[i] = int16(max(-32768, min(32767, v)))
	}
	return out
}

// Len returns the total number of samples across all channels.
func (b *Buffer) Len() int { return len(b.samples) }

// Channels returns the channel count.
func (b *Buffer) Channels() int { return b.channels }

// Frames returns how many frames were joined.
func (b *Buffer) Frames() int { return b.frames }

// Duration is the audio length at sampleRate.
func (b *Buffer) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 || b.channels <= 0 {
		return 0
	}
	perChannel := len(b.samples) / b.channels
	return time.Duration(perChannel) * time.Second / time.Duration(sampleRate)
}
