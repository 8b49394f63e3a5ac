package audioflow

import (
	"time"

	"github.com/randalmurphal/wakeflow/pkg/audio"
	"github.com/randalmurphal/wakeflow/pkg/flowgraph"
)

// AudioData is the capture result exposed under "audio_data".
type AudioData struct {
	SampleRate   int
	Channels     int
	SampleFormat audio.SampleFormat
	// Chunks are the frames of the last successful capture, in order.
	Chunks []audio.Frame
	// CapturedAt is when the last capture window opened.
	CapturedAt time.Time
	// Raw is the concatenation of Chunks. Nil until a capture succeeds.
	Raw *audio.Buffer
}

// WakeWordState is the detection state exposed under "wake_word".
// Detected only ever goes from false to true within a run.
type WakeWordState struct {
	Phrase     string
	Detected   bool
	DetectedAt time.Time
}

// Shared keys written by the audio nodes.
var (
	AudioDataKey = flowgraph.NewKey[*AudioData]("audio_data")
	WakeWordKey  = flowgraph.NewKey[*WakeWordState]("wake_word")
)
